package result

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Well-known fields guaranteed by the match procedure contract.
const (
	FieldAsset      = "asset"
	FieldSimilarity = "similarity"
	// UnknownAsset labels rows that carry no asset value.
	UnknownAsset = "Unknown"
)

// Row is one row returned by the match procedure. The field set is open:
// only asset and similarity are known, everything else is carried as-is.
type Row struct {
	fields map[string]any
}

// Set is the ordered sequence of rows as returned by the remote procedure.
type Set []Row

// New wraps raw row fields. A nil map is treated as an empty row.
func New(fields map[string]any) Row {
	if fields == nil {
		fields = map[string]any{}
	}
	return Row{fields: fields}
}

// Fields returns the full row contents.
func (r *Row) Fields() map[string]any { return r.fields }

// Asset returns the identifying field, or UnknownAsset when it is absent or null.
func (r *Row) Asset() string {
	v, ok := r.fields[FieldAsset]
	if !ok || v == nil {
		return UnknownAsset
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Similarity returns the similarity score, or 0 when it is absent or not numeric.
func (r *Row) Similarity() float64 {
	f, _ := toFloat(r.fields[FieldSimilarity])
	return f
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
