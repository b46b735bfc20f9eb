// Package render turns a match result set into display entries for the
// web page, the JSON API and the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kailas-cloud/catsearch/internal/domain/search/result"
)

// EmptyMessage is shown instead of entries when nothing matched.
const EmptyMessage = "No matching results found. Try adjusting the match threshold."

// Entry is one expandable result line.
type Entry struct {
	Index      int            `json:"index"`
	Label      string         `json:"label"`
	Asset      string         `json:"asset"`
	Similarity float64        `json:"similarity"`
	Row        map[string]any `json:"row"`
	// Details is the row as indented JSON, shown when the entry is expanded.
	Details string `json:"-"`
}

// View is the rendered form of a result set.
type View struct {
	Entries []Entry
	Empty   bool
	Message string
}

// Payload is the JSON shape of a view.
type Payload struct {
	Items   []Entry `json:"items"`
	Total   int     `json:"total"`
	Empty   bool    `json:"empty"`
	Message string  `json:"message,omitempty"`
}

// Payload converts the view for JSON output.
func (v *View) Payload() Payload {
	items := v.Entries
	if items == nil {
		items = []Entry{}
	}
	return Payload{Items: items, Total: len(items), Empty: v.Empty, Message: v.Message}
}

// Label formats the collapsed title of a result.
func Label(n int, asset string, similarity float64) string {
	return fmt.Sprintf("%d. %s - Similarity: %.4f", n, asset, similarity)
}

// Build produces one entry per row, in input order, numbered from 1.
// An empty set yields a view carrying only EmptyMessage.
func Build(set result.Set) View {
	if len(set) == 0 {
		return View{Entries: []Entry{}, Empty: true, Message: EmptyMessage}
	}

	entries := make([]Entry, len(set))
	for i := range set {
		row := &set[i]
		asset := row.Asset()
		sim := row.Similarity()
		entries[i] = Entry{
			Index:      i + 1,
			Label:      Label(i+1, asset, sim),
			Asset:      asset,
			Similarity: sim,
			Row:        row.Fields(),
			Details:    details(row.Fields()),
		}
	}
	return View{Entries: entries}
}

// details marshals the row with sorted keys. Values that cannot be
// marshaled fall back to Go formatting.
func details(fields map[string]any) string {
	b, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", fields)
	}
	return string(b)
}

// WriteText prints the view for a terminal. Details are printed only when expand is set.
func WriteText(w io.Writer, v View, expand bool) error {
	if v.Empty {
		_, err := fmt.Fprintln(w, v.Message)
		return err
	}
	for _, e := range v.Entries {
		if _, err := fmt.Fprintln(w, e.Label); err != nil {
			return err
		}
		if !expand {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\n\n", indent(e.Details, "    ")); err != nil {
			return err
		}
	}
	return nil
}

func indent(s, prefix string) string {
	out := make([]byte, 0, len(s)+len(prefix)*8)
	out = append(out, prefix...)
	for i := 0; i < len(s); i++ {
		out = append(out, s[i])
		if s[i] == '\n' && i < len(s)-1 {
			out = append(out, prefix...)
		}
	}
	return string(out)
}
