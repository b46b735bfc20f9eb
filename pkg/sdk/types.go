package catsearch

// Result is one matching category, in the order the match function returned it.
type Result struct {
	// Label is the display line, e.g. "1. Groundworks - Similarity: 0.8700".
	Label      string
	Asset      string
	Similarity float64
	// Fields holds the full row, including columns beyond asset and similarity.
	Fields map[string]any
}
