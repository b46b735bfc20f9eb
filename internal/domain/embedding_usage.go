package domain

import "context"

type usageKey struct{}

// EmbeddingUsage is the per-interaction token tally reported by the embedding provider.
// Transports attach it to the request context; the search service fills it in.
type EmbeddingUsage struct {
	PromptTokens int
	TotalTokens  int
	Used         bool // set once an embedding call succeeded, even if the provider reported 0 tokens
}

// NewContextWithUsage returns a context carrying an empty usage tally.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext returns the tally attached to ctx, or nil.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(usageKey{}).(*EmbeddingUsage)
	return u
}

// Record adds the usage of one successful embedding call. Safe on a nil receiver.
func (u *EmbeddingUsage) Record(r *EmbeddingResult) {
	if u == nil || r == nil {
		return
	}
	u.PromptTokens += r.PromptTokens
	u.TotalTokens += r.TotalTokens
	u.Used = true
}
