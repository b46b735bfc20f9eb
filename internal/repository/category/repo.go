package category

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/catsearch/internal/db"
	"github.com/kailas-cloud/catsearch/internal/domain/search/result"
	"github.com/kailas-cloud/catsearch/internal/metrics"
)

// Argument names of the match procedure.
const (
	ArgQueryEmbedding = "query_embedding"
	ArgMatchThreshold = "match_threshold"
	ArgMatchCount     = "match_count"
)

// DefaultProcedure is the similarity search procedure over the category reference table.
const DefaultProcedure = "match_categories"

// store is the consumer interface for procedure calls (ISP).
type store interface {
	CallProcedure(ctx context.Context, call *db.ProcedureCall) ([]db.Row, error)
	Driver() string
}

// Repo implements usecase/search.Matcher over the remote match procedure.
type Repo struct {
	store     store
	procedure string
}

// New creates a category repository. An empty procedure name selects DefaultProcedure.
func New(s store, procedure string) *Repo {
	if procedure == "" {
		procedure = DefaultProcedure
	}
	return &Repo{store: s, procedure: procedure}
}

// Match calls the procedure with the query vector and the two numeric parameters
// unchanged. Rows keep the order the procedure returned them in.
func (r *Repo) Match(
	ctx context.Context, vector []float32, threshold float64, limit int,
) (result.Set, error) {
	call := &db.ProcedureCall{
		Name: r.procedure,
		Args: []db.Arg{
			{Name: ArgQueryEmbedding, Value: vector},
			{Name: ArgMatchThreshold, Value: threshold},
			{Name: ArgMatchCount, Value: limit},
		},
	}

	driver := r.store.Driver()
	start := time.Now()

	rows, err := r.store.CallProcedure(ctx, call)

	metrics.MatchRequestDuration.WithLabelValues(driver, r.procedure).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MatchRequestsTotal.WithLabelValues(driver, r.procedure, "error").Inc()
		return nil, fmt.Errorf("call %s: %w", r.procedure, err)
	}
	metrics.MatchRequestsTotal.WithLabelValues(driver, r.procedure, "success").Inc()
	metrics.MatchResultRows.WithLabelValues(driver, r.procedure).Observe(float64(len(rows)))

	set := make(result.Set, len(rows))
	for i, row := range rows {
		set[i] = result.New(row)
	}
	return set, nil
}
