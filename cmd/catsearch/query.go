package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/catsearch/internal/config"
	"github.com/kailas-cloud/catsearch/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/catsearch/internal/logger"
	"github.com/kailas-cloud/catsearch/internal/render"
	searchuc "github.com/kailas-cloud/catsearch/internal/usecase/search"
)

type queryOptions struct {
	threshold float64
	limit     int
	expand    bool
	json      bool
	logLevel  string
}

func newQueryCmd() *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query [text...]",
		Short: "Run one search and print the matching categories",
		Long: `Run one search and print the matching categories.

Without text the default query "` + request.DefaultQuery + `" is used.

Examples:
  catsearch query "concrete or external groundwork"
  catsearch query roof repairs --threshold 0.35 --limit 5 --expand
  catsearch query drainage --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}
	cmd.Flags().Float64VarP(&opts.threshold, "threshold", "t", request.DefaultThreshold,
		"Minimum similarity score (0.0-1.0)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", request.DefaultLimit, "Maximum number of results (1-50)")
	cmd.Flags().BoolVarP(&opts.expand, "expand", "e", false, "Print the full row of every result")
	cmd.Flags().BoolVarP(&opts.json, "json", "j", false, "Output results in JSON format")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level written to stderr (default warn)")
	return cmd
}

// queryText joins positional arguments; none selects the default query.
func queryText(args []string) string {
	if len(args) == 0 {
		return request.DefaultQuery
	}
	return strings.Join(args, " ")
}

func runQuery(ctx context.Context, out io.Writer, args []string, opts *queryOptions) error {
	cfg, creds, err := loadSettings(config.GetEnv())
	if err != nil {
		return err
	}

	logger, err := logpkg.NewCLILogger(opts.logLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(cfg, creds, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logpkg.WithFields(logpkg.ContextWithLogger(ctx, logger), zap.String("command", "query"))

	req := request.New(queryText(args), opts.threshold, opts.limit)
	return searchAndPrint(ctx, a.search, &req, out, opts)
}

// searchAndPrint runs one orchestration pass and writes the rendered view.
func searchAndPrint(
	ctx context.Context, svc *searchuc.Service, req *request.Request, out io.Writer, opts *queryOptions,
) error {
	set, err := svc.Search(ctx, req)
	if err != nil {
		return err
	}

	view := render.Build(set)
	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view.Payload())
	}
	return render.WriteText(out, view, opts.expand)
}
