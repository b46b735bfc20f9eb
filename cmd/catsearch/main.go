// Command catsearch searches residential asset categories by semantic similarity.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "catsearch",
		Short: "Semantic search over residential asset categories",
		Long: `catsearch embeds a free-text query with mistral-embed and asks the
match_categories database function for the closest categories.

Credentials are read from the environment (or a .env file):
  MISTRAL_API_KEY, SUPABASE_CLIENT_URL, SUPABASE_SECRET_SERVICE_ROLE_KEY
  SUPABASE_DB_DSN (only with database.driver: postgres)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newQueryCmd(), newVersionCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
