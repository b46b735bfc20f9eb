package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/catsearch/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "catsearch", version.String())
			return err
		},
	}
}
