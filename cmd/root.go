package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stratastor/rodent/cmd/explain"
	"github.com/stratastor/rodent/cmd/sanitize"
	"github.com/stratastor/rodent/cmd/version"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rodent-sanitize",
		Short: "rodent-sanitize: certified storage sanitization for StrataSTOR nodes",
	}

	rootCmd.AddCommand(sanitize.NewSanitizeCmd())
	rootCmd.AddCommand(explain.NewExplainCmd())
	rootCmd.AddCommand(version.NewVersionCmd())

	return rootCmd
}
