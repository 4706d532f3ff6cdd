package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "keeper",
	Short: "Context memory with anti-rot curation for AI agents",
	Long:  "Keeper stores conversational context, ranks it for retrieval, and keeps growth bounded by compressing or evicting stale content and archiving old conversation turns into summaries.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(statsCmd)
}
