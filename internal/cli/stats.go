package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print chunk store statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	stats := eng.Statistics()
	fmt.Printf("chunks:     %d (%d compressed, rate %.2f)\n",
		stats.TotalChunks, stats.CompressedChunks, stats.CompressionRate)
	fmt.Printf("summaries:  %d\n", stats.TotalSummaries)

	if len(stats.ByType) > 0 {
		fmt.Println("by type:")
		for typ, n := range stats.ByType {
			fmt.Printf("  %-15s %d\n", typ, n)
		}
	}
	if len(stats.ByPriority) > 0 {
		fmt.Println("by priority:")
		for pri, n := range stats.ByPriority {
			fmt.Printf("  %-15s %d\n", pri, n)
		}
	}
	return nil
}
