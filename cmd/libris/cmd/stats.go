package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsProm bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report catalog diagnostics",
	Long: `Stats reports the total number of books registered, total stock
on hand, and the 2-3 tree's height. Pass --prom to dump the operation
counters as Prometheus text exposition format instead.

Example:
  libris stats
  libris stats --prom`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, ok := storeFromContext(cmd)
		if !ok {
			return fmt.Errorf("store not found in context")
		}

		if statsProm {
			return s.Metrics().WriteText(cmd.OutOrStdout())
		}

		stats, err := s.Stats()
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}

		fmt.Printf("total books:  %d\n", stats.TotalBooks)
		fmt.Printf("total stock:  %d\n", stats.TotalStock)
		fmt.Printf("tree height:  %d\n", stats.TreeHeight)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsProm, "prom", false, "dump operation counters as Prometheus text exposition format")
}
