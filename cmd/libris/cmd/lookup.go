package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <code>",
	Short: "Look up a book by code",
	Long: `Lookup retrieves a single book record by its code.

Example:
  libris lookup 100`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, ok := storeFromContext(cmd)
		if !ok {
			return fmt.Errorf("store not found in context")
		}

		code, err := strconv.ParseInt(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("code: %w", err)
		}

		b, err := s.Lookup(int32(code))
		if err != nil {
			return fmt.Errorf("lookup book %d: %w", code, err)
		}

		fmt.Printf("%d: %s by %s (%s, ed. %d, %d) $%.2f, stock %d\n",
			b.Code, b.Title, b.Author, b.Publisher, b.Edition, b.Year, b.Price, b.StockQuantity)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
