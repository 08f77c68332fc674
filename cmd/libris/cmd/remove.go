package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <code>",
	Short: "Remove a book from the catalog",
	Long: `Remove deletes the book with the given code.

Example:
  libris remove 100`,
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

		if err := s.Remove(int32(code)); err != nil {
			return fmt.Errorf("remove book %d: %w", code, err)
		}

		logOp(opIDFromContext(cmd), "removed book %d", code)
		fmt.Printf("removed book %d\n", code)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
