package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vramos/libris/pkg/layout"
)

var addCmd = &cobra.Command{
	Use:   "add <code> <title> <author> <publisher> <edition> <year> <price> <stock>",
	Short: "Add a book to the catalog",
	Long: `Add registers a new book under its code.

Example:
  libris add 100 Dune "Frank Herbert" "Ace Books" 1 1965 5.95 3`,
	Args: cobra.ExactArgs(8),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, ok := storeFromContext(cmd)
		if !ok {
			return fmt.Errorf("store not found in context")
		}

		code, err := strconv.ParseInt(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("code: %w", err)
		}
		edition, err := strconv.ParseInt(args[4], 10, 32)
		if err != nil {
			return fmt.Errorf("edition: %w", err)
		}
		year, err := strconv.ParseInt(args[5], 10, 32)
		if err != nil {
			return fmt.Errorf("year: %w", err)
		}
		price, err := strconv.ParseFloat(args[6], 64)
		if err != nil {
			return fmt.Errorf("price: %w", err)
		}
		stock, err := strconv.ParseInt(args[7], 10, 32)
		if err != nil {
			return fmt.Errorf("stock: %w", err)
		}

		b := &layout.Book{
			Code:          int32(code),
			Title:         args[1],
			Author:        args[2],
			Publisher:     args[3],
			Edition:       int32(edition),
			Year:          int32(year),
			Price:         price,
			StockQuantity: int32(stock),
		}

		if err := s.Add(b); err != nil {
			return fmt.Errorf("add book %d: %w", b.Code, err)
		}

		logOp(opIDFromContext(cmd), "added book %d (%s)", b.Code, b.Title)
		fmt.Printf("added book %d: %s by %s\n", b.Code, b.Title, b.Author)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
