package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vramos/libris/pkg/layout"
)

var searchCmd = &cobra.Command{
	Use:   "search <author|title> <substring>",
	Short: "Search books by author or title substring",
	Long: `Search performs a case-insensitive substring match over every
live book's author or title field, scanning the data file linearly.

Example:
  libris search author herbert
  libris search title dune`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, ok := storeFromContext(cmd)
		if !ok {
			return fmt.Errorf("store not found in context")
		}

		field, substr := args[0], args[1]
		var results []*layout.Book
		var err error
		switch field {
		case "author":
			results, err = s.SearchAuthor(substr)
		case "title":
			results, err = s.SearchTitle(substr)
		default:
			return fmt.Errorf("unknown search field %q: expected author or title", field)
		}
		if err != nil {
			return fmt.Errorf("search %s %q: %w", field, substr, err)
		}

		if len(results) == 0 {
			fmt.Println("no matches")
			return nil
		}
		for _, b := range results {
			fmt.Printf("%d: %s by %s\n", b.Code, b.Title, b.Author)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
