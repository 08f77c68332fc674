package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vramos/libris/pkg/importer"
)

var (
	importDelimiter    string
	importDecimalComma bool
	importStopOnError  bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Bulk import books from a delimited text file",
	Long: `Import reads one book record per line in the form
code;title;author;publisher;edition;year;price;stock and adds each to
the catalog, skipping malformed lines unless --stop-on-error is set.

Example:
  libris import catalog.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, ok := storeFromContext(cmd)
		if !ok {
			return fmt.Errorf("store not found in context")
		}

		opts := configFromContext(cmd).Import
		if cmd.Flags().Changed("delimiter") {
			opts.Delimiter = importDelimiter
		}
		if cmd.Flags().Changed("decimal-comma") {
			opts.DecimalComma = importDecimalComma
		}
		if cmd.Flags().Changed("stop-on-error") {
			opts.StopOnError = importStopOnError
		}

		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open import file: %w", err)
		}
		defer file.Close()

		res, err := importer.ReadAll(file, importer.Options(opts))
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}

		opID := opIDFromContext(cmd)
		added := 0
		for _, b := range res.Books {
			if err := s.Add(b); err != nil {
				logOp(opID, "skipped book %d during import: %v", b.Code, err)
				continue
			}
			added++
		}

		logOp(opID, "imported %d of %d parsed books (%d malformed lines skipped)", added, len(res.Books), len(res.Skipped))
		fmt.Printf("imported %d books (%d parse errors, %d add errors)\n", added, len(res.Skipped), len(res.Books)-added)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importDelimiter, "delimiter", "", "field delimiter (overrides config)")
	importCmd.Flags().BoolVar(&importDecimalComma, "decimal-comma", false, "normalize a comma decimal separator in the price field (overrides config)")
	importCmd.Flags().BoolVar(&importStopOnError, "stop-on-error", false, "abort on the first malformed line instead of skipping it (overrides config)")
}
