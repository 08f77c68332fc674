// Package importer reads the bulk text ingest format spec.md §6 defines:
// one record per line, semicolon-delimited
// code;title;author;publisher;edition;year;price;stock, with a decimal
// comma normalized to a dot before parsing price. Grounded on the
// teacher's argument-handling style in cmd/freyja/cmd/put.go, generalized
// from a single CLI argument to a line-oriented file reader.
package importer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vramos/libris/pkg/layout"
)

// Options configures how lines are parsed.
type Options struct {
	// Delimiter separates the fields of a line. Defaults to ";" when empty.
	Delimiter string
	// DecimalComma, when true, rewrites a comma in the price field to a
	// dot before parsing.
	DecimalComma bool
	// StopOnError, when true, aborts the whole import on the first
	// malformed line instead of skipping it.
	StopOnError bool
}

// LineError reports a malformed import line, the line number, and what
// went wrong.
type LineError struct {
	Line   int
	Source string
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("import line %d: %v: %q", e.Line, e.Err, e.Source)
}

func (e *LineError) Unwrap() error { return e.Err }

// Result summarizes an import run.
type Result struct {
	Books   []*layout.Book
	Skipped []*LineError
}

// ReadAll parses every line from r according to opts. Blank lines are
// skipped silently. Malformed lines are either collected in
// Result.Skipped or, if opts.StopOnError is set, returned as the error.
func ReadAll(r io.Reader, opts Options) (*Result, error) {
	delim := opts.Delimiter
	if delim == "" {
		delim = ";"
	}

	res := &Result{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		b, err := parseLine(line, delim, opts.DecimalComma)
		if err != nil {
			lerr := &LineError{Line: lineNo, Source: line, Err: err}
			if opts.StopOnError {
				return res, lerr
			}
			res.Skipped = append(res.Skipped, lerr)
			continue
		}
		res.Books = append(res.Books, b)
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("importer: read: %w", err)
	}
	return res, nil
}

func parseLine(line, delim string, decimalComma bool) (*layout.Book, error) {
	fields := strings.Split(line, delim)
	if len(fields) != 8 {
		return nil, fmt.Errorf("expected 8 fields, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	code, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("code: %w", err)
	}
	edition, err := strconv.ParseInt(fields[4], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("edition: %w", err)
	}
	year, err := strconv.ParseInt(fields[5], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("year: %w", err)
	}

	priceField := fields[6]
	if decimalComma {
		priceField = strings.ReplaceAll(priceField, ",", ".")
	}
	price, err := strconv.ParseFloat(priceField, 64)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}

	stock, err := strconv.ParseInt(fields[7], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("stock_quantity: %w", err)
	}

	return &layout.Book{
		Code:          int32(code),
		Title:         fields[1],
		Author:        fields[2],
		Publisher:     fields[3],
		Edition:       int32(edition),
		Year:          int32(year),
		Price:         price,
		StockQuantity: int32(stock),
	}, nil
}
