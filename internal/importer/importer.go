// Package importer parses uploaded CSV content into transactions.
//
// Rows are processed independently: a malformed row is reported in the
// result and never aborts the batch. Valid rows are committed through the
// store's Add path so they get the same validation as form input.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"tally/internal/core"
	"tally/internal/store"
)

// Row schema: date, amount, category, description (description optional).
var dateFormats = []string{"2006-01-02", "1/2/2006"}

// RowError describes a single failed row. Row is the zero-based index of
// the row within the upload.
type RowError struct {
	Row     int    `json:"row_index"`
	Message string `json:"message"`
}

// Result summarizes an import batch.
type Result struct {
	Imported int        `json:"succeeded_count"`
	Failed   int        `json:"failed_count"`
	Errors   []RowError `json:"errors"`
}

type Importer struct {
	writer store.TransactionWriter
}

func New(w store.TransactionWriter) *Importer {
	return &Importer{writer: w}
}

// Import reads CSV rows and commits the valid ones. A first line whose
// date field does not parse is taken to be a header and skipped without
// counting against the batch. Blank lines are ignored.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row length validated per row
	cr.TrimLeadingSpace = true

	var res Result
	row := -1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, RowError{Row: row, Message: err.Error()})
			continue
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			row-- // blank line, not a row
			continue
		}
		if row == 0 {
			if _, err := parseDate(record[0]); err != nil {
				row-- // header line, not a row
				continue
			}
		}

		tx, err := parseRow(record)
		if err == nil {
			_, err = im.writer.Add(ctx, tx)
		}
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, RowError{Row: row, Message: err.Error()})
			continue
		}
		res.Imported++
	}

	slog.InfoContext(ctx, "CSV import completed",
		"imported", res.Imported,
		"failed", res.Failed)
	return res, nil
}

func parseRow(fields []string) (core.Transaction, error) {
	if len(fields) < 3 {
		return core.Transaction{}, fmt.Errorf("expected at least 3 fields (date, amount, category), got %d", len(fields))
	}

	date, err := parseDate(fields[0])
	if err != nil {
		return core.Transaction{}, err
	}
	cents, err := core.ParseSignedCents(fields[1])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid amount %q", strings.TrimSpace(fields[1]))
	}

	tx := core.Transaction{
		Date:     date,
		Amount:   core.Money{Cents: cents},
		Category: strings.TrimSpace(fields[2]),
	}
	if len(fields) > 3 {
		tx.Description = strings.TrimSpace(strings.Join(fields[3:], ","))
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func parseDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return core.NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return core.Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or M/D/YYYY)", s)
}
