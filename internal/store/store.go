// Package store persists per-record outcomes to a flat CSV file and
// rebuilds the already-handled key set at batch start.
package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skylark-tools/letterpipe/internal/record"
)

// KeyColumn is the column duplicate suppression keys are read from.
const KeyColumn = "recipient_email"

// TimestampLayout matches the layout the historical files carry.
const TimestampLayout = "2006/01/02 15:04:05"

// Row is the flattened projection of one finished record.
type Row struct {
	SavedAt           string
	Company           string
	Website           string
	Recipient         string
	Contact           string
	Directive         string
	Locale            string
	MainBusiness      string
	CooperationPoints string
	Subject           string
	Body              string
	Status            string
	DraftID           string
}

// Header returns the current column set in stable order.
func Header() []string {
	return []string{
		"saved_at",
		"company",
		"website",
		KeyColumn,
		"contact_person",
		"process_directive",
		"locale",
		"main_business",
		"cooperation_points",
		"letter_subject",
		"letter_body",
		"status",
		"draft_id",
	}
}

func (r Row) fields() map[string]string {
	return map[string]string{
		"saved_at":           r.SavedAt,
		"company":            r.Company,
		"website":            r.Website,
		KeyColumn:            r.Recipient,
		"contact_person":     r.Contact,
		"process_directive":  r.Directive,
		"locale":             r.Locale,
		"main_business":      r.MainBusiness,
		"cooperation_points": r.CooperationPoints,
		"letter_subject":     r.Subject,
		"letter_body":        r.Body,
		"status":             r.Status,
		"draft_id":           r.DraftID,
	}
}

// FromRecord flattens a finished record. SavedAt is stamped by Append
// so every row of a batch shares one timestamp.
func FromRecord(rec *record.Record) Row {
	return Row{
		Company:           rec.CompanyName,
		Website:           rec.Website,
		Recipient:         rec.Recipient,
		Contact:           rec.Contact,
		Directive:         rec.Directive,
		Locale:            rec.Locale,
		MainBusiness:      rec.Outcome.MainBusiness,
		CooperationPoints: rec.Outcome.CooperationPoints,
		Subject:           rec.Outcome.Subject,
		Body:              rec.Outcome.Body,
		Status:            rec.Outcome.Status.String(),
		DraftID:           rec.Outcome.Status.DraftID,
	}
}

// Load rebuilds the set of already-handled dedupe keys from path.
//
// A missing file yields an empty set. A file without the key column,
// or one that cannot be parsed, yields an empty set with degraded set
// to true: the batch runs with duplicate suppression disabled rather
// than failing.
func Load(path string) (keys map[string]struct{}, degraded bool) {
	keys = make(map[string]struct{})

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("results file unreadable, dedupe disabled for this run", "path", path, "error", err)
			return keys, true
		}
		return keys, false
	}
	defer func() {
		_ = f.Close()
	}()

	header, rows, err := readTable(f)
	if err != nil {
		slog.Warn("results file unparseable, dedupe disabled for this run", "path", path, "error", err)
		return keys, true
	}

	keyIdx := -1
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), KeyColumn) {
			keyIdx = i
			break
		}
	}
	if keyIdx < 0 {
		slog.Warn("results file lacks key column, dedupe disabled for this run",
			"path", path, "column", KeyColumn)
		return keys, true
	}

	for _, rec := range rows {
		if keyIdx >= len(rec) {
			continue
		}
		k := record.NormalizeKey(rec[keyIdx])
		if k != "" {
			keys[k] = struct{}{}
		}
	}
	return keys, false
}

// Append stamps rows with one shared batch timestamp and writes them
// to path, unioned with any historical rows. The written column set is
// the historical columns followed by any new ones; historical rows are
// padded on the right. An unparseable historical file is renamed aside
// and treated as absent so current-run data is never lost.
func Append(rows []Row, path string, now time.Time) error {
	if len(rows) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}

	stamp := now.Format(TimestampLayout)
	for i := range rows {
		rows[i].SavedAt = stamp
	}

	header, existing := loadHistorical(path, now)
	columns := unionColumns(header, Header())

	out := make([][]string, 0, len(existing)+len(rows)+1)
	out = append(out, columns)
	for _, rec := range existing {
		out = append(out, padRow(rec, len(columns)))
	}
	for _, r := range rows {
		fields := r.fields()
		line := make([]string, len(columns))
		for i, col := range columns {
			line[i] = fields[col]
		}
		out = append(out, line)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	cw := csv.NewWriter(f)
	if err := cw.WriteAll(out); err != nil {
		_ = f.Close()
		return fmt.Errorf("write results: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close results file: %w", err)
	}

	slog.Info("results saved", "path", path, "added", len(rows), "total", len(out)-1)
	return nil
}

func loadHistorical(path string, now time.Time) ([]string, [][]string) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil
	}
	header, rows, rerr := readTable(f)
	_ = f.Close()
	if rerr == nil {
		return header, rows
	}

	backup := fmt.Sprintf("%s.backup_%s", path, now.Format("20060102150405"))
	if err := os.Rename(path, backup); err != nil {
		slog.Error("could not back up corrupt results file", "path", path, "error", err)
	} else {
		slog.Warn("corrupt results file backed up, starting fresh", "path", path, "backup", backup)
	}
	return nil, nil
}

func readTable(r io.Reader) (header []string, rows [][]string, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err = cr.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return header, rows, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, rec)
	}
}

// unionColumns keeps the historical order and appends current columns
// the historical file does not have yet.
func unionColumns(historical, current []string) []string {
	if len(historical) == 0 {
		return current
	}
	seen := make(map[string]struct{}, len(historical))
	out := make([]string, 0, len(historical)+len(current))
	for _, col := range historical {
		col = strings.TrimSpace(col)
		seen[col] = struct{}{}
		out = append(out, col)
	}
	for _, col := range current {
		if _, ok := seen[col]; !ok {
			out = append(out, col)
		}
	}
	return out
}

func padRow(rec []string, width int) []string {
	if len(rec) >= width {
		return rec[:width]
	}
	padded := make([]string, width)
	copy(padded, rec)
	return padded
}
