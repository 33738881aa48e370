// Package source loads target records from the input CSV sheet.
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/skylark-tools/letterpipe/internal/record"
)

var requiredColumns = []string{"company", "website", "recipient_email", "process"}

// Load reads record seeds from the CSV at path. Column names are
// matched case-insensitively after trimming; the optional columns
// contact_person and language may be absent. Rows with neither a
// company nor a recipient are dropped with a warning.
func Load(path string) ([]*record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open records file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Read(f)
}

// Read parses record seeds from r. See Load.
func Read(r io.Reader) ([]*record.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	var records []*record.Record
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		rd := &record.Record{
			CompanyName: get("company"),
			Website:     get("website"),
			Recipient:   get("recipient_email"),
			Contact:     get("contact_person"),
			Directive:   get("process"),
			Locale:      get("language"),
		}
		if rd.CompanyName == "" && rd.Recipient == "" {
			slog.Warn("dropping row with no company and no recipient", "line", line)
			continue
		}
		records = append(records, rd)
	}
}
