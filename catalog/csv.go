package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/medrank/core"
)

var (
	idColumns  = []string{"drug_name", "item_id", "name"}
	tagColumns = []string{"symptoms", "tags"}
)

// ReadCSV parses a catalog from CSV.
//
// The first row is a header. The item column is the first of drug_name,
// item_id or name that is present; the tag column is symptoms or tags.
// Other columns (e.g. description) are ignored. The tag column accepts the
// forms understood by ParseTags. Rows keep their file order.
func ReadCSV(r io.Reader) ([]core.CatalogRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, core.ErrEmptyCorpus
		}
		return nil, err
	}

	idCol := findColumn(header, idColumns)
	if idCol < 0 {
		return nil, fmt.Errorf("%w: one of %v", ErrMissingColumn, idColumns)
	}
	tagCol := findColumn(header, tagColumns)
	if tagCol < 0 {
		return nil, fmt.Errorf("%w: one of %v", ErrMissingColumn, tagColumns)
	}

	var records []core.CatalogRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)

		if idCol >= len(row) || tagCol >= len(row) {
			return nil, fmt.Errorf("%w: line %d has %d fields", ErrMalformedRow, line, len(row))
		}

		record := core.CatalogRecord{
			ItemID: strings.TrimSpace(row[idCol]),
			Tags:   ParseTags(row[tagCol]),
		}
		if err := core.ValidateCatalogRecord(record); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRow, line, err)
		}
		records = append(records, record)
	}

	return records, nil
}

// WriteCSV writes records in the format ReadCSV accepts, with the tag column
// as a list literal and a generated description column.
func WriteCSV(w io.Writer, records []core.CatalogRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"drug_name", "symptoms", "description"}); err != nil {
		return err
	}

	for _, record := range records {
		quoted := make([]string, len(record.Tags))
		readable := make([]string, len(record.Tags))
		for i, tag := range record.Tags {
			quoted[i] = "'" + tag + "'"
			readable[i] = strings.ReplaceAll(tag, "_", " ")
		}
		row := []string{
			record.ItemID,
			"[" + strings.Join(quoted, ", ") + "]",
			"Medication for treating " + strings.Join(readable, ", "),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func findColumn(header []string, names []string) int {
	for _, name := range names {
		for i, column := range header {
			if strings.EqualFold(strings.TrimSpace(column), name) {
				return i
			}
		}
	}
	return -1
}
