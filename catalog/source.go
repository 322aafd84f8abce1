package catalog

import (
	"context"
	"os"
	"slices"

	"github.com/poiesic/medrank/core"
)

// Source provides the full, ordered catalog.
// Implementations must return records in a stable order: the index depends
// on it for reproducibility.
type Source interface {
	Records(ctx context.Context) ([]core.CatalogRecord, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]core.CatalogRecord, error)

// Records calls f.
func (f SourceFunc) Records(ctx context.Context) ([]core.CatalogRecord, error) {
	return f(ctx)
}

// Static is an in-memory catalog.
type Static []core.CatalogRecord

// NewStatic creates a Static source from records.
func NewStatic(records ...core.CatalogRecord) Static {
	return Static(records)
}

// Records returns a copy of the records.
func (s Static) Records(ctx context.Context) ([]core.CatalogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]core.CatalogRecord, len(s))
	for i, record := range s {
		out[i] = core.CatalogRecord{ItemID: record.ItemID, Tags: slices.Clone(record.Tags)}
	}
	return out, nil
}

// CSVFile reads the catalog from a CSV file each time Records is called.
type CSVFile struct {
	path string
}

// NewCSVFile creates a source backed by the CSV file at path.
func NewCSVFile(path string) *CSVFile {
	return &CSVFile{path: path}
}

// Path returns the file path.
func (c *CSVFile) Path() string {
	return c.path
}

// Records reads and parses the file.
func (c *CSVFile) Records(ctx context.Context) ([]core.CatalogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(c.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// NewSynthetic creates a source returning Synthetic(seed).
func NewSynthetic(seed uint64) Source {
	return SourceFunc(func(ctx context.Context) ([]core.CatalogRecord, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Synthetic(seed), nil
	})
}
