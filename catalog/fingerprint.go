package catalog

import (
	"github.com/poiesic/medrank/core"
)

const (
	recordSep = 0x1e
	unitSep   = 0x1f
)

// Fingerprint returns a content hash of the ordered catalog. Catalogs that
// would build identical indexes (same records, same order, same tag order)
// share a fingerprint.
func Fingerprint(records []core.CatalogRecord) core.ID {
	var buf []byte
	for _, record := range records {
		buf = append(buf, record.ItemID...)
		for _, tag := range record.Tags {
			buf = append(buf, unitSep)
			buf = append(buf, tag...)
		}
		buf = append(buf, recordSep)
	}
	return core.IDFromBytes(buf)
}
