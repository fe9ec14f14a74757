package export

import (
	"bytes"
	"encoding/csv"

	"github.com/rotisserie/eris"

	"github.com/bighogz/form4-sales/internal/models"
	"github.com/bighogz/form4-sales/internal/report"
)

// WriteCSV writes the summary columns with raw numeric value and percentage.
func WriteCSV(path string, sales []models.SaleRow) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(report.Columns); err != nil {
		return eris.Wrap(err, "export: csv header")
	}
	for _, s := range sales {
		if err := w.Write(report.RawCells(s)); err != nil {
			return eris.Wrap(err, "export: csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: csv flush")
	}
	return writeFileAtomic(path, buf.Bytes())
}
