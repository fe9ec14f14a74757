package export

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/bighogz/form4-sales/internal/models"
	"github.com/bighogz/form4-sales/internal/report"
)

// WriteJSON writes an array of display records keyed by column name.
func WriteJSON(path string, sales []models.SaleRow) error {
	data, err := json.MarshalIndent(report.Records(sales), "", "    ")
	if err != nil {
		return eris.Wrap(err, "export: marshal json")
	}
	return writeFileAtomic(path, append(data, '\n'))
}
