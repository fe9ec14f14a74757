package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bighogz/form4-sales/internal/models"
)

func sampleSale() models.SaleRow {
	row := models.NewDirectRow(
		models.FilingInfo{
			OwnerName:  models.Value("Doe Jane"),
			Role:       models.Value("SVP, CFO"),
			IssuerName: models.Value("Apple Inc."),
			FilingURL:  models.Value("https://www.sec.gov/x-index.htm"),
		},
		models.TransactionInfo{TransactionDate: models.Value("2024-01-12"), Code: models.Value("S")},
		models.DirectFields{Shares: models.Value("1000"), PricePerShare: models.Value("25.5")},
	)
	return models.SaleRow{
		FlatRow:             row,
		SharesSold:          1000,
		PricePerShare:       25.5,
		TotalSaleValue:      25500,
		PercentHoldingsSold: 0.1,
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$25,500.00", FormatCurrency(25500))
	assert.Equal(t, "$0.00", FormatCurrency(0))
	assert.Equal(t, "$1,234,567.89", FormatCurrency(1234567.891))
	assert.Equal(t, "$12.50", FormatCurrency(12.5))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "10.00%", FormatPercent(0.1))
	assert.Equal(t, "50.00%", FormatPercent(0.5))
	assert.Equal(t, "0.00%", FormatPercent(0))
	assert.Equal(t, "100.00%", FormatPercent(1))
}

func TestCellsOrder(t *testing.T) {
	cells := Cells(sampleSale())
	require.Len(t, cells, len(Columns))
	assert.Equal(t, []string{
		"Doe Jane",
		"SVP, CFO",
		"Apple Inc.",
		"1000",
		"25.5",
		"$25,500.00",
		"2024-01-12",
		"Table I (Non-Derivative)",
		"10.00%",
		"https://www.sec.gov/x-index.htm",
	}, cells)
}

func TestRawCells(t *testing.T) {
	cells := RawCells(sampleSale())
	assert.Equal(t, "25500", cells[5])
	assert.Equal(t, "0.1", cells[8])
}

func TestMissingValuesRenderAsMarker(t *testing.T) {
	s := sampleSale()
	s.Filing.Role = models.Missing
	assert.Equal(t, models.NotApplicable, Cells(s)[1])
}

func TestRecordJSONKeys(t *testing.T) {
	data, err := json.Marshal(NewRecord(sampleSale()))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Len(t, m, len(Columns))
	for _, c := range Columns {
		assert.Contains(t, m, c)
	}
	assert.Equal(t, "$25,500.00", m[ColTotalSaleValue])
	assert.Equal(t, "10.00%", m[ColPercentSold])
	assert.Equal(t, 1000.0, m[ColSharesSold])

	// Keys come out in column order.
	s := string(data)
	last := -1
	for _, c := range Columns {
		i := strings.Index(s, `"`+c+`"`)
		assert.Greater(t, i, last, c)
		last = i
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]models.SaleRow{sampleSale()})
	for _, c := range Columns {
		assert.Contains(t, out, c)
	}
	assert.Contains(t, out, "$25,500.00")
	assert.Contains(t, out, "10.00%")
	assert.Contains(t, out, "|")
}

func TestRenderTableEmpty(t *testing.T) {
	assert.Equal(t, NoSalesMessage, RenderTable(nil))
}
