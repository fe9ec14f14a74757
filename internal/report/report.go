// Package report turns sale rows into the summary columns shown on the
// console and written to the export files.
package report

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bighogz/form4-sales/internal/models"
)

// Summary column names, in display order.
const (
	ColReportingPerson = "Reporting Person Name (Box 1)"
	ColOfficerTitle    = "Officer Title (Box 5)"
	ColIssuerName      = "Issuer Name (Box 2)"
	ColSharesSold      = "Shares Sold"
	ColPricePerShare   = "Price Per Share"
	ColTotalSaleValue  = "Total Sale Value"
	ColTransactionDate = "Transaction Date"
	ColTable           = "Transaction Table"
	ColPercentSold     = "Percentage of Holdings Sold"
	ColFilingURL       = "Filing URL"
)

// Columns lists the summary columns in display order.
var Columns = []string{
	ColReportingPerson,
	ColOfficerTitle,
	ColIssuerName,
	ColSharesSold,
	ColPricePerShare,
	ColTotalSaleValue,
	ColTransactionDate,
	ColTable,
	ColPercentSold,
	ColFilingURL,
}

var printer = message.NewPrinter(language.English)

// FormatCurrency renders v as US dollars with thousands separators, e.g. $25,500.00.
func FormatCurrency(v float64) string {
	if v < 0 {
		return printer.Sprintf("-$%.2f", -v)
	}
	return printer.Sprintf("$%.2f", v)
}

// FormatPercent renders a fraction as a percentage with two decimals, e.g. 0.1 -> 10.00%.
func FormatPercent(fraction float64) string {
	return strconv.FormatFloat(fraction*100, 'f', 2, 64) + "%"
}

// FormatNumber renders v in its shortest exact decimal form.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Record is one summary row. JSON keys are the column names; the value and
// percentage are pre-formatted strings for display by downstream consumers.
type Record struct {
	ReportingPerson     string  `json:"Reporting Person Name (Box 1)"`
	OfficerTitle        string  `json:"Officer Title (Box 5)"`
	IssuerName          string  `json:"Issuer Name (Box 2)"`
	SharesSold          float64 `json:"Shares Sold"`
	PricePerShare       float64 `json:"Price Per Share"`
	TotalSaleValue      string  `json:"Total Sale Value"`
	TransactionDate     string  `json:"Transaction Date"`
	TransactionTable    string  `json:"Transaction Table"`
	PercentHoldingsSold string  `json:"Percentage of Holdings Sold"`
	FilingURL           string  `json:"Filing URL"`
}

// NewRecord builds the display record for s.
func NewRecord(s models.SaleRow) Record {
	return Record{
		ReportingPerson:     s.Filing.OwnerName.String(),
		OfficerTitle:        s.Filing.Role.String(),
		IssuerName:          s.Filing.IssuerName.String(),
		SharesSold:          s.SharesSold,
		PricePerShare:       s.PricePerShare,
		TotalSaleValue:      FormatCurrency(s.TotalSaleValue),
		TransactionDate:     s.Txn.TransactionDate.String(),
		TransactionTable:    s.Table.String(),
		PercentHoldingsSold: FormatPercent(s.PercentHoldingsSold),
		FilingURL:           s.Filing.FilingURL.String(),
	}
}

// Records builds display records in input order.
func Records(sales []models.SaleRow) []Record {
	out := make([]Record, len(sales))
	for i, s := range sales {
		out[i] = NewRecord(s)
	}
	return out
}

// Cells returns the display cells of s in Columns order.
func Cells(s models.SaleRow) []string {
	r := NewRecord(s)
	return []string{
		r.ReportingPerson,
		r.OfficerTitle,
		r.IssuerName,
		FormatNumber(r.SharesSold),
		FormatNumber(r.PricePerShare),
		r.TotalSaleValue,
		r.TransactionDate,
		r.TransactionTable,
		r.PercentHoldingsSold,
		r.FilingURL,
	}
}

// RawCells is like Cells but keeps the value and percentage as plain numbers.
func RawCells(s models.SaleRow) []string {
	cells := Cells(s)
	cells[5] = FormatNumber(s.TotalSaleValue)
	cells[8] = FormatNumber(s.PercentHoldingsSold)
	return cells
}
