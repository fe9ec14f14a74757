package report

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bighogz/form4-sales/internal/models"
)

// NoSalesMessage is printed instead of a table when nothing was sold.
const NoSalesMessage = "No 'S' (Sale) transactions found"

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// RenderTable renders the summary as a markdown-style grid.
func RenderTable(sales []models.SaleRow) string {
	if len(sales) == 0 {
		return NoSalesMessage
	}
	rows := make([][]string, len(sales))
	for i, s := range sales {
		rows[i] = Cells(s)
	}
	t := table.New().
		Border(lipgloss.MarkdownBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers(Columns...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}
