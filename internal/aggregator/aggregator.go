package aggregator

import (
	"sort"

	"github.com/bighogz/form4-sales/internal/models"
)

// SaleCode is the Form 4 transaction code for an open-market or private sale.
const SaleCode = "S"

// Sales normalizes dates, orders rows by issuer, table and transaction date,
// keeps the sale-coded ones and computes their metrics. rows is not modified.
func Sales(rows []models.FlatRow) []models.SaleRow {
	sorted := Sorted(NormalizeAll(rows))
	out := make([]models.SaleRow, 0)
	for _, r := range sorted {
		if !IsSale(r) {
			continue
		}
		out = append(out, Sale(r))
	}
	return out
}

// NormalizeAll returns a copy of rows with every date field normalized.
func NormalizeAll(rows []models.FlatRow) []models.FlatRow {
	out := make([]models.FlatRow, len(rows))
	for i, r := range rows {
		out[i] = NormalizeDates(r)
	}
	return out
}

// Sorted returns a stably sorted copy ordered by issuer name, table label and
// transaction date. Comparison is lexical, which is chronological once dates
// are normalized.
func Sorted(rows []models.FlatRow) []models.FlatRow {
	out := make([]models.FlatRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if an, bn := a.Filing.IssuerName.String(), b.Filing.IssuerName.String(); an != bn {
			return an < bn
		}
		if at, bt := a.Table.String(), b.Table.String(); at != bt {
			return at < bt
		}
		return a.Txn.TransactionDate.String() < b.Txn.TransactionDate.String()
	})
	return out
}

// IsSale reports whether the row's code is exactly SaleCode.
func IsSale(r models.FlatRow) bool {
	return r.Txn.Code.Present() && r.Txn.Code.String() == SaleCode
}

// Sale computes the derived metrics for one row.
func Sale(r models.FlatRow) models.SaleRow {
	qty := UnifiedShares(r)
	price := UnifiedPrice(r)
	held := r.Txn.SharesOwnedFollowing.FloatOrZero()
	return models.SaleRow{
		FlatRow:              r,
		SharesSold:           qty,
		PricePerShare:        price,
		SharesOwnedFollowing: held,
		TotalSaleValue:       TotalSaleValue(qty, price),
		PercentHoldingsSold:  PercentHoldingsSold(qty, held),
	}
}

// UnifiedShares prefers the Table I quantity when it is numeric and falls back
// to the Table II quantity. Non-numeric values count as zero.
func UnifiedShares(r models.FlatRow) float64 {
	return pick(r.Direct.Shares, r.Derivative.Shares)
}

// UnifiedPrice applies the same preference as UnifiedShares to the price.
func UnifiedPrice(r models.FlatRow) float64 {
	return pick(r.Direct.PricePerShare, r.Derivative.PricePerShare)
}

func pick(direct, derivative models.Field) float64 {
	if v, ok := direct.Float(); ok {
		return v
	}
	return derivative.FloatOrZero()
}

// PercentHoldingsSold is sold / (sold + held) as a fraction. A zero
// denominator yields 0 so consumers always receive a number.
func PercentHoldingsSold(sold, held float64) float64 {
	den := sold + held
	if den == 0 {
		return 0
	}
	return sold / den
}

// TotalSaleValue is shares times price.
func TotalSaleValue(shares, price float64) float64 {
	return shares * price
}
