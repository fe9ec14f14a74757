package aggregator

import (
	"strings"
	"time"

	"github.com/bighogz/form4-sales/internal/models"
)

const dateLayout = "2006-01-02"

// NormalizeDate reduces a date or timestamp to YYYY-MM-DD. Values that do not
// start with a calendar date become models.Missing.
func NormalizeDate(f models.Field) models.Field {
	if !f.Present() {
		return models.Missing
	}
	t, ok := parseDate(f.String())
	if !ok {
		return models.Missing
	}
	return models.Value(t.Format(dateLayout))
}

// parseDate accepts YYYY-MM-DD optionally followed by a time ("T...") or a
// zone designator ("Z", "+hh:mm", "-hh:mm").
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return time.Time{}, false
	}
	if rest := s[len(dateLayout):]; rest != "" && !strings.ContainsRune("TZ+-", rune(rest[0])) {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeDates returns a copy of r with all date-bearing fields normalized.
func NormalizeDates(r models.FlatRow) models.FlatRow {
	r.Filing.FiledAt = NormalizeDate(r.Filing.FiledAt)
	r.Filing.PeriodOfReport = NormalizeDate(r.Filing.PeriodOfReport)
	r.Txn.TransactionDate = NormalizeDate(r.Txn.TransactionDate)
	r.Txn.DeemedExecutionDate = NormalizeDate(r.Txn.DeemedExecutionDate)
	if r.Table == models.DerivativeTable {
		r.Derivative.ExerciseDate = NormalizeDate(r.Derivative.ExerciseDate)
		r.Derivative.ExpirationDate = NormalizeDate(r.Derivative.ExpirationDate)
	}
	return r
}
