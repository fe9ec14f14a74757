// Package flatten expands a Form 4 filing into one self-contained row per
// transaction, copying the filing-level data into each row.
package flatten

import (
	"github.com/bighogz/form4-sales/internal/models"
)

// Filing returns one row per transaction: Table I items first, then Table II,
// each in document order. It has no side effects and never fails; absent
// fields come out as models.Missing.
func Filing(f models.RawFiling) []models.FlatRow {
	info := FilingInfo(f)
	rows := make([]models.FlatRow, 0, f.TransactionCount())
	for _, t := range f.NonDerivativeTable.Transactions {
		rows = append(rows, directRow(info, t))
	}
	for _, t := range f.DerivativeTable.Transactions {
		rows = append(rows, derivativeRow(info, t))
	}
	return rows
}

// Each flattens filings in order, handing every row to fn. It stops at the
// first error fn returns.
func Each(filings []models.RawFiling, fn func(models.FlatRow) error) error {
	for _, f := range filings {
		for _, r := range Filing(f) {
			if err := fn(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// FilingInfo extracts the data shared by every row of a filing.
func FilingInfo(f models.RawFiling) models.FilingInfo {
	owner := f.ReportingOwner
	rel := owner.Relationship
	return models.FilingInfo{
		TransactionID:         f.ID,
		AccessionNo:           f.AccessionNo,
		FiledAt:               f.FiledAt,
		FormType:              f.DocumentType,
		PeriodOfReport:        f.PeriodOfReport,
		NotSubjectToSection16: f.NotSubjectToSection16,

		IssuerName:   f.Issuer.Name,
		IssuerTicker: f.Issuer.TradingSymbol,
		IssuerCIK:    f.Issuer.CIK,

		OwnerName: owner.Name,
		OwnerCIK:  owner.CIK,

		IsDirector:        rel.IsDirector.Truthy(),
		IsOfficer:         rel.IsOfficer.Truthy(),
		IsTenPercentOwner: rel.IsTenPercentOwner.Truthy(),
		IsOther:           rel.IsOther.Truthy(),
		OtherText:         rel.OtherText,
		Role:              Role(rel),

		Street1: owner.Address.Street1,
		Street2: owner.Address.Street2,
		City:    owner.Address.City,
		ZipCode: owner.Address.ZipCode,
		State:   owner.Address.StateDescription,

		DirectOrIndirect:  f.OwnershipNature.DirectOrIndirectOwnership,
		NatureOfOwnership: f.OwnershipNature.NatureOfOwnership,

		FilingURL: f.LinkToFiling,
	}
}

func transactionInfo(t models.TransactionRecord) models.TransactionInfo {
	return models.TransactionInfo{
		SecurityTitle:        t.SecurityTitle,
		TransactionDate:      t.TransactionDate,
		DeemedExecutionDate:  t.DeemedExecutionDate,
		Code:                 t.Coding.Code,
		EquitySwapInvolved:   t.Coding.EquitySwapInvolved,
		FootnoteID:           t.Coding.FootnoteID,
		Timeliness:           t.Coding.Timeliness,
		SharesOwnedFollowing: t.PostTransactionAmounts.SharesOwnedFollowingTransaction,
		ValueOwnedFollowing:  t.PostTransactionAmounts.ValueOwnedFollowingTransaction,
		DirectOrIndirect:     t.OwnershipNature.DirectOrIndirectOwnership,
		NatureOfOwnership:    t.OwnershipNature.NatureOfOwnership,
	}
}

func directRow(info models.FilingInfo, t models.TransactionRecord) models.FlatRow {
	return models.NewDirectRow(info, transactionInfo(t), models.DirectFields{
		Shares:               t.Amounts.Shares,
		PricePerShare:        t.Amounts.PricePerShare,
		AcquiredDisposedCode: t.Amounts.AcquiredDisposedCode,
	})
}

func derivativeRow(info models.FilingInfo, t models.TransactionRecord) models.FlatRow {
	return models.NewDerivativeRow(info, transactionInfo(t), models.DerivativeFields{
		Shares:                    t.Amounts.Shares,
		PricePerShare:             t.Amounts.PricePerShare,
		AcquiredDisposedCode:      t.Amounts.AcquiredDisposedCode,
		ConversionOrExercisePrice: t.ConversionOrExercisePrice,
		ExerciseDate:              t.ExerciseDate,
		ExpirationDate:            t.ExpirationDate,
		UnderlyingTitle:           t.UnderlyingSecurity.Title,
		UnderlyingShares:          t.UnderlyingSecurity.Shares,
		UnderlyingValue:           t.UnderlyingSecurity.Value,
	})
}
