package models

// TableKind tags which Form 4 table a row came from.
type TableKind int

const (
	DirectTable TableKind = iota + 1
	DerivativeTable
)

// String returns the exported table label. Labels sort Table I before Table II.
func (k TableKind) String() string {
	switch k {
	case DirectTable:
		return "Table I (Non-Derivative)"
	case DerivativeTable:
		return "Table II (Derivative)"
	}
	return NotApplicable
}

// FilingInfo is the filing-level data copied into every row of a filing.
type FilingInfo struct {
	TransactionID         Field
	AccessionNo           Field
	FiledAt               Field
	FormType              Field
	PeriodOfReport        Field
	NotSubjectToSection16 Field

	IssuerName   Field
	IssuerTicker Field
	IssuerCIK    Field

	OwnerName Field
	OwnerCIK  Field

	IsDirector        bool
	IsOfficer         bool
	IsTenPercentOwner bool
	IsOther           bool
	OtherText         Field
	// Role is the Box 5 label shown in summaries ("Director", "10% Owner", the officer title, or N/A).
	Role Field

	Street1 Field
	Street2 Field
	City    Field
	ZipCode Field
	State   Field

	DirectOrIndirect  Field
	NatureOfOwnership Field

	FilingURL Field
}

// TransactionInfo holds the fields both tables share.
type TransactionInfo struct {
	SecurityTitle        Field
	TransactionDate      Field
	DeemedExecutionDate  Field
	Code                 Field
	EquitySwapInvolved   Field
	FootnoteID           Field
	Timeliness           Field
	SharesOwnedFollowing Field
	ValueOwnedFollowing  Field
	DirectOrIndirect     Field
	NatureOfOwnership    Field
}

// DirectFields are only meaningful on Table I rows.
type DirectFields struct {
	Shares               Field
	PricePerShare        Field
	AcquiredDisposedCode Field
}

// DerivativeFields are only meaningful on Table II rows.
type DerivativeFields struct {
	Shares                    Field
	PricePerShare             Field
	AcquiredDisposedCode      Field
	ConversionOrExercisePrice Field
	ExerciseDate              Field
	ExpirationDate            Field
	UnderlyingTitle           Field
	UnderlyingShares          Field
	UnderlyingValue           Field
}

// FlatRow is one transaction with its filing data denormalized into it.
// Exactly one of Direct and Derivative is populated, as given by Table;
// the other is left Missing. Build rows with NewDirectRow or NewDerivativeRow.
type FlatRow struct {
	Table      TableKind
	Filing     FilingInfo
	Txn        TransactionInfo
	Direct     DirectFields
	Derivative DerivativeFields
}

func NewDirectRow(filing FilingInfo, txn TransactionInfo, d DirectFields) FlatRow {
	return FlatRow{Table: DirectTable, Filing: filing, Txn: txn, Direct: d}
}

func NewDerivativeRow(filing FilingInfo, txn TransactionInfo, d DerivativeFields) FlatRow {
	return FlatRow{Table: DerivativeTable, Filing: filing, Txn: txn, Derivative: d}
}

// EffectiveOwnership returns the transaction's ownership nature when it has one,
// otherwise the filing-level value.
func (r FlatRow) EffectiveOwnership() OwnershipNature {
	out := OwnershipNature{
		DirectOrIndirectOwnership: r.Filing.DirectOrIndirect,
		NatureOfOwnership:         r.Filing.NatureOfOwnership,
	}
	if r.Txn.DirectOrIndirect.Present() {
		out.DirectOrIndirectOwnership = r.Txn.DirectOrIndirect
	}
	if r.Txn.NatureOfOwnership.Present() {
		out.NatureOfOwnership = r.Txn.NatureOfOwnership
	}
	return out
}

// SaleRow is a FlatRow coded as a sale, with its derived metrics.
type SaleRow struct {
	FlatRow

	SharesSold           float64
	PricePerShare        float64
	SharesOwnedFollowing float64
	TotalSaleValue       float64
	PercentHoldingsSold  float64
}
