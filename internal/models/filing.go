package models

// RawFiling is one Form 4 disclosure as returned by the insider-trading API.
type RawFiling struct {
	ID                    Field            `json:"id"`
	AccessionNo           Field            `json:"accessionNo"`
	FiledAt               Field            `json:"filedAt"`
	DocumentType          Field            `json:"documentType"`
	PeriodOfReport        Field            `json:"periodOfReport"`
	NotSubjectToSection16 Field            `json:"notSubjectToSection16"`
	Issuer                Issuer           `json:"issuer"`
	ReportingOwner        ReportingOwner   `json:"reportingOwner"`
	OwnershipNature       OwnershipNature  `json:"ownershipNature"`
	LinkToFiling          Field            `json:"linkToFiling"`
	NonDerivativeTable    TransactionTable `json:"nonDerivativeTable"`
	DerivativeTable       TransactionTable `json:"derivativeTable"`
}

// TransactionCount is the number of line items across both tables.
func (f RawFiling) TransactionCount() int {
	return len(f.NonDerivativeTable.Transactions) + len(f.DerivativeTable.Transactions)
}

type Issuer struct {
	Name          Field `json:"name"`
	TradingSymbol Field `json:"tradingSymbol"`
	CIK           Field `json:"cik"`
}

type ReportingOwner struct {
	Name         Field        `json:"name"`
	CIK          Field        `json:"cik"`
	Relationship Relationship `json:"relationship"`
	Address      Address      `json:"address"`
}

// Relationship is Box 5 of the form.
type Relationship struct {
	IsDirector        Field `json:"isDirector"`
	IsOfficer         Field `json:"isOfficer"`
	OfficerTitle      Field `json:"officerTitle"`
	IsTenPercentOwner Field `json:"isTenPercentOwner"`
	IsOther           Field `json:"isOther"`
	OtherText         Field `json:"otherText"`
}

type Address struct {
	Street1          Field `json:"street1"`
	Street2          Field `json:"street2"`
	City             Field `json:"city"`
	ZipCode          Field `json:"zipCode"`
	StateDescription Field `json:"stateDescription"`
}

type OwnershipNature struct {
	DirectOrIndirectOwnership Field `json:"directOrIndirectOwnership"`
	NatureOfOwnership         Field `json:"natureOfOwnership"`
}

// TransactionTable is either Table I (non-derivative) or Table II (derivative).
type TransactionTable struct {
	Transactions []TransactionRecord `json:"transactions"`
}

// TransactionRecord is one line item of a transaction table. The derivative-only
// keys are simply absent on Table I items.
type TransactionRecord struct {
	SecurityTitle             Field                  `json:"securityTitle"`
	ConversionOrExercisePrice Field                  `json:"conversionOrExercisePrice"`
	TransactionDate           Field                  `json:"transactionDate"`
	DeemedExecutionDate       Field                  `json:"deemedExecutionDate"`
	ExerciseDate              Field                  `json:"exerciseDate"`
	ExpirationDate            Field                  `json:"expirationDate"`
	Coding                    Coding                 `json:"coding"`
	Amounts                   Amounts                `json:"amounts"`
	PostTransactionAmounts    PostTransactionAmounts `json:"postTransactionAmounts"`
	OwnershipNature           OwnershipNature        `json:"ownershipNature"`
	UnderlyingSecurity        UnderlyingSecurity     `json:"underlyingSecurity"`
}

type Coding struct {
	Code               Field `json:"code"`
	EquitySwapInvolved Field `json:"equitySwapInvolved"`
	FootnoteID         Field `json:"footnoteId"`
	Timeliness         Field `json:"timeliness"`
}

type Amounts struct {
	Shares               Field `json:"shares"`
	PricePerShare        Field `json:"pricePerShare"`
	AcquiredDisposedCode Field `json:"acquiredDisposedCode"`
}

type PostTransactionAmounts struct {
	SharesOwnedFollowingTransaction Field `json:"sharesOwnedFollowingTransaction"`
	ValueOwnedFollowingTransaction  Field `json:"valueOwnedFollowingTransaction"`
}

type UnderlyingSecurity struct {
	Title  Field `json:"title"`
	Shares Field `json:"shares"`
	Value  Field `json:"value"`
}
