package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SideOf splits a signed amount (debit positive) into its display side
// and absolute value.
func SideOf(signed decimal.Decimal) (BalanceSide, decimal.Decimal) {
	if signed.IsNegative() {
		return SideCredit, signed.Abs()
	}
	return SideDebit, signed
}

// MovementSum is a per-account aggregate of posted line amounts, as the
// store returns it. One row per account per bucket.
type MovementSum struct {
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// TrialBalanceRow is one account in the trial balance. Buckets are netted
// to a single signed number internally and re-expanded into explicit
// debit/credit columns for display.
type TrialBalanceRow struct {
	AccountID     int64           `json:"account_id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Category      AccountCategory `json:"category"`
	IsGroup       bool            `json:"is_group"`
	OpeningDebit  decimal.Decimal `json:"opening_debit"`
	OpeningCredit decimal.Decimal `json:"opening_credit"`
	PeriodDebit   decimal.Decimal `json:"period_debit"`
	PeriodCredit  decimal.Decimal `json:"period_credit"`
	ClosingDebit  decimal.Decimal `json:"closing_debit"`
	ClosingCredit decimal.Decimal `json:"closing_credit"`
}

// IsZero reports whether every column of the row is zero.
func (r *TrialBalanceRow) IsZero() bool {
	return r.OpeningDebit.IsZero() && r.OpeningCredit.IsZero() &&
		r.PeriodDebit.IsZero() && r.PeriodCredit.IsZero() &&
		r.ClosingDebit.IsZero() && r.ClosingCredit.IsZero()
}

// TrialBalance is the aggregated debit/credit position of every account
// as of a date. Totals run over leaf accounts only; group rows carry
// independently rolled-up figures. An out-of-balance result is returned
// with IsBalanced=false rather than rejected: it signals upstream data
// corruption and hiding it would be worse than showing it.
type TrialBalance struct {
	PeriodID    int64              `json:"period_id"`
	FromDate    *time.Time         `json:"from_date,omitempty"`
	AsOfDate    time.Time          `json:"as_of_date"`
	Rows        []*TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal    `json:"total_debit"`
	TotalCredit decimal.Decimal    `json:"total_credit"`
	IsBalanced  bool               `json:"is_balanced"`
}

// LedgerEntry is one transaction line in a running-balance view.
type LedgerEntry struct {
	TransactionID int64           `json:"transaction_id"`
	Number        int64           `json:"number"`
	EntryDate     time.Time       `json:"entry_date"`
	Narration     string          `json:"narration"`
	Description   string          `json:"description,omitempty"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Balance       decimal.Decimal `json:"balance"` // absolute value
	BalanceSide   BalanceSide     `json:"balance_side"`
}

// LedgerStatement is the replayed ledger of an account or party:
// opening balance, every posted line with its running balance, and the
// closing position.
type LedgerStatement struct {
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	OpeningSide    BalanceSide     `json:"opening_side"`
	Entries        []*LedgerEntry  `json:"entries"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	ClosingSide    BalanceSide     `json:"closing_side"`
}

// PartyStatement wraps a ledger statement with the party's gross
// received/paid totals, labelled by whether the party accumulates
// receivable-style or payable-style.
type PartyStatement struct {
	PartyID       int64           `json:"party_id"`
	PartyName     string          `json:"party_name"`
	PartyType     PartyType       `json:"party_type"`
	LedgerStatement
	GrossInvoiced decimal.Decimal `json:"gross_invoiced"`
	GrossSettled  decimal.Decimal `json:"gross_settled"`
}
