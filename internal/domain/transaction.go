package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"bookkeeping-service/pkg/xerrors"
)

// Tolerance is the epsilon below which two amounts are considered equal.
// Rounding of upstream line amounts can leave sub-cent residue; anything
// smaller than one cent of the base currency unit is noise.
var Tolerance = decimal.NewFromFloat(0.01)

// TransactionStatus is the journal entry lifecycle.
type TransactionStatus string

const (
	StatusDraft    TransactionStatus = "draft"
	StatusPosted   TransactionStatus = "posted"
	StatusReversed TransactionStatus = "reversed"
)

// OriginTag names the collaborator that submitted an entry.
type OriginTag string

const (
	OriginManual     OriginTag = "manual"
	OriginInvoice    OriginTag = "invoice"
	OriginBilling    OriginTag = "billing"
	OriginPayment    OriginTag = "payment"
	OriginBankImport OriginTag = "bank_import"
	OriginRecurring  OriginTag = "recurring"
)

// Transaction is a journal entry header. Once posted it is immutable and
// included in every balance computation; drafts are excluded everywhere.
type Transaction struct {
	ID             int64             `json:"id"`
	TenantID       int64             `json:"tenant_id"`
	PeriodID       int64             `json:"period_id"`
	Number         int64             `json:"number"` // sequential per tenant/period
	ReferenceCode  string            `json:"reference_code"`
	IdempotencyKey *string           `json:"idempotency_key,omitempty"`
	EntryDate      time.Time         `json:"entry_date"`
	PostingDate    *time.Time        `json:"posting_date,omitempty"`
	Narration      string            `json:"narration"`
	Origin         OriginTag         `json:"origin"`
	Status         TransactionStatus `json:"status"`
	TotalDebit     decimal.Decimal   `json:"total_debit"`
	TotalCredit    decimal.Decimal   `json:"total_credit"`
	SettledAmount  decimal.Decimal   `json:"settled_amount"`
	CreatedAt      time.Time         `json:"created_at"`

	Lines []*TransactionLine `json:"lines,omitempty"`
}

// TransactionLine is a single debit or credit against a leaf account.
// Ordinal fixes replay order for lines sharing an entry date.
type TransactionLine struct {
	ID            int64           `json:"id"`
	TransactionID int64           `json:"transaction_id"`
	AccountID     int64           `json:"account_id"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	PartyID       *int64          `json:"party_id,omitempty"`
	Description   string          `json:"description,omitempty"`
	Ordinal       int             `json:"ordinal"`

	AccountData *Account `json:"account,omitempty"`
}

// LineRequest is one line of a submitted entry.
type LineRequest struct {
	AccountID   int64           `json:"account_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	PartyID     *int64          `json:"party_id,omitempty"`
	Description string          `json:"description,omitempty"`
}

// SubmitRequest is what collaborators (invoicing, billing, payments,
// recurring entries) hand to the posting engine.
type SubmitRequest struct {
	TenantID       int64          `json:"tenant_id"`
	PeriodID       int64          `json:"period_id"`
	EntryDate      time.Time      `json:"entry_date"`
	Narration      string         `json:"narration"`
	Origin         OriginTag      `json:"origin"`
	IdempotencyKey *string        `json:"idempotency_key,omitempty"`
	PostNow        bool           `json:"post_now"`
	Lines          []*LineRequest `json:"lines"`
}

// Totals sums the request's debit and credit columns.
func (r *SubmitRequest) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range r.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// Validate enforces the entry-level invariants: at least one line, no
// negative or empty amounts, and sum(debit) == sum(credit) within
// Tolerance. Account-level checks (postable, active) need the store and
// happen in the usecase.
func (r *SubmitRequest) Validate() error {
	if r.TenantID == 0 {
		return xerrors.NewValidation("tenant_id", "tenant is required")
	}
	if r.PeriodID == 0 {
		return xerrors.NewValidation("period_id", "accounting period is required")
	}
	if r.EntryDate.IsZero() {
		return xerrors.NewValidation("entry_date", "entry date is required")
	}
	if len(r.Lines) == 0 {
		return xerrors.ErrEmptyEntry
	}
	if r.Origin == "" {
		r.Origin = OriginManual
	}

	for _, l := range r.Lines {
		if l.AccountID == 0 {
			return xerrors.NewValidation("lines", "line account is required")
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return xerrors.NewValidation("lines", "line amounts must not be negative")
		}
		if l.Debit.IsZero() && l.Credit.IsZero() {
			return xerrors.NewValidation("lines", "line must carry a debit or a credit")
		}
	}

	debit, credit := r.Totals()
	if debit.Sub(credit).Abs().GreaterThanOrEqual(Tolerance) {
		return xerrors.ErrUnbalancedEntry
	}

	return nil
}

// IsReversible reports whether the transaction may still be reversed.
// Settled entries must be unwound through their settlements first.
func (t *Transaction) IsReversible() bool {
	return t.Status != StatusReversed && t.SettledAmount.IsZero()
}

type TransactionFilter struct {
	PeriodID  *int64
	AccountID *int64
	PartyID   *int64
	Status    *TransactionStatus
	Origin    *OriginTag
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}
