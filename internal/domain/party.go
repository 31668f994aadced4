package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PartyType classifies a counterparty.
type PartyType string

const (
	PartyCustomer PartyType = "customer"
	PartyVendor   PartyType = "vendor"
	PartyEmployee PartyType = "employee"
	PartyOther    PartyType = "other"
)

func (t PartyType) IsValid() bool {
	switch t {
	case PartyCustomer, PartyVendor, PartyEmployee, PartyOther:
		return true
	}
	return false
}

// Party is a customer, vendor or other counterparty referenced by
// transaction lines. CurrentBalance is a derived cache, never a source
// of truth; ledger views recompute it from the posted line fold.
type Party struct {
	ID             int64           `json:"id"`
	TenantID       int64           `json:"tenant_id"`
	Type           PartyType       `json:"type"`
	Name           string          `json:"name"`
	ReferenceCode  string          `json:"reference_code"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	OpeningSide    BalanceSide     `json:"opening_side"`
	CurrentBalance decimal.Decimal `json:"current_balance"` // cache, display only
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"-"`
	UpdatedAt      time.Time       `json:"-"`
}

// SignedOpening folds the opening balance to a signed number, debit positive.
func (p *Party) SignedOpening() decimal.Decimal {
	if p.OpeningSide == SideCredit {
		return p.OpeningBalance.Neg()
	}
	return p.OpeningBalance
}

// Receivable reports whether the party accumulates on the receivable side.
func (p *Party) Receivable() bool {
	return p.Type == PartyCustomer
}

type PartyCreate struct {
	TenantID       int64           `json:"-"`
	Type           PartyType       `json:"type"`
	Name           string          `json:"name"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	OpeningSide    BalanceSide     `json:"opening_side,omitempty"`
}

type PartyFilter struct {
	Type     *PartyType
	IsActive *bool
}
