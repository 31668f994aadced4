package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountCategory is the top-level regulatory category of an account.
type AccountCategory string

const (
	CategoryAsset     AccountCategory = "asset"
	CategoryLiability AccountCategory = "liability"
	CategoryEquity    AccountCategory = "equity"
	CategoryIncome    AccountCategory = "income"
	CategoryExpense   AccountCategory = "expense"
)

func (c AccountCategory) IsValid() bool {
	switch c {
	case CategoryAsset, CategoryLiability, CategoryEquity, CategoryIncome, CategoryExpense:
		return true
	}
	return false
}

// BalanceSide labels which side of the books an amount sits on.
type BalanceSide string

const (
	SideDebit  BalanceSide = "debit"
	SideCredit BalanceSide = "credit"
)

// Account is a node in the tenant's chart of accounts. Group accounts
// aggregate their descendants and never receive postings; leaf accounts
// are the only valid targets of transaction lines.
type Account struct {
	ID             int64           `json:"id"`
	TenantID       int64           `json:"tenant_id"`
	Code           string          `json:"code"` // unique per tenant
	Name           string          `json:"name"`
	Category       AccountCategory `json:"category"`
	ParentID       *int64          `json:"parent_id,omitempty"`
	IsGroup        bool            `json:"is_group"`
	Level          int             `json:"level"` // 1 for roots, recomputed on reparent
	IsSystem       bool            `json:"is_system"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	OpeningSide    BalanceSide     `json:"opening_side"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"-"`
	UpdatedAt      time.Time       `json:"-"`

	// Children is populated only on tree views.
	Children []*Account `json:"children,omitempty"`
}

// IsPostable reports whether transaction lines may reference this account.
func (a *Account) IsPostable() bool {
	return !a.IsGroup && a.IsActive
}

// SignedOpening folds the configured opening balance to a signed number,
// debit positive.
func (a *Account) SignedOpening() decimal.Decimal {
	if a.OpeningSide == SideCredit {
		return a.OpeningBalance.Neg()
	}
	return a.OpeningBalance
}

// AccountCreate carries the fields callers may set when creating an account.
type AccountCreate struct {
	TenantID       int64           `json:"-"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Category       AccountCategory `json:"category"`
	ParentID       *int64          `json:"parent_id,omitempty"`
	IsGroup        bool            `json:"is_group"`
	IsSystem       bool            `json:"-"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	OpeningSide    BalanceSide     `json:"opening_side,omitempty"`
}

// AccountUpdate carries optional field updates; nil means unchanged.
type AccountUpdate struct {
	Code           *string          `json:"code,omitempty"`
	Name           *string          `json:"name,omitempty"`
	Category       *AccountCategory `json:"category,omitempty"`
	ParentID       *int64           `json:"parent_id,omitempty"`
	ClearParent    bool             `json:"clear_parent,omitempty"`
	OpeningBalance *decimal.Decimal `json:"opening_balance,omitempty"`
	OpeningSide    *BalanceSide     `json:"opening_side,omitempty"`
	IsActive       *bool            `json:"is_active,omitempty"`
}

// Structural reports whether the update touches fields that are frozen
// on system accounts.
func (u *AccountUpdate) Structural() bool {
	return u.Code != nil || u.Category != nil || u.ParentID != nil || u.ClearParent
}

type AccountFilter struct {
	Category *AccountCategory
	IsGroup  *bool
	IsActive *bool
	ParentID *int64
}
