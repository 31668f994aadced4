package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxonomyKey identifies a node in the fixed statement taxonomy.
type TaxonomyKey string

const (
	TaxAssets             TaxonomyKey = "assets"
	TaxNonCurrentAssets   TaxonomyKey = "non_current_assets"
	TaxPPE                TaxonomyKey = "property_plant_equipment"
	TaxLongTermInvest     TaxonomyKey = "long_term_investments"
	TaxCurrentAssets      TaxonomyKey = "current_assets"
	TaxCashAndBank        TaxonomyKey = "cash_and_bank"
	TaxReceivables        TaxonomyKey = "trade_receivables"
	TaxInventory          TaxonomyKey = "inventory"
	TaxOtherCurrentAssets TaxonomyKey = "other_current_assets"

	TaxLiabilities           TaxonomyKey = "liabilities"
	TaxNonCurrentLiabilities TaxonomyKey = "non_current_liabilities"
	TaxLongTermBorrowings    TaxonomyKey = "long_term_borrowings"
	TaxCurrentLiabilities    TaxonomyKey = "current_liabilities"
	TaxPayables              TaxonomyKey = "trade_payables"
	TaxShortTermBorrowings   TaxonomyKey = "short_term_borrowings"
	TaxTaxesPayable          TaxonomyKey = "taxes_payable"

	TaxEquity        TaxonomyKey = "equity"
	TaxShareCapital  TaxonomyKey = "share_capital"
	TaxRetained      TaxonomyKey = "retained_earnings"

	TaxIncome        TaxonomyKey = "income"
	TaxRevenue       TaxonomyKey = "revenue"
	TaxOtherIncome   TaxonomyKey = "other_income"
	TaxExpenses      TaxonomyKey = "expenses"
	TaxCostOfSales   TaxonomyKey = "cost_of_sales"
	TaxOperatingExp  TaxonomyKey = "operating_expenses"
	TaxFinanceCosts  TaxonomyKey = "finance_costs"
)

// TaxonomyNode is one line of a classified statement. Amounts roll up:
// a node's amount includes every descendant's.
type TaxonomyNode struct {
	Key      TaxonomyKey     `json:"key"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Children []*TaxonomyNode `json:"children,omitempty"`
}

// Find walks the subtree for a key.
func (n *TaxonomyNode) Find(key TaxonomyKey) *TaxonomyNode {
	if n.Key == key {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(key); found != nil {
			return found
		}
	}
	return nil
}

// BalanceSheet is the classified statement of financial position.
// Difference is displayed, never fatal: an out-of-balance sheet points at
// corrupt upstream data, and refusing to render it hides the problem.
type BalanceSheet struct {
	PeriodID         int64           `json:"period_id"`
	AsOfDate         time.Time       `json:"as_of_date"`
	Assets           *TaxonomyNode   `json:"assets"`
	Liabilities      *TaxonomyNode   `json:"liabilities"`
	Equity           *TaxonomyNode   `json:"equity"`
	NetProfit        decimal.Decimal `json:"net_profit"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalEquity      decimal.Decimal `json:"total_equity"`
	Difference       decimal.Decimal `json:"difference"`
	IsBalanced       bool            `json:"is_balanced"`
}

// IncomeStatement is the classified profit and loss view.
type IncomeStatement struct {
	PeriodID     int64           `json:"period_id"`
	AsOfDate     time.Time       `json:"as_of_date"`
	Income       *TaxonomyNode   `json:"income"`
	Expenses     *TaxonomyNode   `json:"expenses"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	NetProfit    decimal.Decimal `json:"net_profit"`
}
