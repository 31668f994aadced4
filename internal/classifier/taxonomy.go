package classifier

import (
	"github.com/shopspring/decimal"

	"bookkeeping-service/internal/domain"
)

func node(key domain.TaxonomyKey, name string, children ...*domain.TaxonomyNode) *domain.TaxonomyNode {
	return &domain.TaxonomyNode{Key: key, Name: name, Amount: decimal.Zero, Children: children}
}

// NewAssetTree builds the fixed asset side of the balance sheet.
func NewAssetTree() *domain.TaxonomyNode {
	return node(domain.TaxAssets, "Assets",
		node(domain.TaxNonCurrentAssets, "Non-current Assets",
			node(domain.TaxPPE, "Property, Plant and Equipment"),
			node(domain.TaxLongTermInvest, "Long-term Investments"),
		),
		node(domain.TaxCurrentAssets, "Current Assets",
			node(domain.TaxCashAndBank, "Cash and Bank"),
			node(domain.TaxReceivables, "Trade Receivables"),
			node(domain.TaxInventory, "Inventory"),
			node(domain.TaxOtherCurrentAssets, "Other Current Assets"),
		),
	)
}

// NewLiabilityTree builds the fixed liability side.
func NewLiabilityTree() *domain.TaxonomyNode {
	return node(domain.TaxLiabilities, "Liabilities",
		node(domain.TaxNonCurrentLiabilities, "Non-current Liabilities",
			node(domain.TaxLongTermBorrowings, "Long-term Borrowings"),
		),
		node(domain.TaxCurrentLiabilities, "Current Liabilities",
			node(domain.TaxPayables, "Trade Payables"),
			node(domain.TaxShortTermBorrowings, "Short-term Borrowings"),
			node(domain.TaxTaxesPayable, "Taxes Payable"),
		),
	)
}

// NewEquityTree builds the fixed equity section.
func NewEquityTree() *domain.TaxonomyNode {
	return node(domain.TaxEquity, "Equity",
		node(domain.TaxShareCapital, "Share Capital"),
		node(domain.TaxRetained, "Retained Earnings"),
	)
}

// NewIncomeTree and NewExpenseTree build the income statement sections.
func NewIncomeTree() *domain.TaxonomyNode {
	return node(domain.TaxIncome, "Income",
		node(domain.TaxRevenue, "Revenue"),
		node(domain.TaxOtherIncome, "Other Income"),
	)
}

func NewExpenseTree() *domain.TaxonomyNode {
	return node(domain.TaxExpenses, "Expenses",
		node(domain.TaxCostOfSales, "Cost of Sales"),
		node(domain.TaxOperatingExp, "Operating Expenses"),
		node(domain.TaxFinanceCosts, "Finance Costs"),
	)
}

// AddAmount adds amount to the node carrying key and to every ancestor
// on the path to it. Returns false when the key is not in this tree.
func AddAmount(root *domain.TaxonomyNode, key domain.TaxonomyKey, amount decimal.Decimal) bool {
	if root == nil {
		return false
	}
	if root.Key == key {
		root.Amount = root.Amount.Add(amount)
		return true
	}
	for _, c := range root.Children {
		if AddAmount(c, key, amount) {
			root.Amount = root.Amount.Add(amount)
			return true
		}
	}
	return false
}
