package classifier

import (
	"strings"

	"bookkeeping-service/internal/domain"
)

// Rule maps accounts to a taxonomy node. Rules are evaluated in order,
// first match wins: a rule matches when the account category agrees,
// the code carries one of the prefixes (empty slice matches any code)
// and the name contains one of the keywords (empty slice matches any
// name).
type Rule struct {
	Taxonomy     domain.TaxonomyKey
	Category     domain.AccountCategory
	CodePrefixes []string
	Keywords     []string
}

// Matches applies the rule's predicates to an account.
func (r *Rule) Matches(a *domain.Account) bool {
	if a.Category != r.Category {
		return false
	}
	if len(r.CodePrefixes) > 0 {
		ok := false
		for _, p := range r.CodePrefixes {
			if strings.HasPrefix(a.Code, p) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(r.Keywords) > 0 {
		name := strings.ToLower(a.Name)
		ok := false
		for _, kw := range r.Keywords {
			if strings.Contains(name, kw) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// DefaultRules is the tenant-independent mapping table. Order matters:
// keyword rules sit above the catch-alls for their category.
var DefaultRules = []Rule{
	// Assets
	{Taxonomy: domain.TaxPPE, Category: domain.CategoryAsset, CodePrefixes: []string{"10"}, Keywords: []string{"land", "building", "machinery", "plant", "equipment", "vehicle", "furniture"}},
	{Taxonomy: domain.TaxLongTermInvest, Category: domain.CategoryAsset, Keywords: []string{"investment"}},
	{Taxonomy: domain.TaxCashAndBank, Category: domain.CategoryAsset, Keywords: []string{"cash", "bank", "petty"}},
	{Taxonomy: domain.TaxReceivables, Category: domain.CategoryAsset, Keywords: []string{"receivable", "debtor"}},
	{Taxonomy: domain.TaxInventory, Category: domain.CategoryAsset, Keywords: []string{"inventory", "stock"}},
	{Taxonomy: domain.TaxOtherCurrentAssets, Category: domain.CategoryAsset},

	// Liabilities
	{Taxonomy: domain.TaxLongTermBorrowings, Category: domain.CategoryLiability, Keywords: []string{"long term", "long-term", "mortgage", "debenture"}},
	{Taxonomy: domain.TaxTaxesPayable, Category: domain.CategoryLiability, Keywords: []string{"tax", "vat", "gst"}},
	{Taxonomy: domain.TaxPayables, Category: domain.CategoryLiability, Keywords: []string{"payable", "creditor"}},
	{Taxonomy: domain.TaxShortTermBorrowings, Category: domain.CategoryLiability, Keywords: []string{"overdraft", "loan"}},
	{Taxonomy: domain.TaxCurrentLiabilities, Category: domain.CategoryLiability},

	// Equity
	{Taxonomy: domain.TaxShareCapital, Category: domain.CategoryEquity, Keywords: []string{"capital", "share"}},
	{Taxonomy: domain.TaxRetained, Category: domain.CategoryEquity},

	// Income
	{Taxonomy: domain.TaxRevenue, Category: domain.CategoryIncome, Keywords: []string{"sales", "revenue", "service"}},
	{Taxonomy: domain.TaxOtherIncome, Category: domain.CategoryIncome},

	// Expenses
	{Taxonomy: domain.TaxCostOfSales, Category: domain.CategoryExpense, Keywords: []string{"cost of", "cogs", "purchases"}},
	{Taxonomy: domain.TaxFinanceCosts, Category: domain.CategoryExpense, Keywords: []string{"interest", "finance"}},
	{Taxonomy: domain.TaxOperatingExp, Category: domain.CategoryExpense},
}

// Classifier resolves accounts to taxonomy nodes with an ordered rule set.
type Classifier struct {
	rules []Rule
}

func New(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// Classify returns the taxonomy node for an account, or false when no
// rule matches. Unmapped accounts are excluded from statements; that is
// a known limitation, not an error.
func (c *Classifier) Classify(a *domain.Account) (domain.TaxonomyKey, bool) {
	for i := range c.rules {
		if c.rules[i].Matches(a) {
			return c.rules[i].Taxonomy, true
		}
	}
	return "", false
}
