package domain

// ChartEntry is one row of the default chart of accounts seeded for a
// new tenant. ParentCode references another entry in the same list.
type ChartEntry struct {
	Code       string
	Name       string
	Category   AccountCategory
	ParentCode string
	IsGroup    bool
}

// DefaultChart is the system chart every tenant starts with. Seeded
// accounts are marked system-owned: their code, category and taxonomy
// mapping are frozen.
var DefaultChart = []ChartEntry{
	// --- Assets ---
	{Code: "1000", Name: "Assets", Category: CategoryAsset, IsGroup: true},
	{Code: "1010", Name: "Land and Buildings", Category: CategoryAsset, ParentCode: "1000"},
	{Code: "1020", Name: "Plant and Machinery", Category: CategoryAsset, ParentCode: "1000"},
	{Code: "1100", Name: "Current Assets", Category: CategoryAsset, ParentCode: "1000", IsGroup: true},
	{Code: "1110", Name: "Cash", Category: CategoryAsset, ParentCode: "1100"},
	{Code: "1120", Name: "Bank", Category: CategoryAsset, ParentCode: "1100"},
	{Code: "1130", Name: "Accounts Receivable", Category: CategoryAsset, ParentCode: "1100"},
	{Code: "1140", Name: "Inventory", Category: CategoryAsset, ParentCode: "1100"},

	// --- Liabilities ---
	{Code: "2000", Name: "Liabilities", Category: CategoryLiability, IsGroup: true},
	{Code: "2010", Name: "Long Term Loans", Category: CategoryLiability, ParentCode: "2000"},
	{Code: "2100", Name: "Current Liabilities", Category: CategoryLiability, ParentCode: "2000", IsGroup: true},
	{Code: "2110", Name: "Accounts Payable", Category: CategoryLiability, ParentCode: "2100"},
	{Code: "2120", Name: "Taxes Payable", Category: CategoryLiability, ParentCode: "2100"},

	// --- Equity ---
	{Code: "3000", Name: "Equity", Category: CategoryEquity, IsGroup: true},
	{Code: "3010", Name: "Share Capital", Category: CategoryEquity, ParentCode: "3000"},
	{Code: "3020", Name: "Retained Earnings", Category: CategoryEquity, ParentCode: "3000"},

	// --- Income ---
	{Code: "4000", Name: "Income", Category: CategoryIncome, IsGroup: true},
	{Code: "4010", Name: "Sales Revenue", Category: CategoryIncome, ParentCode: "4000"},
	{Code: "4020", Name: "Other Income", Category: CategoryIncome, ParentCode: "4000"},

	// --- Expenses ---
	{Code: "5000", Name: "Expenses", Category: CategoryExpense, IsGroup: true},
	{Code: "5010", Name: "Cost of Goods Sold", Category: CategoryExpense, ParentCode: "5000"},
	{Code: "5020", Name: "Salaries and Wages", Category: CategoryExpense, ParentCode: "5000"},
	{Code: "5030", Name: "Rent Expense", Category: CategoryExpense, ParentCode: "5000"},
	{Code: "5040", Name: "Interest Expense", Category: CategoryExpense, ParentCode: "5000"},
}
