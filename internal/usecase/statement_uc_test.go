package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookkeeping-service/internal/domain"
)

type stmtFixture struct {
	uc       *StatementUsecase
	balance  *fakeBalanceRepo
	cash     *domain.Account
	capital  *domain.Account
	sales    *domain.Account
	rent     *domain.Account
	periodID int64
}

func newStmtFixture(t *testing.T) *stmtFixture {
	t.Helper()
	ctx := context.Background()

	accountRepo := newFakeAccountRepo()
	periodRepo := newFakePeriodRepo()
	f := &stmtFixture{balance: &fakeBalanceRepo{}}

	mk := func(code, name string, cat domain.AccountCategory, opening string, side domain.BalanceSide) *domain.Account {
		bal, _ := decimal.NewFromString(opening)
		a := &domain.Account{
			TenantID: 1, Code: code, Name: name, Category: cat,
			OpeningBalance: bal, OpeningSide: side, IsActive: true,
		}
		require.NoError(t, accountRepo.Create(ctx, a))
		return a
	}
	f.cash = mk("1110", "Cash", domain.CategoryAsset, "1000", domain.SideDebit)
	f.capital = mk("3010", "Share Capital", domain.CategoryEquity, "1000", domain.SideCredit)
	f.sales = mk("4010", "Sales Revenue", domain.CategoryIncome, "0", domain.SideCredit)
	f.rent = mk("5030", "Rent Expense", domain.CategoryExpense, "0", domain.SideDebit)

	period := &domain.Period{
		TenantID:  1,
		Name:      "March 2025",
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, periodRepo.Create(ctx, period))
	f.periodID = period.ID

	f.balance.through = map[int64]*domain.MovementSum{
		f.cash.ID:  {AccountID: f.cash.ID, Debit: decimal.NewFromInt(500), Credit: decimal.NewFromInt(100)},
		f.sales.ID: {AccountID: f.sales.ID, Debit: decimal.Zero, Credit: decimal.NewFromInt(500)},
		f.rent.ID:  {AccountID: f.rent.ID, Debit: decimal.NewFromInt(100), Credit: decimal.Zero},
	}

	f.uc = NewStatementUsecase(accountRepo, f.balance, periodRepo, nil, nil)
	return f
}

func TestBalanceSheetBalances(t *testing.T) {
	f := newStmtFixture(t)

	bs, err := f.uc.BalanceSheet(context.Background(), 1, f.periodID, time.Time{})
	require.NoError(t, err)

	assert.True(t, bs.TotalAssets.Equal(decimal.NewFromInt(1400)), "assets %s", bs.TotalAssets)
	assert.True(t, bs.TotalLiabilities.IsZero())
	assert.True(t, bs.TotalEquity.Equal(decimal.NewFromInt(1400)), "equity %s", bs.TotalEquity)
	assert.True(t, bs.NetProfit.Equal(decimal.NewFromInt(400)))
	assert.True(t, bs.Difference.IsZero())
	assert.True(t, bs.IsBalanced)

	cash := bs.Assets.Find(domain.TaxCashAndBank)
	require.NotNil(t, cash)
	assert.True(t, cash.Amount.Equal(decimal.NewFromInt(1400)))

	retained := bs.Equity.Find(domain.TaxRetained)
	require.NotNil(t, retained)
	assert.True(t, retained.Amount.Equal(decimal.NewFromInt(400)), "profit folds into retained earnings")
}

func TestBalanceSheetImbalanceSurfaced(t *testing.T) {
	f := newStmtFixture(t)

	// Drop the equity counterweight; the sheet must render anyway.
	require.NoError(t, f.uc.accountRepo.Delete(context.Background(), 1, f.capital.ID))

	bs, err := f.uc.BalanceSheet(context.Background(), 1, f.periodID, time.Time{})
	require.NoError(t, err)
	assert.False(t, bs.IsBalanced)
	assert.True(t, bs.Difference.Equal(decimal.NewFromInt(1000)))
}

func TestIncomeStatementTotals(t *testing.T) {
	f := newStmtFixture(t)

	is, err := f.uc.IncomeStatement(context.Background(), 1, f.periodID, time.Time{})
	require.NoError(t, err)

	assert.True(t, is.TotalIncome.Equal(decimal.NewFromInt(500)))
	assert.True(t, is.TotalExpense.Equal(decimal.NewFromInt(100)))
	assert.True(t, is.NetProfit.Equal(decimal.NewFromInt(400)))

	revenue := is.Income.Find(domain.TaxRevenue)
	require.NotNil(t, revenue)
	assert.True(t, revenue.Amount.Equal(decimal.NewFromInt(500)))

	opex := is.Expenses.Find(domain.TaxOperatingExp)
	require.NotNil(t, opex)
	assert.True(t, opex.Amount.Equal(decimal.NewFromInt(100)))
}

func TestIncomeStatementIgnoresBalanceAccounts(t *testing.T) {
	f := newStmtFixture(t)

	is, err := f.uc.IncomeStatement(context.Background(), 1, f.periodID, time.Time{})
	require.NoError(t, err)

	// Cash moved during the period but is neither income nor expense.
	assert.True(t, is.Income.Amount.Equal(decimal.NewFromInt(500)))
	assert.True(t, is.Expenses.Amount.Equal(decimal.NewFromInt(100)))
}
