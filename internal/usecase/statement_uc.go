package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookkeeping-service/internal/classifier"
	"bookkeeping-service/internal/domain"
	"bookkeeping-service/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const statementCacheTTL = 5 * time.Minute

// StatementUsecase renders the classified financial statements by mapping
// leaf accounts onto the fixed taxonomy and rolling amounts up the trees.
type StatementUsecase struct {
	accountRepo repository.AccountRepository
	balanceRepo repository.BalanceRepository
	periodRepo  repository.PeriodRepository
	classifier  *classifier.Classifier
	redisClient *redis.Client
}

func NewStatementUsecase(
	accountRepo repository.AccountRepository,
	balanceRepo repository.BalanceRepository,
	periodRepo repository.PeriodRepository,
	cls *classifier.Classifier,
	redisClient *redis.Client,
) *StatementUsecase {
	if cls == nil {
		cls = classifier.New(nil)
	}
	return &StatementUsecase{
		accountRepo: accountRepo,
		balanceRepo: balanceRepo,
		periodRepo:  periodRepo,
		classifier:  cls,
		redisClient: redisClient,
	}
}

// ===============================
// BALANCE SHEET
// ===============================

// BalanceSheet classifies every leaf's closing position as of a date.
// Period-to-date profit is folded into retained earnings so the equation
// closes without a year-end closing entry.
func (uc *StatementUsecase) BalanceSheet(ctx context.Context, tenantID, periodID int64, asOf time.Time) (*domain.BalanceSheet, error) {
	period, err := uc.periodRepo.GetByID(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = period.EndDate
	}

	cacheKey := fmt.Sprintf("statements:%d:bs:%d:%d", tenantID, periodID, asOf.Unix())
	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var bs domain.BalanceSheet
			if jsonErr := json.Unmarshal([]byte(val), &bs); jsonErr == nil {
				return &bs, nil
			}
		}
	}

	leaves, err := uc.leafAccounts(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	sums, err := uc.balanceRepo.SumsThrough(ctx, tenantID, time.Time{}, asOf)
	if err != nil {
		return nil, err
	}

	assets := classifier.NewAssetTree()
	liabilities := classifier.NewLiabilityTree()
	equity := classifier.NewEquityTree()
	netProfit := decimal.Zero

	for _, a := range leaves {
		signed := a.SignedOpening()
		if s, ok := sums[a.ID]; ok {
			signed = signed.Add(s.Debit).Sub(s.Credit)
		}
		if signed.IsZero() {
			continue
		}

		switch a.Category {
		case domain.CategoryIncome:
			netProfit = netProfit.Add(signed.Neg())
			continue
		case domain.CategoryExpense:
			netProfit = netProfit.Sub(signed)
			continue
		}

		key, ok := uc.classifier.Classify(a)
		if !ok {
			continue
		}
		switch a.Category {
		case domain.CategoryAsset:
			classifier.AddAmount(assets, key, signed)
		case domain.CategoryLiability:
			classifier.AddAmount(liabilities, key, signed.Neg())
		case domain.CategoryEquity:
			classifier.AddAmount(equity, key, signed.Neg())
		}
	}

	classifier.AddAmount(equity, domain.TaxRetained, netProfit)

	bs := &domain.BalanceSheet{
		PeriodID:         periodID,
		AsOfDate:         asOf,
		Assets:           assets,
		Liabilities:      liabilities,
		Equity:           equity,
		NetProfit:        netProfit,
		TotalAssets:      assets.Amount,
		TotalLiabilities: liabilities.Amount,
		TotalEquity:      equity.Amount,
	}
	bs.Difference = bs.TotalAssets.Sub(bs.TotalLiabilities.Add(bs.TotalEquity))
	bs.IsBalanced = bs.Difference.Abs().LessThan(domain.Tolerance)

	if uc.redisClient != nil {
		if data, err := json.Marshal(bs); err == nil {
			_ = uc.redisClient.Set(ctx, cacheKey, data, statementCacheTTL).Err()
		}
	}
	return bs, nil
}

// ===============================
// INCOME STATEMENT
// ===============================

// IncomeStatement classifies period activity on income and expense
// accounts. Opening balances play no part; profit is a flow, not a stock.
func (uc *StatementUsecase) IncomeStatement(ctx context.Context, tenantID, periodID int64, asOf time.Time) (*domain.IncomeStatement, error) {
	period, err := uc.periodRepo.GetByID(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = period.EndDate
	}

	cacheKey := fmt.Sprintf("statements:%d:is:%d:%d", tenantID, periodID, asOf.Unix())
	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var is domain.IncomeStatement
			if jsonErr := json.Unmarshal([]byte(val), &is); jsonErr == nil {
				return &is, nil
			}
		}
	}

	leaves, err := uc.leafAccounts(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	sums, err := uc.balanceRepo.SumsThrough(ctx, tenantID, period.StartDate, asOf)
	if err != nil {
		return nil, err
	}

	income := classifier.NewIncomeTree()
	expenses := classifier.NewExpenseTree()

	for _, a := range leaves {
		s, ok := sums[a.ID]
		if !ok {
			continue
		}
		signed := s.Debit.Sub(s.Credit)
		if signed.IsZero() {
			continue
		}

		key, found := uc.classifier.Classify(a)
		if !found {
			continue
		}
		switch a.Category {
		case domain.CategoryIncome:
			classifier.AddAmount(income, key, signed.Neg())
		case domain.CategoryExpense:
			classifier.AddAmount(expenses, key, signed)
		}
	}

	is := &domain.IncomeStatement{
		PeriodID:     periodID,
		AsOfDate:     asOf,
		Income:       income,
		Expenses:     expenses,
		TotalIncome:  income.Amount,
		TotalExpense: expenses.Amount,
	}
	is.NetProfit = is.TotalIncome.Sub(is.TotalExpense)

	if uc.redisClient != nil {
		if data, err := json.Marshal(is); err == nil {
			_ = uc.redisClient.Set(ctx, cacheKey, data, statementCacheTTL).Err()
		}
	}
	return is, nil
}

func (uc *StatementUsecase) leafAccounts(ctx context.Context, tenantID int64) ([]*domain.Account, error) {
	isGroup := false
	return uc.accountRepo.List(ctx, tenantID, &domain.AccountFilter{IsGroup: &isGroup})
}
