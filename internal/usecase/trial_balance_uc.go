package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookkeeping-service/internal/domain"
	"bookkeeping-service/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const trialBalanceCacheTTL = 5 * time.Minute

// TrialBalanceUsecase aggregates posted movements into the three-bucket
// trial balance: opening, period activity and closing.
type TrialBalanceUsecase struct {
	accountRepo repository.AccountRepository
	balanceRepo repository.BalanceRepository
	periodRepo  repository.PeriodRepository
	redisClient *redis.Client
}

func NewTrialBalanceUsecase(
	accountRepo repository.AccountRepository,
	balanceRepo repository.BalanceRepository,
	periodRepo repository.PeriodRepository,
	redisClient *redis.Client,
) *TrialBalanceUsecase {
	return &TrialBalanceUsecase{
		accountRepo: accountRepo,
		balanceRepo: balanceRepo,
		periodRepo:  periodRepo,
		redisClient: redisClient,
	}
}

// bucket carries an account's figures while they are still signed
// (debit positive). Columns are expanded only at the edge.
type bucket struct {
	opening      decimal.Decimal
	periodDebit  decimal.Decimal
	periodCredit decimal.Decimal
}

func (b bucket) closing() decimal.Decimal {
	return b.opening.Add(b.periodDebit).Sub(b.periodCredit)
}

// Compute builds the trial balance of a period over [from, asOf]. A zero
// from means the period's start date, a zero asOf its end date; a later
// from narrows the period bucket and folds everything before it into the
// opening column. Out-of-balance totals come back with IsBalanced=false;
// the caller decides how loudly to complain.
func (uc *TrialBalanceUsecase) Compute(ctx context.Context, tenantID, periodID int64, from, asOf time.Time) (*domain.TrialBalance, error) {
	period, err := uc.periodRepo.GetByID(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	if from.IsZero() {
		from = period.StartDate
	}
	if asOf.IsZero() {
		asOf = period.EndDate
	}

	cacheKey := fmt.Sprintf("trial_balance:%d:%d:%d:%d", tenantID, periodID, from.Unix(), asOf.Unix())

	// --- Check Redis cache first ---
	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var tb domain.TrialBalance
			if jsonErr := json.Unmarshal([]byte(val), &tb); jsonErr == nil {
				return &tb, nil
			}
		}
	}

	accounts, err := uc.accountRepo.List(ctx, tenantID, nil)
	if err != nil {
		return nil, err
	}
	openingSums, err := uc.balanceRepo.SumsBefore(ctx, tenantID, from)
	if err != nil {
		return nil, err
	}
	periodSums, err := uc.balanceRepo.SumsThrough(ctx, tenantID, from, asOf)
	if err != nil {
		return nil, err
	}

	// Own figures per account, then group rollup over the hierarchy.
	buckets := make(map[int64]bucket, len(accounts))
	children := make(map[int64][]*domain.Account)
	for _, a := range accounts {
		b := bucket{opening: decimal.Zero, periodDebit: decimal.Zero, periodCredit: decimal.Zero}
		// Configured openings count for active accounts only. Posted
		// movements on a since-deactivated account still contribute, or
		// the totals would stop balancing.
		if a.IsActive {
			b.opening = a.SignedOpening()
		}
		if s, ok := openingSums[a.ID]; ok {
			b.opening = b.opening.Add(s.Debit).Sub(s.Credit)
		}
		if s, ok := periodSums[a.ID]; ok {
			b.periodDebit = s.Debit
			b.periodCredit = s.Credit
		}
		buckets[a.ID] = b
		if a.ParentID != nil {
			children[*a.ParentID] = append(children[*a.ParentID], a)
		}
	}

	rolled := make(map[int64]bucket, len(accounts))
	var rollup func(a *domain.Account) bucket
	rollup = func(a *domain.Account) bucket {
		b := buckets[a.ID]
		for _, c := range children[a.ID] {
			cb := rollup(c)
			b.opening = b.opening.Add(cb.opening)
			b.periodDebit = b.periodDebit.Add(cb.periodDebit)
			b.periodCredit = b.periodCredit.Add(cb.periodCredit)
		}
		rolled[a.ID] = b
		return b
	}
	for _, a := range accounts {
		if a.ParentID == nil {
			rollup(a)
		}
	}

	tb := &domain.TrialBalance{
		PeriodID:    periodID,
		FromDate:    &from,
		AsOfDate:    asOf,
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}

	for _, a := range accounts {
		b, ok := rolled[a.ID]
		if !ok {
			b = buckets[a.ID]
		}
		row := &domain.TrialBalanceRow{
			AccountID: a.ID,
			Code:      a.Code,
			Name:      a.Name,
			Category:  a.Category,
			IsGroup:   a.IsGroup,
		}
		openSide, openAbs := domain.SideOf(b.opening)
		if openSide == domain.SideDebit {
			row.OpeningDebit = openAbs
			row.OpeningCredit = decimal.Zero
		} else {
			row.OpeningDebit = decimal.Zero
			row.OpeningCredit = openAbs
		}
		row.PeriodDebit = b.periodDebit
		row.PeriodCredit = b.periodCredit
		closeSide, closeAbs := domain.SideOf(b.closing())
		if closeSide == domain.SideDebit {
			row.ClosingDebit = closeAbs
			row.ClosingCredit = decimal.Zero
		} else {
			row.ClosingDebit = decimal.Zero
			row.ClosingCredit = closeAbs
		}
		if row.IsZero() {
			continue
		}
		tb.Rows = append(tb.Rows, row)

		// Totals run over leaves only; group rows repeat their
		// descendants and would double count.
		if !a.IsGroup {
			tb.TotalDebit = tb.TotalDebit.Add(row.ClosingDebit)
			tb.TotalCredit = tb.TotalCredit.Add(row.ClosingCredit)
		}
	}

	tb.IsBalanced = tb.TotalDebit.Sub(tb.TotalCredit).Abs().LessThan(domain.Tolerance)

	// --- Cache result in Redis ---
	if uc.redisClient != nil {
		if data, err := json.Marshal(tb); err == nil {
			_ = uc.redisClient.Set(ctx, cacheKey, data, trialBalanceCacheTTL).Err()
		}
	}

	return tb, nil
}
