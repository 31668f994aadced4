package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookkeeping-service/internal/domain"
	"bookkeeping-service/pkg/xerrors"
)

type txFixture struct {
	uc       *TransactionUsecase
	txRepo   *fakeTransactionRepo
	periods  *fakePeriodRepo
	cash     *domain.Account
	sales    *domain.Account
	group    *domain.Account
	inactive *domain.Account
	party    *domain.Party
	periodID int64
}

func newTxFixture(t *testing.T) *txFixture {
	t.Helper()
	ctx := context.Background()

	accountRepo := newFakeAccountRepo()
	periodRepo := newFakePeriodRepo()
	partyRepo := newFakePartyRepo()
	txRepo := newFakeTransactionRepo(periodRepo)

	f := &txFixture{txRepo: txRepo, periods: periodRepo}

	mk := func(code, name string, cat domain.AccountCategory, group, active bool) *domain.Account {
		a := &domain.Account{TenantID: 1, Code: code, Name: name, Category: cat, IsGroup: group, IsActive: active, Level: 1}
		require.NoError(t, accountRepo.Create(ctx, a))
		return a
	}
	f.cash = mk("1110", "Cash", domain.CategoryAsset, false, true)
	f.sales = mk("4010", "Sales Revenue", domain.CategoryIncome, false, true)
	f.group = mk("4000", "Income", domain.CategoryIncome, true, true)
	f.inactive = mk("5020", "Old Wages", domain.CategoryExpense, false, false)

	f.party = &domain.Party{TenantID: 1, Type: domain.PartyCustomer, Name: "Acme", IsActive: true}
	require.NoError(t, partyRepo.Create(ctx, f.party))

	period := &domain.Period{
		TenantID:  1,
		Name:      "March 2025",
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, periodRepo.Create(ctx, period))
	f.periodID = period.ID

	f.uc = NewTransactionUsecase(txRepo, accountRepo, periodRepo, partyRepo, nil, nil, nil, zap.NewNop())
	return f
}

func (f *txFixture) submit(amount string, postNow bool) *domain.SubmitRequest {
	amt, _ := decimal.NewFromString(amount)
	return &domain.SubmitRequest{
		TenantID:  1,
		PeriodID:  f.periodID,
		EntryDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Narration: "Cash sale",
		PostNow:   postNow,
		Lines: []*domain.LineRequest{
			{AccountID: f.cash.ID, Debit: amt},
			{AccountID: f.sales.ID, Credit: amt},
		},
	}
}

func TestSubmitPostNow(t *testing.T) {
	f := newTxFixture(t)

	tx, err := f.uc.Submit(context.Background(), f.submit("500", true))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPosted, tx.Status)
	assert.Equal(t, int64(1), tx.Number)
	assert.NotNil(t, tx.PostingDate)
	assert.NotEmpty(t, tx.ReferenceCode)
	assert.True(t, tx.TotalDebit.Equal(decimal.NewFromInt(500)))
	assert.True(t, tx.TotalCredit.Equal(decimal.NewFromInt(500)))
	require.Len(t, tx.Lines, 2)
	assert.Equal(t, 1, tx.Lines[0].Ordinal)
	assert.Equal(t, 2, tx.Lines[1].Ordinal)
}

func TestSubmitDraftThenPost(t *testing.T) {
	f := newTxFixture(t)

	tx, err := f.uc.Submit(context.Background(), f.submit("250", false))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, tx.Status)
	assert.Nil(t, tx.PostingDate)

	posted, err := f.uc.Post(context.Background(), 1, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPosted, posted.Status)
	assert.NotNil(t, posted.PostingDate)

	_, err = f.uc.Post(context.Background(), 1, tx.ID)
	assert.ErrorIs(t, err, xerrors.ErrAlreadyPosted)
}

func TestSubmitSequentialNumbers(t *testing.T) {
	f := newTxFixture(t)

	first, err := f.uc.Submit(context.Background(), f.submit("100", true))
	require.NoError(t, err)
	second, err := f.uc.Submit(context.Background(), f.submit("200", true))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Number)
	assert.Equal(t, int64(2), second.Number)
}

func TestSubmitRejectsUnbalanced(t *testing.T) {
	f := newTxFixture(t)

	req := f.submit("500", true)
	req.Lines[1].Credit = decimal.NewFromInt(480)

	_, err := f.uc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, xerrors.ErrUnbalancedEntry)
	assert.Empty(t, f.txRepo.txns, "nothing may be persisted on rejection")
}

func TestSubmitRejectsGroupAccount(t *testing.T) {
	f := newTxFixture(t)

	req := f.submit("500", true)
	req.Lines[1].AccountID = f.group.ID

	_, err := f.uc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, xerrors.ErrNonPostableAccount)
	assert.Empty(t, f.txRepo.txns)
}

func TestSubmitRejectsInactiveAccount(t *testing.T) {
	f := newTxFixture(t)

	req := f.submit("500", true)
	req.Lines[0].AccountID = f.inactive.ID

	_, err := f.uc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, xerrors.ErrAccountInactive)
	assert.Empty(t, f.txRepo.txns)
}

func TestSubmitRepeatedAccountLines(t *testing.T) {
	f := newTxFixture(t)

	// Several lines may hit the same account; the entry still balances
	// across all legs.
	req := f.submit("500", true)
	req.Lines = []*domain.LineRequest{
		{AccountID: f.cash.ID, Debit: decimal.NewFromInt(300)},
		{AccountID: f.cash.ID, Debit: decimal.NewFromInt(200)},
		{AccountID: f.sales.ID, Credit: decimal.NewFromInt(500)},
	}

	tx, err := f.uc.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, tx.Lines, 3)
	assert.True(t, tx.TotalDebit.Equal(decimal.NewFromInt(500)))
}

func TestSubmitRejectsUnknownAccount(t *testing.T) {
	f := newTxFixture(t)

	req := f.submit("500", true)
	req.Lines[0].AccountID = 9999

	_, err := f.uc.Submit(context.Background(), req)
	assert.True(t, xerrors.IsValidation(err))
}

func TestSubmitRejectsUnknownParty(t *testing.T) {
	f := newTxFixture(t)

	missing := int64(777)
	req := f.submit("500", true)
	req.Lines[0].PartyID = &missing

	_, err := f.uc.Submit(context.Background(), req)
	assert.True(t, xerrors.IsValidation(err))
}

func TestSubmitClosedPeriod(t *testing.T) {
	f := newTxFixture(t)
	require.NoError(t, f.periods.Close(context.Background(), 1, f.periodID))

	_, err := f.uc.Submit(context.Background(), f.submit("500", true))
	assert.True(t, xerrors.IsValidation(err))
}

func TestSubmitEntryDateOutsidePeriod(t *testing.T) {
	f := newTxFixture(t)

	req := f.submit("500", true)
	req.EntryDate = time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)

	_, err := f.uc.Submit(context.Background(), req)
	assert.True(t, xerrors.IsValidation(err))
}

func TestSubmitIdempotencyReplay(t *testing.T) {
	f := newTxFixture(t)

	key := "invoice-42"
	req := f.submit("500", true)
	req.IdempotencyKey = &key

	first, err := f.uc.Submit(context.Background(), req)
	require.NoError(t, err)

	replay := f.submit("500", true)
	replay.IdempotencyKey = &key
	second, err := f.uc.Submit(context.Background(), replay)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "replay returns the stored entry")
	assert.Len(t, f.txRepo.txns, 1)
}

func TestReverseLifecycle(t *testing.T) {
	f := newTxFixture(t)

	tx, err := f.uc.Submit(context.Background(), f.submit("500", true))
	require.NoError(t, err)

	reversed, err := f.uc.Reverse(context.Background(), 1, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReversed, reversed.Status)
	assert.Empty(t, reversed.Lines, "reversal removes the lines")

	_, err = f.uc.Reverse(context.Background(), 1, tx.ID)
	assert.ErrorIs(t, err, xerrors.ErrAlreadyReversed)

	// The claimed number stays burned; the next entry takes a new one.
	next, err := f.uc.Submit(context.Background(), f.submit("100", true))
	require.NoError(t, err)
	assert.Equal(t, tx.Number+1, next.Number)
}

func TestReverseSettledBlocked(t *testing.T) {
	f := newTxFixture(t)

	tx, err := f.uc.Submit(context.Background(), f.submit("500", true))
	require.NoError(t, err)

	f.txRepo.txns[tx.ID].SettledAmount = decimal.NewFromInt(200)

	_, err = f.uc.Reverse(context.Background(), 1, tx.ID)
	assert.ErrorIs(t, err, xerrors.ErrHasSettlements)
}

func TestSubmitCrossTenantIsolated(t *testing.T) {
	f := newTxFixture(t)

	tx, err := f.uc.Submit(context.Background(), f.submit("500", true))
	require.NoError(t, err)

	_, err = f.uc.GetByID(context.Background(), 2, tx.ID)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}
