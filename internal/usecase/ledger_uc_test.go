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

type ledgerFixture struct {
	uc      *LedgerUsecase
	ledger  *fakeLedgerRepo
	parties *fakePartyRepo
	account *domain.Account
	party   *domain.Party
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	ctx := context.Background()

	accountRepo := newFakeAccountRepo()
	partyRepo := newFakePartyRepo()
	ledgerRepo := newFakeLedgerRepo()

	f := &ledgerFixture{ledger: ledgerRepo, parties: partyRepo}

	f.account = &domain.Account{
		TenantID: 1, Code: "1110", Name: "Cash", Category: domain.CategoryAsset,
		OpeningBalance: decimal.NewFromInt(1000), OpeningSide: domain.SideDebit, IsActive: true,
	}
	require.NoError(t, accountRepo.Create(ctx, f.account))

	f.party = &domain.Party{
		TenantID: 1, Type: domain.PartyCustomer, Name: "Acme",
		OpeningBalance: decimal.NewFromInt(300), OpeningSide: domain.SideDebit, IsActive: true,
	}
	require.NoError(t, partyRepo.Create(ctx, f.party))

	f.uc = NewLedgerUsecase(accountRepo, partyRepo, ledgerRepo, nil)
	return f
}

func entry(day int, debit, credit int64) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		EntryDate: time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC),
		Debit:     decimal.NewFromInt(debit),
		Credit:    decimal.NewFromInt(credit),
	}
}

func TestAccountStatementRunningFold(t *testing.T) {
	f := newLedgerFixture(t)
	f.ledger.accountEntries[f.account.ID] = []*domain.LedgerEntry{
		entry(5, 500, 0),
		entry(9, 0, 200),
	}

	st, err := f.uc.AccountStatement(context.Background(), 1, f.account.ID, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	require.NoError(t, err)

	assert.True(t, st.OpeningBalance.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, domain.SideDebit, st.OpeningSide)

	require.Len(t, st.Entries, 2)
	assert.True(t, st.Entries[0].Balance.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, domain.SideDebit, st.Entries[0].BalanceSide)
	assert.True(t, st.Entries[1].Balance.Equal(decimal.NewFromInt(1300)))
	assert.Equal(t, domain.SideDebit, st.Entries[1].BalanceSide)

	assert.True(t, st.TotalDebit.Equal(decimal.NewFromInt(500)))
	assert.True(t, st.TotalCredit.Equal(decimal.NewFromInt(200)))
	assert.True(t, st.ClosingBalance.Equal(decimal.NewFromInt(1300)))
	assert.Equal(t, domain.SideDebit, st.ClosingSide)
}

func TestAccountStatementSideFlip(t *testing.T) {
	f := newLedgerFixture(t)
	f.ledger.accountEntries[f.account.ID] = []*domain.LedgerEntry{
		entry(5, 0, 1600),
	}

	st, err := f.uc.AccountStatement(context.Background(), 1, f.account.ID, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	require.NoError(t, err)

	// 1000 Dr opening less a 1600 credit crosses zero.
	assert.True(t, st.ClosingBalance.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, domain.SideCredit, st.ClosingSide)
}

func TestAccountStatementSeedsFromPriorActivity(t *testing.T) {
	f := newLedgerFixture(t)
	f.ledger.preDebit = decimal.NewFromInt(400)
	f.ledger.preCredit = decimal.NewFromInt(100)

	st, err := f.uc.AccountStatement(context.Background(), 1, f.account.ID, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	require.NoError(t, err)

	// 1000 configured + 300 net pre-window movement.
	assert.True(t, st.OpeningBalance.Equal(decimal.NewFromInt(1300)))
	assert.Equal(t, domain.SideDebit, st.OpeningSide)
}

func TestPartyStatementReceivableSplit(t *testing.T) {
	f := newLedgerFixture(t)
	f.ledger.partyEntries[f.party.ID] = []*domain.LedgerEntry{
		entry(3, 900, 0),  // invoice
		entry(20, 0, 400), // settlement
	}

	st, err := f.uc.PartyStatement(context.Background(), 1, f.party.ID, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, "Acme", st.PartyName)
	assert.True(t, st.OpeningBalance.Equal(decimal.NewFromInt(300)))
	assert.True(t, st.GrossInvoiced.Equal(decimal.NewFromInt(900)), "customer invoices are debits")
	assert.True(t, st.GrossSettled.Equal(decimal.NewFromInt(400)))
	assert.True(t, st.ClosingBalance.Equal(decimal.NewFromInt(800)))
	assert.Equal(t, domain.SideDebit, st.ClosingSide)
}

func TestPartyStatementPayableSplit(t *testing.T) {
	f := newLedgerFixture(t)

	vendor := &domain.Party{
		TenantID: 1, Type: domain.PartyVendor, Name: "Supplies Co",
		OpeningBalance: decimal.Zero, OpeningSide: domain.SideCredit, IsActive: true,
	}
	require.NoError(t, f.parties.Create(context.Background(), vendor))
	f.ledger.partyEntries[vendor.ID] = []*domain.LedgerEntry{
		entry(4, 0, 600), // bill received
		entry(25, 250, 0), // payment made
	}

	st, err := f.uc.PartyStatement(context.Background(), 1, vendor.ID, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	require.NoError(t, err)

	assert.True(t, st.GrossInvoiced.Equal(decimal.NewFromInt(600)), "vendor bills are credits")
	assert.True(t, st.GrossSettled.Equal(decimal.NewFromInt(250)))
	assert.True(t, st.ClosingBalance.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, domain.SideCredit, st.ClosingSide)
}

func TestRefreshPartyBalance(t *testing.T) {
	f := newLedgerFixture(t)
	f.ledger.preDebit = decimal.NewFromInt(900)
	f.ledger.preCredit = decimal.NewFromInt(400)

	balance, err := f.uc.RefreshPartyBalance(context.Background(), 1, f.party.ID)
	require.NoError(t, err)

	// 300 Dr opening + 500 net = 800 signed debit.
	assert.True(t, balance.Equal(decimal.NewFromInt(800)))

	stored, err := f.parties.GetByID(context.Background(), 1, f.party.ID)
	require.NoError(t, err)
	assert.True(t, stored.CurrentBalance.Equal(decimal.NewFromInt(800)))
}
