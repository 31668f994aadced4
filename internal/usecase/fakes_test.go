package usecase

import (
	"context"
	"sort"
	"time"

	"bookkeeping-service/internal/domain"
	"bookkeeping-service/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// In-memory repository fakes. They enforce the same error contracts as
// the postgres implementations so the usecases can be exercised without
// a database.

// ===============================
// ACCOUNTS
// ===============================

type fakeAccountRepo struct {
	nextID   int64
	accounts map[int64]*domain.Account
	posted   map[int64]bool // account IDs carrying posted lines
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		accounts: make(map[int64]*domain.Account),
		posted:   make(map[int64]bool),
	}
}

func (r *fakeAccountRepo) Create(_ context.Context, a *domain.Account) error {
	for _, existing := range r.accounts {
		if existing.TenantID == a.TenantID && existing.Code == a.Code {
			return xerrors.ErrDuplicateCode
		}
	}
	r.nextID++
	a.ID = r.nextID
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, tenantID, id int64) (*domain.Account, error) {
	a, ok := r.accounts[id]
	if !ok || a.TenantID != tenantID {
		return nil, xerrors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAccountRepo) GetByCode(_ context.Context, tenantID int64, code string) (*domain.Account, error) {
	for _, a := range r.accounts {
		if a.TenantID == tenantID && a.Code == code {
			cp := *a
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *fakeAccountRepo) GetMany(ctx context.Context, tenantID int64, ids []int64) (map[int64]*domain.Account, error) {
	out := make(map[int64]*domain.Account, len(ids))
	for _, id := range ids {
		if a, err := r.GetByID(ctx, tenantID, id); err == nil {
			out[id] = a
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) List(_ context.Context, tenantID int64, filter *domain.AccountFilter) ([]*domain.Account, error) {
	var out []*domain.Account
	for _, a := range r.accounts {
		if a.TenantID != tenantID {
			continue
		}
		if filter != nil {
			if filter.Category != nil && a.Category != *filter.Category {
				continue
			}
			if filter.IsGroup != nil && a.IsGroup != *filter.IsGroup {
				continue
			}
			if filter.IsActive != nil && a.IsActive != *filter.IsActive {
				continue
			}
			if filter.ParentID != nil && (a.ParentID == nil || *a.ParentID != *filter.ParentID) {
				continue
			}
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *fakeAccountRepo) Update(_ context.Context, a *domain.Account) error {
	existing, ok := r.accounts[a.ID]
	if !ok || existing.TenantID != a.TenantID {
		return xerrors.ErrNotFound
	}
	for _, other := range r.accounts {
		if other.ID != a.ID && other.TenantID == a.TenantID && other.Code == a.Code {
			return xerrors.ErrDuplicateCode
		}
	}
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) Delete(_ context.Context, tenantID, id int64) error {
	a, ok := r.accounts[id]
	if !ok || a.TenantID != tenantID {
		return xerrors.ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}

func (r *fakeAccountRepo) HasChildren(_ context.Context, tenantID, id int64) (bool, error) {
	for _, a := range r.accounts {
		if a.TenantID == tenantID && a.ParentID != nil && *a.ParentID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAccountRepo) HasPostings(_ context.Context, _, id int64) (bool, error) {
	return r.posted[id], nil
}

// ===============================
// PERIODS
// ===============================

type fakePeriodRepo struct {
	nextID  int64
	periods map[int64]*domain.Period
}

func newFakePeriodRepo() *fakePeriodRepo {
	return &fakePeriodRepo{periods: make(map[int64]*domain.Period)}
}

func (r *fakePeriodRepo) Create(_ context.Context, p *domain.Period) error {
	r.nextID++
	p.ID = r.nextID
	cp := *p
	r.periods[p.ID] = &cp
	return nil
}

func (r *fakePeriodRepo) GetByID(_ context.Context, tenantID, id int64) (*domain.Period, error) {
	p, ok := r.periods[id]
	if !ok || p.TenantID != tenantID {
		return nil, xerrors.ErrPeriodNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePeriodRepo) List(_ context.Context, tenantID int64) ([]*domain.Period, error) {
	var out []*domain.Period
	for _, p := range r.periods {
		if p.TenantID == tenantID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (r *fakePeriodRepo) Close(_ context.Context, tenantID, id int64) error {
	p, ok := r.periods[id]
	if !ok || p.TenantID != tenantID {
		return xerrors.ErrPeriodNotFound
	}
	p.IsClosed = true
	return nil
}

func (r *fakePeriodRepo) NextEntryNumber(_ context.Context, _ pgx.Tx, tenantID, periodID int64) (int64, error) {
	p, ok := r.periods[periodID]
	if !ok || p.TenantID != tenantID {
		return 0, xerrors.ErrPeriodNotFound
	}
	p.LastEntryNumber++
	return p.LastEntryNumber, nil
}

// ===============================
// PARTIES
// ===============================

type fakePartyRepo struct {
	nextID  int64
	parties map[int64]*domain.Party
}

func newFakePartyRepo() *fakePartyRepo {
	return &fakePartyRepo{parties: make(map[int64]*domain.Party)}
}

func (r *fakePartyRepo) Create(_ context.Context, p *domain.Party) error {
	r.nextID++
	p.ID = r.nextID
	cp := *p
	r.parties[p.ID] = &cp
	return nil
}

func (r *fakePartyRepo) GetByID(_ context.Context, tenantID, id int64) (*domain.Party, error) {
	p, ok := r.parties[id]
	if !ok || p.TenantID != tenantID {
		return nil, xerrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePartyRepo) List(_ context.Context, tenantID int64, filter *domain.PartyFilter) ([]*domain.Party, error) {
	var out []*domain.Party
	for _, p := range r.parties {
		if p.TenantID != tenantID {
			continue
		}
		if filter != nil {
			if filter.Type != nil && p.Type != *filter.Type {
				continue
			}
			if filter.IsActive != nil && p.IsActive != *filter.IsActive {
				continue
			}
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakePartyRepo) Update(_ context.Context, p *domain.Party) error {
	existing, ok := r.parties[p.ID]
	if !ok || existing.TenantID != p.TenantID {
		return xerrors.ErrNotFound
	}
	cp := *p
	r.parties[p.ID] = &cp
	return nil
}

func (r *fakePartyRepo) UpdateCurrentBalance(_ context.Context, tenantID, id int64, balance decimal.Decimal) error {
	p, ok := r.parties[id]
	if !ok || p.TenantID != tenantID {
		return xerrors.ErrNotFound
	}
	p.CurrentBalance = balance
	return nil
}

// ===============================
// TRANSACTIONS
// ===============================

type fakeTransactionRepo struct {
	nextID     int64
	nextLineID int64
	txns       map[int64]*domain.Transaction
	periodRepo *fakePeriodRepo
}

func newFakeTransactionRepo(periodRepo *fakePeriodRepo) *fakeTransactionRepo {
	return &fakeTransactionRepo{
		txns:       make(map[int64]*domain.Transaction),
		periodRepo: periodRepo,
	}
}

func (r *fakeTransactionRepo) BeginTx(_ context.Context) (pgx.Tx, error) {
	return nil, nil
}

func (r *fakeTransactionRepo) CreateWithLines(ctx context.Context, t *domain.Transaction) error {
	if t.IdempotencyKey != nil && *t.IdempotencyKey != "" {
		for _, existing := range r.txns {
			if existing.TenantID == t.TenantID && existing.IdempotencyKey != nil &&
				*existing.IdempotencyKey == *t.IdempotencyKey {
				return xerrors.ErrDuplicateIdempotencyKey
			}
		}
	}

	number, err := r.periodRepo.NextEntryNumber(ctx, nil, t.TenantID, t.PeriodID)
	if err != nil {
		return err
	}
	t.Number = number

	r.nextID++
	t.ID = r.nextID
	t.CreatedAt = time.Now()
	for i, l := range t.Lines {
		r.nextLineID++
		l.ID = r.nextLineID
		l.TransactionID = t.ID
		l.Ordinal = i + 1
	}
	cp := *t
	r.txns[t.ID] = &cp
	return nil
}

func (r *fakeTransactionRepo) GetByID(_ context.Context, tenantID, id int64) (*domain.Transaction, error) {
	t, ok := r.txns[id]
	if !ok || t.TenantID != tenantID {
		return nil, xerrors.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTransactionRepo) GetByIdempotencyKey(_ context.Context, tenantID int64, key string) (*domain.Transaction, error) {
	for _, t := range r.txns {
		if t.TenantID == tenantID && t.IdempotencyKey != nil && *t.IdempotencyKey == key {
			cp := *t
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *fakeTransactionRepo) List(_ context.Context, tenantID int64, _ *domain.TransactionFilter) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, t := range r.txns {
		if t.TenantID == tenantID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *fakeTransactionRepo) Post(_ context.Context, tenantID, id int64, postingDate time.Time) error {
	t, ok := r.txns[id]
	if !ok || t.TenantID != tenantID {
		return xerrors.ErrNotFound
	}
	if t.Status != domain.StatusDraft {
		return xerrors.ErrNotDraft
	}
	t.Status = domain.StatusPosted
	t.PostingDate = &postingDate
	return nil
}

func (r *fakeTransactionRepo) Reverse(_ context.Context, tenantID, id int64) error {
	t, ok := r.txns[id]
	if !ok || t.TenantID != tenantID {
		return xerrors.ErrNotFound
	}
	if t.Status == domain.StatusReversed {
		return xerrors.ErrAlreadyReversed
	}
	t.Status = domain.StatusReversed
	t.Lines = nil
	return nil
}

// ===============================
// BALANCES AND LEDGER
// ===============================

// fakeBalanceRepo serves movement sums straight from preset maps and
// records the window boundaries it was asked for.
type fakeBalanceRepo struct {
	before  map[int64]*domain.MovementSum
	through map[int64]*domain.MovementSum

	lastBefore time.Time
	lastFrom   time.Time
	lastAsOf   time.Time
}

func (r *fakeBalanceRepo) SumsBefore(_ context.Context, _ int64, before time.Time) (map[int64]*domain.MovementSum, error) {
	r.lastBefore = before
	if r.before == nil {
		return map[int64]*domain.MovementSum{}, nil
	}
	return r.before, nil
}

func (r *fakeBalanceRepo) SumsThrough(_ context.Context, _ int64, from, asOf time.Time) (map[int64]*domain.MovementSum, error) {
	r.lastFrom = from
	r.lastAsOf = asOf
	if r.through == nil {
		return map[int64]*domain.MovementSum{}, nil
	}
	return r.through, nil
}

type fakeLedgerRepo struct {
	accountEntries map[int64][]*domain.LedgerEntry
	partyEntries   map[int64][]*domain.LedgerEntry
	preDebit       decimal.Decimal
	preCredit      decimal.Decimal
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{
		accountEntries: make(map[int64][]*domain.LedgerEntry),
		partyEntries:   make(map[int64][]*domain.LedgerEntry),
		preDebit:       decimal.Zero,
		preCredit:      decimal.Zero,
	}
}

func (r *fakeLedgerRepo) ListByAccount(_ context.Context, _, accountID int64, _, _ time.Time) ([]*domain.LedgerEntry, error) {
	return r.accountEntries[accountID], nil
}

func (r *fakeLedgerRepo) ListByParty(_ context.Context, _, partyID int64, _, _ time.Time) ([]*domain.LedgerEntry, error) {
	return r.partyEntries[partyID], nil
}

func (r *fakeLedgerRepo) SumBeforeAccount(_ context.Context, _, _ int64, _ time.Time) (decimal.Decimal, decimal.Decimal, error) {
	return r.preDebit, r.preCredit, nil
}

func (r *fakeLedgerRepo) SumBeforeParty(_ context.Context, _, _ int64, _ time.Time) (decimal.Decimal, decimal.Decimal, error) {
	return r.preDebit, r.preCredit, nil
}
