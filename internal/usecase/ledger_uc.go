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

const ledgerCacheTTL = 5 * time.Minute

// endOfTime bounds "all postings" queries. Entries are never dated this
// far out.
var endOfTime = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// LedgerUsecase replays posted lines into running-balance statements for
// accounts and parties.
type LedgerUsecase struct {
	accountRepo repository.AccountRepository
	partyRepo   repository.PartyRepository
	ledgerRepo  repository.LedgerRepository
	redisClient *redis.Client
}

func NewLedgerUsecase(
	accountRepo repository.AccountRepository,
	partyRepo repository.PartyRepository,
	ledgerRepo repository.LedgerRepository,
	redisClient *redis.Client,
) *LedgerUsecase {
	return &LedgerUsecase{
		accountRepo: accountRepo,
		partyRepo:   partyRepo,
		ledgerRepo:  ledgerRepo,
		redisClient: redisClient,
	}
}

// ===============================
// ACCOUNT STATEMENT
// ===============================

// AccountStatement replays an account's posted lines over [from, asOf].
// The opening seed is the configured opening balance plus every posted
// movement dated before the window.
func (uc *LedgerUsecase) AccountStatement(ctx context.Context, tenantID, accountID int64, from, asOf time.Time) (*domain.LedgerStatement, error) {
	account, err := uc.accountRepo.GetByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = endOfTime
	}

	cacheKey := fmt.Sprintf("ledger:%d:account:%d:%d:%d", tenantID, accountID, from.Unix(), asOf.Unix())
	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var st domain.LedgerStatement
			if jsonErr := json.Unmarshal([]byte(val), &st); jsonErr == nil {
				return &st, nil
			}
		}
	}

	preDebit, preCredit, err := uc.ledgerRepo.SumBeforeAccount(ctx, tenantID, accountID, from)
	if err != nil {
		return nil, err
	}
	openingSigned := account.SignedOpening().Add(preDebit).Sub(preCredit)

	entries, err := uc.ledgerRepo.ListByAccount(ctx, tenantID, accountID, from, asOf)
	if err != nil {
		return nil, err
	}

	st := foldStatement(openingSigned, entries)

	if uc.redisClient != nil {
		if data, err := json.Marshal(st); err == nil {
			_ = uc.redisClient.Set(ctx, cacheKey, data, ledgerCacheTTL).Err()
		}
	}
	return st, nil
}

// foldStatement runs the signed fold over replay-ordered entries and
// stamps each line with its running balance.
func foldStatement(openingSigned decimal.Decimal, entries []*domain.LedgerEntry) *domain.LedgerStatement {
	st := &domain.LedgerStatement{
		Entries:     entries,
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	st.OpeningSide, st.OpeningBalance = domain.SideOf(openingSigned)

	running := openingSigned
	for _, e := range entries {
		running = running.Add(e.Debit).Sub(e.Credit)
		e.BalanceSide, e.Balance = domain.SideOf(running)
		st.TotalDebit = st.TotalDebit.Add(e.Debit)
		st.TotalCredit = st.TotalCredit.Add(e.Credit)
	}
	st.ClosingSide, st.ClosingBalance = domain.SideOf(running)
	return st
}

// ===============================
// PARTY STATEMENT
// ===============================

// PartyStatement replays the lines tagged with a party across every
// account, plus the gross invoiced/settled split for the window.
func (uc *LedgerUsecase) PartyStatement(ctx context.Context, tenantID, partyID int64, from, asOf time.Time) (*domain.PartyStatement, error) {
	party, err := uc.partyRepo.GetByID(ctx, tenantID, partyID)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = endOfTime
	}

	cacheKey := fmt.Sprintf("ledger:%d:party:%d:%d:%d", tenantID, partyID, from.Unix(), asOf.Unix())
	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var st domain.PartyStatement
			if jsonErr := json.Unmarshal([]byte(val), &st); jsonErr == nil {
				return &st, nil
			}
		}
	}

	preDebit, preCredit, err := uc.ledgerRepo.SumBeforeParty(ctx, tenantID, partyID, from)
	if err != nil {
		return nil, err
	}
	openingSigned := party.SignedOpening().Add(preDebit).Sub(preCredit)

	entries, err := uc.ledgerRepo.ListByParty(ctx, tenantID, partyID, from, asOf)
	if err != nil {
		return nil, err
	}

	st := &domain.PartyStatement{
		PartyID:         party.ID,
		PartyName:       party.Name,
		PartyType:       party.Type,
		LedgerStatement: *foldStatement(openingSigned, entries),
	}

	// Receivable parties accumulate on the debit side: debits invoice,
	// credits settle. Payable-style parties run the other way.
	if party.Receivable() {
		st.GrossInvoiced = st.TotalDebit
		st.GrossSettled = st.TotalCredit
	} else {
		st.GrossInvoiced = st.TotalCredit
		st.GrossSettled = st.TotalDebit
	}

	if uc.redisClient != nil {
		if data, err := json.Marshal(st); err == nil {
			_ = uc.redisClient.Set(ctx, cacheKey, data, ledgerCacheTTL).Err()
		}
	}
	return st, nil
}

// RefreshPartyBalance recomputes the party's denormalized balance cache
// from the full posted fold and stores it signed, debit positive.
func (uc *LedgerUsecase) RefreshPartyBalance(ctx context.Context, tenantID, partyID int64) (decimal.Decimal, error) {
	party, err := uc.partyRepo.GetByID(ctx, tenantID, partyID)
	if err != nil {
		return decimal.Zero, err
	}

	debit, credit, err := uc.ledgerRepo.SumBeforeParty(ctx, tenantID, partyID, endOfTime)
	if err != nil {
		return decimal.Zero, err
	}
	balance := party.SignedOpening().Add(debit).Sub(credit)

	if err := uc.partyRepo.UpdateCurrentBalance(ctx, tenantID, partyID, balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
