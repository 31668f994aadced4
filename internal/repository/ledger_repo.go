package repository

import (
	"context"
	"fmt"
	"time"

	"bookkeeping-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerRepository reads posted lines back in replay order for the
// running-balance views. Replay order is (entry_date, number, ordinal)
// so lines sharing a date come back in submission order.
type LedgerRepository interface {
	ListByAccount(ctx context.Context, tenantID, accountID int64, from, asOf time.Time) ([]*domain.LedgerEntry, error)
	ListByParty(ctx context.Context, tenantID, partyID int64, from, asOf time.Time) ([]*domain.LedgerEntry, error)

	// SumBeforeAccount and SumBeforeParty return the posted debit and
	// credit totals dated strictly before the given date, for seeding
	// the opening balance of a statement window.
	SumBeforeAccount(ctx context.Context, tenantID, accountID int64, before time.Time) (debit, credit decimal.Decimal, err error)
	SumBeforeParty(ctx context.Context, tenantID, partyID int64, before time.Time) (debit, credit decimal.Decimal, err error)
}

type ledgerRepo struct {
	db *pgxpool.Pool
}

func NewLedgerRepo(db *pgxpool.Pool) LedgerRepository {
	return &ledgerRepo{db: db}
}

const ledgerColumns = `
	t.id, t.number, t.entry_date, t.narration, l.description, l.debit::text, l.credit::text
`

func (r *ledgerRepo) ListByAccount(ctx context.Context, tenantID, accountID int64, from, asOf time.Time) ([]*domain.LedgerEntry, error) {
	return r.list(ctx, `
		SELECT `+ledgerColumns+`
		FROM transaction_lines l
		JOIN transactions t ON t.id = l.transaction_id
		WHERE t.tenant_id=$1 AND l.account_id=$2 AND t.status='posted'
			AND t.entry_date >= $3 AND t.entry_date <= $4
		ORDER BY t.entry_date, t.number, l.ordinal
	`, tenantID, accountID, from, asOf)
}

func (r *ledgerRepo) ListByParty(ctx context.Context, tenantID, partyID int64, from, asOf time.Time) ([]*domain.LedgerEntry, error) {
	return r.list(ctx, `
		SELECT `+ledgerColumns+`
		FROM transaction_lines l
		JOIN transactions t ON t.id = l.transaction_id
		WHERE t.tenant_id=$1 AND l.party_id=$2 AND t.status='posted'
			AND t.entry_date >= $3 AND t.entry_date <= $4
		ORDER BY t.entry_date, t.number, l.ordinal
	`, tenantID, partyID, from, asOf)
}

func (r *ledgerRepo) list(ctx context.Context, query string, args ...interface{}) ([]*domain.LedgerEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger lines: %w", err)
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var debit, credit string
		if err := rows.Scan(&e.TransactionID, &e.Number, &e.EntryDate, &e.Narration, &e.Description, &debit, &credit); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		e.Debit, _ = decimal.NewFromString(debit)
		e.Credit, _ = decimal.NewFromString(credit)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepo) SumBeforeAccount(ctx context.Context, tenantID, accountID int64, before time.Time) (decimal.Decimal, decimal.Decimal, error) {
	return r.sumBefore(ctx, `
		SELECT COALESCE(SUM(l.debit),0)::text, COALESCE(SUM(l.credit),0)::text
		FROM transaction_lines l
		JOIN transactions t ON t.id = l.transaction_id
		WHERE t.tenant_id=$1 AND l.account_id=$2 AND t.status='posted' AND t.entry_date < $3
	`, tenantID, accountID, before)
}

func (r *ledgerRepo) SumBeforeParty(ctx context.Context, tenantID, partyID int64, before time.Time) (decimal.Decimal, decimal.Decimal, error) {
	return r.sumBefore(ctx, `
		SELECT COALESCE(SUM(l.debit),0)::text, COALESCE(SUM(l.credit),0)::text
		FROM transaction_lines l
		JOIN transactions t ON t.id = l.transaction_id
		WHERE t.tenant_id=$1 AND l.party_id=$2 AND t.status='posted' AND t.entry_date < $3
	`, tenantID, partyID, before)
}

func (r *ledgerRepo) sumBefore(ctx context.Context, query string, args ...interface{}) (decimal.Decimal, decimal.Decimal, error) {
	var debitStr, creditStr string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&debitStr, &creditStr); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum ledger lines: %w", err)
	}
	debit, _ := decimal.NewFromString(debitStr)
	credit, _ := decimal.NewFromString(creditStr)
	return debit, credit, nil
}
