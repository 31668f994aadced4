package repository

import (
	"context"
	"fmt"
	"time"

	"bookkeeping-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// BalanceRepository aggregates posted line amounts per account. Only
// posted entries contribute; drafts and reversed entries never do.
type BalanceRepository interface {
	// SumsBefore returns per-account debit/credit totals for posted
	// entries dated strictly before the given date.
	SumsBefore(ctx context.Context, tenantID int64, before time.Time) (map[int64]*domain.MovementSum, error)

	// SumsThrough returns per-account totals for posted entries dated
	// within [from, asOf] inclusive.
	SumsThrough(ctx context.Context, tenantID int64, from, asOf time.Time) (map[int64]*domain.MovementSum, error)
}

type balanceRepo struct {
	db *pgxpool.Pool
}

func NewBalanceRepo(db *pgxpool.Pool) BalanceRepository {
	return &balanceRepo{db: db}
}

func (r *balanceRepo) SumsBefore(ctx context.Context, tenantID int64, before time.Time) (map[int64]*domain.MovementSum, error) {
	return r.sums(ctx, `
		SELECT l.account_id, COALESCE(SUM(l.debit),0)::text, COALESCE(SUM(l.credit),0)::text
		FROM transaction_lines l
		JOIN transactions t ON t.id = l.transaction_id
		WHERE t.tenant_id=$1 AND t.status='posted' AND t.entry_date < $2
		GROUP BY l.account_id
	`, tenantID, before)
}

func (r *balanceRepo) SumsThrough(ctx context.Context, tenantID int64, from, asOf time.Time) (map[int64]*domain.MovementSum, error) {
	return r.sums(ctx, `
		SELECT l.account_id, COALESCE(SUM(l.debit),0)::text, COALESCE(SUM(l.credit),0)::text
		FROM transaction_lines l
		JOIN transactions t ON t.id = l.transaction_id
		WHERE t.tenant_id=$1 AND t.status='posted' AND t.entry_date >= $2 AND t.entry_date <= $3
		GROUP BY l.account_id
	`, tenantID, from, asOf)
}

func (r *balanceRepo) sums(ctx context.Context, query string, args ...interface{}) (map[int64]*domain.MovementSum, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movement sums: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]*domain.MovementSum)
	for rows.Next() {
		var s domain.MovementSum
		var debit, credit string
		if err := rows.Scan(&s.AccountID, &debit, &credit); err != nil {
			return nil, fmt.Errorf("failed to scan movement row: %w", err)
		}
		s.Debit, _ = decimal.NewFromString(debit)
		s.Credit, _ = decimal.NewFromString(credit)
		result[s.AccountID] = &s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movement rows: %w", err)
	}
	return result, nil
}
