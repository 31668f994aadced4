package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookkeeping-service/internal/domain"
	"bookkeeping-service/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type TransactionRepository interface {
	// CreateWithLines claims the next entry number and inserts the
	// header and every line as one atomic unit. No partial state is
	// ever visible to readers.
	CreateWithLines(ctx context.Context, t *domain.Transaction) error

	GetByID(ctx context.Context, tenantID, id int64) (*domain.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, tenantID int64, key string) (*domain.Transaction, error)
	List(ctx context.Context, tenantID int64, filter *domain.TransactionFilter) ([]*domain.Transaction, error)

	Post(ctx context.Context, tenantID, id int64, postingDate time.Time) error
	Reverse(ctx context.Context, tenantID, id int64) error

	BeginTx(ctx context.Context) (pgx.Tx, error)
}

type transactionRepo struct {
	db         *pgxpool.Pool
	periodRepo PeriodRepository
}

func NewTransactionRepo(db *pgxpool.Pool, periodRepo PeriodRepository) TransactionRepository {
	return &transactionRepo{db: db, periodRepo: periodRepo}
}

func (r *transactionRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateWithLines runs the read-modify-insert for the entry number and
// the header/line inserts under a single database transaction. The
// period-row lock taken by NextEntryNumber serializes concurrent
// posters; numbers are gap-tolerant and never reused.
func (r *transactionRepo) CreateWithLines(ctx context.Context, t *domain.Transaction) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	number, err := r.periodRepo.NextEntryNumber(ctx, tx, t.TenantID, t.PeriodID)
	if err != nil {
		return err
	}
	t.Number = number

	now := time.Now()
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions (
			tenant_id, period_id, number, reference_code, idempotency_key,
			entry_date, posting_date, narration, origin, status,
			total_debit, total_credit, settled_amount, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,0,$13)
		RETURNING id
	`, t.TenantID, t.PeriodID, t.Number, t.ReferenceCode, t.IdempotencyKey,
		t.EntryDate, t.PostingDate, t.Narration, t.Origin, t.Status,
		t.TotalDebit, t.TotalCredit, now,
	).Scan(&t.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return xerrors.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	t.CreatedAt = now

	for i, l := range t.Lines {
		l.TransactionID = t.ID
		l.Ordinal = i + 1
		err := tx.QueryRow(ctx, `
			INSERT INTO transaction_lines (transaction_id, account_id, debit, credit, party_id, description, ordinal)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING id
		`, l.TransactionID, l.AccountID, l.Debit, l.Credit, l.PartyID, l.Description, l.Ordinal).Scan(&l.ID)
		if err != nil {
			return fmt.Errorf("failed to create transaction line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const transactionColumns = `
	id, tenant_id, period_id, number, reference_code, idempotency_key,
	entry_date, posting_date, narration, origin, status,
	total_debit::text, total_credit::text, settled_amount::text, created_at
`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var totalDebit, totalCredit, settled string
	err := row.Scan(
		&t.ID, &t.TenantID, &t.PeriodID, &t.Number, &t.ReferenceCode, &t.IdempotencyKey,
		&t.EntryDate, &t.PostingDate, &t.Narration, &t.Origin, &t.Status,
		&totalDebit, &totalCredit, &settled, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.TotalDebit, _ = decimal.NewFromString(totalDebit)
	t.TotalCredit, _ = decimal.NewFromString(totalCredit)
	t.SettledAmount, _ = decimal.NewFromString(settled)
	return &t, nil
}

func (r *transactionRepo) GetByID(ctx context.Context, tenantID, id int64) (*domain.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE tenant_id=$1 AND id=$2
	`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	lines, err := r.listLines(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Lines = lines
	return t, nil
}

func (r *transactionRepo) GetByIdempotencyKey(ctx context.Context, tenantID int64, key string) (*domain.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE tenant_id=$1 AND idempotency_key=$2
	`, tenantID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by idempotency key: %w", err)
	}

	lines, err := r.listLines(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Lines = lines
	return t, nil
}

func (r *transactionRepo) listLines(ctx context.Context, transactionID int64) ([]*domain.TransactionLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, transaction_id, account_id, debit::text, credit::text, party_id, description, ordinal
		FROM transaction_lines
		WHERE transaction_id=$1
		ORDER BY ordinal
	`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction lines: %w", err)
	}
	defer rows.Close()

	var lines []*domain.TransactionLine
	for rows.Next() {
		var l domain.TransactionLine
		var debit, credit string
		if err := rows.Scan(&l.ID, &l.TransactionID, &l.AccountID, &debit, &credit, &l.PartyID, &l.Description, &l.Ordinal); err != nil {
			return nil, fmt.Errorf("failed to scan line row: %w", err)
		}
		l.Debit, _ = decimal.NewFromString(debit)
		l.Credit, _ = decimal.NewFromString(credit)
		lines = append(lines, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line rows: %w", err)
	}
	return lines, nil
}

func (r *transactionRepo) List(ctx context.Context, tenantID int64, filter *domain.TransactionFilter) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE tenant_id=$1
	`
	args := []interface{}{tenantID}
	idx := 2

	if filter != nil {
		if filter.PeriodID != nil {
			query += fmt.Sprintf(" AND period_id=$%d", idx)
			args = append(args, *filter.PeriodID)
			idx++
		}
		if filter.Status != nil {
			query += fmt.Sprintf(" AND status=$%d", idx)
			args = append(args, *filter.Status)
			idx++
		}
		if filter.Origin != nil {
			query += fmt.Sprintf(" AND origin=$%d", idx)
			args = append(args, *filter.Origin)
			idx++
		}
		if filter.StartDate != nil {
			query += fmt.Sprintf(" AND entry_date>=$%d", idx)
			args = append(args, *filter.StartDate)
			idx++
		}
		if filter.EndDate != nil {
			query += fmt.Sprintf(" AND entry_date<=$%d", idx)
			args = append(args, *filter.EndDate)
			idx++
		}
	}
	query += " ORDER BY entry_date, number"

	if filter != nil && filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, filter.Limit)
		idx++
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", idx)
			args = append(args, filter.Offset)
			idx++
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return txns, nil
}

// Post flips a draft to posted. The status predicate makes the
// transition race-safe: a concurrent post loses and sees zero rows.
func (r *transactionRepo) Post(ctx context.Context, tenantID, id int64, postingDate time.Time) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE transactions
		SET status=$1, posting_date=$2
		WHERE tenant_id=$3 AND id=$4 AND status=$5
	`, domain.StatusPosted, postingDate, tenantID, id, domain.StatusDraft)
	if err != nil {
		return fmt.Errorf("failed to post transaction: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return xerrors.ErrNotDraft
	}
	return nil
}

// Reverse deletes the entry's lines and marks it reversed, atomically.
// The entry number stays claimed and is never reused.
func (r *transactionRepo) Reverse(ctx context.Context, tenantID, id int64) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmdTag, err := tx.Exec(ctx, `
		UPDATE transactions
		SET status=$1
		WHERE tenant_id=$2 AND id=$3 AND status<>$1
	`, domain.StatusReversed, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to mark transaction reversed: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return xerrors.ErrAlreadyReversed
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM transaction_lines WHERE transaction_id=$1
	`, id); err != nil {
		return fmt.Errorf("failed to delete transaction lines: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reversal: %w", err)
	}
	return nil
}
