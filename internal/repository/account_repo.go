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

type AccountRepository interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Account, error)
	GetByCode(ctx context.Context, tenantID int64, code string) (*domain.Account, error)
	GetMany(ctx context.Context, tenantID int64, ids []int64) (map[int64]*domain.Account, error)
	List(ctx context.Context, tenantID int64, filter *domain.AccountFilter) ([]*domain.Account, error)
	Update(ctx context.Context, a *domain.Account) error
	Delete(ctx context.Context, tenantID, id int64) error
	HasChildren(ctx context.Context, tenantID, id int64) (bool, error)
	HasPostings(ctx context.Context, tenantID, id int64) (bool, error)
}

type accountRepo struct {
	db *pgxpool.Pool
}

func NewAccountRepo(db *pgxpool.Pool) AccountRepository {
	return &accountRepo{db: db}
}

const accountColumns = `
	id, tenant_id, code, name, category, parent_id, is_group, level,
	is_system, opening_balance::text, opening_side, is_active, created_at, updated_at
`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var opening string
	err := row.Scan(
		&a.ID, &a.TenantID, &a.Code, &a.Name, &a.Category, &a.ParentID,
		&a.IsGroup, &a.Level, &a.IsSystem, &opening, &a.OpeningSide,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.OpeningBalance, _ = decimal.NewFromString(opening)
	return &a, nil
}

// Create inserts the account and fills its ID. A duplicate code within
// the tenant surfaces as xerrors.ErrDuplicateCode.
func (r *accountRepo) Create(ctx context.Context, a *domain.Account) error {
	now := time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO accounts (
			tenant_id, code, name, category, parent_id, is_group, level,
			is_system, opening_balance, opening_side, is_active, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12)
		RETURNING id
	`, a.TenantID, a.Code, a.Name, a.Category, a.ParentID, a.IsGroup, a.Level,
		a.IsSystem, a.OpeningBalance, a.OpeningSide, a.IsActive, now,
	).Scan(&a.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return xerrors.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

func (r *accountRepo) GetByID(ctx context.Context, tenantID, id int64) (*domain.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE tenant_id=$1 AND id=$2
	`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

func (r *accountRepo) GetByCode(ctx context.Context, tenantID int64, code string) (*domain.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE tenant_id=$1 AND code=$2
	`, tenantID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by code: %w", err)
	}
	return a, nil
}

// GetMany bulk-fetches accounts by ID. Missing IDs are simply absent
// from the result; the caller decides whether that is an error.
func (r *accountRepo) GetMany(ctx context.Context, tenantID int64, ids []int64) (map[int64]*domain.Account, error) {
	result := make(map[int64]*domain.Account, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE tenant_id=$1 AND id=ANY($2)
	`, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		result[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return result, nil
}

func (r *accountRepo) List(ctx context.Context, tenantID int64, filter *domain.AccountFilter) ([]*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id=$1
	`
	args := []interface{}{tenantID}
	idx := 2

	if filter != nil {
		if filter.Category != nil {
			query += fmt.Sprintf(" AND category=$%d", idx)
			args = append(args, *filter.Category)
			idx++
		}
		if filter.IsGroup != nil {
			query += fmt.Sprintf(" AND is_group=$%d", idx)
			args = append(args, *filter.IsGroup)
			idx++
		}
		if filter.IsActive != nil {
			query += fmt.Sprintf(" AND is_active=$%d", idx)
			args = append(args, *filter.IsActive)
			idx++
		}
		if filter.ParentID != nil {
			query += fmt.Sprintf(" AND parent_id=$%d", idx)
			args = append(args, *filter.ParentID)
			idx++
		}
	}
	query += " ORDER BY code"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

func (r *accountRepo) Update(ctx context.Context, a *domain.Account) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET code=$1, name=$2, category=$3, parent_id=$4, level=$5,
			opening_balance=$6, opening_side=$7, is_active=$8, updated_at=$9
		WHERE tenant_id=$10 AND id=$11
	`, a.Code, a.Name, a.Category, a.ParentID, a.Level,
		a.OpeningBalance, a.OpeningSide, a.IsActive, time.Now(),
		a.TenantID, a.ID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return xerrors.ErrDuplicateCode
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *accountRepo) Delete(ctx context.Context, tenantID, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `
		DELETE FROM accounts WHERE tenant_id=$1 AND id=$2
	`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *accountRepo) HasChildren(ctx context.Context, tenantID, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM accounts WHERE tenant_id=$1 AND parent_id=$2)
	`, tenantID, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check children: %w", err)
	}
	return exists, nil
}

func (r *accountRepo) HasPostings(ctx context.Context, tenantID, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1
			FROM transaction_lines l
			JOIN transactions t ON t.id = l.transaction_id
			WHERE t.tenant_id=$1 AND l.account_id=$2 AND t.status='posted'
		)
	`, tenantID, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check postings: %w", err)
	}
	return exists, nil
}
