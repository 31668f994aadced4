package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookkeeping-service/internal/domain"
	"bookkeeping-service/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PartyRepository interface {
	Create(ctx context.Context, p *domain.Party) error
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Party, error)
	List(ctx context.Context, tenantID int64, filter *domain.PartyFilter) ([]*domain.Party, error)
	Update(ctx context.Context, p *domain.Party) error

	// UpdateCurrentBalance refreshes the denormalized balance cache.
	// The value is display-only; ledger views always recompute.
	UpdateCurrentBalance(ctx context.Context, tenantID, id int64, balance decimal.Decimal) error
}

type partyRepo struct {
	db *pgxpool.Pool
}

func NewPartyRepo(db *pgxpool.Pool) PartyRepository {
	return &partyRepo{db: db}
}

const partyColumns = `
	id, tenant_id, type, name, reference_code,
	opening_balance::text, opening_side, current_balance::text, is_active, created_at, updated_at
`

func scanParty(row pgx.Row) (*domain.Party, error) {
	var p domain.Party
	var opening, current string
	err := row.Scan(
		&p.ID, &p.TenantID, &p.Type, &p.Name, &p.ReferenceCode,
		&opening, &p.OpeningSide, &current, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.OpeningBalance, _ = decimal.NewFromString(opening)
	p.CurrentBalance, _ = decimal.NewFromString(current)
	return &p, nil
}

func (r *partyRepo) Create(ctx context.Context, p *domain.Party) error {
	now := time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO parties (tenant_id, type, name, reference_code, opening_balance, opening_side, current_balance, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
		RETURNING id
	`, p.TenantID, p.Type, p.Name, p.ReferenceCode, p.OpeningBalance, p.OpeningSide,
		p.CurrentBalance, p.IsActive, now,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create party: %w", err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (r *partyRepo) GetByID(ctx context.Context, tenantID, id int64) (*domain.Party, error) {
	p, err := scanParty(r.db.QueryRow(ctx, `
		SELECT `+partyColumns+`
		FROM parties
		WHERE tenant_id=$1 AND id=$2
	`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get party: %w", err)
	}
	return p, nil
}

func (r *partyRepo) List(ctx context.Context, tenantID int64, filter *domain.PartyFilter) ([]*domain.Party, error) {
	query := `
		SELECT ` + partyColumns + `
		FROM parties
		WHERE tenant_id=$1
	`
	args := []interface{}{tenantID}
	idx := 2

	if filter != nil {
		if filter.Type != nil {
			query += fmt.Sprintf(" AND type=$%d", idx)
			args = append(args, *filter.Type)
			idx++
		}
		if filter.IsActive != nil {
			query += fmt.Sprintf(" AND is_active=$%d", idx)
			args = append(args, *filter.IsActive)
			idx++
		}
	}
	query += " ORDER BY name"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list parties: %w", err)
	}
	defer rows.Close()

	var parties []*domain.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan party row: %w", err)
		}
		parties = append(parties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating party rows: %w", err)
	}
	return parties, nil
}

func (r *partyRepo) Update(ctx context.Context, p *domain.Party) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE parties
		SET type=$1, name=$2, opening_balance=$3, opening_side=$4, is_active=$5, updated_at=$6
		WHERE tenant_id=$7 AND id=$8
	`, p.Type, p.Name, p.OpeningBalance, p.OpeningSide, p.IsActive, time.Now(), p.TenantID, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update party: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *partyRepo) UpdateCurrentBalance(ctx context.Context, tenantID, id int64, balance decimal.Decimal) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE parties
		SET current_balance=$1, updated_at=$2
		WHERE tenant_id=$3 AND id=$4
	`, balance, time.Now(), tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to update party balance: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
