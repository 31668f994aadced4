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
)

type PeriodRepository interface {
	Create(ctx context.Context, p *domain.Period) error
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Period, error)
	List(ctx context.Context, tenantID int64) ([]*domain.Period, error)
	Close(ctx context.Context, tenantID, id int64) error

	// NextEntryNumber locks the period row and bumps its counter. Must
	// run inside the same transaction that inserts the entry, so the
	// claimed number and the insert commit or roll back together.
	NextEntryNumber(ctx context.Context, tx pgx.Tx, tenantID, periodID int64) (int64, error)
}

type periodRepo struct {
	db *pgxpool.Pool
}

func NewPeriodRepo(db *pgxpool.Pool) PeriodRepository {
	return &periodRepo{db: db}
}

func (r *periodRepo) Create(ctx context.Context, p *domain.Period) error {
	now := time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO accounting_periods (tenant_id, name, start_date, end_date, last_entry_number, is_closed, created_at)
		VALUES ($1,$2,$3,$4,0,false,$5)
		RETURNING id
	`, p.TenantID, p.Name, p.StartDate, p.EndDate, now).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create period: %w", err)
	}
	p.CreatedAt = now
	return nil
}

func (r *periodRepo) GetByID(ctx context.Context, tenantID, id int64) (*domain.Period, error) {
	var p domain.Period
	err := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, name, start_date, end_date, last_entry_number, is_closed, created_at
		FROM accounting_periods
		WHERE tenant_id=$1 AND id=$2
	`, tenantID, id).Scan(
		&p.ID, &p.TenantID, &p.Name, &p.StartDate, &p.EndDate,
		&p.LastEntryNumber, &p.IsClosed, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrPeriodNotFound
		}
		return nil, fmt.Errorf("failed to get period: %w", err)
	}
	return &p, nil
}

func (r *periodRepo) List(ctx context.Context, tenantID int64) ([]*domain.Period, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tenant_id, name, start_date, end_date, last_entry_number, is_closed, created_at
		FROM accounting_periods
		WHERE tenant_id=$1
		ORDER BY start_date
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	defer rows.Close()

	var periods []*domain.Period
	for rows.Next() {
		var p domain.Period
		if err := rows.Scan(
			&p.ID, &p.TenantID, &p.Name, &p.StartDate, &p.EndDate,
			&p.LastEntryNumber, &p.IsClosed, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan period row: %w", err)
		}
		periods = append(periods, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating period rows: %w", err)
	}
	return periods, nil
}

func (r *periodRepo) Close(ctx context.Context, tenantID, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE accounting_periods SET is_closed=true
		WHERE tenant_id=$1 AND id=$2
	`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to close period: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return xerrors.ErrPeriodNotFound
	}
	return nil
}

func (r *periodRepo) NextEntryNumber(ctx context.Context, tx pgx.Tx, tenantID, periodID int64) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction cannot be nil")
	}

	var next int64
	err := tx.QueryRow(ctx, `
		UPDATE accounting_periods
		SET last_entry_number = last_entry_number + 1
		WHERE tenant_id=$1 AND id=$2
		RETURNING last_entry_number
	`, tenantID, periodID).Scan(&next)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, xerrors.ErrPeriodNotFound
		}
		return 0, fmt.Errorf("failed to claim entry number: %w", err)
	}
	return next, nil
}
