package usecase

import (
	"context"

	"bookkeeping-service/internal/domain"
	"bookkeeping-service/internal/repository"
	"bookkeeping-service/pkg/xerrors"
)

type PeriodUsecase struct {
	periodRepo repository.PeriodRepository
}

func NewPeriodUsecase(periodRepo repository.PeriodRepository) *PeriodUsecase {
	return &PeriodUsecase{periodRepo: periodRepo}
}

func (uc *PeriodUsecase) Create(ctx context.Context, p *domain.Period) (*domain.Period, error) {
	if p.Name == "" {
		return nil, xerrors.NewValidation("name", "period name is required")
	}
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return nil, xerrors.NewValidation("dates", "start and end dates are required")
	}
	if p.EndDate.Before(p.StartDate) {
		return nil, xerrors.NewValidation("dates", "end date must not precede start date")
	}
	if err := uc.periodRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *PeriodUsecase) GetByID(ctx context.Context, tenantID, id int64) (*domain.Period, error) {
	return uc.periodRepo.GetByID(ctx, tenantID, id)
}

func (uc *PeriodUsecase) List(ctx context.Context, tenantID int64) ([]*domain.Period, error) {
	return uc.periodRepo.List(ctx, tenantID)
}

// Close locks the period against further submissions. Closing is
// one-way; reopening takes operator intervention at the database.
func (uc *PeriodUsecase) Close(ctx context.Context, tenantID, id int64) error {
	return uc.periodRepo.Close(ctx, tenantID, id)
}
