package usecase

import (
	"context"

	"bookkeeping-service/internal/domain"
	"bookkeeping-service/internal/repository"
	"bookkeeping-service/pkg/utils"
	"bookkeeping-service/pkg/xerrors"

	"github.com/shopspring/decimal"
)

type PartyUsecase struct {
	partyRepo repository.PartyRepository
	refGen    *utils.ReferenceGenerator
}

func NewPartyUsecase(partyRepo repository.PartyRepository) *PartyUsecase {
	return &PartyUsecase{
		partyRepo: partyRepo,
		refGen:    utils.NewReferenceGenerator(),
	}
}

func (uc *PartyUsecase) Create(ctx context.Context, req *domain.PartyCreate) (*domain.Party, error) {
	if req.Name == "" {
		return nil, xerrors.NewValidation("name", "party name is required")
	}
	if req.Type == "" {
		req.Type = domain.PartyOther
	}
	if !req.Type.IsValid() {
		return nil, xerrors.NewValidation("type", "unknown party type")
	}
	if req.OpeningBalance.IsNegative() {
		return nil, xerrors.NewValidation("opening_balance", "opening balance must not be negative")
	}

	p := &domain.Party{
		TenantID:       req.TenantID,
		Type:           req.Type,
		Name:           req.Name,
		ReferenceCode:  uc.refGen.GeneratePartyRef(),
		OpeningBalance: req.OpeningBalance,
		OpeningSide:    req.OpeningSide,
		CurrentBalance: decimal.Zero,
		IsActive:       true,
	}
	if p.OpeningSide == "" {
		// Customers open on the debit side, everyone else on credit.
		if p.Receivable() {
			p.OpeningSide = domain.SideDebit
		} else {
			p.OpeningSide = domain.SideCredit
		}
	}
	p.CurrentBalance = p.SignedOpening()

	if err := uc.partyRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *PartyUsecase) GetByID(ctx context.Context, tenantID, id int64) (*domain.Party, error) {
	return uc.partyRepo.GetByID(ctx, tenantID, id)
}

func (uc *PartyUsecase) List(ctx context.Context, tenantID int64, filter *domain.PartyFilter) ([]*domain.Party, error) {
	return uc.partyRepo.List(ctx, tenantID, filter)
}

func (uc *PartyUsecase) Update(ctx context.Context, p *domain.Party) (*domain.Party, error) {
	if p.Name == "" {
		return nil, xerrors.NewValidation("name", "party name is required")
	}
	if !p.Type.IsValid() {
		return nil, xerrors.NewValidation("type", "unknown party type")
	}
	if err := uc.partyRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (uc *PartyUsecase) Deactivate(ctx context.Context, tenantID, id int64) error {
	p, err := uc.partyRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	p.IsActive = false
	return uc.partyRepo.Update(ctx, p)
}
