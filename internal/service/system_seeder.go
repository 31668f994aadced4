package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"bookkeeping-service/internal/domain"
	"bookkeeping-service/internal/usecase"
	"bookkeeping-service/pkg/xerrors"
)

// SystemSeeder installs the default chart of accounts for a tenant.
// Seeded accounts are system accounts: undeletable, structurally frozen.
type SystemSeeder struct {
	accountUC *usecase.AccountUsecase
}

func NewSystemSeeder(accountUC *usecase.AccountUsecase) *SystemSeeder {
	return &SystemSeeder{accountUC: accountUC}
}

// SeedTenant creates every missing entry of the default chart. Safe to
// run repeatedly; existing codes are left untouched. Chart order puts
// parents before children, so one pass resolves the hierarchy.
func (s *SystemSeeder) SeedTenant(ctx context.Context, tenantID int64) error {
	log.Printf("🚀 Seeding default chart for tenant %d...", tenantID)

	idByCode := make(map[string]int64, len(domain.DefaultChart))
	created := 0

	for _, entry := range domain.DefaultChart {
		existing, err := s.accountUC.GetByCode(ctx, tenantID, entry.Code)
		if err == nil {
			idByCode[entry.Code] = existing.ID
			continue
		}
		if !errors.Is(err, xerrors.ErrNotFound) {
			return fmt.Errorf("failed to check chart entry %s: %w", entry.Code, err)
		}

		req := &domain.AccountCreate{
			TenantID: tenantID,
			Code:     entry.Code,
			Name:     entry.Name,
			Category: entry.Category,
			IsGroup:  entry.IsGroup,
			IsSystem: true,
		}
		if entry.ParentCode != "" {
			parentID, ok := idByCode[entry.ParentCode]
			if !ok {
				return fmt.Errorf("chart entry %s references unknown parent %s", entry.Code, entry.ParentCode)
			}
			req.ParentID = &parentID
		}

		account, err := s.accountUC.Create(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to seed chart entry %s: %w", entry.Code, err)
		}
		idByCode[entry.Code] = account.ID
		created++
	}

	log.Printf("✅ Chart seeding for tenant %d completed (%d created)", tenantID, created)
	return nil
}
