package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookkeeping-service/internal/domain"
	"bookkeeping-service/internal/repository"
	"bookkeeping-service/pkg/xerrors"

	"github.com/redis/go-redis/v9"
)

const accountCacheTTL = 5 * time.Minute

type AccountUsecase struct {
	accountRepo repository.AccountRepository
	redisClient *redis.Client
}

// NewAccountUsecase initializes a new AccountUsecase
func NewAccountUsecase(accountRepo repository.AccountRepository, redisClient *redis.Client) *AccountUsecase {
	return &AccountUsecase{
		accountRepo: accountRepo,
		redisClient: redisClient,
	}
}

// ===============================
// ACCOUNT CREATION
// ===============================

// Create validates and inserts an account under the tenant's chart.
// Level is derived from the parent, never taken from the caller.
func (uc *AccountUsecase) Create(ctx context.Context, req *domain.AccountCreate) (*domain.Account, error) {
	if req.Code == "" {
		return nil, xerrors.NewValidation("code", "account code is required")
	}
	if req.Name == "" {
		return nil, xerrors.NewValidation("name", "account name is required")
	}
	if !req.Category.IsValid() {
		return nil, xerrors.NewValidation("category", "unknown account category")
	}
	if req.OpeningBalance.IsNegative() {
		return nil, xerrors.NewValidation("opening_balance", "opening balance must not be negative")
	}

	a := &domain.Account{
		TenantID:       req.TenantID,
		Code:           req.Code,
		Name:           req.Name,
		Category:       req.Category,
		ParentID:       req.ParentID,
		IsGroup:        req.IsGroup,
		IsSystem:       req.IsSystem,
		OpeningBalance: req.OpeningBalance,
		OpeningSide:    req.OpeningSide,
		IsActive:       true,
		Level:          1,
	}
	if a.OpeningSide == "" {
		a.OpeningSide = defaultSide(a.Category)
	}

	if req.ParentID != nil {
		parent, err := uc.accountRepo.GetByID(ctx, req.TenantID, *req.ParentID)
		if err != nil {
			if errors.Is(err, xerrors.ErrNotFound) {
				return nil, xerrors.ErrParentNotFound
			}
			return nil, err
		}
		if !parent.IsGroup {
			return nil, xerrors.NewValidation("parent_id", "parent must be a group account")
		}
		if parent.Category != a.Category {
			return nil, xerrors.NewValidation("category", "account category must match its parent")
		}
		a.Level = parent.Level + 1
	}

	if err := uc.accountRepo.Create(ctx, a); err != nil {
		return nil, err
	}

	uc.invalidateAccountCaches(ctx, req.TenantID)
	return a, nil
}

// defaultSide is the natural balance side for a category.
func defaultSide(c domain.AccountCategory) domain.BalanceSide {
	switch c {
	case domain.CategoryAsset, domain.CategoryExpense:
		return domain.SideDebit
	}
	return domain.SideCredit
}

// ===============================
// ACCOUNT QUERIES
// ===============================

func (uc *AccountUsecase) GetByID(ctx context.Context, tenantID, id int64) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, tenantID, id)
}

func (uc *AccountUsecase) GetByCode(ctx context.Context, tenantID int64, code string) (*domain.Account, error) {
	return uc.accountRepo.GetByCode(ctx, tenantID, code)
}

func (uc *AccountUsecase) List(ctx context.Context, tenantID int64, filter *domain.AccountFilter) ([]*domain.Account, error) {
	return uc.accountRepo.List(ctx, tenantID, filter)
}

// Tree returns the tenant's chart as nested roots, children in code order.
func (uc *AccountUsecase) Tree(ctx context.Context, tenantID int64) ([]*domain.Account, error) {
	cacheKey := fmt.Sprintf("accounts:tree:%d", tenantID)

	// --- Check Redis cache first ---
	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var roots []*domain.Account
			if jsonErr := json.Unmarshal([]byte(val), &roots); jsonErr == nil {
				return roots, nil
			}
		}
	}

	accounts, err := uc.accountRepo.List(ctx, tenantID, nil)
	if err != nil {
		return nil, err
	}
	roots := buildTree(accounts)

	// --- Cache result in Redis ---
	if uc.redisClient != nil {
		if data, err := json.Marshal(roots); err == nil {
			_ = uc.redisClient.Set(ctx, cacheKey, data, accountCacheTTL).Err()
		}
	}

	return roots, nil
}

// buildTree links accounts into parent/child shape in two passes. The
// input comes back in code order, so children stay code-ordered too.
// Orphans whose parent is missing surface as extra roots rather than
// vanishing.
func buildTree(accounts []*domain.Account) []*domain.Account {
	byID := make(map[int64]*domain.Account, len(accounts))
	for _, a := range accounts {
		a.Children = nil
		byID[a.ID] = a
	}

	var roots []*domain.Account
	for _, a := range accounts {
		if a.ParentID != nil {
			if parent, ok := byID[*a.ParentID]; ok {
				parent.Children = append(parent.Children, a)
				continue
			}
		}
		roots = append(roots, a)
	}
	return roots
}

// ===============================
// ACCOUNT UPDATES
// ===============================

// Update applies a partial update. Structural fields of system accounts
// are frozen; reparenting recomputes levels across the moved subtree.
func (uc *AccountUsecase) Update(ctx context.Context, tenantID, id int64, upd *domain.AccountUpdate) (*domain.Account, error) {
	a, err := uc.accountRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if a.IsSystem && upd.Structural() {
		return nil, xerrors.ErrSystemAccountImmutable
	}

	if upd.Code != nil {
		a.Code = *upd.Code
	}
	if upd.Name != nil {
		a.Name = *upd.Name
	}
	if upd.Category != nil {
		if !upd.Category.IsValid() {
			return nil, xerrors.NewValidation("category", "unknown account category")
		}
		a.Category = *upd.Category
	}
	if upd.OpeningBalance != nil {
		if upd.OpeningBalance.IsNegative() {
			return nil, xerrors.NewValidation("opening_balance", "opening balance must not be negative")
		}
		a.OpeningBalance = *upd.OpeningBalance
	}
	if upd.OpeningSide != nil {
		a.OpeningSide = *upd.OpeningSide
	}
	if upd.IsActive != nil {
		a.IsActive = *upd.IsActive
	}

	reparented := false
	switch {
	case upd.ClearParent:
		a.ParentID = nil
		a.Level = 1
		reparented = true
	case upd.ParentID != nil:
		if *upd.ParentID == a.ID {
			return nil, xerrors.NewValidation("parent_id", "account cannot be its own parent")
		}
		parent, err := uc.accountRepo.GetByID(ctx, tenantID, *upd.ParentID)
		if err != nil {
			if errors.Is(err, xerrors.ErrNotFound) {
				return nil, xerrors.ErrParentNotFound
			}
			return nil, err
		}
		if !parent.IsGroup {
			return nil, xerrors.NewValidation("parent_id", "parent must be a group account")
		}
		if parent.Category != a.Category {
			return nil, xerrors.NewValidation("category", "account category must match its parent")
		}
		if err := uc.checkNoCycle(ctx, tenantID, a.ID, parent); err != nil {
			return nil, err
		}
		a.ParentID = upd.ParentID
		a.Level = parent.Level + 1
		reparented = true
	}

	if err := uc.accountRepo.Update(ctx, a); err != nil {
		return nil, err
	}
	if reparented && a.IsGroup {
		if err := uc.recomputeChildLevels(ctx, tenantID, a); err != nil {
			return nil, err
		}
	}

	uc.invalidateAccountCaches(ctx, tenantID)
	return a, nil
}

// checkNoCycle walks up from the candidate parent; hitting the account
// itself means the move would fold the subtree onto itself.
func (uc *AccountUsecase) checkNoCycle(ctx context.Context, tenantID, accountID int64, parent *domain.Account) error {
	for p := parent; p.ParentID != nil; {
		if *p.ParentID == accountID {
			return xerrors.NewValidation("parent_id", "account cannot be moved under its own descendant")
		}
		next, err := uc.accountRepo.GetByID(ctx, tenantID, *p.ParentID)
		if err != nil {
			return err
		}
		p = next
	}
	return nil
}

// recomputeChildLevels pushes the moved account's new level down its
// subtree.
func (uc *AccountUsecase) recomputeChildLevels(ctx context.Context, tenantID int64, parent *domain.Account) error {
	children, err := uc.accountRepo.List(ctx, tenantID, &domain.AccountFilter{ParentID: &parent.ID})
	if err != nil {
		return err
	}
	for _, c := range children {
		c.Level = parent.Level + 1
		if err := uc.accountRepo.Update(ctx, c); err != nil {
			return err
		}
		if c.IsGroup {
			if err := uc.recomputeChildLevels(ctx, tenantID, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// ===============================
// ACCOUNT DELETION
// ===============================

// Delete removes an account. System accounts, accounts with children and
// accounts with posted lines are all protected.
func (uc *AccountUsecase) Delete(ctx context.Context, tenantID, id int64) error {
	a, err := uc.accountRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if a.IsSystem {
		return xerrors.ErrSystemAccountProtected
	}

	hasChildren, err := uc.accountRepo.HasChildren(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return xerrors.ErrHasChildren
	}

	hasPostings, err := uc.accountRepo.HasPostings(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if hasPostings {
		return xerrors.ErrHasPostings
	}

	if err := uc.accountRepo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	uc.invalidateAccountCaches(ctx, tenantID)
	return nil
}

// ===============================
// CACHE INVALIDATION
// ===============================

func (uc *AccountUsecase) invalidateAccountCaches(ctx context.Context, tenantID int64) {
	if uc.redisClient == nil {
		return
	}
	pattern := fmt.Sprintf("accounts:*:%d*", tenantID)
	iter := uc.redisClient.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		_ = uc.redisClient.Del(ctx, iter.Val()).Err()
	}
}
