package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookkeeping-service/internal/domain"
	publisher "bookkeeping-service/internal/pub"
	"bookkeeping-service/internal/repository"
	"bookkeeping-service/pkg/utils"
	"bookkeeping-service/pkg/xerrors"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransactionUsecase is the posting engine. Every journal entry enters
// the books through Submit; collaborators differ only by origin tag.
type TransactionUsecase struct {
	transactionRepo repository.TransactionRepository
	accountRepo     repository.AccountRepository
	periodRepo      repository.PeriodRepository
	partyRepo       repository.PartyRepository

	// Infrastructure
	redisClient *redis.Client
	kafkaWriter *kafka.Writer
	refGen      *utils.ReferenceGenerator
	logger      *zap.Logger

	// Publishers
	eventPublisher *publisher.PostingEventPublisher
}

func NewTransactionUsecase(
	transactionRepo repository.TransactionRepository,
	accountRepo repository.AccountRepository,
	periodRepo repository.PeriodRepository,
	partyRepo repository.PartyRepository,
	redisClient *redis.Client,
	kafkaWriter *kafka.Writer,
	eventPublisher *publisher.PostingEventPublisher,
	logger *zap.Logger,
) *TransactionUsecase {
	return &TransactionUsecase{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		periodRepo:      periodRepo,
		partyRepo:       partyRepo,
		redisClient:     redisClient,
		kafkaWriter:     kafkaWriter,
		refGen:          utils.NewReferenceGenerator(),
		logger:          logger,
		eventPublisher:  eventPublisher,
	}
}

// ===============================
// ENTRY SUBMISSION
// ===============================

// Submit validates a journal entry end to end and persists it atomically.
// Nothing is written unless every check passes; a replayed idempotency
// key returns the previously stored entry instead of a new one.
func (uc *TransactionUsecase) Submit(ctx context.Context, req *domain.SubmitRequest) (*domain.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != nil && *req.IdempotencyKey != "" {
		existing, err := uc.transactionRepo.GetByIdempotencyKey(ctx, req.TenantID, *req.IdempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, xerrors.ErrNotFound) {
			return nil, err
		}
	}

	period, err := uc.periodRepo.GetByID(ctx, req.TenantID, req.PeriodID)
	if err != nil {
		return nil, err
	}
	if period.IsClosed {
		return nil, xerrors.NewValidation("period_id", "accounting period is closed")
	}
	if !period.Contains(req.EntryDate) {
		return nil, xerrors.NewValidation("entry_date", "entry date falls outside the accounting period")
	}

	if err := uc.checkLineTargets(ctx, req); err != nil {
		return nil, err
	}

	totalDebit, totalCredit := req.Totals()
	t := &domain.Transaction{
		TenantID:       req.TenantID,
		PeriodID:       req.PeriodID,
		ReferenceCode:  uc.refGen.GenerateTransactionRef(),
		IdempotencyKey: req.IdempotencyKey,
		EntryDate:      req.EntryDate,
		Narration:      req.Narration,
		Origin:         req.Origin,
		Status:         domain.StatusDraft,
		TotalDebit:     totalDebit,
		TotalCredit:    totalCredit,
		SettledAmount:  decimal.Zero,
	}
	if req.PostNow {
		now := time.Now()
		t.Status = domain.StatusPosted
		t.PostingDate = &now
	}
	for _, l := range req.Lines {
		t.Lines = append(t.Lines, &domain.TransactionLine{
			AccountID:   l.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			PartyID:     l.PartyID,
			Description: l.Description,
		})
	}

	if err := uc.transactionRepo.CreateWithLines(ctx, t); err != nil {
		// A concurrent submit with the same key won the race; hand back
		// the entry it stored.
		if errors.Is(err, xerrors.ErrDuplicateIdempotencyKey) && req.IdempotencyKey != nil {
			return uc.transactionRepo.GetByIdempotencyKey(ctx, req.TenantID, *req.IdempotencyKey)
		}
		return nil, err
	}

	uc.logger.Info("journal entry submitted",
		zap.Int64("tenant_id", t.TenantID),
		zap.Int64("transaction_id", t.ID),
		zap.Int64("number", t.Number),
		zap.String("origin", string(t.Origin)),
		zap.String("status", string(t.Status)),
	)

	if t.Status == domain.StatusPosted {
		uc.afterPostingChange(ctx, t, "transaction.posted")
	} else {
		uc.publishLifecycleEvent(ctx, t, "transaction.submitted")
	}
	return t, nil
}

// checkLineTargets verifies every line hits an existing, active, leaf
// account in the tenant, and that referenced parties exist. Accounts are
// bulk-fetched once per distinct ID.
func (uc *TransactionUsecase) checkLineTargets(ctx context.Context, req *domain.SubmitRequest) error {
	var ids []int64
	seen := make(map[int64]bool, len(req.Lines))
	for _, l := range req.Lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}

	accounts, err := uc.accountRepo.GetMany(ctx, req.TenantID, ids)
	if err != nil {
		return err
	}

	checkedParties := make(map[int64]bool)
	for _, l := range req.Lines {
		a, ok := accounts[l.AccountID]
		if !ok {
			return xerrors.NewValidation("lines", fmt.Sprintf("account %d not found", l.AccountID))
		}
		if a.IsGroup {
			return xerrors.ErrNonPostableAccount
		}
		if !a.IsActive {
			return xerrors.ErrAccountInactive
		}
		if l.PartyID != nil && !checkedParties[*l.PartyID] {
			if _, err := uc.partyRepo.GetByID(ctx, req.TenantID, *l.PartyID); err != nil {
				if errors.Is(err, xerrors.ErrNotFound) {
					return xerrors.NewValidation("lines", fmt.Sprintf("party %d not found", *l.PartyID))
				}
				return err
			}
			checkedParties[*l.PartyID] = true
		}
	}
	return nil
}

// ===============================
// LIFECYCLE TRANSITIONS
// ===============================

// Post promotes a draft to posted, making it visible to every balance
// computation.
func (uc *TransactionUsecase) Post(ctx context.Context, tenantID, id int64) (*domain.Transaction, error) {
	t, err := uc.transactionRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	switch t.Status {
	case domain.StatusPosted:
		return nil, xerrors.ErrAlreadyPosted
	case domain.StatusReversed:
		return nil, xerrors.ErrAlreadyReversed
	}

	now := time.Now()
	if err := uc.transactionRepo.Post(ctx, tenantID, id, now); err != nil {
		return nil, err
	}
	t.Status = domain.StatusPosted
	t.PostingDate = &now

	uc.logger.Info("journal entry posted",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("transaction_id", id),
		zap.Int64("number", t.Number),
	)

	uc.afterPostingChange(ctx, t, "transaction.posted")
	return t, nil
}

// Reverse backs an entry out of the books. Lines are removed and the
// header kept as a tombstone; the entry number is never reissued.
func (uc *TransactionUsecase) Reverse(ctx context.Context, tenantID, id int64) (*domain.Transaction, error) {
	t, err := uc.transactionRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if t.Status == domain.StatusReversed {
		return nil, xerrors.ErrAlreadyReversed
	}
	if !t.SettledAmount.IsZero() {
		return nil, xerrors.ErrHasSettlements
	}

	if err := uc.transactionRepo.Reverse(ctx, tenantID, id); err != nil {
		return nil, err
	}
	t.Status = domain.StatusReversed
	t.Lines = nil

	uc.logger.Info("journal entry reversed",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("transaction_id", id),
		zap.Int64("number", t.Number),
	)

	uc.afterPostingChange(ctx, t, "transaction.reversed")
	return t, nil
}

// ===============================
// TRANSACTION QUERIES
// ===============================

func (uc *TransactionUsecase) GetByID(ctx context.Context, tenantID, id int64) (*domain.Transaction, error) {
	return uc.transactionRepo.GetByID(ctx, tenantID, id)
}

func (uc *TransactionUsecase) List(ctx context.Context, tenantID int64, filter *domain.TransactionFilter) ([]*domain.Transaction, error) {
	return uc.transactionRepo.List(ctx, tenantID, filter)
}

// ===============================
// EVENTS AND CACHE INVALIDATION
// ===============================

// afterPostingChange fires whenever the set of posted lines changes.
// Balance caches for the tenant are stale from this point.
func (uc *TransactionUsecase) afterPostingChange(ctx context.Context, t *domain.Transaction, eventType string) {
	uc.invalidateBalanceCaches(ctx, t.TenantID)
	uc.publishLifecycleEvent(ctx, t, eventType)
	uc.publishKafkaEvent(ctx, t, eventType)
}

func (uc *TransactionUsecase) publishLifecycleEvent(ctx context.Context, t *domain.Transaction, eventType string) {
	if uc.eventPublisher == nil {
		return
	}
	err := uc.eventPublisher.PublishPostingEvent(ctx, &publisher.PostingEvent{
		EventType:     eventType,
		TenantID:      t.TenantID,
		TransactionID: t.ID,
		ReferenceCode: t.ReferenceCode,
		Number:        t.Number,
		PeriodID:      t.PeriodID,
		Origin:        string(t.Origin),
		Status:        string(t.Status),
		TotalDebit:    t.TotalDebit.String(),
		TotalCredit:   t.TotalCredit.String(),
	})
	if err != nil {
		uc.logger.Warn("failed to publish posting event", zap.Error(err))
	}
}

func (uc *TransactionUsecase) publishKafkaEvent(ctx context.Context, t *domain.Transaction, eventType string) {
	if uc.kafkaWriter == nil {
		return
	}

	event := publisher.PostingEvent{
		EventType:     eventType,
		TenantID:      t.TenantID,
		TransactionID: t.ID,
		ReferenceCode: t.ReferenceCode,
		Number:        t.Number,
		PeriodID:      t.PeriodID,
		Origin:        string(t.Origin),
		Status:        string(t.Status),
		TotalDebit:    t.TotalDebit.String(),
		TotalCredit:   t.TotalCredit.String(),
		Timestamp:     time.Now(),
	}
	eventBytes, _ := json.Marshal(event)

	err := uc.kafkaWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(t.ReferenceCode),
		Value: eventBytes,
		Time:  time.Now(),
	})
	if err != nil {
		uc.logger.Warn("failed to publish kafka event",
			zap.String("reference_code", t.ReferenceCode),
			zap.Error(err),
		)
	}
}

func (uc *TransactionUsecase) invalidateBalanceCaches(ctx context.Context, tenantID int64) {
	if uc.redisClient == nil {
		return
	}
	for _, pattern := range []string{
		fmt.Sprintf("trial_balance:%d*", tenantID),
		fmt.Sprintf("ledger:%d*", tenantID),
		fmt.Sprintf("statements:%d*", tenantID),
	} {
		iter := uc.redisClient.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			_ = uc.redisClient.Del(ctx, iter.Val()).Err()
		}
	}
}
