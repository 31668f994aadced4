package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	PostingEventsChannel = "posting_events"
)

// PostingEventPublisher fans posting lifecycle events out over Redis
// pub/sub for in-cluster listeners (settlement matching, audit trail).
type PostingEventPublisher struct {
	rdb *redis.Client
}

func NewPostingEventPublisher(rdb *redis.Client) *PostingEventPublisher {
	return &PostingEventPublisher{rdb: rdb}
}

type PostingEvent struct {
	EventType     string    `json:"event_type"` // transaction.submitted, transaction.posted, transaction.reversed
	TenantID      int64     `json:"tenant_id"`
	TransactionID int64     `json:"transaction_id"`
	ReferenceCode string    `json:"reference_code"`
	Number        int64     `json:"number"`
	PeriodID      int64     `json:"period_id"`
	Origin        string    `json:"origin"`
	Status        string    `json:"status"`
	TotalDebit    string    `json:"total_debit"`
	TotalCredit   string    `json:"total_credit"`
	Timestamp     time.Time `json:"timestamp"`
}

// PublishPostingEvent publishes a posting event to Redis
func (p *PostingEventPublisher) PublishPostingEvent(ctx context.Context, event *PostingEvent) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	event.Timestamp = time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, PostingEventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Printf("[PostingEvent] Published: %s for tenant=%d, ref=%s",
		event.EventType, event.TenantID, event.ReferenceCode)

	return nil
}
