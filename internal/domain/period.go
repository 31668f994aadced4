package domain

import "time"

// Period is an accounting period. LastEntryNumber is the per-period
// sequence counter: the posting engine locks the period row, bumps the
// counter and inserts the entry in one database transaction, so two
// posters can never claim the same number. Numbers are gap-tolerant;
// deleted drafts do not reclaim them.
type Period struct {
	ID              int64     `json:"id"`
	TenantID        int64     `json:"tenant_id"`
	Name            string    `json:"name"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	LastEntryNumber int64     `json:"last_entry_number"`
	IsClosed        bool      `json:"is_closed"`
	CreatedAt       time.Time `json:"-"`
}

// Contains reports whether d falls inside the period.
func (p *Period) Contains(d time.Time) bool {
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}
