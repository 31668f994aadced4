package utils

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ReferenceGenerator produces unique, sortable reference codes for
// journal entries and counterparties. ULIDs are timestamp-prefixed, so
// codes generated later always sort after earlier ones.
type ReferenceGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Generate returns a bare ULID.
// Example: 01ARZ3NDEKTSV4RRFFQ69G5FAV
func (g *ReferenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
	return id.String()
}

// GeneratePrefixed returns PREFIX-{ULID}.
// Example: TXN-01ARZ3NDEKTSV4RRFFQ69G5FAV
func (g *ReferenceGenerator) GeneratePrefixed(prefix string) string {
	p := "REF"
	if prefix != "" {
		p = strings.ToUpper(prefix)
	}
	return p + "-" + g.Generate()
}

// GenerateTransactionRef returns a journal entry reference code.
func (g *ReferenceGenerator) GenerateTransactionRef() string {
	return g.GeneratePrefixed("TXN")
}

// GeneratePartyRef returns a counterparty reference code.
func (g *ReferenceGenerator) GeneratePartyRef() string {
	return g.GeneratePrefixed("PTY")
}

// ValidateRef checks a prefixed reference code shape.
func ValidateRef(ref string) bool {
	parts := strings.SplitN(ref, "-", 2)
	if len(parts) != 2 || len(parts[0]) < 2 {
		return false
	}
	if len(parts[1]) != 26 {
		return false
	}
	_, err := ulid.Parse(parts[1])
	return err == nil
}
