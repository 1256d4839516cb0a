package utils

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EntryRefGenerator mints reference codes for wallet entries.
// Format: TXN-{ULID} — 26-char, sortable, URL-safe.
// Example: TXN-01ARZ3NDEKTSV4RRFFQ69G5FAV
type EntryRefGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewEntryRefGenerator() *EntryRefGenerator {
	return &EntryRefGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (g *EntryRefGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
	return fmt.Sprintf("TXN-%s", id.String())
}
