package id

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

// ULID yields lexicographically sortable, timestamp-derived identifiers, so a
// journal entry id doubles as a stable creation-order key.
type ULID struct {
	mu      sync.Mutex
	entropy *rand.Rand
}

func NewULID() *ULID {
	return &ULID{entropy: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (g *ULID) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}
