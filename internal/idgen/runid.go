package idgen

import (
	"sync"

	"github.com/google/uuid"
)

// RunIDGenerator produces the identifier recorded for one analysis run.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs, so stored runs
// list in creation order.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined run IDs for testing.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
//	gen := NewFixedGenerator("run-1", "run-2")
//	gen.Generate() // "run-1"
//	gen.Generate() // "run-2"
//	gen.Generate() // panic: all ids exhausted
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics when exhausted: the test asked for more runs than it configured.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// StaticGenerator returns the same run ID every time. Scenario runs use it
// so repeated runs of one scenario produce byte-identical reports.
type StaticGenerator struct {
	id string
}

// NewStaticGenerator creates a static generator; an empty id becomes
// "run-default".
func NewStaticGenerator(id string) StaticGenerator {
	if id == "" {
		id = "run-default"
	}
	return StaticGenerator{id: id}
}

// Generate returns the fixed id.
func (g StaticGenerator) Generate() string {
	return g.id
}
