package idgen

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterSequence(t *testing.T) {
	c := NewCounter("finding")

	assert.Equal(t, "finding-1", c.Next())
	assert.Equal(t, "finding-2", c.Next())
}

func TestCounterReset(t *testing.T) {
	c := NewCounter("missing-screen")
	c.Next()
	c.Next()

	c.Reset()

	assert.Equal(t, "missing-screen-1", c.Next(), "Next after Reset starts over")
}

func TestCountersAreIndependent(t *testing.T) {
	a := NewCounter("finding")
	b := NewCounter("missing-screen")

	a.Next()
	a.Next()

	assert.Equal(t, "missing-screen-1", b.Next())
}

func TestCounterConcurrentUse(t *testing.T) {
	c := NewCounter("finding")
	const workers, perWorker = 8, 100

	seen := make(chan string, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				seen <- c.Next()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[string]bool)
	for id := range seen {
		unique[id] = true
	}
	assert.Len(t, unique, workers*perWorker, "every issued id must be unique")
	assert.Equal(t, fmt.Sprintf("finding-%d", workers*perWorker+1), c.Next())
}

func TestUUIDv7Generator(t *testing.T) {
	id := UUIDv7Generator{}.Generate()

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("run-1", "run-2")

	assert.Equal(t, "run-1", gen.Generate())
	assert.Equal(t, "run-2", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestStaticGenerator(t *testing.T) {
	gen := NewStaticGenerator("")
	assert.Equal(t, "run-default", gen.Generate())
	assert.Equal(t, "run-default", gen.Generate())

	assert.Equal(t, "scenario", NewStaticGenerator("scenario").Generate())
}
