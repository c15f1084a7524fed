package presence

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_ConnectDisconnect(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, 1, r.Connect())
	assert.Equal(t, 2, r.Connect())
	assert.Equal(t, 1, r.Disconnect())
	assert.Equal(t, 0, r.Disconnect())
	assert.Equal(t, 0, r.Disconnect(), "count must never go negative")
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_CountInvariant(t *testing.T) {
	r := NewRegistry()
	rng := rand.New(rand.NewSource(42))

	net := 0
	for i := 0; i < 1000; i++ {
		var got int
		if rng.Intn(2) == 0 {
			got = r.Connect()
			net++
		} else {
			got = r.Disconnect()
			if net > 0 {
				net--
			}
		}
		assert.Equal(t, net, got)
		assert.GreaterOrEqual(t, got, 0)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Connect()
			}
			for j := 0; j < 50; j++ {
				r.Disconnect()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*50, r.Count())
}
