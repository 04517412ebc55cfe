package usecase

import (
	"sync"
	"testing"

	"github.com/DRSN-tech/catalog-sync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaySetGetClear(t *testing.T) {
	o := NewStockOverlay()

	_, ok := o.Get("p1")
	assert.False(t, ok)

	o.Set("p1", 7)
	stock, ok := o.Get("p1")
	require.True(t, ok)
	assert.Equal(t, int64(7), stock)

	o.Clear("p1")
	_, ok = o.Get("p1")
	assert.False(t, ok)
	assert.Zero(t, o.Len())
}

func TestOverlayStaleReleaseKeepsNewerEntry(t *testing.T) {
	o := NewStockOverlay()

	first := o.Set("p1", 10)
	second := o.Set("p1", 12)

	assert.False(t, o.Release(first), "older edit must not remove the newer value")
	stock, ok := o.Get("p1")
	require.True(t, ok)
	assert.Equal(t, int64(12), stock)

	assert.True(t, o.Release(second))
	_, ok = o.Get("p1")
	assert.False(t, ok)

	assert.False(t, o.Release(second), "double release is a no-op")
}

func TestOverlayClearAll(t *testing.T) {
	o := NewStockOverlay()
	t1 := o.Set("p1", 1)
	o.Set("p2", 2)

	o.ClearAll()

	assert.Zero(t, o.Len())
	assert.False(t, o.Release(t1))
}

func TestOverlayReadThrough(t *testing.T) {
	o := NewStockOverlay()
	p := &domain.Product{ID: "p1", Stock: 50}

	assert.Equal(t, int64(50), o.ReadThrough(p))

	o.Set("p1", 30)
	assert.Equal(t, int64(30), o.ReadThrough(p))
}

func TestOverlayConcurrentAccess(t *testing.T) {
	o := NewStockOverlay()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticket := o.Set("p1", int64(i))
			o.Get("p1")
			o.Release(ticket)
		}()
	}
	wg.Wait()

	assert.Zero(t, o.Len())
}
