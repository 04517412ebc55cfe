package jitter

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationStaysInRange(t *testing.T) {
	base := 3 * time.Minute
	for i := 0; i < 100; i++ {
		got := Duration(base, DefaultJitter)
		assert.GreaterOrEqual(t, got, base)
		assert.Less(t, got, base+time.Duration(DefaultJitter*float64(base)))
	}
}

func TestDurationWithSeedIsDeterministic(t *testing.T) {
	a := DurationWithSeed(time.Minute, 0.5, rand.New(rand.NewSource(42)))
	b := DurationWithSeed(time.Minute, 0.5, rand.New(rand.NewSource(42)))
	assert.Equal(t, a, b)
}

func TestDurationWithoutJitter(t *testing.T) {
	assert.Equal(t, time.Minute, Duration(time.Minute, 0))
	assert.Equal(t, time.Duration(0), Duration(0, DefaultJitter))
}
