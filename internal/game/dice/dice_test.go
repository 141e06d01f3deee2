package dice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCryptoSourceIntnRange(t *testing.T) {
	src := NewCryptoSource()
	for i := 0; i < 200; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

func TestCryptoSourceIntnPanicsOnNonPositive(t *testing.T) {
	src := NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
	assert.Panics(t, func() { src.Intn(-3) })
}

func TestCryptoSourceFloat64Range(t *testing.T) {
	src := NewCryptoSource()
	for i := 0; i < 200; i++ {
		v := src.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestPercentRange(t *testing.T) {
	src := NewCryptoSource()
	for i := 0; i < 200; i++ {
		v := Percent(src)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 100.0)
	}
}

func TestBetweenConstant(t *testing.T) {
	assert.Equal(t, 7, Between(NewCryptoSource(), 7, 7))
}

func TestBetweenPanicsOnInvertedRange(t *testing.T) {
	assert.Panics(t, func() { Between(NewCryptoSource(), 5, 2) })
}

func TestBetweenBoundsProperty(t *testing.T) {
	src := NewCryptoSource()
	rapid.Check(t, func(t *rapid.T) {
		min := rapid.IntRange(-50, 50).Draw(t, "min")
		max := rapid.IntRange(min, min+100).Draw(t, "max")
		v := Between(src, min, max)
		if v < min || v > max {
			t.Fatalf("Between(%d, %d) = %d out of range", min, max, v)
		}
	})
}
