package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(1.5))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite(math.Inf(-1)))
	assert.True(t, IsFinite([]float64{0, -3, 1.e300}))
	assert.False(t, IsFinite([]float64{0, math.Inf(1)}))
	assert.True(t, IsFinite([]float64(nil)))
	assert.Contains(t, GetMemUsage(), "Alloc = ")
}

func TestPOW(t *testing.T) {
	for _, p := range []int{-9, -3, 0, 1, 2, 5, 8, 11} {
		assert.InEpsilon(t, math.Pow(1.3, float64(p)), POW(1.3, p), 1.e-14)
	}
}
