package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBesselI(t *testing.T) {
	// Reference values from Abramowitz and Stegun table 9.8
	assert.InDelta(t, 1., BesselI(0, 0), 1.e-15)
	assert.Equal(t, 0., BesselI(1, 0))
	assert.InDelta(t, 1.266065878, BesselI(0, 1), 1.e-9)
	assert.InDelta(t, 0.565159104, BesselI(1, 1), 1.e-9)
	assert.InDelta(t, 0.135747669, BesselI(2, 1), 1.e-9)
	assert.InDelta(t, 2670.988304, BesselI(1, 10), 1.e-5)
	// Recurrence I_{n-1} - I_{n+1} = 2n/x I_n
	for _, x := range []float64{0.3, 4, 35, 300} {
		lhs := BesselI(0, x) - BesselI(2, x)
		rhs := 2 / x * BesselI(1, x)
		assert.InDelta(t, 1., lhs/rhs, 1.e-12)
	}
	// Large x asymptote e^x/sqrt(2 pi x)
	x := 500.
	assert.InDelta(t, 1., BesselI(1, x)/(math.Exp(x)/math.Sqrt(2*math.Pi*x)), 2.e-3)
}

func TestSinhc(t *testing.T) {
	assert.Equal(t, 1., Sinhc(0))
	assert.InDelta(t, math.Sinh(2)/2, Sinhc(2), 1.e-15)
	assert.InDelta(t, math.Sinh(1.e-3)/1.e-3, Sinhc(1.e-3), 1.e-15)
}
