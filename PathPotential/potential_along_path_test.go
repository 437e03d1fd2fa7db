package PathPotential

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gobounce/TunnelPath"
	"github.com/notargets/gobounce/model_problems"
	"github.com/notargets/gobounce/types"
)

func straightPath(t *testing.T, from, to []float64) TunnelPath.Path {
	lp, err := TunnelPath.StraightPath(from, to, 2)
	require.NoError(t, err)
	return lp
}

func TestDoubleWell(t *testing.T) {
	var (
		V      = model_problems.QuarticWell{A: 1}
		path   = straightPath(t, []float64{0}, []float64{1})
		params = DefaultParameters()
	)
	pap, err := BuildEffectivePotential(path, V, 0, params)
	require.NoError(t, err)
	require.True(t, pap.EnergyBarrierWasResolved(), pap.String())
	assert.Equal(t, BarrierResolved, pap.Status())
	assert.Equal(t, 0., pap.AuxiliaryOfPathFalseVacuum())
	assert.Equal(t, 1., pap.AuxiliaryOfPathPanicVacuum())
	assert.Less(t, pap.AuxiliaryOfPathFalseVacuum(), pap.AuxiliaryOfPathPanicVacuum())
	assert.Equal(t, 0., pap.PathPanicPotential())
	assert.Equal(t, 0., pap.PathFalsePotential())
	assert.Equal(t, params.NumberOfSegments-2, pap.NumberOfLinearSegments())
	// Genuine extrema at both ends
	assert.Equal(t, 0., pap.Value(0))
	assert.Equal(t, 0., pap.FirstDerivative(0))
	assert.InDelta(t, 0., pap.FirstDerivative(1), 1.e-15)
	assert.Greater(t, pap.SecondDerivativeAtFalseVacuum(), 0.)
	assert.Greater(t, pap.SecondDerivativeNearPathPanic(0), 0.)
	// Nodes of the discretization reproduce the potential
	for _, aux := range []float64{0.01, 0.25, 0.5, 0.73, 0.99} {
		assert.InDelta(t, V.Evaluate([]float64{aux}, 0), pap.Value(aux), 1.e-12)
	}
	// Continuity across segment boundaries
	for k := 1; k < params.NumberOfSegments; k++ {
		aux := float64(k) / float64(params.NumberOfSegments)
		assert.InDelta(t, pap.Value(aux-1.e-12), pap.Value(aux+1.e-12), 1.e-10)
	}
	// Barrier top is positive, derivative changes sign across it
	assert.Greater(t, pap.Value(0.5), 0.06)
	assert.Greater(t, pap.FirstDerivative(0.3), 0.)
	assert.Less(t, pap.FirstDerivative(0.7), 0.)
	assert.InDelta(t, 0.01, pap.ThresholdForNearPathPanic(), 1.e-15)
}

func TestTiltedQuarticRollsToFalseVacuum(t *testing.T) {
	var (
		V    = model_problems.QuarticWell{A: 10, Tilt: 1}
		path = straightPath(t, []float64{0}, []float64{1})
	)
	pap, err := BuildEffectivePotential(path, V, 0, DefaultParameters())
	require.NoError(t, err)
	require.True(t, pap.EnergyBarrierWasResolved())
	// The nominal path start is not a minimum, the potential keeps falling to 0.06
	assert.InDelta(t, 0.06, pap.AuxiliaryOfPathFalseVacuum(), 1.e-12)
	assert.InDelta(t, V.Evaluate([]float64{0.06}, 0), pap.PathFalsePotential(), 1.e-15)
	assert.Equal(t, 1., pap.AuxiliaryOfPathPanicVacuum())
	assert.InDelta(t, -1-pap.PathFalsePotential(), pap.PathPanicPotential(), 1.e-15)
	assert.Equal(t, 0., pap.Value(0.06))
	// Values are relative to the false vacuum
	assert.InDelta(t, V.Evaluate([]float64{0.5}, 0)-pap.PathFalsePotential(), pap.Value(0.5), 1.e-12)
	// Points before the false vacuum are on the quadratic
	assert.Greater(t, pap.Value(0.02), 0.)
	assert.Less(t, pap.FirstDerivative(0.02), 0.)
}

func TestPanicVacuumInsidePath(t *testing.T) {
	var (
		V    = model_problems.QuarticWell{A: 10, Tilt: 1}
		path = straightPath(t, []float64{0}, []float64{1.5})
	)
	pap, err := BuildEffectivePotential(path, V, 0, DefaultParameters())
	require.NoError(t, err)
	require.True(t, pap.EnergyBarrierWasResolved())
	// True minimum near phi = 1.047, first rising grid point is phi = 1.05
	assert.InDelta(t, 0.7, pap.AuxiliaryOfPathPanicVacuum(), 1.e-12)
	assert.Less(t, pap.PathPanicPotential(), -0.9)
	assert.InDelta(t, pap.PathPanicPotential(), pap.Value(0.7), 1.e-15)
	assert.InDelta(t, 0., pap.FirstDerivative(0.7), 1.e-15)
	assert.Less(t, pap.FirstDerivativeNearPathPanic(0.005), 0.)
	assert.InDelta(t, pap.FirstDerivative(0.695), pap.FirstDerivativeNearPathPanic(0.005), 1.e-9)
}

func TestNoBarrier(t *testing.T) {
	V := types.PotentialFunc{NFields: 2, F: func(f []float64, T float64) float64 {
		return -f[0] - f[1]*f[1]
	}}
	path := straightPath(t, []float64{0, 0}, []float64{1, 1})
	pap, err := BuildEffectivePotential(path, V, 0, DefaultParameters())
	require.NoError(t, err)
	assert.False(t, pap.EnergyBarrierWasResolved())
	assert.Equal(t, NoBarrierFound, pap.Status())
	assert.Equal(t, "no energy barrier found along path", pap.Status().String())
}

func TestPanicAboveFalseVacuum(t *testing.T) {
	// Reversed tilt, tunneling would go uphill
	var (
		V    = model_problems.QuarticWell{A: 10, Tilt: -1}
		path = straightPath(t, []float64{0}, []float64{1})
	)
	pap, err := BuildEffectivePotential(path, V, 0, DefaultParameters())
	require.NoError(t, err)
	assert.False(t, pap.EnergyBarrierWasResolved())
	assert.Equal(t, PanicAboveFalseVacuum, pap.Status())
}

func TestRelativeBarrierThreshold(t *testing.T) {
	// A tiny barrier on top of a huge constant is not resolvable at the default threshold
	var (
		V = types.PotentialFunc{NFields: 1, F: func(f []float64, T float64) float64 {
			phi := f[0]
			return 1.e8 + 1.e-3*phi*phi*(phi-1)*(phi-1)
		}}
		path   = straightPath(t, []float64{0}, []float64{1})
		params = DefaultParameters()
	)
	pap, err := BuildEffectivePotential(path, V, 0, params)
	require.NoError(t, err)
	assert.False(t, pap.EnergyBarrierWasResolved())
	params.RelativeBarrierThreshold = 0
	pap, err = BuildEffectivePotential(path, V, 0, params)
	require.NoError(t, err)
	assert.True(t, pap.EnergyBarrierWasResolved())
}

func TestBuildErrors(t *testing.T) {
	var (
		V    = model_problems.QuarticWell{A: 1}
		path = straightPath(t, []float64{0, 0}, []float64{1, 1})
	)
	_, err := BuildEffectivePotential(path, V, 0, DefaultParameters())
	require.ErrorIs(t, err, ErrFieldDimension)
	_, err = BuildEffectivePotential(straightPath(t, []float64{0}, []float64{1}), V, 0,
		Parameters{NumberOfSegments: 2})
	require.ErrorIs(t, err, ErrBadParameters)
	Vnan := types.PotentialFunc{NFields: 1, F: func(f []float64, T float64) float64 { return math.Log(-f[0]) }}
	_, err = BuildEffectivePotential(straightPath(t, []float64{0}, []float64{1}), Vnan, 0,
		DefaultParameters())
	require.ErrorIs(t, err, ErrNonFinite)
}
