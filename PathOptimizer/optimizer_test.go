package PathOptimizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gobounce/BounceAction"
	"github.com/notargets/gobounce/TunnelPath"
	"github.com/notargets/gobounce/model_problems"
	"github.com/notargets/gobounce/types"
)

func TestHouseholderReflection(t *testing.T) {
	for _, dir := range [][]float64{{1, 0, 0}, {0, 2, 0}, {-1, 0, 0}, {1, 2, -3}, {3, 4}} {
		var (
			n = len(dir)
			H = HouseholderReflection(dir)
		)
		// Orthogonal
		var HtH mat.Dense
		HtH.Mul(H.T(), H)
		assert.True(t, mat.EqualApprox(&HtH, eye(n), 1.e-14), "direction %v", dir)
		// First column along the direction
		col := mat.Col(nil, 0, H)
		unit := append([]float64{}, dir...)
		floats.Scale(1/floats.Norm(dir, 2), unit)
		assert.True(t, floats.EqualApprox(col, unit, 1.e-14), "direction %v: %v", dir, col)
		// The rest spans the orthogonal hyperplane
		for j := 1; j < n; j++ {
			assert.InDelta(t, 0., floats.Dot(mat.Col(nil, j, H), dir), 1.e-14)
		}
	}
	assert.True(t, mat.Equal(HouseholderReflection([]float64{0, 0}), eye(2)))
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func TestNelderMead(t *testing.T) {
	nm := NewNelderMead()
	x, err := nm.Minimize(func(x []float64) float64 {
		return (x[0]-1)*(x[0]-1) + 10*(x[1]+2)*(x[1]+2)
	}, []float64{0, 0}, []float64{0.5, 0.01}, 1.e-14)
	require.NoError(t, err)
	assert.InDelta(t, 1., x[0], 1.e-4)
	assert.InDelta(t, -2., x[1], 1.e-4)
	_, err = nm.Minimize(func(x []float64) float64 { return 0 }, []float64{0}, []float64{0}, 1.e-8)
	require.ErrorIs(t, err, ErrMinimizer)
	_, err = nm.Minimize(func(x []float64) float64 { return 0 }, nil, nil, 1.e-8)
	require.ErrorIs(t, err, ErrMinimizer)
}

func valleyOptimizer(t *testing.T, bend float64) (*HyperplaneOptimizer, *TunnelPath.LinearSplinePath) {
	V := model_problems.CurvedValley{A: 10, Tilt: 1, Stiffness: 5, Bend: bend}
	fv, err := types.NewVacuum(V, []float64{0, 0}, 0)
	require.NoError(t, err)
	tv, err := types.NewVacuum(V, []float64{1, 0}, 0)
	require.NoError(t, err)
	ho, err := New(V, 0, fv, tv, DefaultParameters())
	require.NoError(t, err)
	path, err := TunnelPath.StraightPath(fv.Fields, tv.Fields, 2)
	require.NoError(t, err)
	return ho, path
}

func TestNodesMoveIntoValley(t *testing.T) {
	ho, path := valleyOptimizer(t, 1)
	next, canImprove, err := ho.ImprovePath(path, nil)
	require.NoError(t, err)
	assert.True(t, canImprove)
	assert.False(t, ho.NodesConverged())
	nodes := next.Nodes()
	require.Len(t, nodes, DefaultParameters().NumberOfInteriorNodes+2)
	assert.Equal(t, []float64{0, 0}, nodes[0])
	assert.Equal(t, []float64{1, 0}, nodes[len(nodes)-1])
	for _, node := range nodes[1 : len(nodes)-1] {
		// The valley floor is at y = x(1-x) > 0, the quartic bound keeps the
		// first move short of it
		assert.Greater(t, node[1], 0.)
		assert.Less(t, node[1], node[0]*(1-node[0]))
	}
	// Iterating settles the nodes on the valley floor
	var iterations int
	for canImprove && iterations < 50 {
		next, canImprove, err = ho.ImprovePath(next, nil)
		require.NoError(t, err)
		iterations++
	}
	assert.True(t, ho.NodesConverged())
	mid := next.FieldsAt(0.5, nil)
	assert.InDelta(t, 0.25, mid[1], 0.05)
}

func TestAlreadyMinimalPath(t *testing.T) {
	ho, path := valleyOptimizer(t, 0)
	next, canImprove, err := ho.ImprovePath(path, nil)
	require.NoError(t, err)
	assert.True(t, ho.NodesConverged())
	assert.False(t, canImprove)
	for _, node := range next.Nodes() {
		assert.InDelta(t, 0., node[1], 1.e-3)
	}
	for _, d2 := range ho.LastSquaredDisplacements() {
		assert.Less(t, d2, DefaultParameters().NodeConvergenceFraction/64.)
	}
}

func TestDisplacementsFromResampledPoints(t *testing.T) {
	ho, _ := valleyOptimizer(t, 0)
	// Same straight line, but the only interior node sits far from the midpoint
	path, err := TunnelPath.NewLinearSplinePath([][]float64{{0, 0}, {0.9, 0}, {1, 0}})
	require.NoError(t, err)
	next, _, err := ho.ImprovePath(path, nil)
	require.NoError(t, err)
	assert.True(t, ho.NodesConverged())
	var (
		N     = DefaultParameters().NumberOfInteriorNodes
		nodes = next.Nodes()
	)
	require.Len(t, nodes, N+2)
	for k := 1; k <= N; k++ {
		assert.InDelta(t, float64(k)/float64(N+1), nodes[k][0], 1.e-3)
	}
	// Measured against the resampled points the moves are tiny, although the
	// old interior node is 0.4 away from the new middle one
	for _, d2 := range ho.LastSquaredDisplacements() {
		assert.Less(t, d2, DefaultParameters().NodeConvergenceFraction/64.)
	}
}

func TestSingleFieldPathIsConverged(t *testing.T) {
	V := model_problems.QuarticWell{A: 10, Tilt: 1}
	fv, _ := types.NewVacuum(V, []float64{0}, 0)
	tv, _ := types.NewVacuum(V, []float64{1}, 0)
	ho, err := New(V, 0, fv, tv, DefaultParameters())
	require.NoError(t, err)
	path, _ := TunnelPath.StraightPath(fv.Fields, tv.Fields, 2)
	next, canImprove, err := ho.ImprovePath(path, nil)
	require.NoError(t, err)
	assert.False(t, canImprove)
	assert.InDelta(t, path.Length(), next.Length(), 1.e-14)
}

func TestWorsenings(t *testing.T) {
	ho, path := valleyOptimizer(t, 1)
	// Keep the nodes from converging so only worsenings count
	ho.Params.NodeConvergenceFraction = 1.e-300
	var err error
	for i, action := range []float64{10, 9, 9.5, 9.4, 12} {
		_, _, err = ho.ImprovePath(path, &BounceAction.BubbleProfile{BounceAction: action})
		require.NoError(t, err)
		switch i {
		case 0, 1:
			assert.Equal(t, 0, ho.NumberOfWorseningsSoFar())
			assert.True(t, ho.PathCanBeImproved())
		case 2, 3:
			assert.Equal(t, 1, ho.NumberOfWorseningsSoFar())
			assert.True(t, ho.PathCanBeImproved())
		case 4:
			assert.Equal(t, 2, ho.NumberOfWorseningsSoFar())
			assert.False(t, ho.PathCanBeImproved())
		}
	}
}

func TestNewErrors(t *testing.T) {
	V := model_problems.CurvedValley{A: 10, Tilt: 1, Stiffness: 5, Bend: 1}
	fv, _ := types.NewVacuum(V, []float64{0, 0}, 0)
	tv1 := types.Vacuum{Fields: []float64{1}}
	_, err := New(V, 0, fv, tv1, DefaultParameters())
	require.ErrorIs(t, err, types.ErrFieldDimension)
	p := DefaultParameters()
	p.Minimizer = nil
	_, err = New(V, 0, fv, fv, p)
	require.ErrorIs(t, err, ErrBadParameters)
	p = DefaultParameters()
	p.NumberOfInteriorNodes = 0
	_, err = New(V, 0, fv, fv, p)
	require.ErrorIs(t, err, ErrBadParameters)
	assert.False(t, math.IsNaN(fv.Potential))
}
