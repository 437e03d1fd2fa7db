package PathOptimizer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gobounce/BounceAction"
	"github.com/notargets/gobounce/TunnelPath"
	"github.com/notargets/gobounce/types"
)

type Parameters struct {
	NumberOfInteriorNodes int
	// NodeConvergenceFraction bounds every squared node displacement, as a
	// fraction of the squared node spacing, for the nodes to count as converged
	NodeConvergenceFraction   float64
	NumberOfAllowedWorsenings int
	// MinimizerTolerance is relative to the potential difference between the vacua
	MinimizerTolerance float64
	// InitialStepFraction sets the first minimizer steps as a fraction of the node spacing
	InitialStepFraction float64
	Minimizer           Minimizer
}

func DefaultParameters() Parameters {
	return Parameters{
		NumberOfInteriorNodes:     7,
		NodeConvergenceFraction:   1.e-2,
		NumberOfAllowedWorsenings: 1,
		MinimizerTolerance:        1.e-10,
		InitialStepFraction:       0.1,
		Minimizer:                 NewNelderMead(),
	}
}

func (p Parameters) Validate() error {
	switch {
	case p.NumberOfInteriorNodes < 1:
		return fmt.Errorf("NumberOfInteriorNodes = %d: %w", p.NumberOfInteriorNodes, ErrBadParameters)
	case !(p.NodeConvergenceFraction > 0):
		return fmt.Errorf("NodeConvergenceFraction = %g: %w", p.NodeConvergenceFraction, ErrBadParameters)
	case p.NumberOfAllowedWorsenings < 0:
		return fmt.Errorf("NumberOfAllowedWorsenings = %d: %w", p.NumberOfAllowedWorsenings, ErrBadParameters)
	case !(p.MinimizerTolerance > 0):
		return fmt.Errorf("MinimizerTolerance = %g: %w", p.MinimizerTolerance, ErrBadParameters)
	case !(p.InitialStepFraction > 0):
		return fmt.Errorf("InitialStepFraction = %g: %w", p.InitialStepFraction, ErrBadParameters)
	case p.Minimizer == nil:
		return fmt.Errorf("no minimizer: %w", ErrBadParameters)
	}
	return nil
}

/*
HyperplaneOptimizer moves each interior path node to the minimum of the
potential on the hyperplane through a reference point of the current path,
orthogonal to the path there. Candidates are penalized by the fourth power of
their distance from the reference point in units of the node spacing, which
keeps a node from running away to some distant minimum in a single step.
*/
type HyperplaneOptimizer struct {
	V                        types.Potential
	Temperature              float64
	FalseVacuum, TrueVacuum  types.Vacuum
	Params                   Parameters
	penaltyScale             float64
	nodesConverged           bool
	numberOfWorseningsSoFar  int
	lastAction               float64
	haveLastAction           bool
	lastSquaredDisplacements []float64
}

func New(V types.Potential, temperature float64, falseVacuum, trueVacuum types.Vacuum,
	params Parameters) (ho *HyperplaneOptimizer, err error) {
	if err = params.Validate(); err != nil {
		return
	}
	nf := V.NumberOfFields()
	if falseVacuum.NumberOfFields() != nf || trueVacuum.NumberOfFields() != nf {
		err = fmt.Errorf("potential has %d fields, vacua have %d and %d: %w", nf,
			falseVacuum.NumberOfFields(), trueVacuum.NumberOfFields(), types.ErrFieldDimension)
		return
	}
	ho = &HyperplaneOptimizer{
		V:            V,
		Temperature:  temperature,
		FalseVacuum:  falseVacuum,
		TrueVacuum:   trueVacuum,
		Params:       params,
		penaltyScale: math.Abs(falseVacuum.Potential - trueVacuum.Potential),
	}
	if !(ho.penaltyScale > 0) {
		ho.penaltyScale = 1
	}
	return
}

// ImprovePath records the action of lastProfile, which belongs to current,
// and returns the next path with whether further improvement is worthwhile
func (ho *HyperplaneOptimizer) ImprovePath(current TunnelPath.Path,
	lastProfile *BounceAction.BubbleProfile) (next *TunnelPath.LinearSplinePath, canImprove bool, err error) {
	if lastProfile != nil {
		ho.recordAction(lastProfile.BounceAction)
	}
	var (
		nf    = ho.V.NumberOfFields()
		N     = ho.Params.NumberOfInteriorNodes
		ref   = make([][]float64, N+2)
		nodes = make([][]float64, 0, N+2)
	)
	if current.NumberOfFields() != nf {
		err = fmt.Errorf("path has %d fields, potential has %d: %w", current.NumberOfFields(), nf,
			types.ErrFieldDimension)
		return
	}
	for k := range ref {
		ref[k] = current.FieldsAt(float64(k)/float64(N+1), nil)
	}
	var spacing float64
	for k := 1; k < len(ref); k++ {
		spacing += floats.Distance(ref[k], ref[k-1], 2)
	}
	spacing /= float64(N + 1)
	nodes = append(nodes, ho.FalseVacuum.Fields)
	ho.lastSquaredDisplacements = make([]float64, N)
	converged := true
	for k := 1; k <= N; k++ {
		var node []float64
		if nf == 1 || spacing == 0 {
			// Nothing transverse to move in
			node = append([]float64{}, ref[k]...)
		} else if node, err = ho.minimizeOnHyperplane(ref[k-1], ref[k], ref[k+1], spacing); err != nil {
			return
		}
		d2 := types.DistanceSquared(node, ref[k])
		ho.lastSquaredDisplacements[k-1] = d2
		if d2 >= ho.Params.NodeConvergenceFraction*spacing*spacing {
			converged = false
		}
		nodes = append(nodes, node)
	}
	nodes = append(nodes, ho.TrueVacuum.Fields)
	ho.nodesConverged = converged
	if next, err = TunnelPath.NewLinearSplinePath(nodes); err != nil {
		return
	}
	canImprove = ho.PathCanBeImproved()
	return
}

func (ho *HyperplaneOptimizer) minimizeOnHyperplane(before, origin, after []float64,
	spacing float64) (node []float64, err error) {
	var (
		nf        = len(origin)
		direction = make([]float64, nf)
		spacing2  = spacing * spacing
		steps     = make([]float64, nf-1)
		start     = make([]float64, nf-1)
		fields    = make([]float64, nf)
	)
	floats.SubTo(direction, after, before)
	var (
		H     = HouseholderReflection(direction)
		plane = H.Slice(0, nf, 1, nf)
		y     = mat.NewVecDense(nf-1, nil)
		x     = mat.NewVecDense(nf, fields)
	)
	toFields := func(coords []float64) {
		copy(y.RawVector().Data, coords)
		x.MulVec(plane, y)
		floats.Add(fields, origin)
	}
	objective := func(coords []float64) float64 {
		toFields(coords)
		r2 := floats.Dot(coords, coords) / spacing2
		return ho.V.Evaluate(fields, ho.Temperature) + ho.penaltyScale*r2*r2
	}
	for i := range steps {
		steps[i] = ho.Params.InitialStepFraction * spacing
	}
	var coords []float64
	coords, err = ho.Params.Minimizer.Minimize(objective, start, steps,
		ho.Params.MinimizerTolerance*ho.penaltyScale)
	if err != nil {
		return
	}
	toFields(coords)
	node = append([]float64{}, fields...)
	return
}

func (ho *HyperplaneOptimizer) recordAction(action float64) {
	if ho.haveLastAction && !(action < ho.lastAction) {
		ho.numberOfWorseningsSoFar++
	}
	ho.lastAction, ho.haveLastAction = action, true
}

// PathCanBeImproved is false once the nodes stopped moving or the action got
// worse more often than allowed
func (ho *HyperplaneOptimizer) PathCanBeImproved() bool {
	return !ho.nodesConverged && ho.numberOfWorseningsSoFar <= ho.Params.NumberOfAllowedWorsenings
}

func (ho *HyperplaneOptimizer) NodesConverged() bool { return ho.nodesConverged }

func (ho *HyperplaneOptimizer) NumberOfWorseningsSoFar() int { return ho.numberOfWorseningsSoFar }

// LastSquaredDisplacements are the squared node moves of the latest ImprovePath.
// Each is measured from the reference point at equal auxiliary spacing on the
// incoming path, not from the node the incoming path was built on.
func (ho *HyperplaneOptimizer) LastSquaredDisplacements() []float64 {
	return append([]float64{}, ho.lastSquaredDisplacements...)
}
