package TunnelPath

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gobounce/types"
)

// LinearSplinePath is a piecewise linear curve through its nodes, parameterized
// at constant speed so that the tangent squared is the same on every segment.
type LinearSplinePath struct {
	nodes          [][]float64
	segmentStarts  []float64 // auxiliary value at the start of each segment
	segmentEnds    []float64 // auxiliary value at the end of each segment, last is exactly 1
	tangents       [][]float64
	totalLength    float64
	tangentSquared float64
}

func NewLinearSplinePath(nodes [][]float64) (lp *LinearSplinePath, err error) {
	var (
		Nnodes = len(nodes)
	)
	if Nnodes < 2 {
		err = fmt.Errorf("got %d nodes: %w", Nnodes, ErrTooFewNodes)
		return
	}
	nFields := len(nodes[0])
	for i, node := range nodes {
		if len(node) != nFields || nFields == 0 {
			err = fmt.Errorf("node %d has %d fields, node 0 has %d: %w",
				i, len(node), nFields, ErrFieldDimension)
			return
		}
	}
	Nseg := Nnodes - 1
	lp = &LinearSplinePath{
		nodes:         types.CopyFields(nodes),
		segmentStarts: make([]float64, Nseg),
		segmentEnds:   make([]float64, Nseg),
		tangents:      make([][]float64, Nseg),
	}
	segLengths := make([]float64, Nseg)
	for i := 0; i < Nseg; i++ {
		segLengths[i] = floats.Distance(lp.nodes[i+1], lp.nodes[i], 2)
		lp.totalLength += segLengths[i]
	}
	if !(lp.totalLength > 0) {
		lp, err = nil, ErrDegeneratePath
		return
	}
	var aux float64
	for i := 0; i < Nseg; i++ {
		fraction := segLengths[i] / lp.totalLength
		lp.segmentStarts[i] = aux
		aux += fraction
		lp.segmentEnds[i] = aux
		lp.tangents[i] = make([]float64, nFields)
		if fraction > 0 {
			floats.SubTo(lp.tangents[i], lp.nodes[i+1], lp.nodes[i])
			floats.Scale(1./fraction, lp.tangents[i])
		}
	}
	lp.segmentEnds[Nseg-1] = 1
	lp.tangentSquared = lp.totalLength * lp.totalLength
	return
}

// StraightPath places numberOfNodes evenly spaced nodes on the line between two configurations
func StraightPath(from, to []float64, numberOfNodes int) (lp *LinearSplinePath, err error) {
	if numberOfNodes < 2 {
		err = fmt.Errorf("got %d nodes: %w", numberOfNodes, ErrTooFewNodes)
		return
	}
	nodes := make([][]float64, numberOfNodes)
	delta := make([]float64, len(from))
	floats.SubTo(delta, to, from)
	for i := range nodes {
		nodes[i] = make([]float64, len(from))
		switch i {
		case 0:
			copy(nodes[i], from)
		case numberOfNodes - 1:
			copy(nodes[i], to)
		default:
			floats.AddScaledTo(nodes[i], from, float64(i)/float64(numberOfNodes-1), delta)
		}
	}
	return NewLinearSplinePath(nodes)
}

func (lp *LinearSplinePath) FieldsAt(auxiliary float64, dst []float64) []float64 {
	var (
		last   = len(lp.tangents) - 1
		seg    int
		base   []float64
		offset float64
	)
	dst = fieldBuffer(dst, lp.NumberOfFields())
	switch {
	case auxiliary <= 0:
		seg, base, offset = 0, lp.nodes[0], auxiliary
	case auxiliary >= 1:
		seg, base, offset = last, lp.nodes[last+1], auxiliary-1
	default:
		seg = sort.SearchFloat64s(lp.segmentEnds, auxiliary)
		if seg > last {
			seg = last
		}
		base, offset = lp.nodes[seg], auxiliary-lp.segmentStarts[seg]
	}
	return floats.AddScaledTo(dst, base, offset, lp.tangents[seg])
}

func (lp *LinearSplinePath) TangentSquaredAt(float64) float64 { return lp.tangentSquared }

// TangentDotCurvatureAt is zero: the curvature of a linear spline lives only at
// the nodes and is ignored.
func (lp *LinearSplinePath) TangentDotCurvatureAt(float64) float64 { return 0 }

func (lp *LinearSplinePath) NumberOfFields() int { return len(lp.nodes[0]) }

func (lp *LinearSplinePath) NumberOfNodes() int { return len(lp.nodes) }

func (lp *LinearSplinePath) Length() float64 { return lp.totalLength }

// Nodes returns a copy of the nodes
func (lp *LinearSplinePath) Nodes() [][]float64 { return types.CopyFields(lp.nodes) }

// SegmentBoundaries returns the auxiliary value at each node
func (lp *LinearSplinePath) SegmentBoundaries() (b []float64) {
	b = make([]float64, len(lp.nodes))
	b[0] = 0
	copy(b[1:], lp.segmentEnds)
	return
}
