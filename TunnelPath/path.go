package TunnelPath

import (
	"errors"
)

var (
	ErrTooFewNodes    = errors.New("TunnelPath: a path needs at least 2 nodes")
	ErrDegeneratePath = errors.New("TunnelPath: path has zero length in field space")
	ErrFieldDimension = errors.New("TunnelPath: nodes have inconsistent numbers of fields")
)

/*
Path maps the path auxiliary coordinate, which runs from 0 at the false vacuum to
1 at the true vacuum, onto a field configuration.

FieldsAt writes into dst when it has the right length, otherwise it allocates,
so callers evaluating the potential many times can keep a single buffer.
*/
type Path interface {
	FieldsAt(auxiliary float64, dst []float64) []float64
	TangentSquaredAt(auxiliary float64) float64
	TangentDotCurvatureAt(auxiliary float64) float64
	NumberOfFields() int
}

func fieldBuffer(dst []float64, nFields int) []float64 {
	if len(dst) != nFields {
		return make([]float64, nFields)
	}
	return dst
}
