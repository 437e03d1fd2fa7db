package types

import (
	"errors"
	"fmt"

	"github.com/notargets/gobounce/utils"
)

var (
	ErrFieldDimension = errors.New("types: field vector has the wrong number of fields")
	ErrNonFinite      = errors.New("types: potential is not finite")
)

// Potential is the multi-field scalar potential V(fields, T). A temperature of
// zero selects the zero temperature (4 dimensional) tunneling case.
type Potential interface {
	Evaluate(fields []float64, temperature float64) float64
	NumberOfFields() int
}

// PotentialFunc adapts a plain function to the Potential interface
type PotentialFunc struct {
	NFields int
	F       func(fields []float64, temperature float64) float64
}

func (pf PotentialFunc) Evaluate(fields []float64, temperature float64) float64 {
	return pf.F(fields, temperature)
}

func (pf PotentialFunc) NumberOfFields() int { return pf.NFields }

// Vacuum is a stationary point of the potential at a given temperature
type Vacuum struct {
	Fields    []float64
	Potential float64
}

func NewVacuum(V Potential, fields []float64, temperature float64) (vac Vacuum, err error) {
	if len(fields) != V.NumberOfFields() {
		err = fmt.Errorf("vacuum has %d fields, potential has %d: %w",
			len(fields), V.NumberOfFields(), ErrFieldDimension)
		return
	}
	vac.Fields = make([]float64, len(fields))
	copy(vac.Fields, fields)
	vac.Potential = V.Evaluate(vac.Fields, temperature)
	if !utils.IsFinite(vac.Potential) {
		err = fmt.Errorf("at %v: %w", fields, ErrNonFinite)
	}
	return
}

func (vac Vacuum) NumberOfFields() int { return len(vac.Fields) }

func (vac Vacuum) String() string {
	return fmt.Sprintf("fields = %v, V = %g", vac.Fields, vac.Potential)
}
