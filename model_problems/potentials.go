package model_problems

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/notargets/gobounce/types"
	"github.com/notargets/gobounce/utils"
)

var ErrUnknownPotential = errors.New("model_problems: unknown potential")

/*
QuarticWell is the single field potential

	V(phi, T) = A*phi^2*(phi-1)^2 - Tilt*phi + ThermalMass*T^2*phi^2

With Tilt = 0 the minima at 0 and 1 are degenerate, a positive tilt lowers the
minimum near 1 and shifts both minima slightly toward larger phi.
*/
type QuarticWell struct {
	A, Tilt, ThermalMass float64
}

func (qw QuarticWell) NumberOfFields() int { return 1 }

func (qw QuarticWell) Evaluate(fields []float64, T float64) float64 {
	var (
		phi = fields[0]
	)
	return qw.A*utils.POW(phi, 2)*utils.POW(phi-1, 2) - qw.Tilt*phi + qw.ThermalMass*T*T*phi*phi
}

/*
CurvedValley is a two field potential whose low lying valley bends away from the
straight line joining its minima

	V(x, y, T) = A*x^2*(x-1)^2 - Tilt*x + Stiffness*(y - Bend*x*(1-x))^2 + ThermalMass*T^2*(x^2+y^2)

The minimal action path follows y = Bend*x*(1-x) closely, so the straight path is
a poor first guess whenever Bend is not zero.
*/
type CurvedValley struct {
	A, Tilt, Stiffness, Bend, ThermalMass float64
}

func (cv CurvedValley) NumberOfFields() int { return 2 }

func (cv CurvedValley) Evaluate(fields []float64, T float64) float64 {
	var (
		x, y   = fields[0], fields[1]
		valley = y - cv.Bend*x*(1-x)
	)
	return cv.A*utils.POW(x, 2)*utils.POW(x-1, 2) - cv.Tilt*x + cv.Stiffness*valley*valley +
		cv.ThermalMass*T*T*(x*x+y*y)
}

type constructor func(c map[string]float64) types.Potential

var potentialCatalog = map[string]constructor{
	"quartic": func(c map[string]float64) types.Potential {
		return QuarticWell{A: coeff(c, "A", 10), Tilt: coeff(c, "Tilt", 1),
			ThermalMass: coeff(c, "ThermalMass", 0)}
	},
	"valley": func(c map[string]float64) types.Potential {
		return CurvedValley{A: coeff(c, "A", 10), Tilt: coeff(c, "Tilt", 1),
			Stiffness: coeff(c, "Stiffness", 5), Bend: coeff(c, "Bend", 1),
			ThermalMass: coeff(c, "ThermalMass", 0)}
	},
}

func coeff(c map[string]float64, name string, def float64) float64 {
	if val, ok := c[name]; ok {
		return val
	}
	return def
}

// NewPotential looks up a potential by name, missing coefficients take their defaults
func NewPotential(name string, coefficients map[string]float64) (V types.Potential, err error) {
	build, ok := potentialCatalog[strings.ToLower(name)]
	if !ok {
		err = fmt.Errorf("%q, known potentials are %v: %w", name, PotentialNames(), ErrUnknownPotential)
		return
	}
	V = build(coefficients)
	return
}

func PotentialNames() (names []string) {
	for name := range potentialCatalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}
