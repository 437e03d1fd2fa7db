package TunnelPath

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

/*
PolynomialPath is a path defined by coefficients instead of nodes. Each field is

	f(a) = FV + a*(TV - FV) + a*(1-a)*(c_0 + c_1*a + c_2*a^2 + ...)

so the end points stay pinned to the vacua whatever the coefficients are. The
speed along the path is not constant and the curvature term is non-zero.
*/
type PolynomialPath struct {
	falseVacuum, trueVacuum []float64
	difference              []float64
	coefficients            [][]float64 // [field][power]
}

func NewPolynomialPath(falseVacuum, trueVacuum []float64, coefficients [][]float64) (pp *PolynomialPath, err error) {
	nFields := len(falseVacuum)
	if nFields == 0 || len(trueVacuum) != nFields {
		err = fmt.Errorf("vacua have %d and %d fields: %w", nFields, len(trueVacuum), ErrFieldDimension)
		return
	}
	if coefficients != nil && len(coefficients) != nFields {
		err = fmt.Errorf("coefficients for %d fields, vacua have %d: %w",
			len(coefficients), nFields, ErrFieldDimension)
		return
	}
	if floats.Distance(falseVacuum, trueVacuum, 2) == 0 {
		err = ErrDegeneratePath
		return
	}
	pp = &PolynomialPath{
		falseVacuum:  append([]float64{}, falseVacuum...),
		trueVacuum:   append([]float64{}, trueVacuum...),
		difference:   make([]float64, nFields),
		coefficients: make([][]float64, nFields),
	}
	floats.SubTo(pp.difference, trueVacuum, falseVacuum)
	for f := range pp.coefficients {
		if coefficients != nil {
			pp.coefficients[f] = append([]float64{}, coefficients[f]...)
		}
	}
	return
}

// horner returns P(a), P'(a) and P''(a) for the bracketed polynomial of one field
func horner(c []float64, a float64) (p, dp, ddp float64) {
	for k := len(c) - 1; k >= 0; k-- {
		ddp = ddp*a + 2*dp
		dp = dp*a + p
		p = p*a + c[k]
	}
	return
}

func (pp *PolynomialPath) FieldsAt(auxiliary float64, dst []float64) []float64 {
	dst = fieldBuffer(dst, pp.NumberOfFields())
	if auxiliary == 1 {
		copy(dst, pp.trueVacuum)
		return dst
	}
	w := auxiliary * (1 - auxiliary)
	for f := range dst {
		p, _, _ := horner(pp.coefficients[f], auxiliary)
		dst[f] = pp.falseVacuum[f] + auxiliary*pp.difference[f] + w*p
	}
	return dst
}

func (pp *PolynomialPath) tangentAndCurvature(auxiliary float64, f int) (t, c float64) {
	var (
		a          = auxiliary
		p, dp, ddp = horner(pp.coefficients[f], a)
	)
	t = pp.difference[f] + (1-2*a)*p + a*(1-a)*dp
	c = -2*p + 2*(1-2*a)*dp + a*(1-a)*ddp
	return
}

func (pp *PolynomialPath) TangentSquaredAt(auxiliary float64) (t2 float64) {
	for f := range pp.difference {
		t, _ := pp.tangentAndCurvature(auxiliary, f)
		t2 += t * t
	}
	return
}

func (pp *PolynomialPath) TangentDotCurvatureAt(auxiliary float64) (tc float64) {
	for f := range pp.difference {
		t, c := pp.tangentAndCurvature(auxiliary, f)
		tc += t * c
	}
	return
}

func (pp *PolynomialPath) NumberOfFields() int { return len(pp.falseVacuum) }
