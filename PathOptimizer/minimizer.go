package PathOptimizer

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/optimize"
)

var (
	ErrBadParameters = errors.New("PathOptimizer: invalid parameters")
	ErrMinimizer     = errors.New("PathOptimizer: minimization failed")
)

// Minimizer finds a local minimum of objective starting from start, with
// initial step sizes per dimension
type Minimizer interface {
	Minimize(objective func(x []float64) float64, start, steps []float64, tolerance float64) ([]float64, error)
}

// NelderMead is a Minimizer using the gonum downhill simplex. The search runs in
// coordinates scaled by the steps, so that the unit simplex matches them.
type NelderMead struct {
	MaxFunctionEvaluations int
	StallIterations        int
}

func NewNelderMead() *NelderMead {
	return &NelderMead{
		MaxFunctionEvaluations: 5000,
		StallIterations:        50,
	}
}

func (nm *NelderMead) Minimize(objective func(x []float64) float64, start, steps []float64,
	tolerance float64) (x []float64, err error) {
	var (
		dim = len(start)
		buf = make([]float64, dim)
	)
	if dim == 0 || len(steps) != dim {
		err = fmt.Errorf("start has %d dimensions and steps %d: %w", dim, len(steps), ErrMinimizer)
		return
	}
	for i, s := range steps {
		if !(s > 0) {
			err = fmt.Errorf("step %d is %g: %w", i, s, ErrMinimizer)
			return
		}
	}
	unscale := func(u, dst []float64) {
		for i := range dst {
			dst[i] = start[i] + steps[i]*u[i]
		}
	}
	problem := optimize.Problem{
		Func: func(u []float64) float64 {
			unscale(u, buf)
			return objective(buf)
		},
	}
	settings := optimize.Settings{
		FuncEvaluations: nm.MaxFunctionEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   tolerance,
			Iterations: nm.StallIterations,
		},
	}
	result, err := optimize.Minimize(problem, make([]float64, dim), &settings, &optimize.NelderMead{SimplexSize: 1})
	if err != nil {
		err = fmt.Errorf("%v: %w", err, ErrMinimizer)
		return
	}
	x = make([]float64, dim)
	unscale(result.X, x)
	return
}
