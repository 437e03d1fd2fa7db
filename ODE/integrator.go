package ODE

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/gobounce/utils"
)

var (
	ErrStepTooSmall = errors.New("ODE: adaptive step size fell below the minimum step")
	ErrNonFinite    = errors.New("ODE: state is not finite")
	ErrBadInterval  = errors.New("ODE: integration interval is empty or step is not positive")
)

// Derivative fills dydr with the derivative of the state y at r
type Derivative func(r float64, y, dydr []float64)

// Observer sees the initial state and then every accepted step. Returning false
// stops the integration at that step.
type Observer func(r float64, y []float64) (keepGoing bool)

type Summary struct {
	R         float64   // Radius reached
	Y         []float64 // State at R
	Steps     int       // Accepted steps
	LastStep  float64   // Size of the step proposed after the last accepted one
	Stopped   bool      // The observer asked to stop
	Exhausted bool      // MaxSteps accepted before reaching the end
}

type Integrator interface {
	Integrate(f Derivative, y0 []float64, rStart, rEnd, drInitial float64, obs Observer) (Summary, error)
}

// CashKarp is an adaptive embedded Runge-Kutta 5(4) stepper
type CashKarp struct {
	AbsoluteTolerance, RelativeTolerance float64
	MaxSteps                             int
	MinStep                              float64
}

func NewCashKarp() *CashKarp {
	return &CashKarp{
		AbsoluteTolerance: 1.e-10,
		RelativeTolerance: 1.e-8,
		MaxSteps:          20000,
		MinStep:           1.e-15,
	}
}

const (
	b21                     = 1. / 5.
	b31, b32                = 3. / 40., 9. / 40.
	b41, b42, b43           = 3. / 10., -9. / 10., 6. / 5.
	b51, b52, b53, b54      = -11. / 54., 5. / 2., -70. / 27., 35. / 27.
	b61, b62, b63, b64, b65 = 1631. / 55296., 175. / 512., 575. / 13824., 44275. / 110592., 253. / 4096.
	a2, a3, a4, a5, a6      = 1. / 5., 3. / 10., 3. / 5., 1., 7. / 8.
	c1, c3, c4, c6          = 37. / 378., 250. / 621., 125. / 594., 512. / 1771.
	dc1                     = c1 - 2825./27648.
	dc3                     = c3 - 18575./48384.
	dc4                     = c4 - 13525./55296.
	dc5                     = -277. / 14336.
	dc6                     = c6 - 1./4.
)

type stages struct {
	k1, k2, k3, k4, k5, k6, tmp, yOut, yErr []float64
}

func newStages(n int) (s *stages) {
	s = &stages{}
	for _, p := range []*[]float64{&s.k1, &s.k2, &s.k3, &s.k4, &s.k5, &s.k6, &s.tmp, &s.yOut, &s.yErr} {
		*p = make([]float64, n)
	}
	return
}

// step takes one trial step of size h from (r, y), k1 must already hold f(r, y)
func (s *stages) step(f Derivative, r, h float64, y []float64) {
	n := len(y)
	for i := 0; i < n; i++ {
		s.tmp[i] = y[i] + h*b21*s.k1[i]
	}
	f(r+a2*h, s.tmp, s.k2)
	for i := 0; i < n; i++ {
		s.tmp[i] = y[i] + h*(b31*s.k1[i]+b32*s.k2[i])
	}
	f(r+a3*h, s.tmp, s.k3)
	for i := 0; i < n; i++ {
		s.tmp[i] = y[i] + h*(b41*s.k1[i]+b42*s.k2[i]+b43*s.k3[i])
	}
	f(r+a4*h, s.tmp, s.k4)
	for i := 0; i < n; i++ {
		s.tmp[i] = y[i] + h*(b51*s.k1[i]+b52*s.k2[i]+b53*s.k3[i]+b54*s.k4[i])
	}
	f(r+a5*h, s.tmp, s.k5)
	for i := 0; i < n; i++ {
		s.tmp[i] = y[i] + h*(b61*s.k1[i]+b62*s.k2[i]+b63*s.k3[i]+b64*s.k4[i]+b65*s.k5[i])
	}
	f(r+a6*h, s.tmp, s.k6)
	for i := 0; i < n; i++ {
		s.yOut[i] = y[i] + h*(c1*s.k1[i]+c3*s.k3[i]+c4*s.k4[i]+c6*s.k6[i])
		s.yErr[i] = h * (dc1*s.k1[i] + dc3*s.k3[i] + dc4*s.k4[i] + dc5*s.k5[i] + dc6*s.k6[i])
	}
}

func (ck *CashKarp) errorNorm(y, yOut, yErr []float64) (e float64) {
	for i := range y {
		scale := ck.AbsoluteTolerance + ck.RelativeTolerance*math.Max(math.Abs(y[i]), math.Abs(yOut[i]))
		e = math.Max(e, math.Abs(yErr[i])/scale)
	}
	return
}

func (ck *CashKarp) Integrate(f Derivative, y0 []float64, rStart, rEnd, drInitial float64,
	obs Observer) (sum Summary, err error) {
	if !(rEnd > rStart) || !(drInitial > 0) {
		err = fmt.Errorf("[%g, %g] with step %g: %w", rStart, rEnd, drInitial, ErrBadInterval)
		return
	}
	var (
		n = len(y0)
		y = make([]float64, n)
		s = newStages(n)
		r = rStart
		h = math.Min(drInitial, rEnd-rStart)
	)
	copy(y, y0)
	sum.R, sum.Y = r, y
	if obs != nil && !obs(r, y) {
		sum.Stopped, sum.LastStep = true, h
		return
	}
	f(r, y, s.k1)
	for sum.Steps < ck.MaxSteps {
		if r+h > rEnd {
			h = rEnd - r
		}
		s.step(f, r, h, y)
		errNorm := ck.errorNorm(y, s.yOut, s.yErr)
		if math.IsNaN(errNorm) {
			errNorm = math.Inf(1)
		}
		if errNorm > 1 {
			h *= math.Max(0.9*math.Pow(errNorm, -0.25), 0.1)
			if h < ck.MinStep {
				err = fmt.Errorf("at r = %g, step %g: %w", r, h, ErrStepTooSmall)
				return
			}
			continue
		}
		if r+h == r {
			err = fmt.Errorf("at r = %g, step %g: %w", r, h, ErrStepTooSmall)
			return
		}
		r += h
		copy(y, s.yOut)
		if !utils.IsFinite(y) {
			err = fmt.Errorf("at r = %g: %w", r, ErrNonFinite)
			return
		}
		sum.Steps++
		sum.R = r
		if errNorm == 0 {
			h *= 5
		} else {
			h *= math.Min(math.Max(0.9*math.Pow(errNorm, -0.2), 0.2), 5)
		}
		sum.LastStep = h
		if obs != nil && !obs(r, y) {
			sum.Stopped = true
			return
		}
		if r >= rEnd {
			return
		}
		f(r, y, s.k1)
	}
	sum.Exhausted = true
	return
}
