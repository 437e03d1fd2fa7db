package BounceAction

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/notargets/gobounce/ODE"
	"github.com/notargets/gobounce/PathPotential"
	"github.com/notargets/gobounce/TunnelPath"
	"github.com/notargets/gobounce/utils"
)

var (
	ErrNoBarrier     = errors.New("BounceAction: no energy barrier along path, tunneling is not possible on it")
	ErrBadParameters = errors.New("BounceAction: invalid parameters")
)

type Parameters struct {
	AllowShootingAttempts int
	// ShootingThreshold is the fraction of the initial field space distance from
	// the false vacuum that a shot may still be away from it to count as good enough
	ShootingThreshold            float64
	AuxiliaryPrecisionResolution float64
	MaxRadiusDoublings           int
	InitialStepFraction          float64
	Integrator                   ODE.Integrator
}

func DefaultParameters() Parameters {
	return Parameters{
		AllowShootingAttempts:        32,
		ShootingThreshold:            1.e-2,
		AuxiliaryPrecisionResolution: 1.e-7,
		MaxRadiusDoublings:           16,
		InitialStepFraction:          0.1,
		Integrator:                   ODE.NewCashKarp(),
	}
}

func (p Parameters) Validate() error {
	switch {
	case p.AllowShootingAttempts < 1:
		return fmt.Errorf("AllowShootingAttempts = %d: %w", p.AllowShootingAttempts, ErrBadParameters)
	case !(p.ShootingThreshold > 0):
		return fmt.Errorf("ShootingThreshold = %g: %w", p.ShootingThreshold, ErrBadParameters)
	case !(p.AuxiliaryPrecisionResolution > 0):
		return fmt.Errorf("AuxiliaryPrecisionResolution = %g: %w", p.AuxiliaryPrecisionResolution, ErrBadParameters)
	case p.MaxRadiusDoublings < 0:
		return fmt.Errorf("MaxRadiusDoublings = %d: %w", p.MaxRadiusDoublings, ErrBadParameters)
	case !(p.InitialStepFraction > 0):
		return fmt.Errorf("InitialStepFraction = %g: %w", p.InitialStepFraction, ErrBadParameters)
	case p.Integrator == nil:
		return fmt.Errorf("no ODE integrator: %w", ErrBadParameters)
	}
	return nil
}

// Shooter finds the bounce by undershoot/overshoot bisection on the auxiliary
// value at the bubble center
type Shooter struct {
	Params Parameters
}

func NewShooter(params Parameters) (bs *Shooter, err error) {
	if err = params.Validate(); err != nil {
		return
	}
	bs = &Shooter{Params: params}
	return
}

type outcome uint8

const (
	inconclusive outcome = iota
	undershoot
	overshoot
)

type shot struct {
	offset     float64 // Bubble center distance below the panic vacuum in auxiliary
	samples    []RadialSample
	result     outcome
	goodEnough bool
	badInitial bool
}

// ShootBubble returns ErrNoBarrier when the potential along the path has no
// resolved barrier. Running out of attempts is not an error, the profile then
// has GoodEnough == false.
func (bs *Shooter) ShootBubble(path TunnelPath.Path, ep *PathPotential.PotentialAlongPath) (bp *BubbleProfile, err error) {
	if !ep.EnergyBarrierWasResolved() {
		err = fmt.Errorf("%s: %w", ep.Status(), ErrNoBarrier)
		return
	}
	var (
		sr = newShootingRun(bs.Params, path, ep)
		// The bracket is kept as offsets below the panic vacuum, so that centers
		// very close to it do not lose precision to a subtraction
		undershootOffset = sr.xPanic - sr.xFalse
		overshootOffset  = 0.
		stepScale        = 1.
		badRetries       int
		attempts         int
		s, last          *shot
	)
	for attempts < bs.Params.AllowShootingAttempts {
		offset := 0.5 * (undershootOffset + overshootOffset)
		if s, err = sr.shootFromInitialConditions(offset, stepScale); err != nil {
			return
		}
		if s.badInitial && badRetries < bs.Params.AllowShootingAttempts {
			badRetries++
			stepScale *= 0.1
			continue
		}
		stepScale = 1
		attempts++
		last = s
		if s.goodEnough {
			break
		}
		switch s.result {
		case overshoot:
			overshootOffset = offset
		case undershoot:
			undershootOffset = offset
		}
	}
	centerOffset := last.offset
	if !last.goodEnough {
		centerOffset = 0.5 * (undershootOffset + overshootOffset)
	}
	bp = &BubbleProfile{
		Samples:          last.samples,
		InitialAuxiliary: sr.xPanic - centerOffset,
		Temperature:      ep.Temperature(),
		Attempts:         attempts,
		GoodEnough:       last.goodEnough,
	}
	bp.BounceAction = sr.action(last)
	return
}

// shootingRun holds what stays fixed over all the attempts of one ShootBubble call
type shootingRun struct {
	params         Parameters
	path           TunnelPath.Path
	ep             *PathPotential.PotentialAlongPath
	damping        float64
	xFalse, xPanic float64
	falseFields    []float64
	fieldBuf       []float64
	lengthScale    float64
	shape          func(x float64) (f, df float64)
}

func newShootingRun(params Parameters, path TunnelPath.Path, ep *PathPotential.PotentialAlongPath) (sr *shootingRun) {
	sr = &shootingRun{
		params:  params,
		path:    path,
		ep:      ep,
		damping: 3,
		xFalse:  ep.AuxiliaryOfPathFalseVacuum(),
		xPanic:  ep.AuxiliaryOfPathPanicVacuum(),
		shape:   besselShape,
	}
	if ep.Temperature() > 0 {
		sr.damping, sr.shape = 2, sinhShape
	}
	sr.falseFields = path.FieldsAt(sr.xFalse, nil)
	sr.fieldBuf = make([]float64, len(sr.falseFields))
	sr.lengthScale = 1
	t2, v2 := path.TangentSquaredAt(sr.xFalse), ep.SecondDerivativeAtFalseVacuum()
	if t2 > 0 && v2 > 0 {
		sr.lengthScale = math.Sqrt(t2 / v2)
	}
	return
}

// derivative of (p, dp/dr) from p'' + (damping/r) p' = (dV/dp - (t.c) p'^2) / t^2
func (sr *shootingRun) derivative(r float64, y, dydr []float64) {
	var (
		p, dp = y[0], y[1]
		t2    = sr.path.TangentSquaredAt(p)
		tc    = sr.path.TangentDotCurvatureAt(p)
	)
	dydr[0] = dp
	dydr[1] = (sr.ep.FirstDerivative(p)-tc*dp*dp)/t2 - sr.damping*dp/r
}

func (sr *shootingRun) distanceToFalseVacuum2(auxiliary float64) float64 {
	sr.fieldBuf = sr.path.FieldsAt(auxiliary, sr.fieldBuf)
	d := floats.Distance(sr.fieldBuf, sr.falseFields, 2)
	return d * d
}

func (sr *shootingRun) closeEnough(auxiliary, startDistance2 float64) bool {
	thr := sr.params.ShootingThreshold
	return sr.distanceToFalseVacuum2(auxiliary) < thr*thr*startDistance2
}

/*
initialConditions places the start of the integration at a small radius,
the equation being singular at r = 0. Close to the panic vacuum the equation
linearized on the final quadratic segment is solved exactly, elsewhere
p(r) = p0 + c r^2 is used. rollsBack is set when the potential at the center
pushes the field away from the false vacuum, a definite undershoot.
*/
func (sr *shootingRun) initialConditions(offset float64) (r0 float64, y0 [2]float64, rollsBack bool) {
	var (
		res     = sr.params.AuxiliaryPrecisionResolution
		pCenter = sr.xPanic - offset
		ok      bool
	)
	if offset < sr.ep.ThresholdForNearPathPanic() {
		if r0, y0, ok = sr.nearPanicConditions(offset); ok {
			return
		}
	}
	F := sr.ep.FirstDerivative(pCenter) / sr.path.TangentSquaredAt(pCenter)
	if F >= 0 {
		r0, y0, rollsBack = res*sr.lengthScale, [2]float64{pCenter, 0}, true
		return
	}
	c := F / (2 * (1 + sr.damping))
	r0 = math.Min(res/(2*math.Abs(c)), sr.lengthScale)
	y0 = [2]float64{pCenter + c*r0*r0, 2 * c * r0}
	return
}

const maxShapeArgument = 600.

func (sr *shootingRun) nearPanicConditions(offset float64) (r0 float64, y0 [2]float64, ok bool) {
	var (
		v2        = sr.ep.SecondDerivativeNearPathPanic(offset)
		t2        = sr.path.TangentSquaredAt(sr.xPanic)
		threshold = sr.ep.ThresholdForNearPathPanic()
		target    = sr.params.AuxiliaryPrecisionResolution
	)
	if !(v2 > 0) || !(t2 > 0) || !(offset > 0) {
		return
	}
	k := math.Sqrt(v2 / t2)
	// Stay on the quadratic segment, where the closed form is exact
	xMax := bisectBoundary(func(x float64) bool {
		f, _ := sr.shape(x)
		return offset*f < threshold
	}, 0, maxShapeArgument)
	x := bisectBoundary(func(x float64) bool {
		_, df := sr.shape(x)
		return offset*k*df < target
	}, 0, xMax)
	if !(x > 0) {
		return
	}
	f, df := sr.shape(x)
	r0, y0, ok = x/k, [2]float64{sr.xPanic - offset*f, -offset * k * df}, true
	return
}

// bisectBoundary returns the point where below switches from true at lo to false
func bisectBoundary(below func(x float64) bool, lo, hi float64) float64 {
	if below(hi) {
		return hi
	}
	for i := 0; i < 200 && hi-lo > 1.e-14*hi; i++ {
		mid := 0.5 * (lo + hi)
		if below(mid) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// sinhShape is the regular solution of u'' + (2/r) u' = k^2 u, normalized to 1 at the center
func sinhShape(x float64) (f, df float64) {
	if x < 1.e-4 {
		return utils.Sinhc(x), x/3 + x*x*x/30
	}
	return utils.Sinhc(x), (x*math.Cosh(x) - math.Sinh(x)) / (x * x)
}

// besselShape is the regular solution of u'' + (3/r) u' = k^2 u, normalized to 1 at the center
func besselShape(x float64) (f, df float64) {
	if x < 1.e-4 {
		return 1 + x*x/8, x / 4
	}
	return 2 * utils.BesselI(1, x) / x, 2 * utils.BesselI(2, x) / x
}

func (sr *shootingRun) shootFromInitialConditions(offset, stepScale float64) (s *shot, err error) {
	s = &shot{offset: offset}
	r0, y0, rollsBack := sr.initialConditions(offset)
	s.samples = append(s.samples, RadialSample{Radius: r0, Auxiliary: y0[0], AuxiliarySlope: y0[1]})
	if rollsBack {
		s.result = undershoot
		return
	}
	var (
		rEnd           = math.Max(2*r0, r0+4*sr.lengthScale)
		dr             = stepScale * sr.params.InitialStepFraction * math.Min(r0, sr.lengthScale)
		startDistance2 = sr.distanceToFalseVacuum2(y0[0])
		y              = y0[:]
		r              = r0
		doublings      int
		sum            ODE.Summary
	)
	observer := func(r float64, y []float64) bool {
		if r <= s.samples[len(s.samples)-1].Radius {
			return true
		}
		s.samples = append(s.samples, RadialSample{Radius: r, Auxiliary: y[0], AuxiliarySlope: y[1]})
		switch {
		case y[0] < sr.xFalse:
			s.result = overshoot
			return false
		case y[1] > 0:
			s.result = undershoot
			return false
		}
		return true
	}
	for {
		if sum, err = sr.params.Integrator.Integrate(sr.derivative, y, r, rEnd, dr, observer); err != nil {
			return
		}
		if s.result != inconclusive {
			break
		}
		// Still rolling, either close enough to the false vacuum or out of radius
		if sr.closeEnough(s.samples[len(s.samples)-1].Auxiliary, startDistance2) {
			s.goodEnough = true
			return
		}
		if doublings++; doublings > sr.params.MaxRadiusDoublings {
			s.result = undershoot
			return
		}
		y, r = sum.Y, sum.R
		if sum.LastStep > 0 {
			dr = sum.LastStep
		}
		rEnd *= 2
	}
	if len(s.samples) == 2 {
		// Classified on the very first step, the start skipped past the transition
		s.badInitial = true
		return
	}
	if s.result == undershoot {
		closest := s.samples[0].Auxiliary
		for _, smp := range s.samples {
			closest = math.Min(closest, smp.Auxiliary)
		}
		s.goodEnough = sr.closeEnough(closest, startDistance2)
	}
	return
}

// action integrates the action density over the radial samples, adding the
// core inside the starting radius where the field sits at its center value
func (sr *shootingRun) action(s *shot) float64 {
	var (
		n     = len(s.samples)
		dim   = int(sr.damping)
		omega = 2 * math.Pi * math.Pi
		r0    = s.samples[0].Radius
	)
	if sr.damping == 2 {
		omega = 4 * math.Pi
	}
	core := omega * sr.ep.Value(s.samples[0].Auxiliary) * utils.POW(r0, dim+1) / float64(dim+1)
	if n < 2 {
		return core
	}
	var (
		radii   = make([]float64, n)
		density = make([]float64, n)
	)
	for i, smp := range s.samples {
		kinetic := 0.5 * smp.AuxiliarySlope * smp.AuxiliarySlope * sr.path.TangentSquaredAt(smp.Auxiliary)
		radii[i] = smp.Radius
		density[i] = utils.POW(smp.Radius, dim) * (kinetic + sr.ep.Value(smp.Auxiliary))
	}
	return core + omega*integrate.Trapezoidal(radii, density)
}
