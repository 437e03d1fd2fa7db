package PathPotential

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/gobounce/TunnelPath"
	"github.com/notargets/gobounce/types"
	"github.com/notargets/gobounce/utils"
)

var (
	ErrBadParameters  = errors.New("PathPotential: invalid parameters")
	ErrFieldDimension = errors.New("PathPotential: path and potential have different numbers of fields")
	ErrNonFinite      = errors.New("PathPotential: potential along path is not finite")
)

type Parameters struct {
	NumberOfSegments int
	// RelativeBarrierThreshold is the fraction of the larger of two neighboring
	// potential magnitudes by which the potential must rise for the rise to count
	// as a real barrier.
	RelativeBarrierThreshold float64
}

func DefaultParameters() Parameters {
	return Parameters{
		NumberOfSegments:         100,
		RelativeBarrierThreshold: 1.e-6,
	}
}

func (p Parameters) Validate() error {
	if p.NumberOfSegments < 4 {
		return fmt.Errorf("NumberOfSegments = %d, need at least 4: %w", p.NumberOfSegments, ErrBadParameters)
	}
	if p.RelativeBarrierThreshold < 0 || math.IsNaN(p.RelativeBarrierThreshold) {
		return fmt.Errorf("RelativeBarrierThreshold = %g: %w", p.RelativeBarrierThreshold, ErrBadParameters)
	}
	return nil
}

type BarrierStatus uint8

const (
	BarrierResolved BarrierStatus = iota
	NoBarrierFound
	PanicAboveFalseVacuum
)

func (bs BarrierStatus) String() string {
	switch bs {
	case BarrierResolved:
		return "energy barrier resolved"
	case NoBarrierFound:
		return "no energy barrier found along path"
	case PanicAboveFalseVacuum:
		return "path end lies above the false vacuum"
	}
	return "unknown barrier status"
}

type linearSegment struct {
	start, value, slope float64
}

/*
PotentialAlongPath is the potential restricted to a path, relative to the
potential at the false vacuum end of the path. It is made of a quadratic segment
with its minimum at the false vacuum, a run of linear segments, and a quadratic
segment with its minimum at the panic vacuum.
*/
type PotentialAlongPath struct {
	numberOfSegments           int
	segmentAuxiliaryLength     float64
	auxiliaryOfPathFalseVacuum float64
	auxiliaryOfPathPanicVacuum float64
	pathFalsePotential         float64 // absolute
	pathPanicPotential         float64 // relative to pathFalsePotential
	firstSegmentQuadratic      float64
	linearSegments             []linearSegment
	finalSegmentStart          float64
	lastSegmentQuadratic       float64
	thresholdForNearPathPanic  float64
	status                     BarrierStatus
	temperature                float64
}

func BuildEffectivePotential(path TunnelPath.Path, V types.Potential, temperature float64,
	params Parameters) (pap *PotentialAlongPath, err error) {
	if err = params.Validate(); err != nil {
		return
	}
	if path.NumberOfFields() != V.NumberOfFields() {
		err = fmt.Errorf("path has %d fields, potential has %d: %w",
			path.NumberOfFields(), V.NumberOfFields(), ErrFieldDimension)
		return
	}
	var (
		N      = params.NumberOfSegments
		Ndelta = float64(N)
		fields = make([]float64, path.NumberOfFields())
		auxAt  = func(k int) float64 { return float64(k) / Ndelta }
	)
	potentialAt := func(k int) (v float64, err error) {
		fields = path.FieldsAt(auxAt(k), fields)
		v = V.Evaluate(fields, temperature)
		if !utils.IsFinite(v) {
			err = fmt.Errorf("at auxiliary %g, fields %v: %w", auxAt(k), fields, ErrNonFinite)
		}
		return
	}
	pap = &PotentialAlongPath{
		numberOfSegments:       N,
		segmentAuxiliaryLength: 1. / Ndelta,
		temperature:            temperature,
		status:                 NoBarrierFound,
	}
	var (
		iFalse       int
		vFalse, vNxt float64
	)
	if vFalse, err = potentialAt(0); err != nil {
		return nil, err
	}
	// Roll forward to the false vacuum. The rise has to be significant relative
	// to the size of the potential itself before it counts as a barrier.
	for {
		if iFalse+1 > N-2 {
			pap.auxiliaryOfPathFalseVacuum = auxAt(iFalse)
			pap.pathFalsePotential = vFalse
			return
		}
		if vNxt, err = potentialAt(iFalse + 1); err != nil {
			return nil, err
		}
		if vNxt-vFalse > params.RelativeBarrierThreshold*math.Max(math.Abs(vNxt), math.Abs(vFalse)) {
			break
		}
		iFalse++
		vFalse = vNxt
	}
	var (
		delta  = pap.segmentAuxiliaryLength
		delta2 = delta * delta
		vj     = vNxt - vFalse
		vjp1   float64
		slope  float64
		iPanic int
		iFinal int
		vFinal float64
	)
	pap.auxiliaryOfPathFalseVacuum = auxAt(iFalse)
	pap.pathFalsePotential = vFalse
	pap.firstSegmentQuadratic = vj / delta2
	for j := iFalse + 1; ; j++ {
		if vjp1, err = potentialAt(j + 1); err != nil {
			return nil, err
		}
		vjp1 -= vFalse
		slope = (vjp1 - vj) / delta
		if vj < 0 && slope > 0 {
			// Panic vacuum at the start of this segment, the previous linear
			// segment becomes the final quadratic one
			iPanic, iFinal = j, j-1
			last := pap.linearSegments[len(pap.linearSegments)-1]
			pap.linearSegments = pap.linearSegments[:len(pap.linearSegments)-1]
			vFinal = last.value
			pap.pathPanicPotential = vj
			break
		}
		if j+1 == N {
			iPanic, iFinal = N, j
			vFinal = vj
			pap.pathPanicPotential = vjp1
			break
		}
		pap.linearSegments = append(pap.linearSegments, linearSegment{
			start: auxAt(j),
			value: vj,
			slope: slope,
		})
		vj = vjp1
	}
	pap.auxiliaryOfPathPanicVacuum = auxAt(iPanic)
	pap.finalSegmentStart = auxAt(iFinal)
	finalLength := pap.auxiliaryOfPathPanicVacuum - pap.finalSegmentStart
	pap.lastSegmentQuadratic = (vFinal - pap.pathPanicPotential) / (finalLength * finalLength)
	pap.thresholdForNearPathPanic = finalLength
	if pap.pathPanicPotential > 0 {
		pap.status = PanicAboveFalseVacuum
		return
	}
	pap.status = BarrierResolved
	return
}

// Value is the potential at the auxiliary value relative to the false vacuum potential
func (pap *PotentialAlongPath) Value(auxiliary float64) float64 {
	var (
		d = auxiliary - pap.auxiliaryOfPathFalseVacuum
	)
	if d <= pap.segmentAuxiliaryLength {
		return pap.firstSegmentQuadratic * d * d
	}
	if auxiliary >= pap.finalSegmentStart || len(pap.linearSegments) == 0 {
		dp := auxiliary - pap.auxiliaryOfPathPanicVacuum
		return pap.pathPanicPotential + pap.lastSegmentQuadratic*dp*dp
	}
	seg := pap.linearSegments[pap.segmentIndex(d)]
	return seg.value + seg.slope*(auxiliary-seg.start)
}

func (pap *PotentialAlongPath) FirstDerivative(auxiliary float64) float64 {
	var (
		d = auxiliary - pap.auxiliaryOfPathFalseVacuum
	)
	if d <= pap.segmentAuxiliaryLength {
		return 2 * pap.firstSegmentQuadratic * d
	}
	if auxiliary >= pap.finalSegmentStart || len(pap.linearSegments) == 0 {
		return 2 * pap.lastSegmentQuadratic * (auxiliary - pap.auxiliaryOfPathPanicVacuum)
	}
	return pap.linearSegments[pap.segmentIndex(d)].slope
}

func (pap *PotentialAlongPath) segmentIndex(d float64) (i int) {
	i = int(math.Floor(d/pap.segmentAuxiliaryLength)) - 1
	if i < 0 {
		i = 0
	}
	if i > len(pap.linearSegments)-1 {
		i = len(pap.linearSegments) - 1
	}
	return
}

func (pap *PotentialAlongPath) SecondDerivativeAtFalseVacuum() float64 {
	return 2 * pap.firstSegmentQuadratic
}

// FirstDerivativeNearPathPanic is the slope at offset below the panic vacuum
func (pap *PotentialAlongPath) FirstDerivativeNearPathPanic(offset float64) float64 {
	return -2 * pap.lastSegmentQuadratic * offset
}

func (pap *PotentialAlongPath) SecondDerivativeNearPathPanic(float64) float64 {
	return 2 * pap.lastSegmentQuadratic
}

func (pap *PotentialAlongPath) EnergyBarrierWasResolved() bool { return pap.status == BarrierResolved }

func (pap *PotentialAlongPath) Status() BarrierStatus { return pap.status }

func (pap *PotentialAlongPath) AuxiliaryOfPathFalseVacuum() float64 {
	return pap.auxiliaryOfPathFalseVacuum
}

func (pap *PotentialAlongPath) AuxiliaryOfPathPanicVacuum() float64 {
	return pap.auxiliaryOfPathPanicVacuum
}

func (pap *PotentialAlongPath) PathFalsePotential() float64 { return pap.pathFalsePotential }

func (pap *PotentialAlongPath) PathPanicPotential() float64 { return pap.pathPanicPotential }

func (pap *PotentialAlongPath) ThresholdForNearPathPanic() float64 {
	return pap.thresholdForNearPathPanic
}

func (pap *PotentialAlongPath) SegmentAuxiliaryLength() float64 { return pap.segmentAuxiliaryLength }

func (pap *PotentialAlongPath) NumberOfLinearSegments() int { return len(pap.linearSegments) }

func (pap *PotentialAlongPath) Temperature() float64 { return pap.temperature }

func (pap *PotentialAlongPath) String() string {
	return fmt.Sprintf("%s: false vacuum at %g (V = %g), panic vacuum at %g (dV = %g), %d linear segments",
		pap.status, pap.auxiliaryOfPathFalseVacuum, pap.pathFalsePotential,
		pap.auxiliaryOfPathPanicVacuum, pap.pathPanicPotential, len(pap.linearSegments))
}
