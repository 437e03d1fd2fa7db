package BounceAction

import (
	"fmt"

	"github.com/notargets/gobounce/utils"
)

// RadialSample is one point of the bubble profile along the path auxiliary coordinate
type RadialSample struct {
	Radius         float64
	Auxiliary      float64
	AuxiliarySlope float64
}

/*
BubbleProfile is the accepted solution of the radial bounce equation. The first
sample sits at a small positive radius fixed from an analytic approximation of
the solution near the center, never at r = 0.
*/
type BubbleProfile struct {
	BounceAction     float64
	Samples          []RadialSample
	InitialAuxiliary float64 // Auxiliary value at the bubble center
	Temperature      float64
	Attempts         int  // Shooting attempts consumed, bad initial conditions excluded
	GoodEnough       bool // False when the attempt budget ran out first
}

// ThermalAction is the action entering the decay exponent: S4 at zero
// temperature, S3/T otherwise
func (bp *BubbleProfile) ThermalAction() float64 {
	if bp.Temperature > 0 {
		return bp.BounceAction / bp.Temperature
	}
	return bp.BounceAction
}

func (bp *BubbleProfile) Radii() (r []float64) {
	r = make([]float64, len(bp.Samples))
	for i, s := range bp.Samples {
		r[i] = s.Radius
	}
	return
}

func (bp *BubbleProfile) Auxiliaries() (a []float64) {
	a = make([]float64, len(bp.Samples))
	for i, s := range bp.Samples {
		a[i] = s.Auxiliary
	}
	return
}

// Validate checks that the radii are positive and strictly increasing
func (bp *BubbleProfile) Validate() error {
	if len(bp.Samples) == 0 {
		return fmt.Errorf("empty bubble profile")
	}
	if !(bp.Samples[0].Radius > 0) {
		return fmt.Errorf("first radius %g is not positive", bp.Samples[0].Radius)
	}
	for i := 1; i < len(bp.Samples); i++ {
		if !(bp.Samples[i].Radius > bp.Samples[i-1].Radius) {
			return fmt.Errorf("radius %d = %g does not exceed radius %d = %g",
				i, bp.Samples[i].Radius, i-1, bp.Samples[i-1].Radius)
		}
	}
	if !utils.IsFinite(bp.BounceAction) {
		return fmt.Errorf("bounce action %g is not finite", bp.BounceAction)
	}
	return nil
}

func (bp *BubbleProfile) String() string {
	var rMin, rMax float64
	if n := len(bp.Samples); n > 0 {
		rMin, rMax = bp.Samples[0].Radius, bp.Samples[n-1].Radius
	}
	return fmt.Sprintf("S = %g, center at auxiliary %g, %d samples on r = [%g, %g], %d attempts, good enough = %v",
		bp.BounceAction, bp.InitialAuxiliary, len(bp.Samples), rMin, rMax, bp.Attempts, bp.GoodEnough)
}
