package utils

import "math"

// BesselI is the modified Bessel function of the first kind of integer order
// nu >= 0, summed from its power series. All terms are positive so there is no
// cancellation, the series is usable until the result overflows near x = 700.
func BesselI(nu int, x float64) (sum float64) {
	var (
		half = 0.5 * x
		q    = half * half
		term = 1.
	)
	if x == 0 {
		if nu == 0 {
			return 1
		}
		return 0
	}
	for k := 1; k <= nu; k++ {
		term *= half / float64(k)
	}
	for m := 0; m < 2000; m++ {
		sum += term
		if term < 1.e-17*sum {
			break
		}
		term *= q / (float64(m+1) * float64(m+1+nu))
	}
	return
}

// Sinhc is sinh(x)/x, continuous through x = 0
func Sinhc(x float64) float64 {
	if math.Abs(x) < 1.e-4 {
		return 1 + x*x/6
	}
	return math.Sinh(x) / x
}
