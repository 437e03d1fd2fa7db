package PathOptimizer

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

/*
HouseholderReflection returns the symmetric orthogonal matrix that maps the
first coordinate axis onto the unit vector along direction. Its remaining
columns are an orthonormal basis of the hyperplane orthogonal to direction.
*/
func HouseholderReflection(direction []float64) (H *mat.Dense) {
	var (
		n    = len(direction)
		norm = floats.Norm(direction, 2)
		v    = make([]float64, n)
	)
	H = mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		H.Set(i, i, 1)
	}
	if norm == 0 {
		return
	}
	// v = e0 - u
	floats.ScaleTo(v, -1/norm, direction)
	v[0] += 1
	vv := floats.Dot(v, v)
	if vv < 1.e-28 {
		return
	}
	vec := mat.NewVecDense(n, v)
	var outer mat.Dense
	outer.Outer(-2/vv, vec, vec)
	H.Add(H, &outer)
	return
}
