package types

import "gonum.org/v1/gonum/floats"

// DistanceSquared is the squared Euclidean distance between two field configurations
func DistanceSquared(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// CopyFields returns a deep copy of a list of field configurations
func CopyFields(nodes [][]float64) (c [][]float64) {
	c = make([][]float64, len(nodes))
	for i, node := range nodes {
		c[i] = make([]float64, len(node))
		copy(c[i], node)
	}
	return
}
