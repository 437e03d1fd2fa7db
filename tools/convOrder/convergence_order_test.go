package main

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservedOrders(t *testing.T) {
	cs := NewConvergenceStudy("second order", 0)
	for _, n := range []int{10, 20, 40, 80} {
		cs.Add(n, 3+5/float64(n*n))
	}
	orders := cs.ObservedOrders()
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.InDelta(t, 2., o, 1.e-9)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	var (
		file = filepath.Join(t.TempDir(), "study.csv")
		cs   = NewConvergenceStudy("quartic", 0.5)
	)
	cs.Add(25, 1.25)
	cs.Add(50, math.Pi)
	appendCSV(file, cs)
	appendCSV(file, NewConvergenceStudy("valley", 0))
	studies := readCSV(file)
	require.Len(t, studies, 1)
	got := studies["quartic0.5"]
	require.NotNil(t, got)
	assert.Equal(t, []int{25, 50}, got.numSegments)
	assert.InDelta(t, math.Pi, got.action[1], 1.e-11)
	assert.Equal(t, 0.5, got.temperature)
}
