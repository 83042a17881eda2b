package variable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGroundIsNone(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, None, r.FindOrCreate(""))
}

func TestRegistryFindOrCreateIdempotent(t *testing.T) {
	r := NewRegistry()
	a := r.FindOrCreate("out")
	b := r.FindOrCreate("out")
	assert.Equal(t, a, b)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryAddVAddIDistinctKinds(t *testing.T) {
	r := NewRegistry()
	v := r.AddV("n1")
	i := r.AddI("branch:v1")

	vv, ok := r.ByName("n1")
	require.True(t, ok)
	assert.Equal(t, VoltageVar, vv.Kind)
	assert.Equal(t, v, vv.Index)

	iv, ok := r.ByName("branch:v1")
	require.True(t, ok)
	assert.Equal(t, CurrentVar, iv.Kind)
	assert.Equal(t, i, iv.Index)
}

func TestRegistryGetReadsGroundAsZero(t *testing.T) {
	r := NewRegistry()
	sol := []float64{1, 2, 3}
	assert.Equal(t, 0.0, r.Get(sol, None))
}

func TestRegistryGetOutOfRangeIsZero(t *testing.T) {
	r := NewRegistry()
	sol := []float64{1, 2}
	assert.Equal(t, 0.0, r.Get(sol, 5))
}

func TestRegistryLenTracksAllKinds(t *testing.T) {
	r := NewRegistry()
	r.AddV("a")
	r.AddV("b")
	r.AddI("c")
	assert.Equal(t, 3, r.Len())
	assert.Len(t, r.Variables(), 3)
}
