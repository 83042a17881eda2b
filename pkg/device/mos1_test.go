package device_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/circe/pkg/device"
	"github.com/edp1096/circe/pkg/matrix"
	"github.com/edp1096/circe/pkg/variable"
)

func newTestMos1(t *testing.T, d, g, s, b int) *device.Mos1 {
	t.Helper()
	model := device.DefaultMos1Model(device.NMOS)
	model.Vt0 = 0.7
	model.Lambda = 0.02
	inst := device.DefaultMos1InstanceParams()
	opts := device.DefaultOptions()
	return device.NewMos1("M1", d, g, s, b, d, s, model, inst, opts) // no Rd/Rs/Rsh: D'=D, S'=S
}

func TestMos1ReserveAndLoadProducesSquareStampSet(t *testing.T) {
	m, err := matrix.New(4, false)
	require.NoError(t, err)
	defer m.Destroy()

	mos := newTestMos1(t, 0, 1, 2, variable.None)
	mos.ReserveMatrix(m)
	opts := device.DefaultOptions()

	s, err := mos.Load([]float64{2.0, 1.5, 0.0, 0.0}, device.AnalysisInfo{Mode: device.OpAnalysis}, opts)
	require.NoError(t, err)
	assert.NotEmpty(t, s.G)
	assert.NotEmpty(t, s.B)
}

func TestMos1InternalDSPrimeCollapseWithoutSeriesResistance(t *testing.T) {
	model := device.DefaultMos1Model(device.NMOS)
	inst := device.DefaultMos1InstanceParams()
	opts := device.DefaultOptions()

	m, err := matrix.New(4, false)
	require.NoError(t, err)
	defer m.Destroy()

	mos := device.NewMos1("M1", 0, 1, 2, variable.None, 0, 2, model, inst, opts)
	mos.ReserveMatrix(m)

	s, err := mos.Load([]float64{2.0, 1.5, 0.0, 0.0}, device.AnalysisInfo{Mode: device.OpAnalysis}, opts)
	require.NoError(t, err)
	// With no Rd/Rs/Rsh modeled, grd=grs=0, so the D'-D / S'-S stamps
	// contribute nothing even though the grid entries exist.
	for _, g := range s.G {
		if g.Value != g.Value { // NaN guard
			t.Fatalf("NaN stamp value")
		}
	}
}

func TestMos1ACUsesCommittedOperatingPoint(t *testing.T) {
	m, err := matrix.New(4, true)
	require.NoError(t, err)
	defer m.Destroy()

	mos := newTestMos1(t, 0, 1, 2, variable.None)
	mos.ReserveMatrix(m)
	opts := device.DefaultOptions()

	_, err = mos.Load([]float64{2.0, 1.5, 0.0, 0.0}, device.AnalysisInfo{Mode: device.OpAnalysis}, opts)
	require.NoError(t, err)
	mos.Commit()

	s, err := mos.LoadAC(device.AnalysisInfo{Mode: device.ACAnalysis, Omega: 1e9}, opts)
	require.NoError(t, err)
	assert.NotEmpty(t, s.G)
}
