package device_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/circe/pkg/device"
	"github.com/edp1096/circe/pkg/matrix"
)

func TestDiodeForwardCurrentIsPositive(t *testing.T) {
	m, err := matrix.New(2, false)
	require.NoError(t, err)
	defer m.Destroy()

	d := device.NewDiode("D1", 0, 1)
	d.ReserveMatrix(m)
	opts := device.DefaultOptions()

	s, err := d.Load([]float64{0.7, 0}, device.AnalysisInfo{Mode: device.OpAnalysis}, opts)
	require.NoError(t, err)
	require.Len(t, s.B, 2)
	assert.InDelta(t, 0.0, s.B[0].Value+s.B[1].Value, 1e-12) // the RHS pair is KCL-conservative
	assert.NotZero(t, s.B[0].Value)
}

func TestDiodeVcritLimitsLargeVoltageJump(t *testing.T) {
	m, err := matrix.New(2, false)
	require.NoError(t, err)
	defer m.Destroy()

	d := device.NewDiode("D1", 0, 1)
	d.ReserveMatrix(m)
	opts := device.DefaultOptions()

	// First iterate settles near a small forward bias.
	_, err = d.Load([]float64{0.3, 0}, device.AnalysisInfo{Mode: device.OpAnalysis}, opts)
	require.NoError(t, err)

	// A huge trial jump shouldn't make the next guess equally huge: the
	// exponential's growth is damped logarithmically instead.
	_, err = d.Load([]float64{50, 0}, device.AnalysisInfo{Mode: device.OpAnalysis}, opts)
	require.NoError(t, err)
	assert.Less(t, d.CalculateLTE(0), 10.0)
}

func TestDiodeJunctionCapacitanceContributesInTransient(t *testing.T) {
	m, err := matrix.New(2, false)
	require.NoError(t, err)
	defer m.Destroy()

	d := device.NewDiode("D1", 0, 1)
	d.Cj0 = 1e-12
	d.ReserveMatrix(m)
	opts := device.DefaultOptions()

	_, err = d.Load([]float64{0.3, 0}, device.AnalysisInfo{Mode: device.OpAnalysis}, opts)
	require.NoError(t, err)
	d.Commit()

	ts := &device.TranState{Step: 1e-9, Method: device.Trapezoidal, Order: 1}
	s, err := d.Load([]float64{0.35, 0}, device.AnalysisInfo{Mode: device.TranAnalysis, Tran: ts}, opts)
	require.NoError(t, err)

	// 4 resistive handles followed by 4 companion-cap handles, in that
	// stamping order (see Load).
	require.Len(t, s.G, 8)
	capG := s.G[4].Value

	cj := 1e-12 * (1 + 0.5*0.35/1.0) // junctionCap(0.35) with default M=0.5, Vj=1.0
	expectedCapG := 2 * cj / ts.Step
	assert.InDelta(t, expectedCapG, capG, expectedCapG*1e-9)
}

func TestDiodeReverseBiasLeakageIsSmallAndNegative(t *testing.T) {
	m, err := matrix.New(2, false)
	require.NoError(t, err)
	defer m.Destroy()

	d := device.NewDiode("D1", 0, 1)
	d.ReserveMatrix(m)
	opts := device.DefaultOptions()

	s, err := d.Load([]float64{-1, 0}, device.AnalysisInfo{Mode: device.OpAnalysis}, opts)
	require.NoError(t, err)
	assert.Less(t, s.B[0].Value, 0.0)
	assert.Less(t, math.Abs(s.B[0].Value), 1e-9)
}
