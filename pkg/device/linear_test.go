package device_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/circe/pkg/device"
	"github.com/edp1096/circe/pkg/matrix"
	"github.com/edp1096/circe/pkg/variable"
)

func loadAll(t *testing.T, m *matrix.Matrix, devs []device.Device, vars []float64, info device.AnalysisInfo, opts *device.Options) {
	t.Helper()
	m.Clear()
	m.LoadGmin(opts.Gmin)
	for _, d := range devs {
		s, err := d.Load(vars, info, opts)
		require.NoError(t, err)
		for _, g := range s.G {
			m.Add(g.H, g.Value)
		}
		for _, b := range s.B {
			m.AddRHS(b.Index, b.Value)
		}
	}
}

func TestVoltageDivider(t *testing.T) {
	const n1, n2, branch = 0, 1, 2
	m, err := matrix.New(3, false)
	require.NoError(t, err)
	defer m.Destroy()

	v1 := device.NewDCVoltageSource("V1", n1, variable.None, branch, 10.0)
	r1 := device.NewResistor("R1", n1, n2, 1000)
	r2 := device.NewResistor("R2", n2, variable.None, 1000)
	devs := []device.Device{v1, r1, r2}
	for _, d := range devs {
		d.ReserveMatrix(m)
	}

	opts := device.DefaultOptions()
	loadAll(t, m, devs, make([]float64, 3), device.AnalysisInfo{Mode: device.OpAnalysis}, opts)
	require.NoError(t, m.Solve())

	assert.InDelta(t, 10.0, m.GetSolution(n1), 1e-6)
	assert.InDelta(t, 5.0, m.GetSolution(n2), 1e-6)
}

func TestCurrentDivider(t *testing.T) {
	const n1 = 0
	m, err := matrix.New(1, false)
	require.NoError(t, err)
	defer m.Destroy()

	i1 := device.NewDCCurrentSource("I1", n1, variable.None, 1e-3)
	r1 := device.NewResistor("R1", n1, variable.None, 1000)
	r2 := device.NewResistor("R2", n1, variable.None, 2000)
	devs := []device.Device{i1, r1, r2}
	for _, d := range devs {
		d.ReserveMatrix(m)
	}

	opts := device.DefaultOptions()
	loadAll(t, m, devs, make([]float64, 1), device.AnalysisInfo{Mode: device.OpAnalysis}, opts)
	require.NoError(t, m.Solve())

	expected := 1e-3 / (1.0/1000.0 + 1.0/2000.0)
	assert.InDelta(t, expected, m.GetSolution(n1), 1e-4)
}

func TestResistorNegativeValueTreatedAsZeroConductance(t *testing.T) {
	m, err := matrix.New(2, false)
	require.NoError(t, err)
	defer m.Destroy()

	r := device.NewResistor("Rbad", 0, 1, -100)
	r.ReserveMatrix(m)
	opts := device.DefaultOptions()

	s, err := r.Load(make([]float64, 2), device.AnalysisInfo{Mode: device.OpAnalysis}, opts)
	require.NoError(t, err)
	for _, g := range s.G {
		assert.Equal(t, 0.0, g.Value)
	}
}

func TestCapacitorOpenInDC(t *testing.T) {
	m, err := matrix.New(2, false)
	require.NoError(t, err)
	defer m.Destroy()

	c := device.NewCapacitor("C1", 0, 1, 1e-6)
	c.ReserveMatrix(m)
	opts := device.DefaultOptions()

	s, err := c.Load(make([]float64, 2), device.AnalysisInfo{Mode: device.OpAnalysis}, opts)
	require.NoError(t, err)
	for _, g := range s.G {
		assert.InDelta(t, opts.Gmin, abs(g.Value), 1e-20)
	}
}

func TestCapacitorACAdmittance(t *testing.T) {
	m, err := matrix.New(2, true)
	require.NoError(t, err)
	defer m.Destroy()

	c := device.NewCapacitor("C1", 0, 1, 1e-9)
	c.ReserveMatrix(m)
	opts := device.DefaultOptions()

	s, err := c.LoadAC(device.AnalysisInfo{Mode: device.ACAnalysis, Omega: 1e6}, opts)
	require.NoError(t, err)
	require.Len(t, s.G, 4)
	for _, g := range s.G {
		assert.Equal(t, 0.0, g.Real)
	}
}

func TestCapacitorTransientCompanionModel(t *testing.T) {
	m, err := matrix.New(1, false)
	require.NoError(t, err)
	defer m.Destroy()

	c := device.NewCapacitor("C1", 0, variable.None, 1e-6)
	c.ReserveMatrix(m)
	opts := device.DefaultOptions()

	ts := &device.TranState{Time: 1e-6, Step: 1e-6, Method: device.Trapezoidal, Order: 1, FirstPt: true}
	s, err := c.Load([]float64{1.0}, device.AnalysisInfo{Mode: device.TranAnalysis, Tran: ts}, opts)
	require.NoError(t, err)

	expectedG := 2 * c.Value / ts.Step
	for _, g := range s.G {
		assert.InDelta(t, expectedG, abs(g.Value), 1e-15)
	}
}

// Regression test for the companion model's equivalent-current term: it
// must depend on the accepted history (vOp, iOp), not collapse to a
// constant equal to i_prev regardless of the new voltage.
func TestCapacitorRhsReflectsAcceptedHistory(t *testing.T) {
	m, err := matrix.New(1, false)
	require.NoError(t, err)
	defer m.Destroy()

	c := device.NewCapacitor("C1", 0, variable.None, 1e-6)
	c.ReserveMatrix(m)
	opts := device.DefaultOptions()
	ts := &device.TranState{Step: 1e-6, Method: device.Trapezoidal, Order: 1}

	_, err = c.Load([]float64{1.0}, device.AnalysisInfo{Mode: device.TranAnalysis, Tran: ts}, opts)
	require.NoError(t, err)
	c.Commit() // vOp=1.0, iOp=2.0 (gEq*dv with dv=1.0, gEq=2C/h=2.0)

	s, err := c.Load([]float64{2.0}, device.AnalysisInfo{Mode: device.TranAnalysis, Tran: ts}, opts)
	require.NoError(t, err)

	var rhsAtP float64
	found := false
	for _, b := range s.B {
		if b.Index == 0 {
			rhsAtP = b.Value
			found = true
		}
	}
	require.True(t, found)

	gEq := 2 * c.Value / ts.Step
	expectedRhs := gEq*1.0 + 2.0 // gEq*vOp + iOp carried from the first commit
	assert.InDelta(t, expectedRhs, rhsAtP, 1e-9)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
