package analysis_test

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/circe/pkg/analysis"
	"github.com/edp1096/circe/pkg/circuit"
	"github.com/edp1096/circe/pkg/device"
	"github.com/edp1096/circe/pkg/variable"
)

func TestRCLowPassACMagnitudeRolloff(t *testing.T) {
	ckt := circuit.New("rc-ac")
	in := ckt.Vars.FindOrCreate("in")
	out := ckt.Vars.FindOrCreate("out")
	branch := ckt.Vars.AddI("branch:V1")

	r, c := 1000.0, 1e-9
	ckt.Add(device.NewACVoltageSource("V1", in, variable.None, branch, 0, 1.0, 0))
	ckt.Add(device.NewResistor("R1", in, out, r))
	ckt.Add(device.NewCapacitor("C1", out, variable.None, c))

	require.NoError(t, ckt.Build(true))
	defer ckt.Destroy()

	aopts := &analysis.AcOptions{FStart: 1e3, FStop: 1e7, Steps: 5, Sweep: analysis.SweepDec}
	res, err := analysis.RunAC(ckt, device.DefaultOptions(), aopts)
	require.NoError(t, err)
	require.True(t, len(res.Freq) >= 2)

	series, ok := res.Series("out")
	require.True(t, ok)

	fc := 1.0 / (2 * math.Pi * r * c) // corner frequency
	for i, f := range res.Freq {
		expected := 1.0 / math.Sqrt(1+math.Pow(f/fc, 2))
		assert.InDelta(t, expected, cmplx.Abs(series[i]), expected*0.05+1e-6)
	}

	// Monotonically rolling off past the corner.
	for i := 1; i < len(series); i++ {
		assert.LessOrEqual(t, cmplx.Abs(series[i]), cmplx.Abs(series[i-1])+1e-9)
	}
}

func TestFrequencyPointsDecSweepSpansRange(t *testing.T) {
	ckt := circuit.New("grounded-resistor")
	n1 := ckt.Vars.FindOrCreate("n1")
	ckt.Add(device.NewResistor("R1", n1, variable.None, 1000))

	require.NoError(t, ckt.Build(true))
	defer ckt.Destroy()

	aopts := &analysis.AcOptions{FStart: 10, FStop: 1000, Steps: 10, Sweep: analysis.SweepDec}
	res, err := analysis.RunAC(ckt, device.DefaultOptions(), aopts)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, res.Freq[0], 1e-9)
	assert.LessOrEqual(t, res.Freq[len(res.Freq)-1], 1000.0+1e-6)
}
