package analysis

import (
	"fmt"
	"math"

	"github.com/edp1096/circe/pkg/circuit"
	"github.com/edp1096/circe/pkg/device"
)

// RunAC sweeps frequency around a freshly solved operating point (§4.6):
// one complex linear solve per point, no Newton iteration, since every
// device is linearized at the DCOP found first.
func RunAC(ckt *circuit.Circuit, opts *device.Options, aopts *AcOptions) (*ACResult, error) {
	if _, err := RunDCOP(ckt, opts); err != nil {
		return nil, fmt.Errorf("AC bias point: %w", err)
	}

	freqs := frequencyPoints(aopts)
	res := &ACResult{Freq: freqs, Names: namesOf(ckt.Vars)}

	for _, f := range freqs {
		info := device.AnalysisInfo{Mode: device.ACAnalysis, Omega: 2 * math.Pi * f}
		if err := ckt.LoadACAll(info, opts); err != nil {
			return nil, err
		}
		if err := ckt.Matrix.Solve(); err != nil {
			return nil, newSingularMatrixError(err)
		}

		row := make([]complex128, ckt.Vars.Len())
		for i := range row {
			re, im := ckt.Matrix.GetComplexSolution(i)
			row[i] = complex(re, im)
		}
		res.Data = append(res.Data, row)
	}

	return res, nil
}

// frequencyPoints generates the swept frequencies for DEC, OCT, and LIN
// sweep types (§4.6).
func frequencyPoints(aopts *AcOptions) []float64 {
	if aopts.FStart <= 0 || aopts.FStop <= aopts.FStart || aopts.Steps <= 0 {
		return []float64{aopts.FStart}
	}

	switch aopts.Sweep {
	case SweepDec:
		decades := math.Log10(aopts.FStop / aopts.FStart)
		n := int(decades*float64(aopts.Steps)) + 1
		out := make([]float64, 0, n+1)
		for i := 0; i <= n; i++ {
			f := aopts.FStart * math.Pow(10, float64(i)/float64(aopts.Steps))
			if f > aopts.FStop {
				break
			}
			out = append(out, f)
		}
		return out

	case SweepOct:
		octaves := math.Log2(aopts.FStop / aopts.FStart)
		n := int(octaves*float64(aopts.Steps)) + 1
		out := make([]float64, 0, n+1)
		for i := 0; i <= n; i++ {
			f := aopts.FStart * math.Pow(2, float64(i)/float64(aopts.Steps))
			if f > aopts.FStop {
				break
			}
			out = append(out, f)
		}
		return out

	default: // SweepLin
		out := make([]float64, aopts.Steps)
		step := (aopts.FStop - aopts.FStart) / float64(aopts.Steps-1)
		if aopts.Steps == 1 {
			step = 0
		}
		for i := range out {
			out[i] = aopts.FStart + step*float64(i)
		}
		return out
	}
}
