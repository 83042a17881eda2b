package analysis

import (
	"fmt"
	"math"

	"github.com/edp1096/circe/pkg/circuit"
	"github.com/edp1096/circe/pkg/device"
	"github.com/edp1096/circe/pkg/errs"
)

const (
	tranMaxIter = 10
	hMin        = 1e-18
	icG         = 1e12 // forcing conductance for §4.5's initial-condition stamp
)

type tranPoint struct {
	t float64
	x []float64
}

// RunTransient integrates the circuit from t=0 to topts.TStop (§4.5): an
// operating point (or IC-forced point) at t=0, then a predict/correct loop
// with LTE-based step acceptance, halving on rejection and doubling after
// every accepted point, bounded by [hMin, TMax].
func RunTransient(ckt *circuit.Circuit, opts *device.Options, topts *TranOptions) (*TranResult, error) {
	hMax := topts.TMax
	if hMax <= 0 {
		hMax = topts.TStep
	}

	x0, err := seedInitialPoint(ckt, opts, topts)
	if err != nil {
		return nil, fmt.Errorf("transient initial point: %w", err)
	}
	ckt.CommitAll()

	history := []tranPoint{{t: 0, x: x0}}
	res := &TranResult{Names: namesOf(ckt.Vars)}
	res.Time = append(res.Time, 0)
	res.Data = append(res.Data, x0)

	t := 0.0
	h := topts.TStep

	for t < topts.TStop {
		hTry := h
		if t+hTry > topts.TStop {
			hTry = topts.TStop - t
		}

		accepted := false
		for !accepted {
			if hTry < hMin {
				return nil, fmt.Errorf("%w: at t=%g", errs.ErrTimeStepTooSmall, t)
			}

			order := 1
			if len(history) >= 2 {
				order = 2
			}
			predictor := predict(history, hTry)

			ts := &device.TranState{
				Time:     t + hTry,
				Step:     hTry,
				Method:   topts.Method,
				Order:    order,
				FirstPt:  len(history) == 1,
				PrevStep: history[len(history)-1].t - prevTime(history),
			}
			info := device.AnalysisInfo{Mode: device.TranAnalysis, Time: t + hTry, Tran: ts}

			sol, err := newtonSolve(ckt, info, opts, predictor, tranMaxIter, nil)
			if err != nil {
				hTry /= 2
				continue
			}

			if lteExceeded(ckt, hTry, opts) {
				hTry /= 2
				continue
			}

			ckt.CommitAll()
			t += hTry
			history = append(history, tranPoint{t: t, x: sol})
			if len(history) > 2 {
				history = history[len(history)-2:]
			}
			res.Time = append(res.Time, t)
			res.Data = append(res.Data, sol)

			h = math.Min(hTry*2, hMax)
			accepted = true
		}
	}

	return res, nil
}

func prevTime(history []tranPoint) float64 {
	if len(history) < 2 {
		return 0
	}
	return history[len(history)-2].t
}

// predict extrapolates the next guess from the last one or two accepted
// points (§4.5's predictor): constant hold with one point, linear
// extrapolation with two.
func predict(history []tranPoint, h float64) []float64 {
	n := len(history)
	last := history[n-1]
	if n == 1 {
		return append([]float64(nil), last.x...)
	}
	prev := history[n-2]
	dtPrev := last.t - prev.t
	if dtPrev <= 0 {
		return append([]float64(nil), last.x...)
	}
	ratio := h / dtPrev
	out := make([]float64, len(last.x))
	for i := range out {
		out[i] = last.x[i] + (last.x[i]-prev.x[i])*ratio
	}
	return out
}

// lteExceeded compares every time-dependent device's local truncation
// error against chgtol (§4.5). CalculateLTE returns a charge-rate
// (dq/dt-like) estimate; the discretization error of a first/second-order
// method is that rate times h^2 (the Taylor remainder), which is what
// chgtol — a charge, in coulombs — actually bounds.
func lteExceeded(ckt *circuit.Circuit, h float64, opts *device.Options) bool {
	for _, td := range ckt.TimeDependentDevices() {
		if td.CalculateLTE(h)*h*h > opts.ChgTol {
			return true
		}
	}
	return false
}

// seedInitialPoint produces the t=0 state: a plain DCOP if no initial
// conditions were given, or a Newton solve with every IC variable forced
// to its requested value via a large equivalent conductance (§4.5) when
// they were.
func seedInitialPoint(ckt *circuit.Circuit, opts *device.Options, topts *TranOptions) ([]float64, error) {
	if len(topts.IC) == 0 {
		res, err := RunDCOP(ckt, opts)
		if err != nil {
			return nil, err
		}
		return res.Values, nil
	}

	info := device.AnalysisInfo{Mode: device.OpAnalysis}
	x0 := make([]float64, ckt.Vars.Len())
	for _, ic := range topts.IC {
		if ic.Var >= 0 && ic.Var < len(x0) {
			x0[ic.Var] = ic.Value
		}
	}

	force := func() {
		for _, ic := range topts.IC {
			if ic.Var < 0 {
				continue
			}
			h := ckt.Matrix.Reserve(ic.Var, ic.Var)
			ckt.Matrix.Add(h, icG)
			ckt.Matrix.AddRHS(ic.Var, icG*ic.Value)
		}
	}

	return newtonSolve(ckt, info, opts, x0, opts.MaxIter, force)
}
