package analysis

import (
	"fmt"

	"github.com/edp1096/circe/pkg/circuit"
	"github.com/edp1096/circe/pkg/device"
)

// scaledSource lets source stepping scale a device's DC value without
// knowing which concrete source type it is.
type scaledSource struct {
	wave *device.Waveform
	dc   float64
}

func independentSources(ckt *circuit.Circuit) []scaledSource {
	var out []scaledSource
	for _, d := range ckt.Devices {
		switch v := d.(type) {
		case *device.VoltageSource:
			out = append(out, scaledSource{wave: &v.Wave, dc: v.Wave.DCValue})
		case *device.CurrentSource:
			out = append(out, scaledSource{wave: &v.Wave, dc: v.Wave.DCValue})
		}
	}
	return out
}

// RunDCOP finds the operating point (§4.4): a plain Newton solve first,
// falling back to Gmin stepping and then source stepping when it fails
// to converge from a zero guess.
func RunDCOP(ckt *circuit.Circuit, opts *device.Options) (*DCResult, error) {
	info := device.AnalysisInfo{Mode: device.OpAnalysis}
	x0 := make([]float64, ckt.Vars.Len())

	if sol, err := newtonSolve(ckt, info, opts, x0, opts.MaxIter, nil); err == nil {
		ckt.CommitAll()
		return buildDCResult(ckt, sol), nil
	}

	if sol, err := runGminStepping(ckt, info, opts, x0); err == nil {
		ckt.CommitAll()
		return buildDCResult(ckt, sol), nil
	}

	sol, err := runSourceStepping(ckt, info, opts, x0)
	if err != nil {
		return nil, fmt.Errorf("operating point: %w", err)
	}
	ckt.CommitAll()
	return buildDCResult(ckt, sol), nil
}

// runGminStepping walks Gmin down from 10^6*opts.Gmin to opts.Gmin itself
// (§4.4's continuation ladder), reusing each converged solution as the
// next guess.
func runGminStepping(ckt *circuit.Circuit, info device.AnalysisInfo, opts *device.Options, x0 []float64) ([]float64, error) {
	stepOpts := *opts
	x := x0
	for k := 6; k >= 0; k-- {
		gmin := opts.Gmin
		for i := 0; i < k; i++ {
			gmin *= 10
		}
		stepOpts.Gmin = gmin
		sol, err := newtonSolve(ckt, info, &stepOpts, x, opts.MaxIter, nil)
		if err != nil {
			return nil, err
		}
		x = sol
	}
	return newtonSolve(ckt, info, opts, x, opts.MaxIter, nil)
}

// runSourceStepping ramps every independent source's DC value from 0% to
// 100% in 10% increments (§4.4), restoring original values before
// returning either way.
func runSourceStepping(ckt *circuit.Circuit, info device.AnalysisInfo, opts *device.Options, x0 []float64) ([]float64, error) {
	srcs := independentSources(ckt)
	defer func() {
		for _, s := range srcs {
			s.wave.DCValue = s.dc
		}
	}()

	x := x0
	for i := 0; i <= 10; i++ {
		alpha := float64(i) / 10.0
		for _, s := range srcs {
			s.wave.DCValue = s.dc * alpha
		}
		sol, err := newtonSolve(ckt, info, opts, x, opts.MaxIter, nil)
		if err != nil {
			return nil, err
		}
		x = sol
	}
	return x, nil
}

func buildDCResult(ckt *circuit.Circuit, sol []float64) *DCResult {
	return &DCResult{Values: sol, Names: namesOf(ckt.Vars)}
}
