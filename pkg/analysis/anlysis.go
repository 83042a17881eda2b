// Package analysis drives the three analyses (§1: DCOP, TRAN, AC) on top
// of pkg/circuit and pkg/device. It owns the Newton–Raphson iteration
// shared by DCOP and each transient step (§4.4), the transient engine
// (§4.5), and the AC small-signal driver (§4.6). Grounded on teacher's
// pkg/analysis/{anlysis,op,tran,ac}.go control flow (NR loop shape,
// Gmin-stepping ladder, source-stepping, frequency-sweep generation),
// with tolerances, defaults, and the continuation order corrected to
// match §4.4/§6 exactly.
package analysis

import (
	"fmt"
	"math"

	"github.com/edp1096/circe/pkg/circuit"
	"github.com/edp1096/circe/pkg/device"
	"github.com/edp1096/circe/pkg/errs"
	"github.com/edp1096/circe/pkg/variable"
)

func newSingularMatrixError(cause error) error {
	return fmt.Errorf("%w: %v", errs.ErrSingularMatrix, cause)
}

func newConvergenceError() error {
	return fmt.Errorf("%w: exceeded max iterations", errs.ErrConvergenceFailure)
}

// extractVars reads every registered variable out of the matrix's
// solution vector, in registry order, for the next device Load pass.
func extractVars(reg *variable.Registry, mat interface{ GetSolution(int) float64 }) []float64 {
	n := reg.Len()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = mat.GetSolution(i)
	}
	return out
}

// dampVlimit scales the whole Newton step uniformly when any node voltage
// jumps by more than opts.VLimit (§4.4's damping rule). Scaling uniformly
// rather than per-node keeps every device's stamp consistent with a
// single iterate.
func dampVlimit(reg *variable.Registry, x, newX []float64, vlimit float64) []float64 {
	maxJump := 0.0
	for i, v := range reg.Variables() {
		if v.Kind != variable.VoltageVar {
			continue
		}
		if d := math.Abs(newX[i] - x[i]); d > maxJump {
			maxJump = d
		}
	}
	if maxJump <= vlimit || maxJump == 0 {
		return newX
	}
	scale := vlimit / maxJump
	out := make([]float64, len(newX))
	for i := range out {
		out[i] = x[i] + (newX[i]-x[i])*scale
	}
	return out
}

// converged implements §4.4 step 3's per-unknown tolerance test.
func converged(reg *variable.Registry, x, newX []float64, opts *device.Options) bool {
	for i, v := range reg.Variables() {
		diff := math.Abs(newX[i] - x[i])
		if v.Kind == variable.VoltageVar {
			if diff > opts.Vntol+opts.Reltol*math.Abs(newX[i]) {
				return false
			}
		} else {
			if diff > opts.Abstol+opts.Reltol*math.Abs(newX[i]) {
				return false
			}
		}
	}
	return true
}

// newtonSolve runs §4.4's Newton–Raphson loop to convergence from x0, or
// returns errs.ErrConvergenceFailure. post, if non-nil, is called after
// every LoadAll but before Solve — used by the transient engine's initial
// -condition forcing, which is an analysis-level stamp rather than a
// device one.
func newtonSolve(ckt *circuit.Circuit, info device.AnalysisInfo, opts *device.Options, x0 []float64, maxIter int, post func()) ([]float64, error) {
	x := append([]float64(nil), x0...)

	for iter := 0; iter < maxIter; iter++ {
		if err := ckt.LoadAll(x, info, opts); err != nil {
			return nil, err
		}
		if post != nil {
			post()
		}
		if err := ckt.Matrix.Solve(); err != nil {
			return nil, newSingularMatrixError(err)
		}

		newX := extractVars(ckt.Vars, ckt.Matrix)
		newX = dampVlimit(ckt.Vars, x, newX, opts.VLimit)

		if iter > 0 && converged(ckt.Vars, x, newX, opts) {
			return newX, nil
		}
		x = newX
	}

	return nil, newConvergenceError()
}

// InitialCondition forces a node voltage or branch current to a fixed
// value for the transient engine's first step (§4.5's IC handling), via
// a large equivalent conductance rather than any device stamp.
type InitialCondition struct {
	Var   int
	Value float64
}

// SweepType selects how RunAC spaces its frequency points (§4.6).
type SweepType int

const (
	SweepDec SweepType = iota
	SweepOct
	SweepLin
)

// TranOptions configures RunTransient (§6).
type TranOptions struct {
	TStep  float64 // requested/reporting step
	TStop  float64
	TMax   float64 // ceiling on the adaptive step; 0 defaults to TStep
	IC     []InitialCondition
	Method device.IntegMethod
}

// AcOptions configures RunAC (§6).
type AcOptions struct {
	FStart, FStop float64
	Steps         int // points per decade/octave, or total points for SweepLin
	Sweep         SweepType
}

// DCResult is RunDCOP's output: the converged solution vector plus a
// name index for result extraction.
type DCResult struct {
	Values []float64
	Names  map[string]int
}

func (r *DCResult) Value(name string) (float64, bool) {
	idx, ok := r.Names[name]
	if !ok {
		return 0, false
	}
	return r.Values[idx], true
}

// TranResult is RunTransient's output: the accepted time points and the
// full solution vector at each.
type TranResult struct {
	Time []float64
	Data [][]float64
	Names map[string]int
}

func (r *TranResult) Series(name string) ([]float64, bool) {
	idx, ok := r.Names[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(r.Data))
	for i, row := range r.Data {
		out[i] = row[idx]
	}
	return out, true
}

// ACResult is RunAC's output: the swept frequencies and the complex
// solution vector at each.
type ACResult struct {
	Freq  []float64
	Data  [][]complex128
	Names map[string]int
}

func (r *ACResult) Series(name string) ([]complex128, bool) {
	idx, ok := r.Names[name]
	if !ok {
		return nil, false
	}
	out := make([]complex128, len(r.Data))
	for i, row := range r.Data {
		out[i] = row[idx]
	}
	return out, true
}

func namesOf(reg *variable.Registry) map[string]int {
	names := make(map[string]int, reg.Len())
	for i, v := range reg.Variables() {
		names[v.Name] = i
	}
	return names
}
