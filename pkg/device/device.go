// Package device implements the stamp protocol (§4.3) every primitive
// fulfills, plus the linear devices, diode, and MOSFET Level-0/Level-1
// models built on top of it.
package device

import (
	"math"

	"github.com/edp1096/circe/pkg/matrix"
	"github.com/edp1096/circe/pkg/util"
)

// GStamp is one (handle, value) contribution to the Jacobian.
type GStamp struct {
	H     matrix.Handle
	Value float64
}

// BStamp is one (variable index, value) contribution to the RHS.
type BStamp struct {
	Index int
	Value float64
}

// Stamps is the real-valued per-iteration contribution from one device.
type Stamps struct {
	G []GStamp
	B []BStamp
}

// GStampAC / StampsAC mirror Stamps for AC (complex) analysis.
type GStampAC struct {
	H          matrix.Handle
	Real, Imag float64
}

type BStampAC struct {
	Index      int
	Real, Imag float64
}

type StampsAC struct {
	G []GStampAC
	B []BStampAC
}

func (s *Stamps) AddG(h matrix.Handle, v float64) {
	s.G = append(s.G, GStamp{H: h, Value: v})
}

func (s *Stamps) AddB(idx int, v float64) {
	s.B = append(s.B, BStamp{Index: idx, Value: v})
}

func (s *StampsAC) AddG(h matrix.Handle, real, imag float64) {
	s.G = append(s.G, GStampAC{H: h, Real: real, Imag: imag})
}

func (s *StampsAC) AddB(idx int, real, imag float64) {
	s.B = append(s.B, BStampAC{Index: idx, Real: real, Imag: imag})
}

// Mode distinguishes the three analyses for devices whose stamp depends on
// which one is running (e.g. capacitor: open in DC, admittance in AC,
// companion model in TRAN).
type Mode int

const (
	OpAnalysis Mode = iota
	DCSweepAnalysis
	TranAnalysis
	ACAnalysis
)

// IntegMethod selects the transient integration scheme (§4.5/§6).
type IntegMethod int

const (
	Trapezoidal IntegMethod = iota
	Gear2
)

// TranState is the transient driver's per-step integration context.
// Devices read it during Load but never own or mutate it directly; the
// transient engine (pkg/analysis) is the sole writer.
type TranState struct {
	Time     float64
	Step     float64
	Method   IntegMethod
	Order    int // 1 or 2
	FirstPt  bool
	PrevStep float64
}

// ChargeInteg is the integq primitive's result: the companion-model
// conductance, the device's actual current at the new point (store as
// the next step's i_prev), and the RHS contribution.
type ChargeInteg struct {
	G   float64
	I   float64
	Rhs float64
}

// Integq implements §4.5's integration primitive: given the charge delta
// dq = C*(v_new - v_op) since the last accepted point, capacitance C, the
// new terminal voltage v and the previous step's companion current
// i_prev, return (g_eq, i_new, rhs). i_new is the device's actual current
// at v (to be stored as the next step's i_prev on commit); rhs is the
// equivalent-current term the G-stamp is solved against. Trapezoidal
// (order 1) uses the closed form in §4.5 directly; Gear order 2 uses the
// BDF coefficient (teacher's pkg/util/integrator.go tabulates the same
// coefficients for orders 1-6).
func Integq(ts *TranState, dq, c, v, iPrev float64) ChargeInteg {
	if ts == nil || ts.Step <= 0 {
		return ChargeInteg{}
	}

	var scale float64
	switch {
	case ts.Method == Trapezoidal || ts.Order == 1:
		scale = 2 / ts.Step
	default: // Gear order 2: scale = 1/(beta*h), beta = 2/3 (util.BdfCoefficients[1])
		scale = util.GetBDFcoeffs(2, ts.Step)[0]
	}

	gEq := c * scale
	iNew := scale*dq - iPrev
	return ChargeInteg{G: gEq, I: iNew, Rhs: gEq*v - iNew}
}

// AnalysisInfo is what a device's Load/LoadAC receives to know which
// analysis is asking and its context (time for TRAN, omega for AC).
type AnalysisInfo struct {
	Mode  Mode
	Time  float64
	Omega float64 // 2*pi*frequency, AC only
	Tran  *TranState
}

// Options is the solver-wide tolerance/continuation configuration (§6).
type Options struct {
	Temp    float64 // Kelvin, default 300.15
	Gmin    float64 // siemens, default 1e-12
	Vntol   float64 // volts, default 1e-6
	Abstol  float64 // amps, default 1e-12
	Reltol  float64 // default 1e-3
	MaxIter int     // default 100; Newton limit for DC solves (each TRAN step is capped at 10 by the transient engine)
	VLimit  float64 // volts, default 2.0
	ChgTol  float64 // coulombs, default 1e-14
}

func DefaultOptions() *Options {
	return &Options{
		Temp:    300.15,
		Gmin:    1e-12,
		Vntol:   1e-6,
		Abstol:  1e-12,
		Reltol:  1e-3,
		MaxIter: 100,
		VLimit:  2.0,
		ChgTol:  1e-14,
	}
}

// limitJunction applies the standard vcrit limit (§4.4) used by every
// p-n-exponential evaluation (diode, MOSFET bulk junctions): if the trial
// voltage jumps by more than 2*Vtherm from the previous iterate and the
// previous iterate was forward-biased, replace it with a logarithmically
// damped step instead, to keep exp() evaluations from overflowing during
// early Newton iterations.
func limitJunction(vNew, vOld, vt float64) float64 {
	if vOld <= 0 || vNew-vOld <= 2*vt && vOld-vNew <= 2*vt {
		return vNew
	}
	if vNew > vOld {
		return vOld + vt*math.Log(1+(vNew-vOld)/vt)
	}
	return vOld - vt*math.Log(1+(vOld-vNew)/vt)
}

// Device is the stamp protocol every primitive fulfills.
type Device interface {
	Name() string

	// ReserveMatrix reserves every (row, col) handle the device will ever
	// stamp into. Called once after variables are assigned; must be
	// deterministic.
	ReserveMatrix(m *matrix.Matrix)

	// Load evaluates the device at the current Newton iterate and returns
	// real-valued stamps. Updates the device's internal guess operating
	// point. Idempotent in vars.
	Load(vars []float64, info AnalysisInfo, opts *Options) (Stamps, error)

	// LoadAC evaluates the device linearized around its accepted operating
	// point at angular frequency info.Omega.
	LoadAC(info AnalysisInfo, opts *Options) (StampsAC, error)

	// Commit promotes guess to op, after Newton convergence or an accepted
	// transient step.
	Commit()
}

// TimeDependent is implemented by devices that carry transient history
// (capacitors, and MOSFETs via their capacitances): their Commit already
// advances that history (the companion current Load computed becomes the
// next step's i_prev), so the only cross-cutting need is LTE reporting.
type TimeDependent interface {
	CalculateLTE(step float64) float64
}

// BaseDevice is the common embed: every device's name.
type BaseDevice struct {
	DevName string
}

func (b *BaseDevice) Name() string { return b.DevName }
