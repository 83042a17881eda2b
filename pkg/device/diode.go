package device

import (
	"math"

	"github.com/edp1096/circe/pkg/matrix"
)

// Diode: forward/reverse/breakdown exponential model plus a power-law
// junction capacitance, linearized per Newton iterate.
type Diode struct {
	BaseDevice
	p, n int

	Is   float64 // saturation current (A)
	N    float64 // emission coefficient
	Cj0  float64 // zero-bias junction capacitance (F)
	M    float64 // grading coefficient
	Vj   float64 // built-in potential (V)
	Bv   float64 // breakdown voltage (V)

	vGuess, iGuess, gGuess float64 // latest Newton iterate
	vOp, iOp               float64 // accepted operating point
	cjGuess, cjOp          float64 // latest / accepted junction-cap companion current

	hpp, hpn, hnp, hnn matrix.Handle
}

var _ TimeDependent = (*Diode)(nil)

func NewDiode(name string, p, n int) *Diode {
	return &Diode{
		BaseDevice: BaseDevice{DevName: name},
		p:          p,
		n:          n,
		Is:         1e-14,
		N:          1.0,
		M:          0.5,
		Vj:         1.0,
		Bv:         100.0,
	}
}

func (d *Diode) ReserveMatrix(m *matrix.Matrix) {
	d.hpp = m.Reserve(d.p, d.p)
	d.hpn = m.Reserve(d.p, d.n)
	d.hnp = m.Reserve(d.n, d.p)
	d.hnn = m.Reserve(d.n, d.n)
}

func thermalVoltage(temp float64) float64 {
	if temp <= 0 {
		temp = 300.15
	}
	return (0.026 / 300.0) * temp
}

func (d *Diode) current(vd, vt float64) float64 {
	if vd >= -5*vt {
		expArg := vd / (d.N * vt)
		if expArg > 40 {
			expArg = 40
		}
		return d.Is * (math.Exp(expArg) - 1)
	}
	if vd < -d.Bv {
		return -d.Is * (1 + (vd+d.Bv)/vt)
	}
	return -d.Is
}

func (d *Diode) conductance(vd, id, vt, gmin float64) float64 {
	if vd >= -5*vt {
		return (id+d.Is)/(d.N*vt) + gmin
	}
	if vd < -d.Bv {
		return d.Is/vt + gmin
	}
	return gmin
}

func (d *Diode) junctionCap(vd float64) float64 {
	if d.Cj0 == 0 {
		return 0
	}
	if vd < 0 {
		arg := 1 - vd/d.Vj
		if arg < 0.1 {
			arg = 0.1
		}
		return d.Cj0 / math.Pow(arg, d.M)
	}
	return d.Cj0 * (1 + d.M*vd/d.Vj)
}

func (d *Diode) Load(vars []float64, info AnalysisInfo, opts *Options) (Stamps, error) {
	vt := thermalVoltage(opts.Temp)
	vd := limitJunction(vAt(vars, d.p)-vAt(vars, d.n), d.vGuess, vt)

	id := d.current(vd, vt)
	gd := d.conductance(vd, id, vt, opts.Gmin)
	irhs := id - gd*vd

	d.vGuess, d.iGuess, d.gGuess = vd, id, gd

	var s Stamps
	s.AddG(d.hpp, gd)
	s.AddG(d.hpn, -gd)
	s.AddG(d.hnp, -gd)
	s.AddG(d.hnn, gd)
	s.AddB(d.p, -irhs)
	s.AddB(d.n, irhs)

	if info.Mode == TranAnalysis {
		cj := d.junctionCap(vd)
		dq := cj * (vd - d.vOp)
		ci := Integq(info.Tran, dq, cj, vd, d.cjOp)
		s.AddG(d.hpp, ci.G)
		s.AddG(d.hpn, -ci.G)
		s.AddG(d.hnp, -ci.G)
		s.AddG(d.hnn, ci.G)
		s.AddB(d.p, ci.Rhs)
		s.AddB(d.n, -ci.Rhs)
		d.cjGuess = ci.I
	}

	return s, nil
}

func (d *Diode) LoadAC(info AnalysisInfo, opts *Options) (StampsAC, error) {
	cj := d.junctionCap(d.vOp)
	b := info.Omega * cj
	var s StampsAC
	s.AddG(d.hpp, d.gGuess, b)
	s.AddG(d.hpn, -d.gGuess, -b)
	s.AddG(d.hnp, -d.gGuess, -b)
	s.AddG(d.hnn, d.gGuess, b)
	return s, nil
}

func (d *Diode) Commit() {
	d.vOp, d.iOp, d.cjOp = d.vGuess, d.iGuess, d.cjGuess
}

func (d *Diode) CalculateLTE(step float64) float64 {
	return math.Abs(d.vGuess - d.vOp)
}
