package device

import (
	"math"

	"github.com/edp1096/circe/pkg/matrix"
)

// Capacitor: open in DC (gmin floor only, to avoid floating nodes), jωC
// admittance in AC, companion-model conductance via Integq in TRAN
// (§4.8).
type Capacitor struct {
	BaseDevice
	p, n int

	Value float64 // farads

	vOp, vGuess float64 // accepted / guess terminal voltage
	iOp, iGuess float64 // accepted / pending companion current, Integq's i_prev
	qOp         float64 // accepted charge, for LTE

	hpp, hpn, hnp, hnn matrix.Handle
}

var _ TimeDependent = (*Capacitor)(nil)

func NewCapacitor(name string, p, n int, value float64) *Capacitor {
	return &Capacitor{BaseDevice: BaseDevice{DevName: name}, p: p, n: n, Value: value}
}

func (c *Capacitor) ReserveMatrix(m *matrix.Matrix) {
	c.hpp = m.Reserve(c.p, c.p)
	c.hpn = m.Reserve(c.p, c.n)
	c.hnp = m.Reserve(c.n, c.p)
	c.hnn = m.Reserve(c.n, c.n)
}

func vAt(vars []float64, idx int) float64 {
	if idx < 0 || idx >= len(vars) {
		return 0
	}
	return vars[idx]
}

func (c *Capacitor) Load(vars []float64, info AnalysisInfo, opts *Options) (Stamps, error) {
	var s Stamps

	switch info.Mode {
	case TranAnalysis:
		v := vAt(vars, c.p) - vAt(vars, c.n)
		dq := c.Value * (v - c.vOp)
		ci := Integq(info.Tran, dq, c.Value, v, c.iOp)
		s.AddG(c.hpp, ci.G)
		s.AddG(c.hpn, -ci.G)
		s.AddG(c.hnp, -ci.G)
		s.AddG(c.hnn, ci.G)
		s.AddB(c.p, ci.Rhs)
		s.AddB(c.n, -ci.Rhs)
		c.vGuess = v
		c.iGuess = ci.I

	default: // OP / DC sweep: gmin floor so the node isn't floating
		gmin := opts.Gmin
		s.AddG(c.hpp, gmin)
		s.AddG(c.hpn, -gmin)
		s.AddG(c.hnp, -gmin)
		s.AddG(c.hnn, gmin)
		c.vGuess = vAt(vars, c.p) - vAt(vars, c.n)
	}

	return s, nil
}

func (c *Capacitor) LoadAC(info AnalysisInfo, opts *Options) (StampsAC, error) {
	var s StampsAC
	b := c.Value * info.Omega // C*omega, the jω*C admittance's imaginary part
	s.AddG(c.hpp, 0, b)
	s.AddG(c.hpn, 0, -b)
	s.AddG(c.hnp, 0, -b)
	s.AddG(c.hnn, 0, b)
	return s, nil
}

// Commit promotes the Newton-converged guess to the accepted operating
// point, including the companion current Load computed — that becomes
// the next step's Integq i_prev.
func (c *Capacitor) Commit() {
	c.vOp = c.vGuess
	c.qOp = c.Value * c.vOp
	c.iOp = c.iGuess
}

func (c *Capacitor) CalculateLTE(step float64) float64 {
	qNew := c.Value * c.vGuess
	return math.Abs(qNew-c.qOp) / (2.0 * step)
}
