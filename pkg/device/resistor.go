package device

import (
	"log"

	"github.com/edp1096/circe/pkg/matrix"
)

// Resistor stamps +g on (p,p),(n,n) and -g on (p,n),(n,p) (§4.8).
type Resistor struct {
	BaseDevice
	p, n int // variable indices, p/n may be variable.None (ground)

	Value float64 // ohms
	Tc1   float64 // linear temperature coefficient
	Tc2   float64 // quadratic temperature coefficient
	Tnom  float64 // kelvin

	hpp, hpn, hnp, hnn matrix.Handle
}

func NewResistor(name string, p, n int, value float64) *Resistor {
	if value <= 0 {
		log.Printf("warning: resistor %s has non-positive value %g; treated as 0 conductance", name, value)
	}
	return &Resistor{
		BaseDevice: BaseDevice{DevName: name},
		p:          p,
		n:          n,
		Value:      value,
		Tnom:       300.15,
	}
}

func (r *Resistor) ReserveMatrix(m *matrix.Matrix) {
	r.hpp = m.Reserve(r.p, r.p)
	r.hpn = m.Reserve(r.p, r.n)
	r.hnp = m.Reserve(r.n, r.p)
	r.hnn = m.Reserve(r.n, r.n)
}

func (r *Resistor) conductance(temp float64) float64 {
	dt := temp - r.Tnom
	factor := 1.0 + r.Tc1*dt + r.Tc2*dt*dt
	val := r.Value * factor
	if val <= 0 {
		return 0 // negative/zero resistance: treated as 0 conductance (§7); NewResistor logs the warning
	}
	return 1.0 / val
}

func (r *Resistor) Load(vars []float64, info AnalysisInfo, opts *Options) (Stamps, error) {
	g := r.conductance(opts.Temp)
	var s Stamps
	s.AddG(r.hpp, g)
	s.AddG(r.hpn, -g)
	s.AddG(r.hnp, -g)
	s.AddG(r.hnn, g)
	return s, nil
}

func (r *Resistor) LoadAC(info AnalysisInfo, opts *Options) (StampsAC, error) {
	g := r.conductance(opts.Temp)
	var s StampsAC
	s.AddG(r.hpp, g, 0)
	s.AddG(r.hpn, -g, 0)
	s.AddG(r.hnp, -g, 0)
	s.AddG(r.hnn, g, 0)
	return s, nil
}

func (r *Resistor) Commit() {}
