package device

import "github.com/edp1096/circe/pkg/matrix"

// VoltageSource introduces a branch-current unknown and stamps the
// standard MNA block: +1 on (p,I),(I,p), -1 on (n,I),(I,n), RHS on the
// I-row equal to the waveform value at the current time (DC/TRAN), or to
// the AC phasor ACMag at ACPhase (AC; the DC value is not part of the AC
// RHS) (§4.8).
type VoltageSource struct {
	BaseDevice
	p, n, branch int
	Wave         Waveform

	hpb, hbp, hnb, hbn matrix.Handle
}

func NewDCVoltageSource(name string, p, n, branch int, value float64) *VoltageSource {
	return &VoltageSource{BaseDevice: BaseDevice{DevName: name}, p: p, n: n, branch: branch, Wave: Waveform{Type: DC, DCValue: value}}
}

func NewSinVoltageSource(name string, p, n, branch int, offset, amplitude, freq, phase float64) *VoltageSource {
	return &VoltageSource{BaseDevice: BaseDevice{DevName: name}, p: p, n: n, branch: branch, Wave: Waveform{Type: SIN, DCValue: offset, Amplitude: amplitude, Freq: freq, Phase: phase}}
}

func NewPulseVoltageSource(name string, p, n, branch int, v1, v2, delay, rise, fall, pWidth, period float64) *VoltageSource {
	return &VoltageSource{BaseDevice: BaseDevice{DevName: name}, p: p, n: n, branch: branch, Wave: Waveform{Type: PULSE, V1: v1, V2: v2, Delay: delay, Rise: rise, Fall: fall, PWidth: pWidth, Period: period}}
}

func NewPWLVoltageSource(name string, p, n, branch int, times, values []float64) *VoltageSource {
	return &VoltageSource{BaseDevice: BaseDevice{DevName: name}, p: p, n: n, branch: branch, Wave: Waveform{Type: PWL, Times: times, Values: values}}
}

func NewACVoltageSource(name string, p, n, branch int, dcValue, acMag, acPhase float64) *VoltageSource {
	return &VoltageSource{BaseDevice: BaseDevice{DevName: name}, p: p, n: n, branch: branch, Wave: Waveform{Type: DC, DCValue: dcValue, ACMag: acMag, ACPhase: acPhase}}
}

func (v *VoltageSource) BranchIndex() int { return v.branch }

func (v *VoltageSource) ReserveMatrix(m *matrix.Matrix) {
	v.hpb = m.Reserve(v.p, v.branch)
	v.hbp = m.Reserve(v.branch, v.p)
	v.hnb = m.Reserve(v.n, v.branch)
	v.hbn = m.Reserve(v.branch, v.n)
}

func (v *VoltageSource) Load(vars []float64, info AnalysisInfo, opts *Options) (Stamps, error) {
	var s Stamps
	s.AddG(v.hpb, 1)
	s.AddG(v.hbp, 1)
	s.AddG(v.hnb, -1)
	s.AddG(v.hbn, -1)
	s.AddB(v.branch, v.Wave.At(info.Time))
	return s, nil
}

func (v *VoltageSource) LoadAC(info AnalysisInfo, opts *Options) (StampsAC, error) {
	var s StampsAC
	s.AddG(v.hpb, 1, 0)
	s.AddG(v.hbp, 1, 0)
	s.AddG(v.hnb, -1, 0)
	s.AddG(v.hbn, -1, 0)
	re, im := v.Wave.acComponents()
	s.AddB(v.branch, re, im)
	return s, nil
}

func (v *VoltageSource) Commit() {}
