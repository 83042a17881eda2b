package device

import "github.com/edp1096/circe/pkg/matrix"

// CurrentSource stamps into the RHS only: current flows into p, out of n
// (§4.8).
type CurrentSource struct {
	BaseDevice
	p, n int
	Wave Waveform
}

func NewDCCurrentSource(name string, p, n int, value float64) *CurrentSource {
	return &CurrentSource{BaseDevice: BaseDevice{DevName: name}, p: p, n: n, Wave: Waveform{Type: DC, DCValue: value}}
}

func NewSinCurrentSource(name string, p, n int, offset, amplitude, freq, phase float64) *CurrentSource {
	return &CurrentSource{BaseDevice: BaseDevice{DevName: name}, p: p, n: n, Wave: Waveform{Type: SIN, DCValue: offset, Amplitude: amplitude, Freq: freq, Phase: phase}}
}

func NewPulseCurrentSource(name string, p, n int, i1, i2, delay, rise, fall, pWidth, period float64) *CurrentSource {
	return &CurrentSource{BaseDevice: BaseDevice{DevName: name}, p: p, n: n, Wave: Waveform{Type: PULSE, V1: i1, V2: i2, Delay: delay, Rise: rise, Fall: fall, PWidth: pWidth, Period: period}}
}

func NewPWLCurrentSource(name string, p, n int, times, values []float64) *CurrentSource {
	return &CurrentSource{BaseDevice: BaseDevice{DevName: name}, p: p, n: n, Wave: Waveform{Type: PWL, Times: times, Values: values}}
}

func NewACCurrentSource(name string, p, n int, dcValue, acMag, acPhase float64) *CurrentSource {
	return &CurrentSource{BaseDevice: BaseDevice{DevName: name}, p: p, n: n, Wave: Waveform{Type: DC, DCValue: dcValue, ACMag: acMag, ACPhase: acPhase}}
}

func (i *CurrentSource) ReserveMatrix(m *matrix.Matrix) {}

func (i *CurrentSource) Load(vars []float64, info AnalysisInfo, opts *Options) (Stamps, error) {
	var s Stamps
	current := i.Wave.At(info.Time)
	s.AddB(i.p, current)
	s.AddB(i.n, -current)
	return s, nil
}

func (i *CurrentSource) LoadAC(info AnalysisInfo, opts *Options) (StampsAC, error) {
	var s StampsAC
	re, im := i.Wave.acComponents()
	s.AddB(i.p, re, im)
	s.AddB(i.n, -re, -im)
	return s, nil
}

func (i *CurrentSource) Commit() {}
