package device

import "math"

// WaveformType selects an independent source's time dependence.
type WaveformType int

const (
	DC WaveformType = iota
	SIN
	PULSE
	PWL
)

// Waveform is the shared time-function evaluator for independent voltage
// and current sources (§4.8). Both source kinds carry one of these rather
// than duplicating the PULSE/PWL interpolation logic.
type Waveform struct {
	Type WaveformType

	DCValue float64

	// SIN
	Amplitude float64
	Freq      float64
	Phase     float64 // degrees

	// PULSE
	V1, V2 float64
	Delay  float64
	Rise   float64
	Fall   float64
	PWidth float64
	Period float64

	// PWL
	Times  []float64
	Values []float64

	// AC
	ACMag, ACPhase float64 // degrees
}

func (w *Waveform) At(t float64) float64 {
	switch w.Type {
	case DC:
		return w.DCValue
	case SIN:
		phaseRad := w.Phase * math.Pi / 180.0
		return w.DCValue + w.Amplitude*math.Sin(2.0*math.Pi*w.Freq*t+phaseRad)
	case PULSE:
		return w.pulseAt(t)
	case PWL:
		return w.pwlAt(t)
	default:
		return 0
	}
}

func (w *Waveform) pulseAt(t float64) float64 {
	if t < w.Delay {
		return w.V1
	}
	t -= w.Delay
	if w.Period > 0 {
		t = math.Mod(t, w.Period)
	}
	if t < w.Rise {
		if w.Rise == 0 {
			return w.V2
		}
		return w.V1 + (w.V2-w.V1)*t/w.Rise
	}
	if t < w.Rise+w.PWidth {
		return w.V2
	}
	fallStart := w.Rise + w.PWidth
	if t < fallStart+w.Fall {
		if w.Fall == 0 {
			return w.V1
		}
		return w.V2 - (w.V2-w.V1)*(t-fallStart)/w.Fall
	}
	return w.V1
}

func (w *Waveform) pwlAt(t float64) float64 {
	if len(w.Times) == 0 {
		return 0
	}
	if t <= w.Times[0] {
		return w.Values[0]
	}
	last := len(w.Times) - 1
	if t >= w.Times[last] {
		return w.Values[last]
	}
	for i := 1; i < len(w.Times); i++ {
		if t <= w.Times[i] {
			t1, t2 := w.Times[i-1], w.Times[i]
			v1, v2 := w.Values[i-1], w.Values[i]
			slope := (v2 - v1) / (t2 - t1)
			return v1 + slope*(t-t1)
		}
	}
	return w.Values[last]
}

func (w *Waveform) acComponents() (real, imag float64) {
	phaseRad := w.ACPhase * math.Pi / 180.0
	return w.ACMag * math.Cos(phaseRad), w.ACMag * math.Sin(phaseRad)
}
