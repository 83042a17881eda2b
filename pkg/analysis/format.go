package analysis

import (
	"fmt"
	"math/cmplx"

	"github.com/edp1096/circe/pkg/util"
)

// FormatSeries renders one DCOP variable as a human-readable value line,
// using the same magnitude-prefix convention as teacher's
// pkg/util/formatter.go (FormatValueFactor).
func (r *DCResult) FormatSeries(name, unit string) (string, bool) {
	v, ok := r.Value(name)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s = %s", name, util.FormatValueFactor(v, unit)), true
}

// FormatBode renders a variable's AC response as one magnitude/phase line
// per swept frequency, in teacher's Bode-print style
// (FormatFrequency + FormatMagnitudePhase).
func (r *ACResult) FormatBode(name string) ([]string, bool) {
	series, ok := r.Series(name)
	if !ok {
		return nil, false
	}
	lines := make([]string, len(series))
	for i, v := range series {
		mag, phaseRad := cmplx.Abs(v), cmplx.Phase(v)
		phaseDeg := phaseRad * 180 / 3.141592653589793
		lines[i] = fmt.Sprintf("%s  %s", util.FormatFrequency(r.Freq[i]), util.FormatMagnitudePhase(name, mag, phaseDeg))
	}
	return lines, true
}
