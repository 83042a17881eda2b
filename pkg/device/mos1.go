package device

import (
	"math"

	"github.com/edp1096/circe/internal/consts"
	"github.com/edp1096/circe/pkg/matrix"
)

// mos1Var indexes Mos1's six terminals (external D/G/S/B plus internal
// D'/S' when series drain/source resistance is modeled) for the
// matrix-handle grid (§9, same enum-indexed-table strategy as mos0.go's
// mosTerm, grounded on original_source's Mos1Var/Mos1MatrixPointers).
type mos1Var int

const (
	mvD mos1Var = iota
	mvG
	mvS
	mvB
	mvDP
	mvSP
	mos1VarCount
)

// Mos1Model holds model-card (.model) parameters, shared across every
// Mos1 instance built from it. The default noted per field is the value
// DefaultMos1Model fills in; the derivation uses every field as given, so
// a zero field is taken as zero.
type Mos1Model struct {
	Type MosType

	Vt0        float64 // zero-bias threshold voltage (V), default 0
	Kp         float64 // transconductance coefficient (A/V^2), default 2e-5
	Gamma      float64 // body-effect coefficient, default 0
	Phi        float64 // surface potential (V), default 0.6
	Lambda     float64 // channel-length modulation, default 0
	Is         float64 // bulk junction saturation current (A), default 1e-14
	Pb         float64 // bulk junction potential (V), default 0.8
	Cgso       float64 // gate-source overlap cap per channel width (F/m)
	Cgdo       float64 // gate-drain overlap cap per channel width (F/m)
	Cgbo       float64 // gate-bulk overlap cap per channel length (F/m)
	Cj         float64 // zero-bias bulk junction cap per area (F/m^2)
	Mj         float64 // bulk junction grading coefficient, default 0.5
	Cjsw       float64 // zero-bias junction sidewall cap per length (F/m)
	Mjsw       float64 // sidewall grading coefficient, default 0.5
	CoxPerArea float64 // gate-oxide cap per area (F/m^2), given directly (there is no Tox parameter)
	Fc         float64 // forward-bias depletion cap coefficient, default 0.5
	Tnom       float64 // nominal temperature (K), default 300.15

	// Optional series terminal resistances; a nil pointer means "not
	// modeled", matching original_source's Option<f64>. When any of Rd/Rs
	// or Rsh is set, the corresponding internal D'/S' node is introduced.
	Rd, Rs, Rsh *float64
}

func DefaultMos1Model(t MosType) *Mos1Model {
	return &Mos1Model{
		Type: t, Kp: 2.0e-5, Phi: 0.6, Is: 1.0e-14, Pb: 0.8,
		Mj: 0.5, Mjsw: 0.5, Fc: 0.5, Tnom: consts.TEMP_NOM_DEFAULT,
	}
}

// Mos1InstanceParams are the per-instance (device-line) geometry parameters.
type Mos1InstanceParams struct {
	L, W   float64 // channel length/width (m)
	Ad, As float64 // drain/source diffusion area (m^2)
	Pd, Ps float64 // drain/source diffusion perimeter (m)
	Nrd, Nrs float64 // number of squares, for Rsh scaling
}

func DefaultMos1InstanceParams() Mos1InstanceParams {
	return Mos1InstanceParams{L: 1e-6, W: 1e-6, Ad: 1e-12, As: 1e-12, Pd: 1e-6, Ps: 1e-6, Nrd: 1, Nrs: 1}
}

// mosJunction is the derived, temperature-evaluated bulk-diode parameter
// set for one of the source/drain junctions, including the Sah
// piecewise depletion-capacitance coefficients f2/f3/f4 (original_source's
// MosJunction::qc).
type mosJunction struct {
	isat               float64
	depletionThreshold float64
	bulkpotT           float64
	czb, czbsw         float64
	f2, f3, f4         float64
	mj, mjsw           float64 // grading coefficients, carried for the below-threshold branch
}

// qc returns the depletion charge and its derivative (capacitance) at
// junction voltage v, switching between the direct SPICE formula below
// the forward-bias threshold and the Sah linearized extrapolation above it.
func (j *mosJunction) qc(v float64) (q, c float64) {
	if j.czb == 0 && j.czbsw == 0 {
		return 0, 0
	}
	if v < j.depletionThreshold {
		arg := 1 - v/j.bulkpotT
		sarg := math.Exp(-j.mj * math.Log(arg))
		sargsw := math.Exp(-j.mjsw * math.Log(arg))
		q = j.bulkpotT * (j.czb*(1-arg*sarg)/(1-j.mj) + j.czbsw*(1-arg*sargsw)/(1-j.mjsw))
		c = j.czb*sarg + j.czbsw*sargsw
		return q, c
	}
	q = j.f4 + v*(j.f2+v*j.f3/2)
	c = j.f2 + v*j.f3
	return q, c
}

// mos1Internal is the temperature-derived, cached parameter set
// (Model × Instance × Temp → Internal, §9's three-layer parameter model).
type mos1Internal struct {
	vtherm   float64
	vt0T     float64
	kpT      float64
	phiT     float64
	beta     float64
	cox      float64
	cgsOv    float64
	cgdOv    float64
	cgbOv    float64
	drainJ   mosJunction
	sourceJ  mosJunction
	grd, grs float64
}

func deriveMos1Internal(model *Mos1Model, inst *Mos1InstanceParams, temp float64) *mos1Internal {
	vtherm := temp * consts.BOLTZMANN_OVER_Q
	tempRatio := temp / model.Tnom

	leff := inst.L
	phiT := model.Phi * tempRatio // simplified linear temperature scaling of surface potential
	vt0T := model.Vt0             // Vt0 temperature drift folded into Phi/Gamma scaling above (gamma term re-applied below)
	if model.Gamma != 0 {
		vt0T = model.Vt0 + model.Type.P()*model.Gamma*(math.Sqrt(phiT)-math.Sqrt(model.Phi))
	}
	kpT := model.Kp / tempRatio * math.Sqrt(tempRatio)

	bulkpotT := model.Pb * tempRatio
	depletionThreshold := model.Fc * bulkpotT
	arg := 1 - model.Fc
	sarg := math.Exp(-model.Mj * math.Log(arg))
	sargsw := math.Exp(-model.Mjsw * math.Log(arg))

	juncNew := func(area, perim, czbDirect float64) mosJunction {
		isat := model.Is * area
		if isat == 0 {
			isat = model.Is
		}
		czb := model.Cj * area
		if czbDirect != 0 {
			czb = czbDirect
		}
		czbsw := model.Cjsw * perim
		f2 := czb*(1-model.Fc*(1+model.Mj))*sarg/arg + czbsw*(1-model.Fc*(1+model.Mjsw))*sargsw/arg
		f3 := czb*model.Mj*sarg/arg/bulkpotT + czbsw*model.Mjsw*sargsw/arg/bulkpotT
		f4 := czb*bulkpotT*(1-arg*sarg)/(1-model.Mj) + czbsw*bulkpotT*(1-arg*sargsw)/(1-model.Mjsw) -
			f3/2*(depletionThreshold*depletionThreshold) - depletionThreshold*f2

		return mosJunction{
			isat: isat, depletionThreshold: depletionThreshold, bulkpotT: bulkpotT,
			czb: czb, czbsw: czbsw, f2: f2, f3: f3, f4: f4, mj: model.Mj, mjsw: model.Mjsw,
		}
	}

	resistance := func(r, rsh *float64, nsq float64) float64 {
		switch {
		case r != nil:
			if *r <= 0 {
				return 0
			}
			return 1 / *r
		case rsh != nil:
			if *rsh <= 0 {
				return 0
			}
			return 1 / *rsh / nsq
		default:
			return 0
		}
	}

	return &mos1Internal{
		vtherm: vtherm, vt0T: vt0T, kpT: kpT, phiT: phiT,
		beta:  kpT * inst.W / leff,
		cox:   model.CoxPerArea * leff * inst.W,
		cgsOv: inst.W * model.Cgso,
		cgdOv: inst.W * model.Cgdo,
		cgbOv: leff * model.Cgbo,

		drainJ:  juncNew(inst.Ad, inst.Pd, model.Cbd()),
		sourceJ: juncNew(inst.As, inst.Ps, model.Cbs()),

		grd: resistance(model.Rd, model.Rsh, inst.Nrd),
		grs: resistance(model.Rs, model.Rsh, inst.Nrs),
	}
}

// Cbd/Cbs are the zero-bias bulk-junction capacitance overrides that
// juncNew prefers over Cj*area when nonzero. Mos1Model has no field to set
// them, so both always return zero and the junction caps always come from
// Cj*area (original_source treats 0.0 the same way: fall back to Cj*area).
func (m *Mos1Model) Cbd() float64 { return 0 }
func (m *Mos1Model) Cbs() float64 { return 0 }

// mos1TranState carries the five numerically-integrated capacitor
// branches' (g_eq, i_eq, rhs) triples between Newton iterates.
type mos1TranState struct {
	gs, gd, gb, bs, bd ChargeInteg
}

// mos1OpPoint is the per-iterate linearization result, stored across
// iterations/steps to resolve polarity-reversal charge continuity (§4.7).
type mos1OpPoint struct {
	vgs, vgd, vds, vgb, vdb, vsb float64
	gm, gds, gmbs, gbs, gbd      float64
	cgs, cgd, cgb, cbs, cbd      float64
	reversed                     bool
	tr                           mos1TranState
}

// Mos1 is the Level-1 MOSFET (§4.7): threshold-square-law Ids, body
// effect, Meyer gate capacitances, Sah depletion junction caps, optional
// series D'/S' resistances, grounded on original_source's Mos1::op_stamp.
type Mos1 struct {
	BaseDevice
	vars [mos1VarCount]int

	Model    *Mos1Model
	Instance Mos1InstanceParams
	internal *mos1Internal

	op, guess mos1OpPoint
	handles   [mos1VarCount][mos1VarCount]matrix.Handle
}

// NewMos1 builds a Mos1 instance. dp/sp should equal d/s when the model
// carries no Rd/Rs/Rsh (no internal node introduced), or a freshly
// allocated variable index otherwise — the caller (circuit assembly)
// owns variable allocation, matching §4.2's registry-is-the-source-of-truth
// design.
func NewMos1(name string, d, g, s, b, dp, sp int, model *Mos1Model, inst Mos1InstanceParams, opts *Options) *Mos1 {
	m := &Mos1{BaseDevice: BaseDevice{DevName: name}, Model: model, Instance: inst}
	m.vars[mvD], m.vars[mvG], m.vars[mvS], m.vars[mvB] = d, g, s, b
	m.vars[mvDP], m.vars[mvSP] = dp, sp
	m.internal = deriveMos1Internal(model, &inst, opts.Temp)
	return m
}

func (m *Mos1) ReserveMatrix(mat *matrix.Matrix) {
	for t1 := mos1Var(0); t1 < mos1VarCount; t1++ {
		for t2 := mos1Var(0); t2 < mos1VarCount; t2++ {
			m.handles[t1][t2] = mat.Reserve(m.vars[t1], m.vars[t2])
		}
	}
}

func (m *Mos1) Load(vars []float64, info AnalysisInfo, opts *Options) (Stamps, error) {
	vD, vG, vS, vB := vAt(vars, m.vars[mvD]), vAt(vars, m.vars[mvG]), vAt(vars, m.vars[mvS]), vAt(vars, m.vars[mvB])

	p := m.Model.Type.P()
	intp := m.internal
	reversed := p*(vD-vS) < 0
	vd, vs := vD, vS
	if reversed {
		vd, vs = vS, vD
	}
	vgs := p * (vG - vs)
	vgd := p * (vG - vd)
	vds := p * (vd - vs)
	vgb := p * (vG - vB)
	vsb := limitJunction(p*(vs-vB), m.guess.vsb, intp.vtherm)
	vdb := limitJunction(p*(vd-vB), m.guess.vdb, intp.vtherm)

	von := intp.vt0T
	if vsb > 0 {
		von = intp.vt0T + m.Model.Gamma*(math.Sqrt(intp.phiT+vsb)-math.Sqrt(intp.phiT))
	}
	vov := vgs - von
	vdsat := math.Max(vov, 0)

	var ids, gm, gds, gmbs float64
	if vov > 0 {
		if vds >= vov {
			ids = intp.beta / 2 * vov * vov * (1 + m.Model.Lambda*vds)
			gm = intp.beta * vov * (1 + m.Model.Lambda*vds)
			gds = m.Model.Lambda * intp.beta / 2 * vov * vov
		} else {
			ids = intp.beta * (vov*vds - vds*vds/2) * (1 + m.Model.Lambda*vds)
			gm = intp.beta * vds * (1 + m.Model.Lambda*vds)
			gds = intp.beta * ((vov-vds)*(1+m.Model.Lambda*vds) + m.Model.Lambda*(vov*vds-vds*vds/2))
		}
		if intp.phiT+vsb > 0 {
			gmbs = gm * m.Model.Gamma / 2 / math.Sqrt(intp.phiT+vsb)
		}
	}

	bsJunc, bdJunc := &intp.sourceJ, &intp.drainJ
	if reversed {
		bsJunc, bdJunc = &intp.drainJ, &intp.sourceJ
	}
	ibs := bsJunc.isat * (math.Exp(-vsb/intp.vtherm) - 1)
	gbs := bsJunc.isat/intp.vtherm*math.Exp(-vsb/intp.vtherm) + opts.Gmin
	ibsRhs := ibs + vsb*gbs
	ibd := bdJunc.isat * (math.Exp(-vdb/intp.vtherm) - 1)
	gbd := bdJunc.isat/intp.vtherm*math.Exp(-vdb/intp.vtherm) + opts.Gmin
	ibdRhs := ibd + vdb*gbd

	cox := intp.cox
	var cgs1, cgd1, cgb1 float64
	switch {
	case vov <= -intp.phiT:
		cgb1 = cox / 2
	case vov <= -intp.phiT/2:
		cgb1 = -vov * cox / (2 * intp.phiT)
	case vov <= 0:
		cgb1 = -vov * cox / (2 * intp.phiT)
		cgs1 = vov*cox/(1.5*intp.phiT) + cox/3
	case vdsat <= vds:
		cgs1 = cox / 3
	default:
		vddif := 2*vdsat - vds
		vddif1 := vdsat - vds
		vddif2 := vddif * vddif
		cgd1 = cox * (1 - vdsat*vdsat/vddif2) / 3
		cgs1 = cox * (1 - vddif1*vddif1/vddif2) / 3
	}

	cgs2 := cgs1
	switch {
	case m.op.cgs == 0:
		cgs2 = cgs1
	case reversed == m.op.reversed:
		cgs2 = m.op.cgs
	default:
		cgs2 = m.op.cgd
	}
	cgs := cgs1 + cgs2 + intp.cgsOv
	cgdHist := m.op.cgd
	if reversed != m.op.reversed {
		cgdHist = m.op.cgs
	}
	cgd := cgd1 + intp.cgdOv + cgdHist
	cgb := cgb1 + intp.cgbOv + m.op.cgb

	_, cbs := bsJunc.qc(-vsb)
	_, cbd := bdJunc.qc(-vdb)

	var tr mos1TranState
	if info.Mode == TranAnalysis {
		dqgs := (vgs - m.op.vgs) * cgs
		ipGs := m.op.tr.gs.I
		if reversed != m.op.reversed {
			dqgs = (vgs - m.op.vgd) * cgs
			ipGs = m.op.tr.gd.I
		}
		tr.gs = Integq(info.Tran, dqgs, cgs, vgs, ipGs)

		dqgd := (vgd - m.op.vgd) * cgd
		ipGd := m.op.tr.gd.I
		if reversed != m.op.reversed {
			dqgd = (vgd - m.op.vgs) * cgd
			ipGd = m.op.tr.gs.I
		}
		tr.gd = Integq(info.Tran, dqgd, cgd, vgd, ipGd)

		dqgb := (vgb - m.op.vgb) * cgb
		tr.gb = Integq(info.Tran, dqgb, cgb, vgb, m.op.tr.gb.I)

		dqbs := (-vsb + m.op.vsb) * cbs
		dqbd := (-vdb + m.op.vdb) * cbd
		ipBs, ipBd := m.op.tr.bs.I, m.op.tr.bd.I
		if reversed != m.op.reversed {
			dqbs = (-vsb + m.op.vdb) * cbs
			dqbd = (-vdb + m.op.vsb) * cbd
			ipBs, ipBd = m.op.tr.bd.I, m.op.tr.bs.I
		}
		tr.bs = Integq(info.Tran, dqbs, cbs, -vsb, ipBs)
		tr.bd = Integq(info.Tran, dqbd, cbd, -vdb, ipBd)
	}

	irhs := ids - gm*vgs - gds*vds

	dr, dx, sr, sx := mvDP, mvD, mvSP, mvS
	if reversed {
		dr, dx, sr, sx = mvSP, mvS, mvDP, mvD
	}
	grd, grs := intp.grd, intp.grs

	var s Stamps
	s.AddG(m.handles[dr][dr], gds+grd+gbd+tr.gd.G)
	s.AddG(m.handles[sr][sr], gm+gds+grs+gbs+gmbs+tr.gs.G)
	s.AddG(m.handles[dr][sr], -gm-gds-gmbs)
	s.AddG(m.handles[sr][dr], -gds)
	s.AddG(m.handles[dr][mvG], gm-tr.gd.G)
	s.AddG(m.handles[sr][mvG], -gm-tr.gs.G)
	s.AddG(m.handles[mvG][mvG], tr.gd.G+tr.gs.G+tr.gb.G)
	s.AddG(m.handles[mvB][mvB], gbd+gbs+tr.gb.G)
	s.AddG(m.handles[mvG][mvB], -tr.gb.G)
	s.AddG(m.handles[mvG][dr], -tr.gd.G)
	s.AddG(m.handles[mvG][sr], -tr.gs.G)
	s.AddG(m.handles[mvB][mvG], -tr.gb.G)
	s.AddG(m.handles[mvB][dr], -gbd)
	s.AddG(m.handles[mvB][sr], -gbs)
	s.AddG(m.handles[dr][mvB], -gbd+gmbs)
	s.AddG(m.handles[sr][mvB], -gbs-gmbs)
	s.AddG(m.handles[dx][dr], -grd)
	s.AddG(m.handles[dr][dx], -grd)
	s.AddG(m.handles[dx][dx], grd)
	s.AddG(m.handles[sx][sr], -grs)
	s.AddG(m.handles[sr][sx], -grs)
	s.AddG(m.handles[sx][sx], grs)

	s.AddB(m.vars[dr], p*(-irhs+ibdRhs+tr.gd.Rhs))
	s.AddB(m.vars[sr], p*(irhs+ibsRhs+tr.gs.Rhs))
	s.AddB(m.vars[mvG], -p*(tr.gs.Rhs+tr.gb.Rhs+tr.gd.Rhs))
	s.AddB(m.vars[mvB], -p*(ibdRhs+ibsRhs-tr.gb.Rhs))

	m.guess = mos1OpPoint{
		vgs: vgs, vgd: vgd, vds: vds, vgb: vgb, vdb: vdb, vsb: vsb,
		gm: gm, gds: gds, gmbs: gmbs, gbs: gbs, gbd: gbd,
		reversed: reversed, cgs: cgs1, cgd: cgd1, cgb: cgb1, cbs: cbs, cbd: cbd, tr: tr,
	}

	return s, nil
}

func (m *Mos1) LoadAC(info AnalysisInfo, opts *Options) (StampsAC, error) {
	g := m.op
	w := info.Omega
	var s StampsAC

	dr, dx, sr, sx := mvDP, mvD, mvSP, mvS
	if g.reversed {
		dr, dx, sr, sx = mvSP, mvS, mvDP, mvD
	}
	cgd, cgb, cgs := g.cgd, g.cgb, g.cgs
	bgd, bgb, bgs := w*cgd, w*cgb, w*cgs
	bgbs, bgbd := w*g.cbs, w*g.cbd
	grd, grs := m.internal.grd, m.internal.grs

	s.AddG(m.handles[dr][dr], g.gds+grd+g.gbd, bgd+bgbd)
	s.AddG(m.handles[sr][sr], g.gm+g.gds+grs+g.gbs+g.gmbs, bgs+bgbs)
	s.AddG(m.handles[dr][sr], -g.gm-g.gds-g.gmbs, 0)
	s.AddG(m.handles[sr][dr], -g.gds, 0)
	s.AddG(m.handles[dr][mvG], g.gm, -bgd)
	s.AddG(m.handles[sr][mvG], -g.gm, -bgs)
	s.AddG(m.handles[mvG][mvG], 0, bgd+bgs+bgb)
	s.AddG(m.handles[mvB][mvB], g.gbd+g.gbs, bgb+bgbd+bgbs)
	s.AddG(m.handles[mvG][mvB], 0, -bgb)
	s.AddG(m.handles[mvG][dr], 0, -bgd)
	s.AddG(m.handles[mvG][sr], 0, -bgs)
	s.AddG(m.handles[mvB][mvG], 0, -bgb)
	s.AddG(m.handles[mvB][dr], -g.gbd, -bgbd)
	s.AddG(m.handles[mvB][sr], -g.gbs, -bgbs)
	s.AddG(m.handles[dr][mvB], -g.gbd+g.gmbs, -bgbd)
	s.AddG(m.handles[sr][mvB], -g.gbs-g.gmbs, -bgbs)
	s.AddG(m.handles[dx][dr], -grd, 0)
	s.AddG(m.handles[dr][dx], -grd, 0)
	s.AddG(m.handles[dx][dx], grd, 0)
	s.AddG(m.handles[sx][sr], -grs, 0)
	s.AddG(m.handles[sr][sx], -grs, 0)
	s.AddG(m.handles[sx][sx], grs, 0)

	return s, nil
}

func (m *Mos1) Commit() {
	m.op = m.guess
}

func (m *Mos1) CalculateLTE(step float64) float64 {
	dq := math.Abs(m.guess.cgs-m.op.cgs) + math.Abs(m.guess.cgd-m.op.cgd) + math.Abs(m.guess.cgb-m.op.cgb)
	return dq / (2.0 * step)
}

var _ TimeDependent = (*Mos1)(nil)
