package device

import "github.com/edp1096/circe/pkg/matrix"

// MosType is the NMOS/PMOS polarity, expressed as a ±1 multiplier rather
// than two code paths (§9).
type MosType int

const (
	NMOS MosType = iota
	PMOS
)

func (t MosType) P() float64 {
	if t == PMOS {
		return -1
	}
	return 1
}

// mosTerm indexes a MOSFET's terminals for the matrix-handle grid (§9:
// "enum-indexed tables ... a compact tagged variant for the index set and
// a fixed-size array keyed by tag").
type mosTerm int

const (
	termD mosTerm = iota
	termG
	termS
	termB
	termCount
)

// Mos0 is the "Level Zero" simplified MOSFET (§4.7a): no junction or
// capacitance model, no internal nodes, ports D/G/S only. Grounded on
// original_source/spice21's Mos0/Mos0Params/Mos0::load.
type Mos0 struct {
	BaseDevice
	vars [termCount]int // B unused, carried only so the grid type is shared

	Type   MosType
	Vth    float64
	Beta   float64
	Lambda float64

	handles [termCount][termCount]matrix.Handle
}

func NewMos0(name string, d, g, s int, mosType MosType) *Mos0 {
	m := &Mos0{BaseDevice: BaseDevice{DevName: name}, Type: mosType, Vth: 0.25, Beta: 50e-3, Lambda: 3e-3}
	m.vars[termD], m.vars[termG], m.vars[termS] = d, g, s
	return m
}

var mos0Pairs = [][2]mosTerm{{termD, termD}, {termS, termS}, {termD, termS}, {termS, termD}, {termD, termG}, {termS, termG}}

func (m *Mos0) ReserveMatrix(mat *matrix.Matrix) {
	for _, pq := range mos0Pairs {
		m.handles[pq[0]][pq[1]] = mat.Reserve(m.vars[pq[0]], m.vars[pq[1]])
	}
}

func (m *Mos0) Load(vars []float64, info AnalysisInfo, opts *Options) (Stamps, error) {
	vg, vd, vs := vAt(vars, m.vars[termG]), vAt(vars, m.vars[termD]), vAt(vars, m.vars[termS])

	p := m.Type.P()
	vds1 := p * (vd - vs)
	reversed := vds1 < 0
	var vgs, vds float64
	if reversed {
		vgs = p * (vg - vd)
		vds = -vds1
	} else {
		vgs = p * (vg - vs)
		vds = vds1
	}
	vov := vgs - m.Vth

	var ids, gm, gds float64
	if vov > 0 {
		if vds >= vov {
			ids = m.Beta / 2 * vov * vov * (1 + m.Lambda*vds)
			gm = m.Beta * vov * (1 + m.Lambda*vds)
			gds = m.Lambda * m.Beta / 2 * vov * vov
		} else {
			ids = m.Beta * (vov*vds - vds*vds/2) * (1 + m.Lambda*vds)
			gm = m.Beta * vds * (1 + m.Lambda*vds)
			gds = m.Beta * ((vov-vds)*(1+m.Lambda*vds) + m.Lambda*(vov*vds-vds*vds/2))
		}
	}

	irhs := ids - gm*vgs - gds*vds

	dr, sr := termD, termS
	if reversed {
		dr, sr = termS, termD
	}

	var s Stamps
	s.AddG(m.handles[dr][dr], gds)
	s.AddG(m.handles[sr][sr], gm+gds)
	s.AddG(m.handles[dr][sr], -(gm + gds))
	s.AddG(m.handles[sr][dr], -gds)
	s.AddG(m.handles[dr][termG], gm)
	s.AddG(m.handles[sr][termG], -gm)

	s.AddB(m.vars[dr], -p*irhs)
	s.AddB(m.vars[sr], p*irhs)

	return s, nil
}

func (m *Mos0) LoadAC(info AnalysisInfo, opts *Options) (StampsAC, error) {
	// Mos0 stores no operating point and carries no capacitance model, so
	// LoadAC returns no stamps: a Mos0 contributes neither its small-signal
	// conductances nor any capacitance to the AC matrix.
	return StampsAC{}, nil
}

func (m *Mos0) Commit() {}
