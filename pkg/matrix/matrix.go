// Package matrix wraps github.com/edp1096/sparse with a handle-reservation
// layer: devices reserve their (row, col) slots once, at setup, and
// thereafter accumulate into the cached element pointer directly, with no
// per-stamp hash lookup.
package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"

	"github.com/edp1096/circe/pkg/variable"
)

// Handle names a reserved (row, col) slot. The zero value is the none
// handle: accumulating into it is a no-op, matching a stamp that targets
// ground.
type Handle struct {
	elem *sparse.Element
}

// None is the zero Handle.
var None = Handle{}

func (h Handle) isNone() bool { return h.elem == nil }

// Matrix is the Jacobian/RHS pair the analysis driver owns exclusively;
// devices are only ever granted handle-based write access.
type Matrix struct {
	Size      int
	mat       *sparse.Matrix
	rhs       []float64
	rhsImag   []float64
	solution  []float64
	solImag   []float64
	isComplex bool
	config    *sparse.Configuration

	// reserved caches (row,col) -> Handle so Reserve is idempotent: the
	// same pair always returns the same handle, per the reserve contract.
	reserved map[[2]int]Handle
}

func New(size int, isComplex bool) (*Matrix, error) {
	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 isComplex,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %w", err)
	}

	vectorSize := size + 1
	vectorSizeImag := size + 1
	if isComplex {
		vectorSize *= 2
		vectorSizeImag = 1
	}

	return &Matrix{
		Size:      size,
		mat:       mat,
		rhs:       make([]float64, vectorSize),
		rhsImag:   make([]float64, vectorSizeImag),
		solution:  make([]float64, vectorSize),
		solImag:   make([]float64, vectorSizeImag),
		isComplex: isComplex,
		config:    config,
		reserved:  make(map[[2]int]Handle),
	}, nil
}

// Reserve returns the handle for (row, col), allocating the structural
// non-zero the first time it's asked for. row or col == variable.None
// (ground) returns the none handle.
func (m *Matrix) Reserve(row, col int) Handle {
	if row == variable.None || col == variable.None {
		return None
	}
	key := [2]int{row, col}
	if h, ok := m.reserved[key]; ok {
		return h
	}
	h := Handle{elem: m.mat.GetElement(int64(row+1), int64(col+1))}
	m.reserved[key] = h
	return h
}

// Add accumulates value into a reserved slot in O(1). Adding into None is
// a no-op.
func (m *Matrix) Add(h Handle, value float64) {
	if h.isNone() {
		return
	}
	h.elem.Real += value
}

// AddComplex accumulates a complex value into a reserved slot.
func (m *Matrix) AddComplex(h Handle, real, imag float64) {
	if h.isNone() {
		return
	}
	h.elem.Real += real
	h.elem.Imag += imag
}

// AddRHS adds into the right-hand-side vector at a variable index. index
// == variable.None is a no-op.
func (m *Matrix) AddRHS(index int, value float64) {
	if index == variable.None {
		return
	}
	m.rhs[index+1] += value
}

// AddComplexRHS adds a complex value into the RHS vector.
func (m *Matrix) AddComplexRHS(index int, real, imag float64) {
	if index == variable.None {
		return
	}
	i := index + 1
	m.rhs[2*i] += real
	m.rhs[2*i+1] += imag
}

// LoadGmin adds gmin to every diagonal, the well-known trick to guarantee
// conductance to ground during DC continuation.
func (m *Matrix) LoadGmin(gmin float64) {
	for i := 1; i <= m.Size; i++ {
		if diag := m.mat.Diags[i]; diag != nil {
			diag.Real += gmin
		}
	}
}

// Clear zeros all stored values but preserves structure: handles remain
// valid across iterations and across analysis points.
func (m *Matrix) Clear() {
	m.mat.Clear()
	for i := range m.rhs {
		m.rhs[i] = 0
	}
	for i := range m.rhsImag {
		m.rhsImag[i] = 0
	}
}

// Solve factors the current matrix and produces the unknown vector.
func (m *Matrix) Solve() error {
	if err := m.mat.Factor(); err != nil {
		return fmt.Errorf("matrix factorization failed: %w", err)
	}

	var err error
	if m.config.Complex {
		m.solution, m.solImag, err = m.mat.SolveComplex(m.rhs, m.rhsImag)
	} else {
		m.solution, err = m.mat.Solve(m.rhs)
	}
	if err != nil {
		return fmt.Errorf("matrix solve failed: %w", err)
	}
	return nil
}

// Solution returns the real solution vector (1-based, as stored).
func (m *Matrix) Solution() []float64 { return m.solution }

// GetSolution reads variable index idx out of the real solution.
func (m *Matrix) GetSolution(idx int) float64 {
	if idx == variable.None {
		return 0
	}
	return m.solution[idx+1]
}

// GetComplexSolution reads variable index idx out of the complex
// solution.
func (m *Matrix) GetComplexSolution(idx int) (float64, float64) {
	if idx == variable.None || !m.config.Complex {
		return 0, 0
	}
	i := idx + 1
	return m.solution[i], m.solution[i+m.Size]
}

func (m *Matrix) Destroy() {
	if m.mat != nil {
		m.mat.Destroy()
	}
}
