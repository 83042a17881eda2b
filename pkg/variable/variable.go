// Package variable implements the solver's variable registry: the table
// mapping circuit signals (node voltages and branch currents) to solver
// unknown indices.
package variable

// None is the sentinel index standing in for ground. Any stamp targeting
// None is silently dropped by the matrix and analysis layers.
const None = -1

type Kind int

const (
	VoltageVar Kind = iota
	CurrentVar
)

type Variable struct {
	Name  string
	Kind  Kind
	Index int
}

// Registry is a growable table of Variables, keyed by name for node
// lookups that must be idempotent (find_or_create) and by index for the
// solver's solution vector.
type Registry struct {
	vars    []Variable
	byName  map[string]int // name -> index into vars
	gndName string
}

func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]int),
		gndName: "",
	}
}

// AddV creates a new node-voltage variable and returns its index.
func (r *Registry) AddV(name string) int {
	idx := len(r.vars)
	r.vars = append(r.vars, Variable{Name: name, Kind: VoltageVar, Index: idx})
	r.byName[name] = idx
	return idx
}

// AddI creates a new branch-current variable and returns its index.
func (r *Registry) AddI(name string) int {
	idx := len(r.vars)
	r.vars = append(r.vars, Variable{Name: name, Kind: CurrentVar, Index: idx})
	r.byName[name] = idx
	return idx
}

// FindOrCreate returns (and memoizes) the voltage variable for a named
// node. The ground node (the empty name "") always returns None.
func (r *Registry) FindOrCreate(node string) int {
	if node == r.gndName {
		return None
	}
	if idx, ok := r.byName[node]; ok {
		return idx
	}
	return r.AddV(node)
}

// Get reads a variable's value out of a solution vector indexed the same
// way as the registry. Ground (None) always reads as zero.
func (r *Registry) Get(sol []float64, idx int) float64 {
	if idx == None || idx >= len(sol) {
		return 0
	}
	return sol[idx]
}

func (r *Registry) Len() int { return len(r.vars) }

func (r *Registry) Variables() []Variable { return r.vars }

// ByName indexes by name for test assertions and result extraction.
func (r *Registry) ByName(name string) (Variable, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return Variable{}, false
	}
	return r.vars[idx], true
}
