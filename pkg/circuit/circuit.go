// Package circuit assembles registered variables and stamp-protocol
// devices into a matrix and drives the reserve/load/commit passes the
// analysis drivers (pkg/analysis) build on. Grounded on teacher's
// pkg/circuit/circuit.go control flow, adapted off the raw-int
// nodeMap/branchMap onto the variable registry and off the old
// Stamp/CircuitStatus protocol onto the new handle-based Device protocol.
package circuit

import (
	"fmt"

	"github.com/edp1096/circe/pkg/device"
	"github.com/edp1096/circe/pkg/matrix"
	"github.com/edp1096/circe/pkg/variable"
)

// Circuit owns the variable registry, the device list, and the matrix
// built from them. It never parses netlists — devices are constructed and
// added directly by the caller, a deliberate consequence of netlist
// front-ends being out of scope.
type Circuit struct {
	name      string
	Vars      *variable.Registry
	Devices   []device.Device
	Matrix    *matrix.Matrix
	isComplex bool
}

func New(name string) *Circuit {
	return &Circuit{name: name, Vars: variable.NewRegistry()}
}

func (c *Circuit) Name() string { return c.name }

// Add registers a device. Devices must already carry variable indices
// obtained from c.Vars (via AddV/AddI/FindOrCreate) at construction time.
func (c *Circuit) Add(d device.Device) {
	c.Devices = append(c.Devices, d)
}

// Build sizes the matrix from the registry and has every device reserve
// its matrix-handle slots. Must run once, after every device has been
// added, before the first Load.
func (c *Circuit) Build(isComplex bool) error {
	c.isComplex = isComplex
	m, err := matrix.New(c.Vars.Len(), isComplex)
	if err != nil {
		return fmt.Errorf("building circuit matrix: %w", err)
	}
	c.Matrix = m
	for _, d := range c.Devices {
		d.ReserveMatrix(c.Matrix)
	}
	return nil
}

// LoadAll clears the matrix and re-stamps every device at the given
// operating-point guess, per §4.3's reserve-once/load-every-iteration
// contract.
func (c *Circuit) LoadAll(vars []float64, info device.AnalysisInfo, opts *device.Options) error {
	c.Matrix.Clear()
	c.Matrix.LoadGmin(opts.Gmin)
	for _, d := range c.Devices {
		s, err := d.Load(vars, info, opts)
		if err != nil {
			return fmt.Errorf("loading device %s: %w", d.Name(), err)
		}
		for _, g := range s.G {
			c.Matrix.Add(g.H, g.Value)
		}
		for _, b := range s.B {
			c.Matrix.AddRHS(b.Index, b.Value)
		}
	}
	return nil
}

// LoadACAll is LoadAll's complex-valued counterpart, used once per
// frequency point around an already-converged DC operating point.
func (c *Circuit) LoadACAll(info device.AnalysisInfo, opts *device.Options) error {
	c.Matrix.Clear()
	for _, d := range c.Devices {
		s, err := d.LoadAC(info, opts)
		if err != nil {
			return fmt.Errorf("loading AC device %s: %w", d.Name(), err)
		}
		for _, g := range s.G {
			c.Matrix.AddComplex(g.H, g.Real, g.Imag)
		}
		for _, b := range s.B {
			c.Matrix.AddComplexRHS(b.Index, b.Real, b.Imag)
		}
	}
	return nil
}

// CommitAll promotes every device's guess operating point to its
// accepted one, after Newton convergence or an accepted transient step.
func (c *Circuit) CommitAll() {
	for _, d := range c.Devices {
		d.Commit()
	}
}

// TimeDependentDevices filters Devices down to those carrying transient
// history, for the transient engine's per-step LTE check.
func (c *Circuit) TimeDependentDevices() []device.TimeDependent {
	var out []device.TimeDependent
	for _, d := range c.Devices {
		if td, ok := d.(device.TimeDependent); ok {
			out = append(out, td)
		}
	}
	return out
}

func (c *Circuit) Destroy() {
	if c.Matrix != nil {
		c.Matrix.Destroy()
	}
}
