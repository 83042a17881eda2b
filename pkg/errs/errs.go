// Package errs names the fatal error taxonomy of the solver core. Every
// analysis failure surfaces as one of these, wrapped with fmt.Errorf so
// callers can still errors.Is against the sentinel.
package errs

import "errors"

var (
	// ErrConvergenceFailure: Newton exhausted iterations and continuation
	// without meeting tolerances.
	ErrConvergenceFailure = errors.New("convergence failure")

	// ErrSingularMatrix: LU hit a zero pivot after pivot search.
	ErrSingularMatrix = errors.New("singular matrix")

	// ErrInvalidDevice: impossible derived device parameters.
	ErrInvalidDevice = errors.New("invalid device")

	// ErrTimeStepTooSmall: TRAN repeatedly halved h below h_min.
	ErrTimeStepTooSmall = errors.New("time step too small")

	// ErrInvalidOptions: contradictory tolerances or an unsupported order.
	ErrInvalidOptions = errors.New("invalid options")
)
