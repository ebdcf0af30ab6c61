// Package dit implements the dual-stream diffusion transformer: the
// joint video/text attention block, adaptive modulation norms, the
// conditioning embedder, and the top-level model with its patchify and
// unpatchify orchestration.
package dit

import (
	"fmt"

	"github.com/weft-ml/weft/internal/tensor"
)

// ConfigError reports inconsistent construction parameters.
// Constructors panic with it so misconfiguration fails at build time,
// not mid-forward.
type ConfigError string

// Error implements the error interface.
func (e ConfigError) Error() string {
	return string(e)
}

func configErrorf(format string, args ...any) ConfigError {
	return ConfigError(fmt.Sprintf(format, args...))
}

// ShapeError reports a tensor shape violation in a forward call. It is
// detected by validation before any compute runs, so a failing call
// leaves no partial result.
type ShapeError struct {
	// Op names the operation that rejected the input.
	Op string
	// Want describes the expected shape constraint.
	Want string
	// Got is the offending shape.
	Got tensor.Shape
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: expected %s, got shape %v", e.Op, e.Want, e.Got)
}

func shapeErrorf(op string, got tensor.Shape, format string, args ...any) *ShapeError {
	return &ShapeError{Op: op, Want: fmt.Sprintf(format, args...), Got: got}
}
