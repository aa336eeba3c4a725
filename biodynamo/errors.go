// Package biodynamo holds the engine-wide pieces the other packages share
// (it has no simulation driver of its own): configuration, logging, the
// seeded RNG, the state dump, and the error-kind sentinels spec.md §7
// names (PositionNotAllowed is defined in spatial, re-exported here so
// callers only need to import this one package for error handling).
package biodynamo

import (
	"errors"
	"fmt"

	"github.com/bdm-go/biodynamo/spatial"
)

// ErrPositionNotAllowed is re-exported from spatial: recoverable, callers
// retry after a small jitter.
var ErrPositionNotAllowed = spatial.ErrPositionNotAllowed

// ErrInvariantViolation is re-exported from spatial: a bug-class failure,
// fatal to the step.
var ErrInvariantViolation = spatial.ErrInvariantViolation

// ErrConfigurationError marks a missing template/intracellular-substance
// reference. It is recoverable: the substance library auto-creates a
// default template and proceeds (spec.md §7); this sentinel exists so a
// caller that wants to log the occurrence can still do so via errors.Is.
var ErrConfigurationError = errors.New("biodynamo: configuration error")

// ErrResourceExhaustion marks an object count exceeding a configured
// ceiling. Fatal, with the offending count reported.
var ErrResourceExhaustion = errors.New("biodynamo: resource exhaustion")

// NewResourceExhaustion wraps ErrResourceExhaustion with the offending
// count and the ceiling it exceeded.
func NewResourceExhaustion(kind string, count, ceiling int) error {
	return fmt.Errorf("%s: %d exceeds ceiling %d: %w", kind, count, ceiling, ErrResourceExhaustion)
}

// IsPositionNotAllowed, IsInvariantViolation, IsConfigurationError, and
// IsResourceExhaustion are errors.Is convenience wrappers matching spec.md
// §7's four recoverable/fatal error kinds (Numeric is never propagated, so
// it has no sentinel: callers recover locally, per spec).
func IsPositionNotAllowed(err error) bool { return errors.Is(err, ErrPositionNotAllowed) }
func IsInvariantViolation(err error) bool { return errors.Is(err, ErrInvariantViolation) }
func IsConfigurationError(err error) bool { return errors.Is(err, ErrConfigurationError) }
func IsResourceExhaustion(err error) bool { return errors.Is(err, ErrResourceExhaustion) }
