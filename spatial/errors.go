package spatial

import "errors"

// ErrPositionNotAllowed is returned by Insert/Move/MoveTo when the requested
// position would collapse the triangulation (typically an exact duplicate of
// an existing site, or a degenerate configuration clean-up could not
// resolve). It is recoverable: callers retry after a small random jitter.
var ErrPositionNotAllowed = errors.New("spatial: position not allowed")

// ErrInvariantViolation marks a bug-class failure: the triangulation could
// not be restored to a valid Delaunay state even after clean-up, or an
// internal adjacency invariant was found broken. Per spec §7 this is fatal
// to the step.
var ErrInvariantViolation = errors.New("spatial: invariant violation")

// IsPositionNotAllowed reports whether err is (or wraps) ErrPositionNotAllowed,
// the one recoverable error kind callers are expected to retry on.
func IsPositionNotAllowed(err error) bool {
	return errors.Is(err, ErrPositionNotAllowed)
}
