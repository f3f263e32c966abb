package galaxy

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification.
var (
	ErrProfileList   = errors.New("profile values must be single profiles, not lists")
	ErrNotProfile    = errors.New("value is not a light or mass profile")
	ErrNoMassProfile = errors.New("galaxy has no mass profiles")
)

// ErrorKind is a coarse-grained categorization for errors.
type ErrorKind string

const (
	// KindConfiguration errors come from building a galaxy incorrectly.
	KindConfiguration ErrorKind = "configuration"
	// KindNoMassProfile errors come from asking a galaxy without mass
	// profiles for a mass.
	KindNoMassProfile ErrorKind = "no_mass_profile"
)

// Error wraps an underlying error with operation context and a kind.
type Error struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether any error in err's chain is an *Error of the given
// kind.
func IsKind(err error, kind ErrorKind) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind == kind
	}
	return false
}
