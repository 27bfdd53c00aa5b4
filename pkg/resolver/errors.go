package resolver

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle matches any circular-dependency failure.
var ErrCycle = errors.New("circular dependency detected")

// CycleError identifies the dependency chain that loops back on itself.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Chain, " -> "))
}

// Unwrap makes the error match ErrCycle with errors.Is.
func (e *CycleError) Unwrap() error {
	return ErrCycle
}
