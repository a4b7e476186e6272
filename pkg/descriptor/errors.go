// SPDX-License-Identifier: Apache-2.0
package descriptor

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a descriptor file does not exist.
	ErrNotFound = errors.New("❌ descriptor not found")
	// ErrMalformed is returned when a descriptor cannot be read or decoded.
	ErrMalformed = errors.New("❌ malformed descriptor")
	// ErrCycle is returned when an inheritance chain loops back on itself.
	ErrCycle = errors.New("❌ descriptor inheritance cycle")
)

// Error is a fatal descriptor failure. No launch is attempted after one.
type Error struct {
	ID    string
	Chain []string
	Err   error
}

func (e *Error) Error() string {
	if len(e.Chain) > 1 {
		return fmt.Sprintf("descriptor %q (chain %v): %v", e.ID, e.Chain, e.Err)
	}
	return fmt.Sprintf("descriptor %q: %v", e.ID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
