package errors

import "fmt"

// AssertionError is raised (as a panic) when an internal invariant of the
// algebra does not hold. It signals a malformed input or a bug, never a
// recoverable condition.
type AssertionError struct {
	Message string
}

func (e AssertionError) Error() string {
	return fmt.Sprintf("Assertion failed: %v", e.Message)
}

// UnsupportedCompositionError marks a composition that falls in a known
// unimplemented area.
type UnsupportedCompositionError struct {
	Reason string
}

func (e UnsupportedCompositionError) Error() string {
	return fmt.Sprintf("Unsupported composition: %v", e.Reason)
}

type InvalidChangesetError struct {
	MarkIndex int
	Reason    string
}

func (e InvalidChangesetError) Error() string {
	return fmt.Sprintf("Invalid changeset at mark %v: %v", e.MarkIndex, e.Reason)
}

type ApplyOutOfBoundsError struct {
	MarkIndex int
	Needed    int
}

func (e ApplyOutOfBoundsError) Error() string {
	return fmt.Sprintf("Mark %v needs %v more populated cells than the state has", e.MarkIndex, e.Needed)
}

type DetachedNodeNotFoundError struct {
	Id string
}

func (e DetachedNodeNotFoundError) Error() string {
	return fmt.Sprintf("Detached node %v not found", e.Id)
}

type UnknownEffectError struct {
	Type string
}

func (e UnknownEffectError) Error() string {
	return fmt.Sprintf("Unknown mark effect %v", e.Type)
}

type InvalidConfigError struct {
	Reason string
}

func (e InvalidConfigError) Error() string {
	return fmt.Sprintf("Invalid config: %v", e.Reason)
}
