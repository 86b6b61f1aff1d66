package planner

import (
	"errors"
	"fmt"
)

// Sentinel categories for PlanningError. Match with errors.Is.
var (
	// ErrUnparseable means no extraction strategy yielded a valid plan.
	ErrUnparseable = errors.New("plan response unparseable")
	// ErrUpstreamTimeout means the generation call exceeded its deadline.
	ErrUpstreamTimeout = errors.New("upstream generation timeout")
	// ErrUpstreamFailure means the generation call failed for another reason.
	ErrUpstreamFailure = errors.New("upstream generation failure")
)

// PlanningError wraps a failure of CreatePlan with its category sentinel and
// a short diagnostic. The raw model response is never attached whole;
// diagnostics carry a truncated excerpt only.
type PlanningError struct {
	Kind    error // one of the sentinels above
	Detail  string
	Wrapped error
}

// Error implements error.
func (e *PlanningError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("planner: %s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("planner: %s", e.Kind)
}

// Is lets errors.Is match the category sentinel.
func (e *PlanningError) Is(target error) bool { return errors.Is(e.Kind, target) }

// Unwrap exposes the underlying cause.
func (e *PlanningError) Unwrap() error { return e.Wrapped }
