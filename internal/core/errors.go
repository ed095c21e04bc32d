package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for matching with errors.Is. The typed errors below carry
// the detail and report themselves as the matching sentinel.
var (
	ErrContextSealed   = errors.New("context is sealed")
	ErrNothingSelected = errors.New("no tasks selected")
	ErrPropertyUnset   = errors.New("property is not set")
	ErrNotHydrated     = errors.New("property is not hydrated")
	ErrPropertyFrozen  = errors.New("property is frozen")
)

// NameCollisionError reports a duplicate member name within a project.
type NameCollisionError struct {
	Project string
	Name    string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("project %q already has a member named %q", e.Project, e.Name)
}

// UnknownTaskError reports a selector or relationship target that resolved
// to nothing.
type UnknownTaskError struct {
	Selector string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("no tasks matched selector %q", e.Selector)
}

// UnknownPathError reports a project or task path that does not exist.
type UnknownPathError struct {
	Path string
}

func (e *UnknownPathError) Error() string {
	return fmt.Sprintf("path %q does not exist", e.Path)
}

// UnsetError is returned when reading a property that has no value.
type UnsetError struct {
	Property string
}

func (e *UnsetError) Error() string {
	return fmt.Sprintf("property %s is not set", e.Property)
}

func (e *UnsetError) Is(target error) bool { return target == ErrPropertyUnset }

// NotHydratedError is returned when reading an output property, directly or
// through a derived chain, before the producing task has executed.
type NotHydratedError struct {
	Property string
}

func (e *NotHydratedError) Error() string {
	return fmt.Sprintf("property %s has not been produced yet", e.Property)
}

func (e *NotHydratedError) Is(target error) bool { return target == ErrNotHydrated }

// FrozenError is returned when mutating a property after finalization.
type FrozenError struct {
	Property string
}

func (e *FrozenError) Error() string {
	return fmt.Sprintf("property %s is frozen", e.Property)
}

func (e *FrozenError) Is(target error) bool { return target == ErrPropertyFrozen }

// CycleError reports a dependency cycle, listing the participating task paths.
type CycleError struct {
	Paths []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Paths, " -> "))
}

// TaskError wraps a task's native error with the task's path.
type TaskError struct {
	TaskPath string
	Err      error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.TaskPath, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }
