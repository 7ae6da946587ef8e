package model

import "slices"

// BuildState represents the lifecycle state of a Build.
type BuildState string

const (
	BuildStateStaging BuildState = "STAGING"
	BuildStateStaged  BuildState = "STAGED"
	BuildStateFailed  BuildState = "FAILED"
)

// String returns the string representation of the build state.
func (s BuildState) String() string {
	return string(s)
}

// IsTerminal returns true if the build is in a final state.
func (s BuildState) IsTerminal() bool {
	return s == BuildStateStaged || s == BuildStateFailed
}

// ValidBuildTransitions defines the allowed state transitions for Builds.
var ValidBuildTransitions = map[BuildState][]BuildState{
	BuildStateStaging: {BuildStateStaged, BuildStateFailed},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s BuildState) CanTransitionTo(next BuildState) bool {
	return slices.Contains(ValidBuildTransitions[s], next)
}

// DropletState represents the lifecycle state of a Droplet. A droplet
// follows the build that produces it.
type DropletState string

const (
	DropletStateStaging DropletState = "STAGING"
	DropletStateStaged  DropletState = "STAGED"
	DropletStateFailed  DropletState = "FAILED"
)

// String returns the string representation of the droplet state.
func (s DropletState) String() string {
	return string(s)
}

// ValidDropletTransitions defines the allowed state transitions for Droplets.
var ValidDropletTransitions = map[DropletState][]DropletState{
	DropletStateStaging: {DropletStateStaged, DropletStateFailed},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s DropletState) CanTransitionTo(next DropletState) bool {
	return slices.Contains(ValidDropletTransitions[s], next)
}

// TaskState represents the lifecycle state of a Task.
type TaskState string

const (
	TaskStatePending   TaskState = "PENDING"
	TaskStateRunning   TaskState = "RUNNING"
	TaskStateSucceeded TaskState = "SUCCEEDED"
	TaskStateFailed    TaskState = "FAILED"
)

// String returns the string representation of the task state.
func (s TaskState) String() string {
	return string(s)
}

// IsTerminal returns true if the task is in a final state.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateSucceeded, TaskStateFailed:
		return true
	}
	return false
}

// ValidTaskTransitions defines the allowed state transitions for Tasks.
// A completion callback may arrive before the task was seen running.
var ValidTaskTransitions = map[TaskState][]TaskState{
	TaskStatePending: {TaskStateRunning, TaskStateSucceeded, TaskStateFailed},
	TaskStateRunning: {TaskStateSucceeded, TaskStateFailed},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s TaskState) CanTransitionTo(next TaskState) bool {
	return slices.Contains(ValidTaskTransitions[s], next)
}
