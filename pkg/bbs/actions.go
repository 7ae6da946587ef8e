// Package bbs holds the scheduler's wire models: the action graph that runs
// inside a container, the asset references delivered alongside it, the
// task/LRP definitions, and the request/response envelopes of the BBS API.
//
// The types are plain data. They are encoded with the scheduler's protobuf
// field numbers (see codec.go) so a request built here is byte-compatible
// with what the scheduler expects.
package bbs

import "fmt"

// Action is a union (aka sum type). Exactly one of its fields is set.
type Action struct {
	DownloadAction     *DownloadAction     `json:"download,omitempty"`
	UploadAction       *UploadAction       `json:"upload,omitempty"`
	RunAction          *RunAction          `json:"run,omitempty"`
	TimeoutAction      *TimeoutAction      `json:"timeout,omitempty"`
	EmitProgressAction *EmitProgressAction `json:"emit_progress,omitempty"`
	TryAction          *TryAction          `json:"try,omitempty"`
	ParallelAction     *ParallelAction     `json:"parallel,omitempty"`
	SerialAction       *SerialAction       `json:"serial,omitempty"`
}

// DownloadAction fetches an artifact into the container.
type DownloadAction struct {
	Artifact          string `json:"artifact,omitempty"`
	From              string `json:"from"`
	To                string `json:"to"`
	CacheKey          string `json:"cache_key,omitempty"`
	LogSource         string `json:"log_source,omitempty"`
	User              string `json:"user"`
	ChecksumAlgorithm string `json:"checksum_algorithm,omitempty"`
	ChecksumValue     string `json:"checksum_value,omitempty"`
}

// UploadAction ships a file out of the container.
type UploadAction struct {
	Artifact  string `json:"artifact,omitempty"`
	From      string `json:"from"`
	To        string `json:"to"`
	LogSource string `json:"log_source,omitempty"`
	User      string `json:"user"`
}

// RunAction executes a process inside the container.
type RunAction struct {
	Path              string                 `json:"path"`
	Args              []string               `json:"args,omitempty"`
	Dir               string                 `json:"dir,omitempty"`
	Env               []*EnvironmentVariable `json:"env,omitempty"`
	ResourceLimits    *ResourceLimits        `json:"resource_limits,omitempty"`
	User              string                 `json:"user"`
	LogSource         string                 `json:"log_source,omitempty"`
	SuppressLogOutput bool                   `json:"suppress_log_output,omitempty"`
}

// TimeoutAction bounds the run time of the wrapped action.
type TimeoutAction struct {
	Action    *Action `json:"action"`
	LogSource string  `json:"log_source,omitempty"`
	TimeoutMs int64   `json:"timeout_ms"`
}

// EmitProgressAction wraps an action with start/success/failure messages.
// It does not change how the wrapped action executes.
type EmitProgressAction struct {
	Action               *Action `json:"action"`
	StartMessage         string  `json:"start_message,omitempty"`
	SuccessMessage       string  `json:"success_message,omitempty"`
	FailureMessagePrefix string  `json:"failure_message_prefix,omitempty"`
	LogSource            string  `json:"log_source,omitempty"`
}

// TryAction runs the wrapped action and ignores its failure.
type TryAction struct {
	Action    *Action `json:"action"`
	LogSource string  `json:"log_source,omitempty"`
}

// ParallelAction runs its children concurrently; any failure fails the group.
type ParallelAction struct {
	Actions   []*Action `json:"actions"`
	LogSource string    `json:"log_source,omitempty"`
}

// SerialAction runs its children in order and stops at the first failure.
type SerialAction struct {
	Actions   []*Action `json:"actions"`
	LogSource string    `json:"log_source,omitempty"`
}

// Kind names the variant held by the action, or "" for an empty action.
func (a *Action) Kind() string {
	switch {
	case a == nil:
		return ""
	case a.DownloadAction != nil:
		return "download"
	case a.UploadAction != nil:
		return "upload"
	case a.RunAction != nil:
		return "run"
	case a.TimeoutAction != nil:
		return "timeout"
	case a.EmitProgressAction != nil:
		return "emit_progress"
	case a.TryAction != nil:
		return "try"
	case a.ParallelAction != nil:
		return "parallel"
	case a.SerialAction != nil:
		return "serial"
	}
	return ""
}

// IsGroup reports whether the action is a Serial or Parallel node.
func (a *Action) IsGroup() bool {
	return a != nil && (a.SerialAction != nil || a.ParallelAction != nil)
}

// Validate checks that exactly one variant is set, recursively.
func (a *Action) Validate() error {
	if a == nil {
		return fmt.Errorf("action is nil")
	}
	set := 0
	for _, ok := range []bool{
		a.DownloadAction != nil, a.UploadAction != nil, a.RunAction != nil,
		a.TimeoutAction != nil, a.EmitProgressAction != nil, a.TryAction != nil,
		a.ParallelAction != nil, a.SerialAction != nil,
	} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("action must have exactly one variant set, has %d", set)
	}
	for _, child := range a.Children() {
		if err := child.Validate(); err != nil {
			return fmt.Errorf("%s: %w", a.Kind(), err)
		}
	}
	return nil
}

// Children returns the direct sub-actions of a composite action.
func (a *Action) Children() []*Action {
	switch {
	case a == nil:
		return nil
	case a.SerialAction != nil:
		return a.SerialAction.Actions
	case a.ParallelAction != nil:
		return a.ParallelAction.Actions
	case a.TryAction != nil:
		return []*Action{a.TryAction.Action}
	case a.EmitProgressAction != nil:
		return []*Action{a.EmitProgressAction.Action}
	case a.TimeoutAction != nil:
		return []*Action{a.TimeoutAction.Action}
	}
	return nil
}

// Walk calls fn for a and every descendant, depth first.
func (a *Action) Walk(fn func(*Action)) {
	if a == nil {
		return
	}
	fn(a)
	for _, child := range a.Children() {
		child.Walk(fn)
	}
}

// WrapAction converts any action into a group node: groups are returned as
// is, leaves and wrappers are placed inside a single-element Serial.
func WrapAction(a *Action) *Action {
	if a == nil || a.IsGroup() {
		return a
	}
	return Serial(a)
}

func Download(d *DownloadAction) *Action { return &Action{DownloadAction: d} }

func Upload(u *UploadAction) *Action { return &Action{UploadAction: u} }

func Run(r *RunAction) *Action { return &Action{RunAction: r} }

func Serial(actions ...*Action) *Action {
	return &Action{SerialAction: &SerialAction{Actions: actions}}
}

func Parallel(actions ...*Action) *Action {
	return &Action{ParallelAction: &ParallelAction{Actions: actions}}
}

func Try(action *Action) *Action {
	return &Action{TryAction: &TryAction{Action: action}}
}

func Timeout(action *Action, timeoutMs int64) *Action {
	return &Action{TimeoutAction: &TimeoutAction{Action: action, TimeoutMs: timeoutMs}}
}

func EmitProgress(action *Action, start, success, failurePrefix string) *Action {
	return &Action{EmitProgressAction: &EmitProgressAction{
		Action:               action,
		StartMessage:         start,
		SuccessMessage:       success,
		FailureMessagePrefix: failurePrefix,
	}}
}
