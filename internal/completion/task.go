package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/me/diegobridge/pkg/model"
)

// TaskStore is the persistence the task handler needs.
type TaskStore interface {
	GetTask(ctx context.Context, id string) (*model.Task, error)
	CompleteTask(ctx context.Context, id string, c model.TaskCompletion) error
}

// TaskCallback is the scheduler's task completion body.
type TaskCallback struct {
	TaskGUID      string `json:"task_guid"`
	Failed        bool   `json:"failed"`
	FailureReason string `json:"failure_reason"`
	Result        string `json:"result"`
}

// TaskHandler handles task completion callbacks.
type TaskHandler struct {
	store  TaskStore
	logger *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(store TaskStore, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{store: store, logger: logger.With("component", "task-completion")}
}

// Handle records the outcome reported in body for taskGUID. A malformed
// body is recorded as a failed task and returned as
// *InvalidCallbackPayloadError.
func (h *TaskHandler) Handle(ctx context.Context, taskGUID string, body []byte) (*Outcome, error) {
	task, err := h.store.GetTask(ctx, taskGUID)
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", taskGUID, err)
	}
	if task == nil {
		return nil, fmt.Errorf("%s: %w", taskGUID, ErrTaskNotFound)
	}
	logger := h.logger.With("task_guid", taskGUID)

	if task.State.IsTerminal() {
		logger.Warn("task.already-completed", "state", task.State)
		return &Outcome{
			GUID:   taskGUID,
			State:  task.State.String(),
			Failed: task.State == model.TaskStateFailed,
			Reason: task.FailureReason,
		}, nil
	}

	var cb TaskCallback
	var invalid *InvalidCallbackPayloadError
	if err := json.Unmarshal(body, &cb); err != nil {
		invalid = &InvalidCallbackPayloadError{GUID: taskGUID, Reason: err.Error()}
	} else if cb.TaskGUID != "" && cb.TaskGUID != taskGUID {
		invalid = &InvalidCallbackPayloadError{GUID: taskGUID, Field: "task_guid", Reason: fmt.Sprintf("callback is for %q", cb.TaskGUID)}
	}
	if invalid != nil {
		logger.Error("task.invalid-message", "field", invalid.Field, "reason", invalid.Reason)
		cb = TaskCallback{Failed: true, FailureReason: "Malformed message from Diego"}
	}

	completion := model.TaskCompletion{Failed: cb.Failed, FailureReason: cb.FailureReason, Result: cb.Result}
	if err := h.store.CompleteTask(ctx, taskGUID, completion); err != nil {
		return nil, fmt.Errorf("complete task %s: %w", taskGUID, err)
	}

	outcome := &Outcome{GUID: taskGUID, State: model.TaskStateSucceeded.String()}
	if cb.Failed {
		outcome.State = model.TaskStateFailed.String()
		outcome.Failed = true
		outcome.Reason = cb.FailureReason
	}
	logger.Info("task.completed", "state", outcome.State)
	if invalid != nil {
		return outcome, invalid
	}
	return outcome, nil
}
