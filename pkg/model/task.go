package model

import (
	"time"
)

// Task is a one-off command run against an app's droplet. The scheduler
// reports its outcome through the task completion callback.
type Task struct {
	ID            string    `json:"id"`
	AppGUID       string    `json:"app_guid"`
	Name          string    `json:"name"`
	Command       string    `json:"command"`
	DropletGUID   string    `json:"droplet_guid,omitempty"`
	State         TaskState `json:"state"`
	MemoryMB      int32     `json:"memory_in_mb"`
	DiskMB        int32     `json:"disk_in_mb"`
	Result        string    `json:"result,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TaskCompletion is the scheduler's report on a finished task.
type TaskCompletion struct {
	Failed        bool
	FailureReason string
	Result        string
}
