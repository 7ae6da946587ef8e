package store

import (
	"context"
	"errors"

	"github.com/me/diegobridge/pkg/model"
)

var (
	// ErrNotFound is returned by write operations whose target row is missing.
	// Reads return nil, nil instead.
	ErrNotFound = errors.New("record not found")

	// ErrNoDroplet is returned when a build has no droplet to stage into.
	ErrNoDroplet = errors.New("build has no droplet")
)

// Store defines the persistence layer for builds, droplets and tasks.
type Store interface {
	// Builds and droplets
	CreateBuild(ctx context.Context, b *model.Build, d *model.Droplet) error
	GetBuild(ctx context.Context, id string) (*model.Build, error)
	ListBuilds(ctx context.Context, opts model.ListOptions) ([]*model.Build, int, error)
	GetDroplet(ctx context.Context, id string) (*model.Droplet, error)
	GetDropletByBuild(ctx context.Context, buildID string) (*model.Droplet, error)
	GetBuildsByState(ctx context.Context, state model.BuildState) ([]*model.Build, error)

	// Staging completion. Each runs in a single transaction.
	SaveStagingResult(ctx context.Context, buildID string, result *model.StagingResult) error
	FailBuild(ctx context.Context, buildID, errorID, description string) error

	// Tasks
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context, opts model.ListOptions) ([]*model.Task, int, error)
	GetTasksByState(ctx context.Context, states ...model.TaskState) ([]*model.Task, error)
	StartTask(ctx context.Context, id string) error
	CompleteTask(ctx context.Context, id string, c model.TaskCompletion) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
