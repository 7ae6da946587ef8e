// Package reconciler catches completion callbacks that never arrived. It
// polls the BBS for every build and task still open in the store and
// replays the outcome Diego reports through the completion handlers.
package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/diegobridge/internal/completion"
	"github.com/me/diegobridge/pkg/bbs"
	"github.com/me/diegobridge/pkg/model"
)

// MissingTaskReason is recorded when Diego no longer knows a task the
// store still considers open.
const MissingTaskReason = "task not found in Diego"

// Store is the slice of the store the loop needs.
type Store interface {
	GetBuildsByState(ctx context.Context, state model.BuildState) ([]*model.Build, error)
	GetTasksByState(ctx context.Context, states ...model.TaskState) ([]*model.Task, error)
	StartTask(ctx context.Context, id string) error
}

// BBS looks up tasks on the scheduler. *diego.Client satisfies it.
type BBS interface {
	TaskByGUID(ctx context.Context, guid string) (*bbs.Task, error)
}

// Handler records a completion body. Both completion handlers satisfy it.
type Handler interface {
	Handle(ctx context.Context, guid string, body []byte) (*completion.Outcome, error)
}

// Config holds loop configuration.
type Config struct {
	PollInterval time.Duration
	// Grace is how long a record must exist before it is reconciled, so
	// a build recorded just before its task is desired is not failed.
	Grace time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{PollInterval: 30 * time.Second, Grace: time.Minute}
}

// Loop periodically reconciles open builds and tasks.
type Loop struct {
	store   Store
	bbs     BBS
	staging Handler
	tasks   Handler
	config  Config
	logger  *slog.Logger
	now     func() time.Time
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewLoop creates a reconcile loop.
func NewLoop(st Store, client BBS, staging, tasks Handler, cfg Config, logger *slog.Logger) *Loop {
	return &Loop{
		store:   st,
		bbs:     client,
		staging: staging,
		tasks:   tasks,
		config:  cfg,
		logger:  logger.With("component", "reconciler"),
		now:     time.Now,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start runs the loop until ctx is cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	l.logger.Info("reconciler started", "poll_interval", l.config.PollInterval, "grace", l.config.Grace)
	ticker := time.NewTicker(l.config.PollInterval)
	defer ticker.Stop()
	defer close(l.doneCh)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("reconciler stopping (context cancelled)")
			return ctx.Err()
		case <-l.stopCh:
			l.logger.Info("reconciler stopping (stop called)")
			return nil
		case <-ticker.C:
			if err := l.Tick(ctx); err != nil {
				l.logger.Error("tick error", "error", err)
			}
		}
	}
}

// Stop shuts the loop down and waits for the current tick to finish.
func (l *Loop) Stop() {
	close(l.stopCh)
	<-l.doneCh
}

// Tick runs a single reconcile pass. Failures on individual records are
// logged and skipped; only store read failures are returned.
func (l *Loop) Tick(ctx context.Context) error {
	if err := l.syncBuilds(ctx); err != nil {
		return fmt.Errorf("builds: %w", err)
	}
	if err := l.syncTasks(ctx); err != nil {
		return fmt.Errorf("tasks: %w", err)
	}
	return nil
}

func (l *Loop) settled(created time.Time) bool {
	return l.now().Sub(created) >= l.config.Grace
}

// syncBuilds replays the outcome of staging tasks that finished, or
// vanished, without a callback reaching us.
func (l *Loop) syncBuilds(ctx context.Context) error {
	builds, err := l.store.GetBuildsByState(ctx, model.BuildStateStaging)
	if err != nil {
		return err
	}
	for _, b := range builds {
		if !l.settled(b.CreatedAt) {
			continue
		}
		l.reconcile(ctx, l.staging, "build", b.ID, nil)
	}
	return nil
}

// syncTasks mirrors RUNNING onto pending tasks and replays finished or
// vanished ones.
func (l *Loop) syncTasks(ctx context.Context) error {
	tasks, err := l.store.GetTasksByState(ctx, model.TaskStatePending, model.TaskStateRunning)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if !l.settled(t.CreatedAt) {
			continue
		}
		l.reconcile(ctx, l.tasks, "task", t.ID, func(remote *bbs.Task) {
			if t.State != model.TaskStatePending || remote.State != bbs.TaskStateRunning {
				return
			}
			if err := l.store.StartTask(ctx, t.ID); err != nil {
				l.logger.Error("start task", "task_guid", t.ID, "error", err)
				return
			}
			l.logger.Info("task running", "task_guid", t.ID, "cell_id", remote.CellId)
		})
	}
	return nil
}

// reconcile looks guid up on the BBS. Completed and missing tasks are fed
// to h as a Diego task callback; anything still in flight goes to
// inFlight when set.
func (l *Loop) reconcile(ctx context.Context, h Handler, kind, guid string, inFlight func(*bbs.Task)) {
	logger := l.logger.With(kind+"_guid", guid)

	remote, err := l.bbs.TaskByGUID(ctx, guid)
	var callback completion.TaskCallback
	switch {
	case isNotFound(err) || (err == nil && remote == nil):
		callback = completion.TaskCallback{TaskGUID: guid, Failed: true, FailureReason: MissingTaskReason}
	case err != nil:
		logger.Warn("bbs lookup failed", "error", err)
		return
	case remote.State != bbs.TaskStateCompleted:
		if inFlight != nil {
			inFlight(remote)
		}
		return
	default:
		callback = completion.TaskCallback{
			TaskGUID:      guid,
			Failed:        remote.Failed,
			FailureReason: remote.FailureReason,
			Result:        remote.Result,
		}
	}

	body, err := json.Marshal(callback)
	if err != nil {
		logger.Error("encode callback", "error", err)
		return
	}
	outcome, err := h.Handle(ctx, guid, body)
	if err != nil {
		logger.Warn("replayed callback rejected", "error", err)
		return
	}
	logger.Info("replayed missed callback", "state", outcome.State, "failed", outcome.Failed)
}

func isNotFound(err error) bool {
	var bbsErr *bbs.Error
	return errors.As(err, &bbsErr) && bbsErr.Type == bbs.ErrorTypeResourceNotFound
}
