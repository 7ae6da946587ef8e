package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/me/diegobridge/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Every connection to ":memory:" opens its own empty database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

type scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// --- Builds ---

const buildColumns = `id, app_guid, package_guid, lifecycle_type, stack, state, error_id, error_description, created_at, updated_at`

// CreateBuild inserts a build and, when d is not nil, the droplet it stages into.
func (s *SQLiteStore) CreateBuild(ctx context.Context, b *model.Build, d *model.Droplet) error {
	s.logger.Debug("sql", "op", "insert", "table", "builds", "id", b.ID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	state := b.State
	if state == "" {
		state = model.BuildStateStaging
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO builds (`+buildColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.AppGUID, b.PackageGUID, b.LifecycleType, b.Stack, string(state),
		b.ErrorID, b.ErrorDescription, formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert build %s: %w", b.ID, err)
	}

	if d != nil {
		s.logger.Debug("sql", "op", "insert", "table", "droplets", "id", d.ID)
		if err := insertDroplet(ctx, tx, b.ID, d); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertDroplet(ctx context.Context, tx *sql.Tx, buildID string, d *model.Droplet) error {
	processTypes, err := json.Marshal(d.ProcessTypes)
	if err != nil {
		return fmt.Errorf("marshal process types: %w", err)
	}
	buildpacks, err := json.Marshal(d.Buildpacks)
	if err != nil {
		return fmt.Errorf("marshal buildpacks: %w", err)
	}
	state := d.State
	if state == "" {
		state = model.DropletStateStaging
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO droplets (`+dropletColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, buildID, d.AppGUID, string(state), d.LifecycleType, d.ExecutionMetadata,
		string(processTypes), d.BuildpackKey, d.DetectedBuildpack, string(buildpacks),
		d.ErrorDescription, formatTime(d.CreatedAt), formatTime(d.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert droplet %s: %w", d.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetBuild(ctx context.Context, id string) (*model.Build, error) {
	s.logger.Debug("sql", "op", "select", "table", "builds", "id", id)
	return getBuild(ctx, s.db, id)
}

func getBuild(ctx context.Context, q querier, id string) (*model.Build, error) {
	b, err := scanBuild(q.QueryRowContext(ctx,
		`SELECT `+buildColumns+` FROM builds WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func scanBuild(row scanner) (*model.Build, error) {
	var b model.Build
	var state, createdAt, updatedAt string
	if err := row.Scan(&b.ID, &b.AppGUID, &b.PackageGUID, &b.LifecycleType, &b.Stack, &state,
		&b.ErrorID, &b.ErrorDescription, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	b.State = model.BuildState(state)
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}

func (s *SQLiteStore) ListBuilds(ctx context.Context, opts model.ListOptions) ([]*model.Build, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "builds", "limit", opts.Limit, "offset", opts.Offset)
	opts.Clamp()

	whereSQL, countArgs := listFilter(opts)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM builds`+whereSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listArgs := append(countArgs, opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+buildColumns+` FROM builds`+whereSQL+` ORDER BY created_at DESC LIMIT ? OFFSET ?`, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var builds []*model.Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, 0, err
		}
		builds = append(builds, b)
	}
	return builds, total, rows.Err()
}

// GetBuildsByState returns every build in state, oldest first.
func (s *SQLiteStore) GetBuildsByState(ctx context.Context, state model.BuildState) ([]*model.Build, error) {
	s.logger.Debug("sql", "op", "select", "table", "builds", "state", state)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+buildColumns+` FROM builds WHERE state = ? ORDER BY created_at`, string(state))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var builds []*model.Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// listFilter builds the WHERE clause shared by the build and task listings.
func listFilter(opts model.ListOptions) (string, []any) {
	var clauses []string
	var args []any
	if opts.State != "" {
		clauses = append(clauses, "state = ?")
		args = append(args, opts.State)
	}
	if opts.AppGUID != "" {
		clauses = append(clauses, "app_guid = ?")
		args = append(args, opts.AppGUID)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// --- Droplets ---

const dropletColumns = `id, build_id, app_guid, state, lifecycle_type, execution_metadata, process_types, buildpack_key, detected_buildpack, buildpacks, error_description, created_at, updated_at`

func (s *SQLiteStore) GetDroplet(ctx context.Context, id string) (*model.Droplet, error) {
	s.logger.Debug("sql", "op", "select", "table", "droplets", "id", id)
	d, err := scanDroplet(s.db.QueryRowContext(ctx,
		`SELECT `+dropletColumns+` FROM droplets WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

func (s *SQLiteStore) GetDropletByBuild(ctx context.Context, buildID string) (*model.Droplet, error) {
	s.logger.Debug("sql", "op", "select", "table", "droplets", "build_id", buildID)
	return getDropletByBuild(ctx, s.db, buildID)
}

func getDropletByBuild(ctx context.Context, q querier, buildID string) (*model.Droplet, error) {
	d, err := scanDroplet(q.QueryRowContext(ctx,
		`SELECT `+dropletColumns+` FROM droplets WHERE build_id = ?`, buildID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

func scanDroplet(row scanner) (*model.Droplet, error) {
	var d model.Droplet
	var state, processTypes, buildpacks, createdAt, updatedAt string
	if err := row.Scan(&d.ID, &d.BuildID, &d.AppGUID, &state, &d.LifecycleType, &d.ExecutionMetadata,
		&processTypes, &d.BuildpackKey, &d.DetectedBuildpack, &buildpacks, &d.ErrorDescription,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.State = model.DropletState(state)
	if err := json.Unmarshal([]byte(processTypes), &d.ProcessTypes); err != nil {
		return nil, fmt.Errorf("unmarshal process types: %w", err)
	}
	if err := json.Unmarshal([]byte(buildpacks), &d.Buildpacks); err != nil {
		return nil, fmt.Errorf("unmarshal buildpacks: %w", err)
	}
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return &d, nil
}

// --- Staging completion ---

// SaveStagingResult records a successful staging run: the droplet takes the
// result and both droplet and build move to STAGED.
func (s *SQLiteStore) SaveStagingResult(ctx context.Context, buildID string, result *model.StagingResult) error {
	s.logger.Debug("sql", "op", "save_staging_result", "build_id", buildID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	b, err := getBuild(ctx, tx, buildID)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("build %s: %w", buildID, ErrNotFound)
	}
	if !b.State.CanTransitionTo(model.BuildStateStaged) {
		return &model.InvalidTransitionError{Entity: "Build", ID: buildID, From: b.State.String(), To: model.BuildStateStaged.String()}
	}
	d, err := getDropletByBuild(ctx, tx, buildID)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("build %s: %w", buildID, ErrNoDroplet)
	}
	if !d.State.CanTransitionTo(model.DropletStateStaged) {
		return &model.InvalidTransitionError{Entity: "Droplet", ID: d.ID, From: d.State.String(), To: model.DropletStateStaged.String()}
	}

	processTypes, err := json.Marshal(result.ProcessTypes)
	if err != nil {
		return fmt.Errorf("marshal process types: %w", err)
	}
	buildpacks, err := json.Marshal(result.LifecycleMetadata.Buildpacks)
	if err != nil {
		return fmt.Errorf("marshal buildpacks: %w", err)
	}
	now := formatTime(time.Now())

	_, err = tx.ExecContext(ctx,
		`UPDATE droplets SET state = ?, lifecycle_type = ?, execution_metadata = ?, process_types = ?,
		 buildpack_key = ?, detected_buildpack = ?, buildpacks = ?, updated_at = ?
		 WHERE id = ?`,
		string(model.DropletStateStaged), result.LifecycleType, result.ExecutionMetadata, string(processTypes),
		result.LifecycleMetadata.BuildpackKey, result.LifecycleMetadata.DetectedBuildpack, string(buildpacks), now,
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("update droplet %s: %w", d.ID, err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE builds SET state = ?, updated_at = ? WHERE id = ?`,
		string(model.BuildStateStaged), now, buildID,
	)
	if err != nil {
		return fmt.Errorf("update build %s: %w", buildID, err)
	}
	return tx.Commit()
}

// FailBuild moves the build, and its droplet when there is one, to FAILED.
// An empty errorID is recorded as model.StagingErrorID.
func (s *SQLiteStore) FailBuild(ctx context.Context, buildID, errorID, description string) error {
	s.logger.Debug("sql", "op", "fail_build", "build_id", buildID, "error_id", errorID)

	if errorID == "" {
		errorID = model.StagingErrorID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	b, err := getBuild(ctx, tx, buildID)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("build %s: %w", buildID, ErrNotFound)
	}
	if !b.State.CanTransitionTo(model.BuildStateFailed) {
		return &model.InvalidTransitionError{Entity: "Build", ID: buildID, From: b.State.String(), To: model.BuildStateFailed.String()}
	}

	now := formatTime(time.Now())
	reason := errorID + " - " + description
	_, err = tx.ExecContext(ctx,
		`UPDATE builds SET state = ?, error_id = ?, error_description = ?, updated_at = ? WHERE id = ?`,
		string(model.BuildStateFailed), errorID, reason, now, buildID,
	)
	if err != nil {
		return fmt.Errorf("update build %s: %w", buildID, err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE droplets SET state = ?, error_description = ?, updated_at = ?
		 WHERE build_id = ? AND state = ?`,
		string(model.DropletStateFailed), reason, now, buildID, string(model.DropletStateStaging),
	)
	if err != nil {
		return fmt.Errorf("update droplet of build %s: %w", buildID, err)
	}
	return tx.Commit()
}

// --- Tasks ---

const taskColumns = `id, app_guid, name, command, droplet_guid, state, memory_mb, disk_mb, result, failure_reason, created_at, updated_at, completed_at`

func (s *SQLiteStore) CreateTask(ctx context.Context, task *model.Task) error {
	s.logger.Debug("sql", "op", "insert", "table", "tasks", "id", task.ID)

	state := task.State
	if state == "" {
		state = model.TaskStatePending
	}
	var completedAt *string
	if task.CompletedAt != nil {
		v := formatTime(*task.CompletedAt)
		completedAt = &v
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.AppGUID, task.Name, task.Command, task.DropletGUID, string(state),
		task.MemoryMB, task.DiskMB, task.Result, task.FailureReason,
		formatTime(task.CreatedAt), formatTime(task.UpdatedAt), completedAt,
	)
	return err
}

func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	s.logger.Debug("sql", "op", "select", "table", "tasks", "id", id)
	return getTask(ctx, s.db, id)
}

func getTask(ctx context.Context, q querier, id string) (*model.Task, error) {
	task, err := scanTask(q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return task, err
}

func scanTask(row scanner) (*model.Task, error) {
	var task model.Task
	var state, createdAt, updatedAt string
	var completedAt *string
	if err := row.Scan(&task.ID, &task.AppGUID, &task.Name, &task.Command, &task.DropletGUID, &state,
		&task.MemoryMB, &task.DiskMB, &task.Result, &task.FailureReason,
		&createdAt, &updatedAt, &completedAt); err != nil {
		return nil, err
	}
	task.State = model.TaskState(state)
	task.CreatedAt = parseTime(createdAt)
	task.UpdatedAt = parseTime(updatedAt)
	if completedAt != nil {
		t := parseTime(*completedAt)
		task.CompletedAt = &t
	}
	return &task, nil
}

func (s *SQLiteStore) ListTasks(ctx context.Context, opts model.ListOptions) ([]*model.Task, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "tasks", "limit", opts.Limit, "offset", opts.Offset)
	opts.Clamp()

	whereSQL, countArgs := listFilter(opts)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`+whereSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listArgs := append(countArgs, opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks`+whereSQL+` ORDER BY created_at DESC LIMIT ? OFFSET ?`, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, task)
	}
	return tasks, total, rows.Err()
}

// GetTasksByState returns every task in any of states, oldest first.
func (s *SQLiteStore) GetTasksByState(ctx context.Context, states ...model.TaskState) ([]*model.Task, error) {
	s.logger.Debug("sql", "op", "select", "table", "tasks", "states", states)
	if len(states) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(states))
	args := make([]any, len(states))
	for i, st := range states {
		placeholders[i] = "?"
		args[i] = string(st)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE state IN (`+strings.Join(placeholders, ", ")+`) ORDER BY created_at`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// StartTask moves a PENDING task to RUNNING. A task already RUNNING is
// left alone.
func (s *SQLiteStore) StartTask(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "update", "table", "tasks", "id", id, "state", model.TaskStateRunning)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	task, err := getTask(ctx, tx, id)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if task.State == model.TaskStateRunning {
		return nil
	}
	if !task.State.CanTransitionTo(model.TaskStateRunning) {
		return &model.InvalidTransitionError{Entity: "Task", ID: id, From: task.State.String(), To: model.TaskStateRunning.String()}
	}
	_, err = tx.ExecContext(ctx, `UPDATE tasks SET state = ?, updated_at = ? WHERE id = ?`,
		string(model.TaskStateRunning), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	return tx.Commit()
}

// CompleteTask records the scheduler's outcome for a task.
func (s *SQLiteStore) CompleteTask(ctx context.Context, id string, c model.TaskCompletion) error {
	s.logger.Debug("sql", "op", "complete_task", "id", id, "failed", c.Failed)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	task, err := getTask(ctx, tx, id)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	next := model.TaskStateSucceeded
	if c.Failed {
		next = model.TaskStateFailed
	}
	if !task.State.CanTransitionTo(next) {
		return &model.InvalidTransitionError{Entity: "Task", ID: id, From: task.State.String(), To: next.String()}
	}

	now := formatTime(time.Now())
	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET state = ?, result = ?, failure_reason = ?, updated_at = ?, completed_at = ? WHERE id = ?`,
		string(next), c.Result, c.FailureReason, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	return tx.Commit()
}
