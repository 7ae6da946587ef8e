package completion

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/me/diegobridge/internal/store"
	"github.com/me/diegobridge/pkg/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:", testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// seedBuild creates a STAGING build of kind, with a droplet when withDroplet is set.
func seedBuild(t *testing.T, st *store.SQLiteStore, id, kind string, withDroplet bool) {
	t.Helper()
	now := time.Now().UTC()
	b := &model.Build{ID: id, AppGUID: "app-1", LifecycleType: kind, CreatedAt: now, UpdatedAt: now}
	var d *model.Droplet
	if withDroplet {
		d = &model.Droplet{ID: "droplet-" + id, AppGUID: "app-1", LifecycleType: kind, CreatedAt: now, UpdatedAt: now}
	}
	if err := st.CreateBuild(context.Background(), b, d); err != nil {
		t.Fatalf("CreateBuild: %v", err)
	}
}

const buildpackResult = `{
	"result": {
		"execution_metadata": "{\"start_command\":\"rackup\"}",
		"lifecycle_type": "buildpack",
		"lifecycle_metadata": {
			"buildpack_key": "ruby_buildpack",
			"detected_buildpack": "ruby",
			"buildpacks": [{"key": "ruby_buildpack", "name": "ruby", "version": "1.10.0"}]
		},
		"process_types": {"web": "bundle exec rackup"}
	}
}`

func TestStagingHandler_Success(t *testing.T) {
	st := testStore(t)
	seedBuild(t, st, "b1", model.LifecycleBuildpack, true)
	h := NewStagingHandler(st, testLogger())

	out, err := h.Handle(context.Background(), "b1", []byte(buildpackResult))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out.Failed || out.State != "STAGED" {
		t.Fatalf("outcome = %+v, want STAGED", out)
	}
	want := &model.StagingResult{
		ExecutionMetadata: `{"start_command":"rackup"}`,
		ProcessTypes:      map[string]string{"web": "bundle exec rackup"},
		LifecycleType:     "buildpack",
		LifecycleMetadata: model.LifecycleMetadata{
			BuildpackKey:      "ruby_buildpack",
			DetectedBuildpack: "ruby",
			Buildpacks:        []model.BuildpackInfo{{Key: "ruby_buildpack", Name: "ruby", Version: "1.10.0"}},
		},
	}
	if diff := cmp.Diff(want, out.Result); diff != "" {
		t.Errorf("result (-want +got):\n%s", diff)
	}

	d, _ := st.GetDropletByBuild(context.Background(), "b1")
	if d.State != model.DropletStateStaged || d.ExecutionMetadata != want.ExecutionMetadata {
		t.Errorf("droplet = %+v", d)
	}
}

func TestStagingHandler_CNBSuccess(t *testing.T) {
	st := testStore(t)
	seedBuild(t, st, "b1", model.LifecycleCNB, true)
	h := NewStagingHandler(st, testLogger())

	body := `{"result": {"execution_metadata": "", "lifecycle_type": "cnb",
		"lifecycle_metadata": {"buildpacks": [{"key": "paketo-buildpacks/nodejs"}]},
		"process_types": {"web": "npm start"}}}`
	out, err := h.Handle(context.Background(), "b1", []byte(body))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out.State != "STAGED" {
		t.Errorf("state = %q, want STAGED", out.State)
	}
	if got := out.Result.LifecycleMetadata.Buildpacks[0].Key; got != "paketo-buildpacks/nodejs" {
		t.Errorf("buildpack key = %q", got)
	}
}

func TestStagingHandler_TaskCallbackForm(t *testing.T) {
	st := testStore(t)
	seedBuild(t, st, "b1", model.LifecycleBuildpack, true)
	h := NewStagingHandler(st, testLogger())

	body := `{"task_guid": "b1", "failed": false, "result":
		"{\"execution_metadata\":\"\",\"lifecycle_type\":\"buildpack\",\"lifecycle_metadata\":{},\"process_types\":{}}"}`
	out, err := h.Handle(context.Background(), "b1", []byte(body))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out.State != "STAGED" {
		t.Errorf("state = %q, want STAGED", out.State)
	}
}

func TestStagingHandler_FailureCallback(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		errorID string
		reason  string
	}{
		{"envelope", `{"error": {"id": "InsufficientResources", "message": "out of memory"}}`, "InsufficientResources", "out of memory"},
		{"envelope without id", `{"error": {"message": "boom"}}`, "StagingError", "boom"},
		{"task callback", `{"task_guid": "b1", "failed": true, "failure_reason": "cell died"}`, "StagingError", "cell died"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testStore(t)
			seedBuild(t, st, "b1", model.LifecycleBuildpack, true)
			h := NewStagingHandler(st, testLogger())

			out, err := h.Handle(context.Background(), "b1", []byte(tt.body))
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if !out.Failed || out.ErrorID != tt.errorID || out.Reason != tt.reason {
				t.Errorf("outcome = %+v", out)
			}
			b, _ := st.GetBuild(context.Background(), "b1")
			if b.State != model.BuildStateFailed || b.ErrorID != tt.errorID {
				t.Errorf("build = %s/%s", b.State, b.ErrorID)
			}
		})
	}
}

func TestStagingHandler_MissingArtifact(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		withDroplet bool
	}{
		{"result omitted", `{}`, true},
		{"result null", `{"result": null}`, true},
		{"empty task result", `{"task_guid": "b1", "failed": false, "result": ""}`, true},
		{"droplet record missing", buildpackResult, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testStore(t)
			seedBuild(t, st, "b1", model.LifecycleBuildpack, tt.withDroplet)
			h := NewStagingHandler(st, testLogger())

			out, err := h.Handle(context.Background(), "b1", []byte(tt.body))
			if err != nil {
				t.Fatalf("Handle returned error %v, want recorded failure", err)
			}
			if !out.Failed || out.Reason != MissingDropletMessage || out.ErrorID != model.StagingErrorID {
				t.Errorf("outcome = %+v", out)
			}
			b, _ := st.GetBuild(context.Background(), "b1")
			if b.State != model.BuildStateFailed {
				t.Errorf("build state = %q, want FAILED", b.State)
			}
		})
	}
}

func TestStagingHandler_SchemaMismatch(t *testing.T) {
	tests := []struct {
		name  string
		kind  string
		body  string
		field string
	}{
		{"not json", model.LifecycleBuildpack, `{`, ""},
		{"missing execution_metadata", model.LifecycleBuildpack,
			`{"result": {"lifecycle_type": "buildpack", "lifecycle_metadata": {}, "process_types": {}}}`, "result.execution_metadata"},
		{"wrong lifecycle", model.LifecycleBuildpack,
			`{"result": {"execution_metadata": "", "lifecycle_type": "cnb", "lifecycle_metadata": {}, "process_types": {}}}`, "result.lifecycle_type"},
		{"missing lifecycle_metadata", model.LifecycleCNB,
			`{"result": {"execution_metadata": "", "lifecycle_type": "cnb", "process_types": {}}}`, "result.lifecycle_metadata"},
		{"process_types not strings", model.LifecycleBuildpack,
			`{"result": {"execution_metadata": "", "lifecycle_type": "buildpack", "lifecycle_metadata": {}, "process_types": {"web": 1}}}`, "result.process_types"},
		{"buildpack_key not string", model.LifecycleBuildpack,
			`{"result": {"execution_metadata": "", "lifecycle_type": "buildpack", "lifecycle_metadata": {"buildpack_key": 7}, "process_types": {}}}`, "result.lifecycle_metadata.buildpack_key"},
		{"result not object", model.LifecycleBuildpack, `{"result": 42}`, "result"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testStore(t)
			seedBuild(t, st, "b1", tt.kind, true)
			h := NewStagingHandler(st, testLogger())

			out, err := h.Handle(context.Background(), "b1", []byte(tt.body))
			var invalid *InvalidCallbackPayloadError
			if !errors.As(err, &invalid) {
				t.Fatalf("err = %v, want InvalidCallbackPayloadError", err)
			}
			if !strings.HasPrefix(invalid.Field, tt.field) {
				t.Errorf("field = %q, want %q", invalid.Field, tt.field)
			}
			if out == nil || !out.Failed || out.Reason != MalformedMessage {
				t.Errorf("outcome = %+v", out)
			}
			b, _ := st.GetBuild(context.Background(), "b1")
			if b.State != model.BuildStateFailed {
				t.Errorf("build state = %q, want FAILED", b.State)
			}
		})
	}
}

func TestStagingHandler_UnknownBuild(t *testing.T) {
	h := NewStagingHandler(testStore(t), testLogger())
	_, err := h.Handle(context.Background(), "nope", []byte(buildpackResult))
	if !errors.Is(err, ErrBuildNotFound) {
		t.Errorf("err = %v, want ErrBuildNotFound", err)
	}
}

func TestStagingHandler_AlreadyCompleted(t *testing.T) {
	st := testStore(t)
	seedBuild(t, st, "b1", model.LifecycleBuildpack, true)
	h := NewStagingHandler(st, testLogger())
	ctx := context.Background()

	if _, err := h.Handle(ctx, "b1", []byte(buildpackResult)); err != nil {
		t.Fatal(err)
	}
	out, err := h.Handle(ctx, "b1", []byte(`{"error": {"id": "StagingError", "message": "late"}}`))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if out.State != "STAGED" || out.Failed {
		t.Errorf("outcome = %+v, want unchanged STAGED", out)
	}
}

func seedTask(t *testing.T, st *store.SQLiteStore, id string) {
	t.Helper()
	now := time.Now().UTC()
	if err := st.CreateTask(context.Background(), &model.Task{ID: id, Name: "migrate", Command: "rake", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
}

func TestTaskHandler(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		state   model.TaskState
		reason  string
		invalid bool
	}{
		{"success", `{"task_guid": "t1", "failed": false, "result": "ok"}`, model.TaskStateSucceeded, "", false},
		{"failure", `{"task_guid": "t1", "failed": true, "failure_reason": "exit status 2"}`, model.TaskStateFailed, "exit status 2", false},
		{"wrong guid", `{"task_guid": "t2", "failed": false}`, model.TaskStateFailed, "Malformed message from Diego", true},
		{"not json", `nope`, model.TaskStateFailed, "Malformed message from Diego", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testStore(t)
			seedTask(t, st, "t1")
			h := NewTaskHandler(st, testLogger())

			out, err := h.Handle(context.Background(), "t1", []byte(tt.body))
			var invalid *InvalidCallbackPayloadError
			if got := errors.As(err, &invalid); got != tt.invalid {
				t.Fatalf("err = %v, invalid = %v", err, tt.invalid)
			}
			if out.State != tt.state.String() || out.Reason != tt.reason {
				t.Errorf("outcome = %+v", out)
			}
			task, _ := st.GetTask(context.Background(), "t1")
			if task.State != tt.state {
				t.Errorf("stored state = %q, want %q", task.State, tt.state)
			}
		})
	}
}

func TestTaskHandler_UnknownTask(t *testing.T) {
	h := NewTaskHandler(testStore(t), testLogger())
	_, err := h.Handle(context.Background(), "nope", []byte(`{}`))
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
}
