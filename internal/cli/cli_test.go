package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/me/diegobridge/internal/logging"
	"github.com/me/diegobridge/internal/store"
	"github.com/me/diegobridge/pkg/bbs"
	"github.com/me/diegobridge/pkg/model"
)

// fakeBBS decodes protobuf requests and answers from per-route handlers.
type fakeBBS struct {
	t        *testing.T
	mu       sync.Mutex
	routes   []string
	requests map[string][]byte
	replies  map[string]func(body []byte) bbs.Message
}

func newFakeBBS(t *testing.T) (*fakeBBS, *httptest.Server) {
	f := &fakeBBS{
		t:        t,
		requests: make(map[string][]byte),
		replies:  make(map[string]func([]byte) bbs.Message),
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeBBS) on(route string, reply func(body []byte) bbs.Message) {
	f.replies[route] = reply
}

func (f *fakeBBS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.routes = append(f.routes, r.URL.Path)
	f.requests[r.URL.Path] = body
	reply, ok := f.replies[r.URL.Path]
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	out, err := bbs.Marshal(reply(body))
	if err != nil {
		f.t.Errorf("marshal reply: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", bbs.ContentType)
	w.Write(out)
}

func (f *fakeBBS) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.routes...)
}

func (f *fakeBBS) request(route string, into bbs.Message) {
	f.t.Helper()
	f.mu.Lock()
	body := f.requests[route]
	f.mu.Unlock()
	if err := bbs.Unmarshal(body, into); err != nil {
		f.t.Fatalf("decode %s request: %v", route, err)
	}
}

type env struct {
	dir    string
	config string
	db     string
}

func newEnv(t *testing.T, bbsURL string) env {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	e := env{
		dir:    dir,
		config: filepath.Join(dir, "config.yaml"),
		db:     filepath.Join(dir, "bridge.db"),
	}
	cfg := "db_path: " + e.db + "\n" +
		"log_level: error\n" +
		"diego:\n" +
		"  bbs:\n" +
		"    url: " + bbsURL + "\n"
	if err := os.WriteFile(e.config, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return e
}

func (e env) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, e env, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func openStore(t *testing.T, e env) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLiteStore(e.db, logging.Discard())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

const stagingRequest = `
staging_guid: build-1
app_guid: app-1
package_guid: pkg-1
droplet_guid: droplet-1
package_uri: http://blobs.example.com/packages/pkg-1
droplet_upload_uri: http://blobs.example.com/droplets/droplet-1
buildpacks:
  - name: ruby_buildpack
    key: ruby-key
    url: http://blobs.example.com/buildpacks/ruby.zip
    sha256: abc123
environment:
  ZED: last
  ALPHA: first
`

func TestPing(t *testing.T) {
	fake, srv := newFakeBBS(t)
	fake.on(bbs.PingRoute, func([]byte) bbs.Message { return &bbs.PingResponse{Available: true} })
	e := newEnv(t, srv.URL)

	out, err := run(t, e, "ping")
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if !strings.Contains(out, "BBS is available") {
		t.Errorf("output = %q", out)
	}
}

func TestPing_Unavailable(t *testing.T) {
	fake, srv := newFakeBBS(t)
	fake.on(bbs.PingRoute, func([]byte) bbs.Message { return &bbs.PingResponse{} })
	e := newEnv(t, srv.URL)

	if _, err := run(t, e, "ping"); err == nil {
		t.Fatal("expected error when bbs reports unavailable")
	}
}

func TestDomainUpsert(t *testing.T) {
	fake, srv := newFakeBBS(t)
	fake.on(bbs.UpsertDomainRoute, func([]byte) bbs.Message { return &bbs.UpsertDomainResponse{} })
	e := newEnv(t, srv.URL)

	if _, err := run(t, e, "domain", "upsert", "cf-apps", "--ttl", "90s"); err != nil {
		t.Fatalf("domain upsert: %v", err)
	}
	var req bbs.UpsertDomainRequest
	fake.request(bbs.UpsertDomainRoute, &req)
	if req.Domain != "cf-apps" || req.Ttl != 90 {
		t.Errorf("request = %+v, want cf-apps/90", req)
	}
}

func TestStage_DryRun(t *testing.T) {
	fake, srv := newFakeBBS(t)
	e := newEnv(t, srv.URL)
	path := e.write(t, "staging.yaml", stagingRequest)

	out, err := run(t, e, "stage", path, "--dry-run")
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	var req bbs.DesireTaskRequest
	if err := json.Unmarshal([]byte(out), &req); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if req.TaskGuid != "build-1" || req.Domain != "cf-app-staging" {
		t.Errorf("task = %s/%s", req.TaskGuid, req.Domain)
	}
	if req.TaskDefinition == nil || req.TaskDefinition.CompletionCallbackUrl == "" {
		t.Fatalf("missing completion callback: %+v", req.TaskDefinition)
	}
	if len(fake.called()) != 0 {
		t.Errorf("dry run contacted the bbs: %v", fake.called())
	}
	if _, err := os.Stat(e.db); !os.IsNotExist(err) {
		t.Errorf("dry run created the database")
	}
}

func TestStage_DesiresAndRecords(t *testing.T) {
	fake, srv := newFakeBBS(t)
	fake.on(bbs.DesireTaskRoute, func([]byte) bbs.Message { return &bbs.TaskLifecycleResponse{} })
	e := newEnv(t, srv.URL)
	path := e.write(t, "staging.yaml", stagingRequest)

	if _, err := run(t, e, "stage", path); err != nil {
		t.Fatalf("stage: %v", err)
	}

	var req bbs.DesireTaskRequest
	fake.request(bbs.DesireTaskRoute, &req)
	if req.TaskGuid != "build-1" {
		t.Errorf("desired task guid = %q", req.TaskGuid)
	}

	ctx := context.Background()
	st := openStore(t, e)
	build, err := st.GetBuild(ctx, "build-1")
	if err != nil || build == nil {
		t.Fatalf("GetBuild: %v, %v", build, err)
	}
	if build.State != model.BuildStateStaging || build.LifecycleType != "buildpack" || build.Stack != "cflinuxfs4" {
		t.Errorf("build = %+v", build)
	}
	droplet, err := st.GetDropletByBuild(ctx, "build-1")
	if err != nil || droplet == nil {
		t.Fatalf("GetDropletByBuild: %v, %v", droplet, err)
	}
	if droplet.ID != "droplet-1" || droplet.State != model.DropletStateStaging {
		t.Errorf("droplet = %+v", droplet)
	}
}

func TestStage_DesireFailureFailsBuild(t *testing.T) {
	fake, srv := newFakeBBS(t)
	fake.on(bbs.DesireTaskRoute, func([]byte) bbs.Message {
		return &bbs.TaskLifecycleResponse{Error: &bbs.Error{Type: bbs.ErrorTypeInvalidRequest, Message: "bad rootfs"}}
	})
	e := newEnv(t, srv.URL)
	path := e.write(t, "staging.yaml", stagingRequest)

	if _, err := run(t, e, "stage", path); err == nil {
		t.Fatal("expected desire error")
	}

	build, err := openStore(t, e).GetBuild(context.Background(), "build-1")
	if err != nil || build == nil {
		t.Fatalf("GetBuild: %v, %v", build, err)
	}
	if build.State != model.BuildStateFailed || build.ErrorID != model.StagingErrorID {
		t.Errorf("build = %+v, want FAILED/StagingError", build)
	}
	if !strings.Contains(build.ErrorDescription, "bad rootfs") {
		t.Errorf("error description = %q", build.ErrorDescription)
	}
}

func TestStage_RequiresURIsWithoutBlobstore(t *testing.T) {
	_, srv := newFakeBBS(t)
	e := newEnv(t, srv.URL)
	path := e.write(t, "staging.yaml", "app_guid: app-1\npackage_guid: pkg-1\n")

	_, err := run(t, e, "stage", path, "--dry-run")
	if err == nil || !strings.Contains(err.Error(), "package_uri") {
		t.Fatalf("err = %v, want package_uri error", err)
	}
}

func TestTaskRun_Records(t *testing.T) {
	fake, srv := newFakeBBS(t)
	fake.on(bbs.DesireTaskRoute, func([]byte) bbs.Message { return &bbs.TaskLifecycleResponse{} })
	e := newEnv(t, srv.URL)
	path := e.write(t, "task.yaml", `
task_guid: task-1
app_guid: app-1
name: migrate
command: bin/rake db:migrate
droplet_guid: droplet-1
droplet_uri: http://blobs.example.com/droplets/droplet-1
memory_mb: 256
`)

	if _, err := run(t, e, "task", "run", path); err != nil {
		t.Fatalf("task run: %v", err)
	}
	var req bbs.DesireTaskRequest
	fake.request(bbs.DesireTaskRoute, &req)
	if req.TaskGuid != "task-1" || req.Domain != "cf-tasks" {
		t.Errorf("desired %s/%s", req.TaskGuid, req.Domain)
	}

	task, err := openStore(t, e).GetTask(context.Background(), "task-1")
	if err != nil || task == nil {
		t.Fatalf("GetTask: %v, %v", task, err)
	}
	want := &model.Task{
		ID:          "task-1",
		AppGUID:     "app-1",
		Name:        "migrate",
		Command:     "bin/rake db:migrate",
		DropletGUID: "droplet-1",
		State:       model.TaskStatePending,
		MemoryMB:    256,
	}
	got := *task
	got.DiskMB, got.CreatedAt, got.UpdatedAt = 0, want.CreatedAt, want.UpdatedAt
	if diff := cmp.Diff(want, &got); diff != "" {
		t.Errorf("task mismatch (-want +got):\n%s", diff)
	}
}

func TestTaskList(t *testing.T) {
	fake, srv := newFakeBBS(t)
	fake.on(bbs.ListTasksRoute, func([]byte) bbs.Message {
		return &bbs.TasksResponse{Tasks: []*bbs.Task{
			{TaskGuid: "task-1", Domain: "cf-tasks", State: bbs.TaskStateRunning,
				TaskDefinition: &bbs.TaskDefinition{MemoryMb: 512}},
			{TaskGuid: "task-2", Domain: "cf-tasks", State: bbs.TaskStateCompleted, Failed: true},
		}}
	})
	e := newEnv(t, srv.URL)

	out, err := run(t, e, "task", "list", "--domain", "cf-tasks")
	if err != nil {
		t.Fatalf("task list: %v", err)
	}
	for _, want := range []string{"task-1", "Running", "512 MiB", "task-2", "Failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	var req bbs.TasksRequest
	fake.request(bbs.ListTasksRoute, &req)
	if req.Domain != "cf-tasks" {
		t.Errorf("domain filter = %q", req.Domain)
	}
}

func TestLRPScale(t *testing.T) {
	fake, srv := newFakeBBS(t)
	fake.on(bbs.UpdateDesiredLRPRoute, func([]byte) bbs.Message { return &bbs.DesiredLRPLifecycleResponse{} })
	e := newEnv(t, srv.URL)

	if _, err := run(t, e, "lrp", "scale", "pg-1", "3"); err != nil {
		t.Fatalf("lrp scale: %v", err)
	}
	var req bbs.UpdateDesiredLRPRequest
	fake.request(bbs.UpdateDesiredLRPRoute, &req)
	if req.ProcessGuid != "pg-1" || req.Update == nil || req.Update.Instances == nil || *req.Update.Instances != 3 {
		t.Errorf("update = %+v", req)
	}
	if req.Update.Annotation != nil {
		t.Errorf("annotation should be unset, got %q", *req.Update.Annotation)
	}
}

func TestLRPScale_BadCount(t *testing.T) {
	fake, srv := newFakeBBS(t)
	e := newEnv(t, srv.URL)

	if _, err := run(t, e, "lrp", "scale", "pg-1", "many"); err == nil {
		t.Fatal("expected error")
	}
	if len(fake.called()) != 0 {
		t.Errorf("bbs contacted: %v", fake.called())
	}
}

func TestLRPDesire_DryRun(t *testing.T) {
	_, srv := newFakeBBS(t)
	e := newEnv(t, srv.URL)
	path := e.write(t, "lrp.yaml", `
process_guid: pg-1
droplet_uri: http://blobs.example.com/droplets/droplet-1
start_command: bundle exec rackup
instances: 2
memory_mb: 512
`)

	out, err := run(t, e, "lrp", "desire", path, "--dry-run")
	if err != nil {
		t.Fatalf("lrp desire: %v", err)
	}
	var lrp bbs.DesiredLRP
	if err := json.Unmarshal([]byte(out), &lrp); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if lrp.ProcessGuid != "pg-1" || lrp.Instances != 2 || lrp.Domain != "cf-apps" {
		t.Errorf("lrp = %s/%d/%s", lrp.ProcessGuid, lrp.Instances, lrp.Domain)
	}
}

func TestLRPRetire(t *testing.T) {
	fake, srv := newFakeBBS(t)
	fake.on(bbs.DesiredLRPByProcessGuidRoute, func([]byte) bbs.Message {
		return &bbs.DesiredLRPResponse{DesiredLRP: &bbs.DesiredLRP{ProcessGuid: "pg-1", Domain: "cf-apps"}}
	})
	fake.on(bbs.RetireActualLRPRoute, func([]byte) bbs.Message { return &bbs.ActualLRPLifecycleResponse{} })
	e := newEnv(t, srv.URL)

	if _, err := run(t, e, "lrp", "retire", "pg-1", "1"); err != nil {
		t.Fatalf("lrp retire: %v", err)
	}
	var req bbs.RetireActualLRPRequest
	fake.request(bbs.RetireActualLRPRoute, &req)
	want := &bbs.ActualLRPKey{ProcessGuid: "pg-1", Index: 1, Domain: "cf-apps"}
	if diff := cmp.Diff(want, req.ActualLRPKey); diff != "" {
		t.Errorf("retire key (-want +got):\n%s", diff)
	}
}

func TestEnvVarsSorted(t *testing.T) {
	vars := envVars(map[string]string{"B": "2", "A": "1", "C": "3"})
	var names []string
	for _, v := range vars {
		names = append(names, v.Name)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, names); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
}
