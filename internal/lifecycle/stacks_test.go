package lifecycle

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testStacks() *Stacks {
	return NewStacks([]Stack{
		{Name: "cflinuxfs4", BuildRootFSImage: "cflinuxfs4-build"},
		{Name: "cflinuxfs3"},
	}, "cflinuxfs4")
}

func TestStacks_Lookup(t *testing.T) {
	s := testStacks()

	st, err := s.Lookup("cflinuxfs4")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got := st.BuildRootFS(); got != "preloaded:cflinuxfs4-build" {
		t.Errorf("BuildRootFS = %q, want preloaded:cflinuxfs4-build", got)
	}
	if got := st.RunRootFS(); got != "preloaded:cflinuxfs4" {
		t.Errorf("RunRootFS = %q, want preloaded:cflinuxfs4", got)
	}

	def, err := s.Lookup("")
	if err != nil {
		t.Fatalf("Lookup default: %v", err)
	}
	if def.Name != "cflinuxfs4" {
		t.Errorf("default = %q, want cflinuxfs4", def.Name)
	}
}

func TestStacks_LookupUnknown(t *testing.T) {
	_, err := testStacks().Lookup("windows")
	var use *UnresolvableStackError
	if !errors.As(err, &use) {
		t.Fatalf("error = %v, want *UnresolvableStackError", err)
	}
	if use.Stack != "windows" {
		t.Errorf("Stack = %q, want windows", use.Stack)
	}

	var nilStacks *Stacks
	if _, err := nilStacks.Lookup("x"); !errors.As(err, &use) {
		t.Errorf("nil stacks error = %v, want *UnresolvableStackError", err)
	}
}

func TestBundleURI(t *testing.T) {
	tests := []struct {
		bundle string
		want   string
	}{
		{"buildpack_app_lifecycle/buildpack_app_lifecycle.tgz", "http://fs.internal:8080/v1/static/buildpack_app_lifecycle/buildpack_app_lifecycle.tgz"},
		{"/abs/lifecycle.tgz", "http://fs.internal:8080/v1/static/abs/lifecycle.tgz"},
		{"https://storage.example.com/lifecycle.tgz", "https://storage.example.com/lifecycle.tgz"},
	}
	for _, tt := range tests {
		got, err := BundleURI(tt.bundle, "http://fs.internal:8080")
		if err != nil {
			t.Fatalf("BundleURI(%q): %v", tt.bundle, err)
		}
		if got != tt.want {
			t.Errorf("BundleURI(%q) = %q, want %q", tt.bundle, got, tt.want)
		}
	}
}

func TestConfig_LifecycleBundle(t *testing.T) {
	cfg := Config{
		LifecycleBundles: map[string]string{"buildpack/cflinuxfs4": "lc.tgz"},
		FileServerURL:    "http://fs",
	}
	got, err := cfg.LifecycleBundle(KindBuildpack, "cflinuxfs4")
	if err != nil {
		t.Fatalf("LifecycleBundle: %v", err)
	}
	if got != "http://fs/v1/static/lc.tgz" {
		t.Errorf("uri = %q", got)
	}

	_, err = cfg.LifecycleBundle(KindCNB, "cflinuxfs4")
	var use *UnresolvableStackError
	if !errors.As(err, &use) {
		t.Errorf("error = %v, want *UnresolvableStackError", err)
	}
}

func TestConfig_DropletDestination(t *testing.T) {
	cfg := Config{DropletDestinations: map[string]string{"cflinuxfs4": "/home/vcap"}}
	if got, err := cfg.DropletDestination("cflinuxfs4"); err != nil || got != "/home/vcap" {
		t.Errorf("DropletDestination = %q, %v", got, err)
	}
	var use *UnresolvableStackError
	if _, err := cfg.DropletDestination("other"); !errors.As(err, &use) {
		t.Errorf("error = %v, want *UnresolvableStackError", err)
	}
}

func TestConfig_UploadURI(t *testing.T) {
	cfg := Config{CCUploaderURL: "http://cc-uploader:9090", StagingTimeout: 15 * time.Minute}
	got, err := cfg.UploadURI("droplet", "s-1", "cc-droplet-upload-uri", "http://cc/droplets/d1/upload")
	if err != nil {
		t.Fatalf("UploadURI: %v", err)
	}
	want := "http://cc-uploader:9090/v1/droplet/s-1?cc-droplet-upload-uri=http%3A%2F%2Fcc%2Fdroplets%2Fd1%2Fupload&timeout=900"
	if got != want {
		t.Errorf("UploadURI = %q, want %q", got, want)
	}
}

type fakeFactory struct{ Factory }

func (fakeFactory) Kind() Kind { return KindCNB }

func TestRegistry(t *testing.T) {
	r := NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.Register(fakeFactory{})

	if _, err := r.Get(KindCNB); err != nil {
		t.Errorf("Get(cnb): %v", err)
	}
	if _, err := r.Get(KindBuildpack); err == nil {
		t.Error("expected error for unregistered kind")
	}
}

func TestBuildpack_IsCustom(t *testing.T) {
	if !(Buildpack{Name: "custom"}).IsCustom() {
		t.Error("name custom should be custom")
	}
	if !(Buildpack{Name: "https://github.com/x/y", Custom: true}).IsCustom() {
		t.Error("flagged buildpack should be custom")
	}
	if (Buildpack{Name: "ruby_buildpack"}).IsCustom() {
		t.Error("ruby_buildpack should not be custom")
	}
}
