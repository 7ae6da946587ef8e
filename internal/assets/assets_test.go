package assets

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/me/diegobridge/pkg/bbs"
)

func droplet(d Digest) Artifact {
	return Artifact{
		Name:      "droplet",
		URI:       "http://cc/droplets/d1",
		Path:      ".",
		LayerPath: "/home/vcap",
		CacheKey:  "droplets-pg",
		User:      "vcap",
		MediaType: bbs.MediaTypeTGZ,
		Scope:     PerBuild,
		Digest:    d,
	}
}

func lifecycleBundle(d Digest) Artifact {
	return Artifact{
		Name:      "buildpack-cflinuxfs4-lifecycle",
		URI:       "http://fs/v1/static/lifecycle.tgz",
		Path:      "/tmp/lifecycle",
		CacheKey:  "buildpack-cflinuxfs4-lifecycle",
		MediaType: bbs.MediaTypeTGZ,
		Scope:     Reusable,
		Digest:    d,
	}
}

func TestResolve_StrategyTable(t *testing.T) {
	strong := Digest{Algorithm: SHA256, Value: "abc"}
	weak := Digest{Algorithm: "sha1", Value: "abc"}

	tests := []struct {
		name     string
		artifact Artifact
		mode     Mode
		want     string
	}{
		{"legacy per-build", droplet(strong), Legacy, "step"},
		{"legacy per-build no digest", droplet(Digest{}), Legacy, "step"},
		{"legacy reusable", lifecycleBundle(Digest{}), Legacy, "cached_dependency"},
		{"declarative per-build strong", droplet(strong), Declarative, "image_layer"},
		{"declarative per-build weak", droplet(weak), Declarative, "step"},
		{"declarative per-build none", droplet(Digest{}), Declarative, "step"},
		{"declarative reusable strong", lifecycleBundle(strong), Declarative, "image_layer"},
		{"declarative reusable none", lifecycleBundle(Digest{}), Declarative, "image_layer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				d, err := Resolve(tt.artifact, tt.mode)
				if err != nil {
					t.Fatalf("Resolve: %v", err)
				}
				if got := d.Kind(); got != tt.want {
					t.Fatalf("attempt %d: kind = %q, want %q", i, got, tt.want)
				}
				set := 0
				if d.Step != nil {
					set++
				}
				if d.CachedDependency != nil {
					set++
				}
				if d.Layer != nil {
					set++
				}
				if set != 1 {
					t.Fatalf("delivery sets %d strategies, want 1", set)
				}
			}
		})
	}
}

func TestResolve_IncompleteDigest(t *testing.T) {
	for _, d := range []Digest{{Algorithm: SHA256}, {Value: "abc"}} {
		_, err := Resolve(droplet(d), Declarative)
		if !errors.Is(err, ErrIncompleteDigest) {
			t.Errorf("Resolve(%+v) error = %v, want ErrIncompleteDigest", d, err)
		}
	}
}

func TestResolve_ExclusiveLayerCarriesDigest(t *testing.T) {
	d, err := Resolve(droplet(Digest{Algorithm: SHA256, Value: "abc"}), Declarative)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := &bbs.ImageLayer{
		Name:            "droplet",
		URL:             "http://cc/droplets/d1",
		DestinationPath: "/home/vcap",
		LayerType:       bbs.LayerTypeExclusive,
		MediaType:       bbs.MediaTypeTGZ,
		DigestAlgorithm: bbs.DigestAlgorithmSHA256,
		DigestValue:     "abc",
	}
	if diff := cmp.Diff(want, d.Layer); diff != "" {
		t.Errorf("layer mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_SharedLayerWithoutDigest(t *testing.T) {
	d, err := Resolve(lifecycleBundle(Digest{}), Declarative)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if d.Layer.LayerType != bbs.LayerTypeShared {
		t.Errorf("LayerType = %v, want SHARED", d.Layer.LayerType)
	}
	if d.Layer.DigestAlgorithm != bbs.DigestAlgorithmInvalid || d.Layer.DigestValue != "" {
		t.Errorf("digest = %v/%q, want none", d.Layer.DigestAlgorithm, d.Layer.DigestValue)
	}
	if d.Layer.DestinationPath != "/tmp/lifecycle" {
		t.Errorf("DestinationPath = %q, want /tmp/lifecycle", d.Layer.DestinationPath)
	}
}

func TestResolve_BestEffortWrappedInTry(t *testing.T) {
	cache := Artifact{
		Name: "build artifacts cache", URI: "http://cc/cache", Path: "/tmp/cache",
		User: "vcap", Scope: PerBuild, BestEffort: true,
		Digest: Digest{Algorithm: SHA256, Value: "c"},
	}
	d, err := Resolve(cache, Legacy)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if d.Step == nil || d.Step.TryAction == nil {
		t.Fatalf("step = %+v, want try", d.Step)
	}
	dl := d.Step.TryAction.Action.DownloadAction
	if dl == nil || dl.To != "/tmp/cache" || dl.ChecksumValue != "c" {
		t.Errorf("inner download = %+v", dl)
	}
}

func TestSet_Add(t *testing.T) {
	var s Set
	step, err := s.Resolve(droplet(Digest{}), Legacy)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if step == nil {
		t.Fatal("expected explicit step for legacy droplet")
	}
	step, err = s.Resolve(lifecycleBundle(Digest{}), Legacy)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if step != nil {
		t.Errorf("cached dependency returned a step: %+v", step)
	}
	if len(s.CachedDependencies) != 1 || len(s.ImageLayers) != 0 {
		t.Errorf("set = %d deps, %d layers; want 1, 0", len(s.CachedDependencies), len(s.ImageLayers))
	}
}

func TestModeFor(t *testing.T) {
	if ModeFor(true) != Declarative || ModeFor(false) != Legacy {
		t.Error("ModeFor mapping wrong")
	}
	if Declarative.String() != "declarative" {
		t.Errorf("String() = %q", Declarative.String())
	}
}
