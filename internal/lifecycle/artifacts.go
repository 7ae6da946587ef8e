package lifecycle

import (
	"fmt"
	"path"

	"github.com/spaolacci/murmur3"

	"github.com/me/diegobridge/internal/assets"
	"github.com/me/diegobridge/pkg/bbs"
)

// BuildpacksDir is where pre-staged buildpacks are extracted.
const BuildpacksDir = "/tmp/buildpacks"

// BuildpackPath is the directory a buildpack with the given key is
// extracted to. The builder derives the same path from the key.
func BuildpackPath(key string) string {
	return path.Join(BuildpacksDir, fmt.Sprintf("%016x", murmur3.Sum64([]byte(key))))
}

// LifecycleArtifact describes the lifecycle bundle of kind for stack.
func LifecycleArtifact(kind Kind, stack, uri string) assets.Artifact {
	name := fmt.Sprintf("%s-%s-lifecycle", kind, stack)
	return assets.Artifact{
		Name:      name,
		URI:       uri,
		Path:      LifecycleDir,
		CacheKey:  name,
		MediaType: bbs.MediaTypeTGZ,
		Scope:     assets.Reusable,
	}
}

// BuildpackArtifacts describes the pre-staged buildpacks of a staging
// request. Custom buildpacks are left out.
func BuildpackArtifacts(bps []Buildpack) []assets.Artifact {
	var out []assets.Artifact
	for _, bp := range bps {
		if bp.IsCustom() {
			continue
		}
		a := assets.Artifact{
			Name:      bp.Name,
			URI:       bp.URL,
			Path:      BuildpackPath(bp.Key),
			CacheKey:  bp.Key,
			MediaType: bbs.MediaTypeZIP,
			Scope:     assets.Reusable,
		}
		if bp.SHA256 != "" {
			a.Digest = assets.Digest{Algorithm: assets.SHA256, Value: bp.SHA256}
		}
		out = append(out, a)
	}
	return out
}

// PackageArtifact describes the application package of a staging request.
func PackageArtifact(req StagingRequest, dest, user string) assets.Artifact {
	return assets.Artifact{
		Name:      "app package",
		URI:       req.PackageURI,
		Path:      dest,
		User:      user,
		MediaType: bbs.MediaTypeZIP,
		Scope:     assets.PerBuild,
		Digest:    req.PackageChecksum,
	}
}

// BuildCacheArtifact describes the best-effort build artifacts cache.
func BuildCacheArtifact(req StagingRequest, user string) assets.Artifact {
	return assets.Artifact{
		Name:       "build artifacts cache",
		URI:        req.BuildCacheDownloadURI,
		Path:       CacheDir,
		User:       user,
		MediaType:  bbs.MediaTypeZIP,
		Scope:      assets.PerBuild,
		BestEffort: true,
		Digest:     assets.Digest{Algorithm: assets.SHA256, Value: req.BuildCacheChecksum},
	}
}

// DropletArtifact describes a staged droplet. layerPath is only consulted
// when the droplet is delivered as an image layer.
func DropletArtifact(uri string, digest assets.Digest, cacheKey, layerPath, user string) assets.Artifact {
	return assets.Artifact{
		Name:      "droplet",
		URI:       uri,
		Path:      ".",
		LayerPath: layerPath,
		CacheKey:  cacheKey,
		User:      user,
		MediaType: bbs.MediaTypeTGZ,
		Scope:     assets.PerBuild,
		Digest:    digest,
	}
}

// DropletLayerPath returns the droplet destination for stack when the
// config delivers droplets declaratively, and "" otherwise.
func (c Config) DropletLayerPath(stack string) (string, error) {
	if !c.DeclarativeAssets {
		return "", nil
	}
	return c.DropletDestination(stack)
}

// StagingUploads builds the progress-wrapped upload group of a staging
// graph: the droplet and, when the request names a cache upload target,
// the refreshed cache.
func (c Config) StagingUploads(req StagingRequest, user string) (*bbs.Action, error) {
	dropletTo, err := c.UploadURI("droplet", req.StagingGUID, "cc-droplet-upload-uri", req.DropletUploadURI)
	if err != nil {
		return nil, err
	}
	uploads := []*bbs.Action{bbs.Upload(&bbs.UploadAction{
		Artifact: "droplet",
		From:     DropletPath,
		To:       dropletTo,
		User:     user,
	})}

	if req.UploadsBuildCache() {
		cacheTo, err := c.UploadURI("build_artifacts", req.StagingGUID, "cc-build-artifacts-upload-uri", req.BuildCacheUploadURI)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, bbs.Upload(&bbs.UploadAction{
			Artifact: "build artifacts cache",
			From:     OutputCacheDir,
			To:       cacheTo,
			User:     user,
		}))
	}

	return bbs.EmitProgress(bbs.Parallel(uploads...), UploadStartMessage, UploadSuccessMessage, UploadFailurePrefix), nil
}

// Env is shorthand for an environment variable.
func Env(name, value string) *bbs.EnvironmentVariable {
	return &bbs.EnvironmentVariable{Name: name, Value: value}
}

// HealthcheckMonitor checks every port in parallel.
func HealthcheckMonitor(ports []uint32, user string) *bbs.Action {
	checks := make([]*bbs.Action, 0, len(ports))
	for _, p := range ports {
		checks = append(checks, bbs.Run(&bbs.RunAction{
			Path:              Healthcheck,
			Args:              []string{fmt.Sprintf("-port=%d", p)},
			User:              user,
			LogSource:         "HEALTH",
			SuppressLogOutput: true,
		}))
	}
	return bbs.Parallel(checks...)
}

// Deliveries counts how many times each artifact source URI is delivered
// across the download steps of the given graphs and the sidecar references
// in a. Display names come from requests and may repeat, so they are not
// used. Uploads are not deliveries.
func Deliveries(a Assets, graphs ...*bbs.Action) map[string]int {
	counts := make(map[string]int)
	for _, g := range graphs {
		g.Walk(func(n *bbs.Action) {
			if n.DownloadAction != nil {
				counts[n.DownloadAction.From]++
			}
		})
	}
	for _, d := range a.CachedDependencies {
		counts[d.From]++
	}
	for _, l := range a.ImageLayers {
		counts[l.URL]++
	}
	return counts
}
