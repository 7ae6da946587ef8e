// Package lifecycle defines the capabilities every lifecycle variant
// (buildpack, cloud native buildpack) provides to the workload builders,
// plus the stack and bundle lookups they share.
package lifecycle

import (
	"time"

	"github.com/me/diegobridge/internal/assets"
	"github.com/me/diegobridge/pkg/bbs"
)

// Kind identifies a lifecycle variant.
type Kind string

const (
	KindBuildpack Kind = "buildpack"
	KindCNB       Kind = "cnb"
)

// Container paths shared by every variant.
const (
	LifecycleDir   = "/tmp/lifecycle"
	CacheDir       = "/tmp/cache"
	OutputCacheDir = "/tmp/output-cache"
	DropletPath    = "/tmp/droplet"
	ResultFile     = "/tmp/result.json"
	Launcher       = LifecycleDir + "/launcher"
	Builder        = LifecycleDir + "/builder"
	Healthcheck    = LifecycleDir + "/healthcheck"
)

// Defaults applied when a request leaves them unset.
const (
	DefaultAppPort = 8080
	DefaultLang    = "en_US.UTF-8"
)

// Progress messages around the upload group of a staging graph.
const (
	UploadStartMessage   = "Uploading droplet, build artifacts cache..."
	UploadSuccessMessage = "Uploading complete"
	UploadFailurePrefix  = "Uploading failed"
)

// Config is the read-only configuration consumed by lifecycle variants.
type Config struct {
	DeclarativeAssets   bool
	LifecycleBundles    map[string]string // "<kind>/<stack>" -> bundle
	DropletDestinations map[string]string // stack -> path
	FileServerURL       string
	CCUploaderURL       string
	StagingTimeout      time.Duration
	PrivilegedStaging   bool
	PrivilegedRunning   bool
	Stacks              *Stacks
}

// Mode returns the asset delivery mode selected by the config.
func (c Config) Mode() assets.Mode { return assets.ModeFor(c.DeclarativeAssets) }

// Assets holds the sidecar asset references of a workload.
type Assets = assets.Set

// StagingLifecycle builds the pieces of a staging task.
type StagingLifecycle interface {
	RootFS() string
	Action() *bbs.Action
	Assets() Assets
	Environment() []*bbs.EnvironmentVariable
}

// TaskLifecycle builds the pieces of a one-shot task.
type TaskLifecycle interface {
	RootFS() string
	Action() *bbs.Action
	Assets() Assets
	Environment() []*bbs.EnvironmentVariable
}

// ProcessLifecycle builds the pieces of a long-running process.
type ProcessLifecycle interface {
	RootFS() string
	Action() *bbs.Action
	Assets() Assets
	Environment() []*bbs.EnvironmentVariable
	// Setup returns nil when nothing beyond the image layers needs to be
	// placed in the container.
	Setup() *bbs.Action
	Monitor() *bbs.Action
	Ports() []uint32
	Privileged() bool
}

// Buildpack is one entry of a staging request's buildpack list.
type Buildpack struct {
	Name       string
	Key        string
	URL        string
	SHA256     string
	SkipDetect bool
	// Custom buildpacks are fetched by the builder itself and never
	// pre-staged.
	Custom bool
}

// IsCustom reports whether the buildpack is excluded from asset delivery.
func (b Buildpack) IsCustom() bool { return b.Custom || b.Name == "custom" }

// StagingRequest carries what a staging graph needs.
type StagingRequest struct {
	StagingGUID string
	Stack       string

	PackageURI      string
	PackageChecksum assets.Digest

	// Build cache checksum is a sha256 value; empty means no cache.
	BuildCacheDownloadURI string
	BuildCacheChecksum    string
	BuildCacheUploadURI   string

	DropletUploadURI string
	Buildpacks       []Buildpack
	Environment      []*bbs.EnvironmentVariable
}

// HasBuildCache reports whether cache download and upload steps apply.
func (r StagingRequest) HasBuildCache() bool {
	return r.BuildCacheDownloadURI != "" && r.BuildCacheChecksum != ""
}

// UploadsBuildCache reports whether the refreshed cache has somewhere to go.
func (r StagingRequest) UploadsBuildCache() bool {
	return r.HasBuildCache() && r.BuildCacheUploadURI != ""
}

// SkipDetect reports whether any buildpack asks to skip detection.
func (r StagingRequest) SkipDetect() bool {
	for _, bp := range r.Buildpacks {
		if bp.SkipDetect {
			return true
		}
	}
	return false
}

// TaskRequest carries what a task graph needs.
type TaskRequest struct {
	Name            string
	Command         string
	Stack           string
	DropletURI      string
	DropletChecksum assets.Digest
	Environment     []*bbs.EnvironmentVariable
}

// ProcessRequest carries what a long-running process needs.
type ProcessRequest struct {
	ProcessGUID       string
	Stack             string
	DropletURI        string
	DropletChecksum   assets.Digest
	StartCommand      string
	ExecutionMetadata string
	Ports             []uint32
	Environment       []*bbs.EnvironmentVariable
}

// PortsOrDefault returns the requested ports or the default app port.
func (r ProcessRequest) PortsOrDefault() []uint32 {
	if len(r.Ports) > 0 {
		return r.Ports
	}
	return []uint32{DefaultAppPort}
}
