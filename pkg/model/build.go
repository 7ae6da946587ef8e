package model

import "time"

// Lifecycle kinds a build can be staged with.
const (
	LifecycleBuildpack = "buildpack"
	LifecycleCNB       = "cnb"
)

// StagingErrorID is the failure reason recorded when the scheduler does not
// supply one of its own.
const StagingErrorID = "StagingError"

// Build is one staging run of an app package.
type Build struct {
	ID               string     `json:"id"`
	AppGUID          string     `json:"app_guid"`
	PackageGUID      string     `json:"package_guid"`
	LifecycleType    string     `json:"lifecycle_type"`
	Stack            string     `json:"stack,omitempty"`
	State            BuildState `json:"state"`
	ErrorID          string     `json:"error_id,omitempty"`
	ErrorDescription string     `json:"error_description,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Droplet is the runnable artifact a build produces.
type Droplet struct {
	ID                string            `json:"id"`
	BuildID           string            `json:"build_id"`
	AppGUID           string            `json:"app_guid"`
	State             DropletState      `json:"state"`
	LifecycleType     string            `json:"lifecycle_type"`
	ExecutionMetadata string            `json:"execution_metadata,omitempty"`
	ProcessTypes      map[string]string `json:"process_types,omitempty"`
	BuildpackKey      string            `json:"buildpack_key,omitempty"`
	DetectedBuildpack string            `json:"detected_buildpack,omitempty"`
	Buildpacks        []BuildpackInfo   `json:"buildpacks,omitempty"`
	ErrorDescription  string            `json:"error_description,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// BuildpackInfo describes one buildpack that took part in staging.
type BuildpackInfo struct {
	Key     string `json:"key,omitempty"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// LifecycleMetadata is what the lifecycle reports about how it staged.
type LifecycleMetadata struct {
	BuildpackKey      string          `json:"buildpack_key,omitempty"`
	DetectedBuildpack string          `json:"detected_buildpack,omitempty"`
	Buildpacks        []BuildpackInfo `json:"buildpacks,omitempty"`
}

// StagingResult is the validated success payload of a staging callback.
type StagingResult struct {
	ExecutionMetadata string            `json:"execution_metadata"`
	ProcessTypes      map[string]string `json:"process_types"`
	LifecycleType     string            `json:"lifecycle_type"`
	LifecycleMetadata LifecycleMetadata `json:"lifecycle_metadata"`
}
