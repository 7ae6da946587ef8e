package bbs

import "fmt"

// EnvironmentVariable is a single name=value pair. Order is significant.
type EnvironmentVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ResourceLimits constrains processes started by a RunAction.
type ResourceLimits struct {
	Nofile *uint64 `json:"nofile,omitempty"`
}

// CachedDependency is fetched once per cell and shared by CacheKey.
type CachedDependency struct {
	Name              string `json:"name,omitempty"`
	From              string `json:"from"`
	To                string `json:"to"`
	CacheKey          string `json:"cache_key"`
	LogSource         string `json:"log_source,omitempty"`
	ChecksumAlgorithm string `json:"checksum_algorithm,omitempty"`
	ChecksumValue     string `json:"checksum_value,omitempty"`
}

// LayerType says whether an image layer may be shared between containers.
type LayerType int32

const (
	LayerTypeInvalid LayerType = iota
	LayerTypeShared
	LayerTypeExclusive
)

func (t LayerType) String() string {
	switch t {
	case LayerTypeShared:
		return "SHARED"
	case LayerTypeExclusive:
		return "EXCLUSIVE"
	}
	return "INVALID"
}

func (t LayerType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// MediaType is the archive format of an image layer.
type MediaType int32

const (
	MediaTypeInvalid MediaType = iota
	MediaTypeTGZ
	MediaTypeTAR
	MediaTypeZIP
)

func (t MediaType) String() string {
	switch t {
	case MediaTypeTGZ:
		return "TGZ"
	case MediaTypeTAR:
		return "TAR"
	case MediaTypeZIP:
		return "ZIP"
	}
	return "INVALID"
}

func (t MediaType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// DigestAlgorithm identifies the hash used to verify an image layer.
type DigestAlgorithm int32

const (
	DigestAlgorithmInvalid DigestAlgorithm = iota
	DigestAlgorithmSHA256
	DigestAlgorithmSHA512
)

func (a DigestAlgorithm) String() string {
	switch a {
	case DigestAlgorithmSHA256:
		return "SHA256"
	case DigestAlgorithmSHA512:
		return "SHA512"
	}
	return "INVALID"
}

func (a DigestAlgorithm) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// ImageLayer is delivered by the container runtime before any action runs.
type ImageLayer struct {
	Name            string          `json:"name,omitempty"`
	URL             string          `json:"url"`
	DestinationPath string          `json:"destination_path"`
	LayerType       LayerType       `json:"layer_type"`
	MediaType       MediaType       `json:"media_type"`
	DigestAlgorithm DigestAlgorithm `json:"digest_algorithm,omitempty"`
	DigestValue     string          `json:"digest_value,omitempty"`
}

// ErrorType mirrors the scheduler's error classification.
type ErrorType int32

const (
	ErrorTypeUnknown                ErrorType = 0
	ErrorTypeInvalidRecord          ErrorType = 3
	ErrorTypeInvalidRequest         ErrorType = 4
	ErrorTypeInvalidResponse        ErrorType = 5
	ErrorTypeInvalidProtobufMessage ErrorType = 6
	ErrorTypeResourceConflict       ErrorType = 11
	ErrorTypeResourceExists         ErrorType = 12
	ErrorTypeResourceNotFound       ErrorType = 13
	ErrorTypeDeadlock               ErrorType = 28
	ErrorTypeUnrecoverable          ErrorType = 29
	ErrorTypeTimeout                ErrorType = 31
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeInvalidRecord:
		return "InvalidRecord"
	case ErrorTypeInvalidRequest:
		return "InvalidRequest"
	case ErrorTypeInvalidResponse:
		return "InvalidResponse"
	case ErrorTypeInvalidProtobufMessage:
		return "InvalidProtobufMessage"
	case ErrorTypeResourceConflict:
		return "ResourceConflict"
	case ErrorTypeResourceExists:
		return "ResourceExists"
	case ErrorTypeResourceNotFound:
		return "ResourceNotFound"
	case ErrorTypeDeadlock:
		return "Deadlock"
	case ErrorTypeUnrecoverable:
		return "Unrecoverable"
	case ErrorTypeTimeout:
		return "Timeout"
	}
	return "UnknownError"
}

// Error is the application-level error carried inside BBS responses.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// TaskDefinition describes a one-shot container: staging builds and tasks.
type TaskDefinition struct {
	RootFs                string                 `json:"rootfs"`
	EnvironmentVariables  []*EnvironmentVariable `json:"env,omitempty"`
	Action                *Action                `json:"action"`
	DiskMb                int32                  `json:"disk_mb"`
	MemoryMb              int32                  `json:"memory_mb"`
	CpuWeight             uint32                 `json:"cpu_weight,omitempty"`
	Privileged            bool                   `json:"privileged"`
	LogSource             string                 `json:"log_source,omitempty"`
	LogGuid               string                 `json:"log_guid,omitempty"`
	MetricsGuid           string                 `json:"metrics_guid,omitempty"`
	ResultFile            string                 `json:"result_file,omitempty"`
	CompletionCallbackUrl string                 `json:"completion_callback_url,omitempty"`
	Annotation            string                 `json:"annotation,omitempty"`
	CachedDependencies    []*CachedDependency    `json:"cached_dependencies,omitempty"`
	LegacyDownloadUser    string                 `json:"legacy_download_user,omitempty"`
	PlacementTags         []string               `json:"placement_tags,omitempty"`
	MaxPids               int32                  `json:"max_pids,omitempty"`
	ImageLayers           []*ImageLayer          `json:"image_layers,omitempty"`
}

// TaskState is the scheduler-side state of a task.
type TaskState int32

const (
	TaskStateInvalid TaskState = iota
	TaskStatePending
	TaskStateRunning
	TaskStateCompleted
	TaskStateResolving
)

func (s TaskState) String() string {
	switch s {
	case TaskStatePending:
		return "Pending"
	case TaskStateRunning:
		return "Running"
	case TaskStateCompleted:
		return "Completed"
	case TaskStateResolving:
		return "Resolving"
	}
	return "Invalid"
}

func (s TaskState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Task is a desired task together with its runtime state.
type Task struct {
	TaskDefinition *TaskDefinition `json:"task_definition,omitempty"`
	TaskGuid       string          `json:"task_guid"`
	Domain         string          `json:"domain"`
	CreatedAt      int64           `json:"created_at,omitempty"`
	UpdatedAt      int64           `json:"updated_at,omitempty"`
	State          TaskState       `json:"state"`
	CellId         string          `json:"cell_id,omitempty"`
	Result         string          `json:"result,omitempty"`
	Failed         bool            `json:"failed"`
	FailureReason  string          `json:"failure_reason,omitempty"`
}

// DesiredLRP describes a supervised, restart-on-failure process.
type DesiredLRP struct {
	ProcessGuid          string                 `json:"process_guid"`
	Domain               string                 `json:"domain"`
	RootFs               string                 `json:"rootfs"`
	Instances            int32                  `json:"instances"`
	EnvironmentVariables []*EnvironmentVariable `json:"env,omitempty"`
	Setup                *Action                `json:"setup,omitempty"`
	Action               *Action                `json:"action"`
	Monitor              *Action                `json:"monitor,omitempty"`
	DiskMb               int32                  `json:"disk_mb"`
	MemoryMb             int32                  `json:"memory_mb"`
	CpuWeight            uint32                 `json:"cpu_weight,omitempty"`
	Privileged           bool                   `json:"privileged"`
	Ports                []uint32               `json:"ports,omitempty"`
	LogSource            string                 `json:"log_source,omitempty"`
	LogGuid              string                 `json:"log_guid,omitempty"`
	MetricsGuid          string                 `json:"metrics_guid,omitempty"`
	Annotation           string                 `json:"annotation,omitempty"`
	CachedDependencies   []*CachedDependency    `json:"cached_dependencies,omitempty"`
	LegacyDownloadUser   string                 `json:"legacy_download_user,omitempty"`
	StartTimeoutMs       int64                  `json:"start_timeout_ms,omitempty"`
	PlacementTags        []string               `json:"placement_tags,omitempty"`
	MaxPids              int32                  `json:"max_pids,omitempty"`
	ImageLayers          []*ImageLayer          `json:"image_layers,omitempty"`
}

// DesiredLRPUpdate changes the mutable fields of a DesiredLRP.
// Nil fields are left untouched by the scheduler.
type DesiredLRPUpdate struct {
	Instances  *int32  `json:"instances,omitempty"`
	Annotation *string `json:"annotation,omitempty"`
}

// DesiredLRPKey identifies a DesiredLRP.
type DesiredLRPKey struct {
	ProcessGuid string `json:"process_guid"`
	Domain      string `json:"domain"`
	LogGuid     string `json:"log_guid,omitempty"`
}

// DesiredLRPSchedulingInfo is the light-weight view of a DesiredLRP.
type DesiredLRPSchedulingInfo struct {
	DesiredLRPKey *DesiredLRPKey `json:"desired_lrp_key"`
	Annotation    string         `json:"annotation,omitempty"`
	Instances     int32          `json:"instances"`
}

// ActualLRPKey identifies one instance slot of a DesiredLRP.
type ActualLRPKey struct {
	ProcessGuid string `json:"process_guid"`
	Index       int32  `json:"index"`
	Domain      string `json:"domain"`
}

// ActualLRPInstanceKey identifies the container running an instance.
type ActualLRPInstanceKey struct {
	InstanceGuid string `json:"instance_guid"`
	CellId       string `json:"cell_id"`
}

// ActualLRP is the observed state of a single instance.
type ActualLRP struct {
	ActualLRPKey         *ActualLRPKey         `json:"actual_lrp_key"`
	ActualLRPInstanceKey *ActualLRPInstanceKey `json:"actual_lrp_instance_key,omitempty"`
	CrashCount           int32                 `json:"crash_count,omitempty"`
	CrashReason          string                `json:"crash_reason,omitempty"`
	State                string                `json:"state"`
	PlacementError       string                `json:"placement_error,omitempty"`
	Since                int64                 `json:"since,omitempty"`
}
