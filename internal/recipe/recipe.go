// Package recipe turns lifecycle builders and request details into the
// task definitions and desired LRPs submitted to the BBS.
package recipe

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/me/diegobridge/internal/lifecycle"
	"github.com/me/diegobridge/pkg/bbs"
)

// Scheduler domains.
const (
	StagingDomain = "cf-app-staging"
	TaskDomain    = "cf-tasks"
	LRPDomain     = "cf-apps"
)

// LegacyDownloadUser owns downloads the scheduler performs outside the action graph.
const LegacyDownloadUser = "vcap"

// ErrMalformedGraph is returned when a built graph violates the root or
// single-delivery rules. It indicates a builder defect.
var ErrMalformedGraph = errors.New("malformed action graph")

// Config holds the settings recipes need beyond the lifecycle config.
type Config struct {
	Lifecycle           lifecycle.Config
	InternalCallbackURL string
	MinimumStagingMB    int32
	MinimumStagingDisk  int32
	StagingCPUWeight    uint32
	PidLimit            int32
}

// Builder renders recipes for any registered lifecycle kind.
type Builder struct {
	cfg      Config
	registry *lifecycle.Registry
	logger   *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(cfg Config, registry *lifecycle.Registry, logger *slog.Logger) *Builder {
	return &Builder{
		cfg:      cfg,
		registry: registry,
		logger:   logger.With("component", "recipe"),
	}
}

// StagingDetails describes a staging request.
type StagingDetails struct {
	Kind          lifecycle.Kind
	Request       lifecycle.StagingRequest
	MemoryMB      int32
	DiskMB        int32
	LogGUID       string
	PlacementTags []string
}

// TaskDetails describes a task run.
type TaskDetails struct {
	Kind          lifecycle.Kind
	TaskGUID      string
	Request       lifecycle.TaskRequest
	MemoryMB      int32
	DiskMB        int32
	LogGUID       string
	PlacementTags []string
}

// ProcessDetails describes a long-running process.
type ProcessDetails struct {
	Kind          lifecycle.Kind
	Request       lifecycle.ProcessRequest
	Instances     int32
	MemoryMB      int32
	DiskMB        int32
	LogGUID       string
	StartTimeout  time.Duration
	Annotation    string
	PlacementTags []string
}

// StagingRecipe builds the DesireTask request for a staging build.
func (b *Builder) StagingRecipe(d StagingDetails) (*bbs.DesireTaskRequest, error) {
	f, err := b.registry.Get(d.Kind)
	if err != nil {
		return nil, err
	}
	lc, err := f.Staging(b.cfg.Lifecycle, d.Request)
	if err != nil {
		return nil, fmt.Errorf("staging %s: %w", d.Request.StagingGUID, err)
	}
	callback, err := b.callbackURL("/internal/v3/staging/%s/build_completed", d.Request.StagingGUID)
	if err != nil {
		return nil, err
	}

	action := lc.Action()
	a := lc.Assets()
	if err := checkGraph(action, a, action); err != nil {
		return nil, err
	}

	def := &bbs.TaskDefinition{
		RootFs:                lc.RootFS(),
		EnvironmentVariables:  lc.Environment(),
		Action:                action,
		MemoryMb:              max(d.MemoryMB, b.cfg.MinimumStagingMB),
		DiskMb:                max(d.DiskMB, b.cfg.MinimumStagingDisk),
		CpuWeight:             b.cfg.StagingCPUWeight,
		Privileged:            b.cfg.Lifecycle.PrivilegedStaging,
		LogSource:             "STG",
		LogGuid:               d.LogGUID,
		MetricsGuid:           d.LogGUID,
		ResultFile:            lifecycle.ResultFile,
		CompletionCallbackUrl: callback,
		CachedDependencies:    a.CachedDependencies,
		ImageLayers:           a.ImageLayers,
		LegacyDownloadUser:    LegacyDownloadUser,
		PlacementTags:         d.PlacementTags,
		MaxPids:               b.cfg.PidLimit,
	}
	b.logger.Debug("staging recipe built",
		"staging_guid", d.Request.StagingGUID, "kind", d.Kind,
		"cached_dependencies", len(def.CachedDependencies), "image_layers", len(def.ImageLayers))

	return &bbs.DesireTaskRequest{
		TaskDefinition: def,
		TaskGuid:       d.Request.StagingGUID,
		Domain:         StagingDomain,
	}, nil
}

// TaskRecipe builds the DesireTask request for a one-shot task.
func (b *Builder) TaskRecipe(d TaskDetails) (*bbs.DesireTaskRequest, error) {
	f, err := b.registry.Get(d.Kind)
	if err != nil {
		return nil, err
	}
	lc, err := f.Task(b.cfg.Lifecycle, d.Request)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", d.TaskGUID, err)
	}
	callback, err := b.callbackURL("/internal/v4/tasks/%s/completed", d.TaskGUID)
	if err != nil {
		return nil, err
	}

	action := lc.Action()
	a := lc.Assets()
	if err := checkGraph(action, a, action); err != nil {
		return nil, err
	}

	def := &bbs.TaskDefinition{
		RootFs:                lc.RootFS(),
		EnvironmentVariables:  lc.Environment(),
		Action:                action,
		MemoryMb:              d.MemoryMB,
		DiskMb:                d.DiskMB,
		CpuWeight:             CPUWeight(d.MemoryMB),
		Privileged:            b.cfg.Lifecycle.PrivilegedRunning,
		LogSource:             "APP/TASK/" + d.Request.Name,
		LogGuid:               d.LogGUID,
		MetricsGuid:           d.LogGUID,
		CompletionCallbackUrl: callback,
		CachedDependencies:    a.CachedDependencies,
		ImageLayers:           a.ImageLayers,
		LegacyDownloadUser:    LegacyDownloadUser,
		PlacementTags:         d.PlacementTags,
		MaxPids:               b.cfg.PidLimit,
	}
	return &bbs.DesireTaskRequest{TaskDefinition: def, TaskGuid: d.TaskGUID, Domain: TaskDomain}, nil
}

// ProcessRecipe builds the DesiredLRP for a long-running process.
func (b *Builder) ProcessRecipe(d ProcessDetails) (*bbs.DesiredLRP, error) {
	f, err := b.registry.Get(d.Kind)
	if err != nil {
		return nil, err
	}
	lc, err := f.Process(b.cfg.Lifecycle, d.Request)
	if err != nil {
		return nil, fmt.Errorf("process %s: %w", d.Request.ProcessGUID, err)
	}

	action := lc.Action()
	setup := lc.Setup()
	a := lc.Assets()
	if err := checkGraph(action, a, setup, action); err != nil {
		return nil, err
	}
	if setup != nil && !setup.IsGroup() {
		return nil, fmt.Errorf("%w: setup root is %s", ErrMalformedGraph, setup.Kind())
	}

	return &bbs.DesiredLRP{
		ProcessGuid:          d.Request.ProcessGUID,
		Domain:               LRPDomain,
		RootFs:               lc.RootFS(),
		Instances:            d.Instances,
		EnvironmentVariables: lc.Environment(),
		Setup:                setup,
		Action:               action,
		Monitor:              lc.Monitor(),
		DiskMb:               d.DiskMB,
		MemoryMb:             d.MemoryMB,
		CpuWeight:            CPUWeight(d.MemoryMB),
		Privileged:           lc.Privileged(),
		Ports:                lc.Ports(),
		LogSource:            "CELL",
		LogGuid:              d.LogGUID,
		MetricsGuid:          d.LogGUID,
		Annotation:           d.Annotation,
		CachedDependencies:   a.CachedDependencies,
		LegacyDownloadUser:   LegacyDownloadUser,
		StartTimeoutMs:       d.StartTimeout.Milliseconds(),
		PlacementTags:        d.PlacementTags,
		MaxPids:              b.cfg.PidLimit,
		ImageLayers:          a.ImageLayers,
	}, nil
}

// CPUWeight scales memory to the scheduler's 1..100 weight range.
func CPUWeight(memoryMB int32) uint32 {
	const maxMB = 8192
	w := int64(memoryMB) * 100 / maxMB
	return uint32(min(max(w, 1), 100))
}

func (b *Builder) callbackURL(format, guid string) (string, error) {
	u, err := url.Parse(b.cfg.InternalCallbackURL)
	if err != nil {
		return "", fmt.Errorf("parse internal callback url: %w", err)
	}
	u.Path = fmt.Sprintf(format, guid)
	return u.String(), nil
}

func checkGraph(root *bbs.Action, a lifecycle.Assets, graphs ...*bbs.Action) error {
	if root == nil || !root.IsGroup() {
		kind := "nil"
		if root != nil {
			kind = root.Kind()
		}
		return fmt.Errorf("%w: root is %s", ErrMalformedGraph, kind)
	}
	if err := root.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedGraph, err)
	}
	for uri, n := range lifecycle.Deliveries(a, graphs...) {
		if n != 1 {
			return fmt.Errorf("%w: artifact %s delivered %d times", ErrMalformedGraph, uri, n)
		}
	}
	return nil
}
