package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/me/diegobridge/internal/assets"
	"github.com/me/diegobridge/internal/blobstore"
	"github.com/me/diegobridge/internal/lifecycle"
	"github.com/me/diegobridge/internal/recipe"
	"github.com/me/diegobridge/pkg/bbs"
)

// Request files are YAML documents describing one staging run, task or
// process. URIs left empty are signed from the blobstore when one is
// configured.

type digestEntry struct {
	Algorithm string `yaml:"algorithm"`
	Value     string `yaml:"value"`
}

func (d digestEntry) digest() assets.Digest {
	return assets.Digest{Algorithm: d.Algorithm, Value: d.Value}
}

type buildpackEntry struct {
	Name       string `yaml:"name"`
	Key        string `yaml:"key"`
	URL        string `yaml:"url"`
	SHA256     string `yaml:"sha256"`
	SkipDetect bool   `yaml:"skip_detect"`
	Custom     bool   `yaml:"custom"`
}

type buildCacheEntry struct {
	DownloadURI string `yaml:"download_uri"`
	Checksum    string `yaml:"checksum"`
	UploadURI   string `yaml:"upload_uri"`
}

type stagingFile struct {
	Lifecycle        string            `yaml:"lifecycle"`
	StagingGUID      string            `yaml:"staging_guid"`
	AppGUID          string            `yaml:"app_guid"`
	PackageGUID      string            `yaml:"package_guid"`
	DropletGUID      string            `yaml:"droplet_guid"`
	Stack            string            `yaml:"stack"`
	MemoryMB         int32             `yaml:"memory_mb"`
	DiskMB           int32             `yaml:"disk_mb"`
	LogGUID          string            `yaml:"log_guid"`
	PlacementTags    []string          `yaml:"placement_tags"`
	PackageURI       string            `yaml:"package_uri"`
	PackageChecksum  digestEntry       `yaml:"package_checksum"`
	BuildCache       buildCacheEntry   `yaml:"build_cache"`
	DropletUploadURI string            `yaml:"droplet_upload_uri"`
	Buildpacks       []buildpackEntry  `yaml:"buildpacks"`
	Environment      map[string]string `yaml:"environment"`
}

type taskFile struct {
	Lifecycle       string            `yaml:"lifecycle"`
	TaskGUID        string            `yaml:"task_guid"`
	AppGUID         string            `yaml:"app_guid"`
	Name            string            `yaml:"name"`
	Command         string            `yaml:"command"`
	Stack           string            `yaml:"stack"`
	DropletGUID     string            `yaml:"droplet_guid"`
	DropletURI      string            `yaml:"droplet_uri"`
	DropletChecksum digestEntry       `yaml:"droplet_checksum"`
	MemoryMB        int32             `yaml:"memory_mb"`
	DiskMB          int32             `yaml:"disk_mb"`
	LogGUID         string            `yaml:"log_guid"`
	PlacementTags   []string          `yaml:"placement_tags"`
	Environment     map[string]string `yaml:"environment"`
}

type processFile struct {
	Lifecycle         string            `yaml:"lifecycle"`
	ProcessGUID       string            `yaml:"process_guid"`
	Stack             string            `yaml:"stack"`
	DropletGUID       string            `yaml:"droplet_guid"`
	DropletURI        string            `yaml:"droplet_uri"`
	DropletChecksum   digestEntry       `yaml:"droplet_checksum"`
	StartCommand      string            `yaml:"start_command"`
	ExecutionMetadata string            `yaml:"execution_metadata"`
	Ports             []uint32          `yaml:"ports"`
	Instances         int32             `yaml:"instances"`
	MemoryMB          int32             `yaml:"memory_mb"`
	DiskMB            int32             `yaml:"disk_mb"`
	LogGUID           string            `yaml:"log_guid"`
	StartTimeout      time.Duration     `yaml:"start_timeout"`
	Annotation        string            `yaml:"annotation"`
	PlacementTags     []string          `yaml:"placement_tags"`
	Environment       map[string]string `yaml:"environment"`
}

func readRequest(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse request %s: %w", path, err)
	}
	return nil
}

func kind(name string) (lifecycle.Kind, error) {
	switch name {
	case "", string(lifecycle.KindBuildpack):
		return lifecycle.KindBuildpack, nil
	case string(lifecycle.KindCNB):
		return lifecycle.KindCNB, nil
	}
	return "", fmt.Errorf("unknown lifecycle %q", name)
}

// envVars sorts env by name so the rendered definition is stable.
func envVars(env map[string]string) []*bbs.EnvironmentVariable {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	slices.Sort(names)
	vars := make([]*bbs.EnvironmentVariable, 0, len(names))
	for _, name := range names {
		vars = append(vars, lifecycle.Env(name, env[name]))
	}
	return vars
}

var errNoBlobstore = errors.New("no blobstore configured")

// stagingDetails fills generated guids and blob URIs, then converts f.
func stagingDetails(ctx context.Context, f *stagingFile, blobs *blobstore.Store) (recipe.StagingDetails, error) {
	k, err := kind(f.Lifecycle)
	if err != nil {
		return recipe.StagingDetails{}, err
	}
	if f.StagingGUID == "" {
		f.StagingGUID = uuid.NewString()
	}
	if f.DropletGUID == "" {
		f.DropletGUID = uuid.NewString()
	}
	if f.LogGUID == "" {
		f.LogGUID = f.AppGUID
	}

	if f.PackageURI == "" {
		if blobs == nil || f.PackageGUID == "" {
			return recipe.StagingDetails{}, fmt.Errorf("package_uri: required without package_guid and blobstore")
		}
		if f.PackageURI, err = blobs.DownloadURL(ctx, blobstore.PackageKey(f.PackageGUID)); err != nil {
			return recipe.StagingDetails{}, err
		}
	}
	if f.DropletUploadURI == "" {
		if blobs == nil {
			return recipe.StagingDetails{}, fmt.Errorf("droplet_upload_uri: %w", errNoBlobstore)
		}
		if f.DropletUploadURI, err = blobs.UploadURL(ctx, blobstore.DropletKey(f.DropletGUID, f.StagingGUID)); err != nil {
			return recipe.StagingDetails{}, err
		}
	}
	if f.BuildCache.UploadURI == "" && blobs != nil && f.AppGUID != "" {
		if f.BuildCache.UploadURI, err = blobs.UploadURL(ctx, blobstore.BuildCacheKey(f.AppGUID, f.Stack)); err != nil {
			return recipe.StagingDetails{}, err
		}
	}

	bps := make([]lifecycle.Buildpack, 0, len(f.Buildpacks))
	for _, bp := range f.Buildpacks {
		bps = append(bps, lifecycle.Buildpack{
			Name:       bp.Name,
			Key:        bp.Key,
			URL:        bp.URL,
			SHA256:     bp.SHA256,
			SkipDetect: bp.SkipDetect,
			Custom:     bp.Custom,
		})
	}

	return recipe.StagingDetails{
		Kind: k,
		Request: lifecycle.StagingRequest{
			StagingGUID:           f.StagingGUID,
			Stack:                 f.Stack,
			PackageURI:            f.PackageURI,
			PackageChecksum:       f.PackageChecksum.digest(),
			BuildCacheDownloadURI: f.BuildCache.DownloadURI,
			BuildCacheChecksum:    f.BuildCache.Checksum,
			BuildCacheUploadURI:   f.BuildCache.UploadURI,
			DropletUploadURI:      f.DropletUploadURI,
			Buildpacks:            bps,
			Environment:           envVars(f.Environment),
		},
		MemoryMB:      f.MemoryMB,
		DiskMB:        f.DiskMB,
		LogGUID:       f.LogGUID,
		PlacementTags: f.PlacementTags,
	}, nil
}

// dropletURI signs a download for the droplet when uri is empty.
func dropletURI(ctx context.Context, uri, guid string, checksum digestEntry, blobs *blobstore.Store) (string, error) {
	if uri != "" {
		return uri, nil
	}
	if blobs == nil || guid == "" {
		return "", fmt.Errorf("droplet_uri: required without droplet_guid and blobstore")
	}
	return blobs.DownloadURL(ctx, blobstore.DropletKey(guid, checksum.Value))
}

func taskDetails(ctx context.Context, f *taskFile, blobs *blobstore.Store) (recipe.TaskDetails, error) {
	k, err := kind(f.Lifecycle)
	if err != nil {
		return recipe.TaskDetails{}, err
	}
	if f.Command == "" {
		return recipe.TaskDetails{}, errors.New("command: required")
	}
	if f.TaskGUID == "" {
		f.TaskGUID = uuid.NewString()
	}
	if f.LogGUID == "" {
		f.LogGUID = f.AppGUID
	}
	uri, err := dropletURI(ctx, f.DropletURI, f.DropletGUID, f.DropletChecksum, blobs)
	if err != nil {
		return recipe.TaskDetails{}, err
	}
	return recipe.TaskDetails{
		Kind:     k,
		TaskGUID: f.TaskGUID,
		Request: lifecycle.TaskRequest{
			Name:            f.Name,
			Command:         f.Command,
			Stack:           f.Stack,
			DropletURI:      uri,
			DropletChecksum: f.DropletChecksum.digest(),
			Environment:     envVars(f.Environment),
		},
		MemoryMB:      f.MemoryMB,
		DiskMB:        f.DiskMB,
		LogGUID:       f.LogGUID,
		PlacementTags: f.PlacementTags,
	}, nil
}

func processDetails(ctx context.Context, f *processFile, blobs *blobstore.Store) (recipe.ProcessDetails, error) {
	k, err := kind(f.Lifecycle)
	if err != nil {
		return recipe.ProcessDetails{}, err
	}
	if f.ProcessGUID == "" {
		return recipe.ProcessDetails{}, errors.New("process_guid: required")
	}
	if f.Instances == 0 {
		f.Instances = 1
	}
	if f.StartTimeout == 0 {
		f.StartTimeout = 60 * time.Second
	}
	uri, err := dropletURI(ctx, f.DropletURI, f.DropletGUID, f.DropletChecksum, blobs)
	if err != nil {
		return recipe.ProcessDetails{}, err
	}
	return recipe.ProcessDetails{
		Kind: k,
		Request: lifecycle.ProcessRequest{
			ProcessGUID:       f.ProcessGUID,
			Stack:             f.Stack,
			DropletURI:        uri,
			DropletChecksum:   f.DropletChecksum.digest(),
			StartCommand:      f.StartCommand,
			ExecutionMetadata: f.ExecutionMetadata,
			Ports:             f.Ports,
			Environment:       envVars(f.Environment),
		},
		Instances:     f.Instances,
		MemoryMB:      f.MemoryMB,
		DiskMB:        f.DiskMB,
		LogGUID:       f.LogGUID,
		StartTimeout:  f.StartTimeout,
		Annotation:    f.Annotation,
		PlacementTags: f.PlacementTags,
	}, nil
}
