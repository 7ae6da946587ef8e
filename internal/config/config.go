// Package config loads the bridge configuration from YAML, an optional
// .env file and DIEGOBRIDGE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/me/diegobridge/internal/blobstore"
	"github.com/me/diegobridge/internal/diego"
	"github.com/me/diegobridge/internal/lifecycle"
	"github.com/me/diegobridge/internal/logging"
	"github.com/me/diegobridge/internal/recipe"
	"github.com/me/diegobridge/internal/reconciler"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DIEGOBRIDGE_"

// Config is the complete bridge configuration.
type Config struct {
	LogLevel            string          `yaml:"log_level"`
	LogFormat           string          `yaml:"log_format"`
	Listen              string          `yaml:"listen"`
	DBPath              string          `yaml:"db_path"`
	InternalCallbackURL string          `yaml:"internal_callback_url"`
	DefaultStack        string          `yaml:"default_stack"`
	Stacks              []StackConfig   `yaml:"stacks"`
	Diego               DiegoConfig     `yaml:"diego"`
	Staging             StagingConfig   `yaml:"staging"`
	Blobstore           BlobstoreConfig `yaml:"blobstore"`
	Reconcile           ReconcileConfig `yaml:"reconcile"`
}

// StackConfig describes one stack and its root filesystem images.
type StackConfig struct {
	Name             string `yaml:"name"`
	BuildRootFSImage string `yaml:"build_rootfs_image"`
	RunRootFSImage   string `yaml:"run_rootfs_image"`
}

// BBSConfig locates the BBS.
type BBSConfig struct {
	URL            string        `yaml:"url"`
	CACertFile     string        `yaml:"ca_cert_file"`
	ClientCertFile string        `yaml:"client_cert_file"`
	ClientKeyFile  string        `yaml:"client_key_file"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SendTimeout    time.Duration `yaml:"send_timeout"`
	ReceiveTimeout time.Duration `yaml:"receive_timeout"`
}

// DiegoConfig holds everything the workload builders and the client need.
type DiegoConfig struct {
	BBS                               BBSConfig         `yaml:"bbs"`
	EnableDeclarativeAssetDownloads   bool              `yaml:"enable_declarative_asset_downloads"`
	LifecycleBundles                  map[string]string `yaml:"lifecycle_bundles"`
	DropletDestinations               map[string]string `yaml:"droplet_destinations"`
	FileServerURL                     string            `yaml:"file_server_url"`
	CCUploaderURL                     string            `yaml:"cc_uploader_url"`
	UsePrivilegedContainersForStaging bool              `yaml:"use_privileged_containers_for_staging"`
	UsePrivilegedContainersForRunning bool              `yaml:"use_privileged_containers_for_running"`
	PidLimit                          int32             `yaml:"pid_limit"`
	StagingCPUWeight                  uint32            `yaml:"staging_cpu_weight"`
}

// StagingConfig bounds staging tasks.
type StagingConfig struct {
	TimeoutInSeconds       int64 `yaml:"timeout_in_seconds"`
	MinimumStagingMemoryMB int32 `yaml:"minimum_staging_memory_mb"`
	MinimumStagingDiskMB   int32 `yaml:"minimum_staging_disk_mb"`
}

// BlobstoreConfig locates the S3-compatible blobstore.
type BlobstoreConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	Region    string        `yaml:"region"`
	AccessKey string        `yaml:"access_key"`
	SecretKey string        `yaml:"secret_key"`
	Bucket    string        `yaml:"bucket"`
	UseSSL    bool          `yaml:"use_ssl"`
	URLExpiry time.Duration `yaml:"url_expiry"`
}

// ReconcileConfig drives the missed-callback reconciler of the server.
// A zero interval disables it.
type ReconcileConfig struct {
	Interval time.Duration `yaml:"interval"`
	Grace    time.Duration `yaml:"grace"`
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Listen:              ":8080",
		DBPath:              "diegobridge.db",
		InternalCallbackURL: "http://cloud-controller-ng.service.cf.internal:9023",
		DefaultStack:        "cflinuxfs4",
		Stacks:              []StackConfig{{Name: "cflinuxfs4"}},
		Diego: DiegoConfig{
			BBS: BBSConfig{
				URL:            "https://bbs.service.cf.internal:8889",
				ConnectTimeout: 5 * time.Second,
				SendTimeout:    10 * time.Second,
				ReceiveTimeout: 10 * time.Second,
			},
			LifecycleBundles: map[string]string{
				"buildpack/cflinuxfs4": "buildpack_app_lifecycle/buildpack_app_lifecycle.tgz",
				"cnb/cflinuxfs4":       "cnb_app_lifecycle/cnb_app_lifecycle.tgz",
			},
			DropletDestinations: map[string]string{"cflinuxfs4": "/home/vcap"},
			FileServerURL:       "http://file-server.service.cf.internal:8080",
			CCUploaderURL:       "http://cc-uploader.service.cf.internal:9090",
			PidLimit:            1024,
			StagingCPUWeight:    50,
		},
		Staging: StagingConfig{
			TimeoutInSeconds:       900,
			MinimumStagingMemoryMB: 1024,
			MinimumStagingDiskMB:   4096,
		},
		Blobstore: BlobstoreConfig{
			Region:    "us-east-1",
			URLExpiry: time.Hour,
		},
		Reconcile: ReconcileConfig{
			Interval: 30 * time.Second,
			Grace:    time.Minute,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A .env file in the working directory is loaded first when present. An
// empty path skips the YAML file.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// applyEnv overrides scalar settings from DIEGOBRIDGE_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LOG_LEVEL":             &c.LogLevel,
		"LOG_FORMAT":            &c.LogFormat,
		"LISTEN":                &c.Listen,
		"DB_PATH":               &c.DBPath,
		"INTERNAL_CALLBACK_URL": &c.InternalCallbackURL,
		"DEFAULT_STACK":         &c.DefaultStack,
		"BBS_URL":               &c.Diego.BBS.URL,
		"BBS_CA_CERT_FILE":      &c.Diego.BBS.CACertFile,
		"BBS_CLIENT_CERT_FILE":  &c.Diego.BBS.ClientCertFile,
		"BBS_CLIENT_KEY_FILE":   &c.Diego.BBS.ClientKeyFile,
		"FILE_SERVER_URL":       &c.Diego.FileServerURL,
		"CC_UPLOADER_URL":       &c.Diego.CCUploaderURL,
		"BLOBSTORE_ENDPOINT":    &c.Blobstore.Endpoint,
		"BLOBSTORE_REGION":      &c.Blobstore.Region,
		"BLOBSTORE_ACCESS_KEY":  &c.Blobstore.AccessKey,
		"BLOBSTORE_SECRET_KEY":  &c.Blobstore.SecretKey,
		"BLOBSTORE_BUCKET":      &c.Blobstore.Bucket,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"ENABLE_DECLARATIVE_ASSET_DOWNLOADS": &c.Diego.EnableDeclarativeAssetDownloads,
		"BLOBSTORE_USE_SSL":                  &c.Blobstore.UseSSL,
	}
	for name, dst := range bools {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
	}
	return nil
}

// Validate reports settings the bridge cannot run with.
func (c Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if !logging.ValidFormat(c.LogFormat) {
		errs = append(errs, fmt.Errorf("log_format %q must be text or json", c.LogFormat))
	}
	if c.Diego.BBS.URL == "" {
		errs = append(errs, errors.New("diego.bbs.url is required"))
	}
	if c.InternalCallbackURL == "" {
		errs = append(errs, errors.New("internal_callback_url is required"))
	}
	if c.Staging.TimeoutInSeconds <= 0 {
		errs = append(errs, errors.New("staging.timeout_in_seconds must be positive"))
	}
	if c.Reconcile.Interval < 0 || c.Reconcile.Grace < 0 {
		errs = append(errs, errors.New("reconcile: interval and grace must not be negative"))
	}
	names := make(map[string]bool, len(c.Stacks))
	for i, st := range c.Stacks {
		if st.Name == "" {
			errs = append(errs, fmt.Errorf("stacks[%d]: name is required", i))
		}
		names[st.Name] = true
	}
	if c.DefaultStack != "" && !names[c.DefaultStack] {
		errs = append(errs, fmt.Errorf("default_stack %q is not in stacks", c.DefaultStack))
	}
	for key := range c.Diego.LifecycleBundles {
		if kind, _, ok := strings.Cut(key, "/"); !ok || (kind != string(lifecycle.KindBuildpack) && kind != string(lifecycle.KindCNB)) {
			errs = append(errs, fmt.Errorf("diego.lifecycle_bundles: key %q must be <buildpack|cnb>/<stack>", key))
		}
	}
	return errors.Join(errs...)
}

// Reconciler returns the reconcile loop configuration.
func (c Config) Reconciler() reconciler.Config {
	return reconciler.Config{PollInterval: c.Reconcile.Interval, Grace: c.Reconcile.Grace}
}

// StagingTimeout is the staging timeout as a duration.
func (c Config) StagingTimeout() time.Duration {
	return time.Duration(c.Staging.TimeoutInSeconds) * time.Second
}

// Lifecycle returns the lifecycle builder configuration.
func (c Config) Lifecycle() lifecycle.Config {
	stacks := make([]lifecycle.Stack, 0, len(c.Stacks))
	for _, st := range c.Stacks {
		stacks = append(stacks, lifecycle.Stack{
			Name:             st.Name,
			BuildRootFSImage: st.BuildRootFSImage,
			RunRootFSImage:   st.RunRootFSImage,
		})
	}
	return lifecycle.Config{
		DeclarativeAssets:   c.Diego.EnableDeclarativeAssetDownloads,
		LifecycleBundles:    c.Diego.LifecycleBundles,
		DropletDestinations: c.Diego.DropletDestinations,
		FileServerURL:       c.Diego.FileServerURL,
		CCUploaderURL:       c.Diego.CCUploaderURL,
		StagingTimeout:      c.StagingTimeout(),
		PrivilegedStaging:   c.Diego.UsePrivilegedContainersForStaging,
		PrivilegedRunning:   c.Diego.UsePrivilegedContainersForRunning,
		Stacks:              lifecycle.NewStacks(stacks, c.DefaultStack),
	}
}

// Recipe returns the workload builder configuration.
func (c Config) Recipe() recipe.Config {
	return recipe.Config{
		Lifecycle:           c.Lifecycle(),
		InternalCallbackURL: c.InternalCallbackURL,
		MinimumStagingMB:    c.Staging.MinimumStagingMemoryMB,
		MinimumStagingDisk:  c.Staging.MinimumStagingDiskMB,
		StagingCPUWeight:    c.Diego.StagingCPUWeight,
		PidLimit:            c.Diego.PidLimit,
	}
}

// BBS returns the client configuration.
func (c Config) BBS() diego.Config {
	b := c.Diego.BBS
	return diego.Config{
		URL:            b.URL,
		CACertFile:     b.CACertFile,
		ClientCertFile: b.ClientCertFile,
		ClientKeyFile:  b.ClientKeyFile,
		ConnectTimeout: b.ConnectTimeout,
		SendTimeout:    b.SendTimeout,
		ReceiveTimeout: b.ReceiveTimeout,
	}
}

// BlobstoreEnabled reports whether a blobstore endpoint is configured.
func (c Config) BlobstoreEnabled() bool {
	return c.Blobstore.Endpoint != ""
}

// BlobstoreOptions returns the blobstore client configuration.
func (c Config) BlobstoreOptions() blobstore.Config {
	b := c.Blobstore
	return blobstore.Config{
		Endpoint:  b.Endpoint,
		Region:    b.Region,
		AccessKey: b.AccessKey,
		SecretKey: b.SecretKey,
		Bucket:    b.Bucket,
		UseSSL:    b.UseSSL,
		URLExpiry: b.URLExpiry,
	}
}
