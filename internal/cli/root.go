// Package cli implements the diegobridge command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/me/diegobridge/internal/blobstore"
	"github.com/me/diegobridge/internal/config"
	"github.com/me/diegobridge/internal/diego"
	"github.com/me/diegobridge/internal/lifecycle"
	"github.com/me/diegobridge/internal/lifecycle/buildpack"
	"github.com/me/diegobridge/internal/lifecycle/cnb"
	"github.com/me/diegobridge/internal/logging"
	"github.com/me/diegobridge/internal/recipe"
	"github.com/me/diegobridge/internal/store"
)

// app carries what every command needs once flags are parsed.
type app struct {
	configPath string
	debug      bool
	logLevel   string
	logFormat  string

	cfg    config.Config
	logger *slog.Logger
	stderr io.Writer
}

// NewRootCmd creates the root cobra command for the diegobridge CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "diegobridge",
		Short: "Build and deliver workloads to a Diego BBS",
		Long: "diegobridge turns staging, task and process requests into Diego task and LRP\n" +
			"definitions, submits them to the BBS and records their completion callbacks.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config YAML")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format (text, json); overrides config")

	root.AddCommand(
		newServeCmd(a),
		newPingCmd(a),
		newDomainCmd(a),
		newStageCmd(a),
		newTaskCmd(a),
		newLRPCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	if a.debug {
		cfg.LogLevel = "debug"
	}
	a.cfg = cfg
	a.stderr = cmd.ErrOrStderr()
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = logging.New(level, cfg.LogFormat, a.stderr)
	return nil
}

func (a *app) client() (*diego.Client, error) {
	return diego.NewClient(a.cfg.BBS(), diego.WithLogger(a.logger))
}

func (a *app) builder() *recipe.Builder {
	reg := lifecycle.NewRegistry(a.logger)
	reg.Register(buildpack.Factory{})
	reg.Register(cnb.Factory{})
	return recipe.NewBuilder(a.cfg.Recipe(), reg, a.logger)
}

// blobstore returns nil when no blobstore is configured.
func (a *app) blobstore() (*blobstore.Store, error) {
	if !a.cfg.BlobstoreEnabled() {
		return nil, nil
	}
	return blobstore.New(a.cfg.BlobstoreOptions(), a.logger)
}

func (a *app) openStore(ctx context.Context) (*store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(a.cfg.DBPath, a.logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return st, nil
}
