package cnb

import (
	"strconv"

	"github.com/me/diegobridge/internal/lifecycle"
	"github.com/me/diegobridge/pkg/bbs"
)

// DesiredLRPBuilder assembles a long-running process from a CNB droplet.
type DesiredLRPBuilder struct {
	req        lifecycle.ProcessRequest
	stack      lifecycle.Stack
	setup      *bbs.Action
	assets     lifecycle.Assets
	privileged bool
}

// NewDesiredLRPBuilder resolves the stack, lifecycle bundle and droplet.
func NewDesiredLRPBuilder(cfg lifecycle.Config, req lifecycle.ProcessRequest) (*DesiredLRPBuilder, error) {
	stack, err := cfg.Stacks.Lookup(req.Stack)
	if err != nil {
		return nil, err
	}
	bundle, err := cfg.LifecycleBundle(lifecycle.KindCNB, stack.Name)
	if err != nil {
		return nil, err
	}
	layerPath, err := cfg.DropletLayerPath(stack.Name)
	if err != nil {
		return nil, err
	}

	b := &DesiredLRPBuilder{req: req, stack: stack, privileged: cfg.PrivilegedRunning}
	mode := cfg.Mode()
	if _, err := b.assets.Resolve(lifecycle.LifecycleArtifact(lifecycle.KindCNB, stack.Name, bundle), mode); err != nil {
		return nil, err
	}
	droplet := lifecycle.DropletArtifact(req.DropletURI, req.DropletChecksum, "droplets-"+req.ProcessGUID, layerPath, User)
	download, err := b.assets.Resolve(droplet, mode)
	if err != nil {
		return nil, err
	}
	if download != nil {
		b.setup = bbs.Serial(download)
	}
	return b, nil
}

// RootFS is the stack's run image.
func (b *DesiredLRPBuilder) RootFS() string { return b.stack.RunRootFS() }

// Setup downloads the droplet, or is nil when the droplet is an image layer.
func (b *DesiredLRPBuilder) Setup() *bbs.Action { return b.setup }

// Action runs the launcher with the start command and execution metadata.
func (b *DesiredLRPBuilder) Action() *bbs.Action {
	return bbs.WrapAction(bbs.Run(&bbs.RunAction{
		Path:      lifecycle.Launcher,
		Args:      []string{"app", b.req.StartCommand, b.req.ExecutionMetadata},
		User:      User,
		LogSource: "APP/PROC/WEB",
		Env:       b.Environment(),
	}))
}

// Monitor health checks every exposed port.
func (b *DesiredLRPBuilder) Monitor() *bbs.Action {
	return lifecycle.HealthcheckMonitor(b.Ports(), User)
}

// Assets returns the cached dependencies and image layers.
func (b *DesiredLRPBuilder) Assets() lifecycle.Assets { return b.assets }

// Environment sets LANG, the CNB directories and PORT ahead of the request's variables.
func (b *DesiredLRPBuilder) Environment() []*bbs.EnvironmentVariable {
	env := []*bbs.EnvironmentVariable{
		lifecycle.Env("LANG", lifecycle.DefaultLang),
		lifecycle.Env("CNB_PLATFORM_API", PlatformAPI),
		lifecycle.Env("CNB_LAYERS_DIR", LayersDir),
		lifecycle.Env("CNB_APP_DIR", WorkspaceDir),
		lifecycle.Env("PORT", strconv.FormatUint(uint64(b.Ports()[0]), 10)),
	}
	return append(env, b.req.Environment...)
}

// Ports defaults to 8080.
func (b *DesiredLRPBuilder) Ports() []uint32 { return b.req.PortsOrDefault() }

// Privileged follows use_privileged_containers_for_running.
func (b *DesiredLRPBuilder) Privileged() bool { return b.privileged }
