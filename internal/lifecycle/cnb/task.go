package cnb

import (
	"github.com/me/diegobridge/internal/lifecycle"
	"github.com/me/diegobridge/pkg/bbs"
)

// TaskActionBuilder assembles a one-shot task running a CNB droplet.
type TaskActionBuilder struct {
	req      lifecycle.TaskRequest
	stack    lifecycle.Stack
	download *bbs.Action
	assets   lifecycle.Assets
}

// NewTaskActionBuilder resolves the stack, lifecycle bundle and droplet.
func NewTaskActionBuilder(cfg lifecycle.Config, req lifecycle.TaskRequest) (*TaskActionBuilder, error) {
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

	b := &TaskActionBuilder{req: req, stack: stack}
	mode := cfg.Mode()
	if _, err := b.assets.Resolve(lifecycle.LifecycleArtifact(lifecycle.KindCNB, stack.Name, bundle), mode); err != nil {
		return nil, err
	}
	b.download, err = b.assets.Resolve(lifecycle.DropletArtifact(req.DropletURI, req.DropletChecksum, "", layerPath, User), mode)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// RootFS is the stack's run image.
func (b *TaskActionBuilder) RootFS() string { return b.stack.RunRootFS() }

// Action runs the launcher as root with the task command.
func (b *TaskActionBuilder) Action() *bbs.Action {
	run := bbs.Run(&bbs.RunAction{
		Path:           lifecycle.Launcher,
		Args:           []string{"app", b.req.Command, "{}"},
		User:           TaskUser,
		LogSource:      "APP/TASK/" + b.req.Name,
		ResourceLimits: &bbs.ResourceLimits{},
		Env:            b.Environment(),
	})
	if b.download != nil {
		return bbs.Serial(b.download, run)
	}
	return bbs.WrapAction(run)
}

// Assets returns the cached dependencies and image layers.
func (b *TaskActionBuilder) Assets() lifecycle.Assets { return b.assets }

// Environment is the request's variables unchanged.
func (b *TaskActionBuilder) Environment() []*bbs.EnvironmentVariable { return b.req.Environment }
