// Package cnb builds workloads for the cloud native buildpacks lifecycle.
package cnb

import (
	"github.com/me/diegobridge/internal/lifecycle"
	"github.com/me/diegobridge/pkg/bbs"
)

// Container paths and identities specific to the CNB lifecycle.
const (
	WorkspaceDir = "/home/vcap/workspace"
	LayersDir    = "/home/vcap/layers"
	User         = "vcap"
	TaskUser     = "root"
	PlatformAPI  = "0.11"
	UserID       = "2000"
	GroupID      = "2000"
)

// StagingActionBuilder assembles a CNB staging task.
type StagingActionBuilder struct {
	req       lifecycle.StagingRequest
	stack     lifecycle.Stack
	downloads []*bbs.Action
	uploads   *bbs.Action
	assets    lifecycle.Assets
}

// NewStagingActionBuilder resolves the stack, lifecycle bundle and every
// artifact of req.
func NewStagingActionBuilder(cfg lifecycle.Config, req lifecycle.StagingRequest) (*StagingActionBuilder, error) {
	stack, err := cfg.Stacks.Lookup(req.Stack)
	if err != nil {
		return nil, err
	}
	bundle, err := cfg.LifecycleBundle(lifecycle.KindCNB, stack.Name)
	if err != nil {
		return nil, err
	}

	b := &StagingActionBuilder{req: req, stack: stack}
	mode := cfg.Mode()

	step, err := b.assets.Resolve(lifecycle.PackageArtifact(req, WorkspaceDir, User), mode)
	if err != nil {
		return nil, err
	}
	if step != nil {
		b.downloads = append(b.downloads, step)
	}
	if req.HasBuildCache() {
		step, err := b.assets.Resolve(lifecycle.BuildCacheArtifact(req, User), mode)
		if err != nil {
			return nil, err
		}
		if step != nil {
			b.downloads = append(b.downloads, step)
		}
	}
	if _, err := b.assets.Resolve(lifecycle.LifecycleArtifact(lifecycle.KindCNB, stack.Name, bundle), mode); err != nil {
		return nil, err
	}
	for _, a := range lifecycle.BuildpackArtifacts(req.Buildpacks) {
		if _, err := b.assets.Resolve(a, mode); err != nil {
			return nil, err
		}
	}

	b.uploads, err = cfg.StagingUploads(req, User)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// RootFS is the stack's build image.
func (b *StagingActionBuilder) RootFS() string { return b.stack.BuildRootFS() }

// Action composes Serial[Parallel(downloads)?, Run(builder), EmitProgress(Parallel(uploads))].
func (b *StagingActionBuilder) Action() *bbs.Action {
	var actions []*bbs.Action
	if len(b.downloads) > 0 {
		actions = append(actions, bbs.Parallel(b.downloads...))
	}
	actions = append(actions, b.stageAction(), b.uploads)
	return bbs.Serial(actions...)
}

// Assets returns the cached dependencies and image layers.
func (b *StagingActionBuilder) Assets() lifecycle.Assets { return b.assets }

// Environment sets the platform API and build user ahead of the request's variables.
func (b *StagingActionBuilder) Environment() []*bbs.EnvironmentVariable {
	env := []*bbs.EnvironmentVariable{
		lifecycle.Env("CNB_PLATFORM_API", PlatformAPI),
		lifecycle.Env("CNB_USER_ID", UserID),
		lifecycle.Env("CNB_GROUP_ID", GroupID),
	}
	return append(env, b.req.Environment...)
}

// Pre-staged buildpacks are passed by extracted path, custom ones by reference.
func (b *StagingActionBuilder) stageAction() *bbs.Action {
	var args []string
	for _, bp := range b.req.Buildpacks {
		ref := lifecycle.BuildpackPath(bp.Key)
		if bp.IsCustom() {
			ref = bp.URL
		}
		args = append(args, "--buildpack", ref)
	}
	if b.req.SkipDetect() {
		args = append(args, "--skip-detect")
	}
	return bbs.Run(&bbs.RunAction{
		Path: lifecycle.Builder,
		User: User,
		Args: args,
		Env:  b.Environment(),
	})
}
