// Package buildpack builds workloads for the classic buildpack lifecycle.
package buildpack

import (
	"fmt"
	"strings"

	"github.com/me/diegobridge/internal/lifecycle"
	"github.com/me/diegobridge/pkg/bbs"
)

// Container paths specific to the buildpack lifecycle.
const (
	BuildDir = "/tmp/app"
	User     = "vcap"
)

// StagingActionBuilder assembles a buildpack staging task.
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
	bundle, err := cfg.LifecycleBundle(lifecycle.KindBuildpack, stack.Name)
	if err != nil {
		return nil, err
	}

	b := &StagingActionBuilder{req: req, stack: stack}
	mode := cfg.Mode()

	step, err := b.assets.Resolve(lifecycle.PackageArtifact(req, BuildDir, User), mode)
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

	if _, err := b.assets.Resolve(lifecycle.LifecycleArtifact(lifecycle.KindBuildpack, stack.Name, bundle), mode); err != nil {
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

// Environment adds CF_STACK to the request's variables.
func (b *StagingActionBuilder) Environment() []*bbs.EnvironmentVariable {
	env := []*bbs.EnvironmentVariable{lifecycle.Env("CF_STACK", b.stack.Name)}
	return append(env, b.req.Environment...)
}

func (b *StagingActionBuilder) stageAction() *bbs.Action {
	return bbs.Run(&bbs.RunAction{
		Path: lifecycle.Builder,
		User: User,
		Args: []string{
			"-buildArtifactsCacheDir=" + lifecycle.CacheDir,
			"-buildDir=" + BuildDir,
			"-buildpackOrder=" + b.buildpackOrder(),
			"-buildpacksDir=" + lifecycle.BuildpacksDir,
			"-outputBuildArtifactsCache=" + lifecycle.OutputCacheDir,
			"-outputDroplet=" + lifecycle.DropletPath,
			"-outputMetadata=" + lifecycle.ResultFile,
			fmt.Sprintf("-skipDetect=%t", b.req.SkipDetect()),
		},
		Env: b.Environment(),
	})
}

// Custom buildpacks are referenced by URL; the builder fetches them itself.
func (b *StagingActionBuilder) buildpackOrder() string {
	order := make([]string, 0, len(b.req.Buildpacks))
	for _, bp := range b.req.Buildpacks {
		if bp.IsCustom() && bp.URL != "" {
			order = append(order, bp.URL)
			continue
		}
		order = append(order, bp.Key)
	}
	return strings.Join(order, ",")
}
