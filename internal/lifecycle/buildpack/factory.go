package buildpack

import "github.com/me/diegobridge/internal/lifecycle"

// Factory registers the buildpack lifecycle with a lifecycle.Registry.
type Factory struct{}

func (Factory) Kind() lifecycle.Kind { return lifecycle.KindBuildpack }

func (Factory) Staging(cfg lifecycle.Config, req lifecycle.StagingRequest) (lifecycle.StagingLifecycle, error) {
	b, err := NewStagingActionBuilder(cfg, req)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (Factory) Task(cfg lifecycle.Config, req lifecycle.TaskRequest) (lifecycle.TaskLifecycle, error) {
	b, err := NewTaskActionBuilder(cfg, req)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (Factory) Process(cfg lifecycle.Config, req lifecycle.ProcessRequest) (lifecycle.ProcessLifecycle, error) {
	b, err := NewDesiredLRPBuilder(cfg, req)
	if err != nil {
		return nil, err
	}
	return b, nil
}
