package lifecycle

import (
	"fmt"
	"log/slog"
)

// Factory constructs the builders of one lifecycle kind. Constructors
// resolve stacks and bundles eagerly so configuration errors surface
// before anything is sent to the scheduler.
type Factory interface {
	Kind() Kind
	Staging(cfg Config, req StagingRequest) (StagingLifecycle, error)
	Task(cfg Config, req TaskRequest) (TaskLifecycle, error)
	Process(cfg Config, req ProcessRequest) (ProcessLifecycle, error)
}

// Registry maps lifecycle kinds to their factories.
// Registration happens at startup before concurrent access, so no mutex is needed.
type Registry struct {
	factories map[Kind]Factory
	logger    *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		factories: make(map[Kind]Factory),
		logger:    logger.With("component", "lifecycle-registry"),
	}
}

// Register adds a Factory to the registry, keyed by its Kind().
func (r *Registry) Register(f Factory) {
	k := f.Kind()
	r.factories[k] = f
	r.logger.Debug("lifecycle registered", "kind", k)
}

// Get returns the Factory for the given kind or an error if none is registered.
func (r *Registry) Get(k Kind) (Factory, error) {
	f, ok := r.factories[k]
	if !ok {
		return nil, fmt.Errorf("no lifecycle registered for kind %q", k)
	}
	return f, nil
}
