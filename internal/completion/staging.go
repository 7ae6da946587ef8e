// Package completion consumes the scheduler's asynchronous callbacks for
// staging and task runs and records their outcome.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/me/diegobridge/pkg/model"
)

// BuildStore is the persistence the staging handler needs.
type BuildStore interface {
	GetBuild(ctx context.Context, id string) (*model.Build, error)
	GetDropletByBuild(ctx context.Context, buildID string) (*model.Droplet, error)
	SaveStagingResult(ctx context.Context, buildID string, result *model.StagingResult) error
	FailBuild(ctx context.Context, buildID, errorID, description string) error
}

// Outcome is the recorded result of one callback.
type Outcome struct {
	GUID    string `json:"guid"`
	State   string `json:"state"`
	Failed  bool   `json:"failed"`
	ErrorID string `json:"error_id,omitempty"`
	Reason  string `json:"reason,omitempty"`

	// Result is set for successful staging.
	Result *model.StagingResult `json:"result,omitempty"`
}

// StagingHandler handles build_completed callbacks.
type StagingHandler struct {
	store  BuildStore
	logger *slog.Logger
}

// NewStagingHandler creates a StagingHandler.
func NewStagingHandler(store BuildStore, logger *slog.Logger) *StagingHandler {
	return &StagingHandler{store: store, logger: logger.With("component", "staging-completion")}
}

// Handle validates body and records the staging outcome of buildGUID.
//
// Failure callbacks and missing droplets are recorded as failed builds and
// return a nil error. A body that does not match the result schema is
// recorded as failed too, and *InvalidCallbackPayloadError is returned.
func (h *StagingHandler) Handle(ctx context.Context, buildGUID string, body []byte) (*Outcome, error) {
	build, err := h.store.GetBuild(ctx, buildGUID)
	if err != nil {
		return nil, fmt.Errorf("get build %s: %w", buildGUID, err)
	}
	if build == nil {
		return nil, fmt.Errorf("%s: %w", buildGUID, ErrBuildNotFound)
	}
	logger := h.logger.With("build_guid", buildGUID, "lifecycle", build.LifecycleType)
	logger.Info("staging.finished")

	if build.State.IsTerminal() {
		logger.Warn("staging.already-completed", "state", build.State)
		return &Outcome{
			GUID:    buildGUID,
			State:   build.State.String(),
			Failed:  build.State == model.BuildStateFailed,
			ErrorID: build.ErrorID,
			Reason:  build.ErrorDescription,
		}, nil
	}

	payload, err := ParsePayload(body)
	if err != nil {
		return h.malformed(ctx, logger, buildGUID, &InvalidCallbackPayloadError{GUID: buildGUID, Reason: err.Error()})
	}

	if payload.Error != nil {
		logger.Info("staging.failure", "error_id", payload.Error.ID, "message", payload.Error.Message)
		return h.fail(ctx, buildGUID, payload.Error.ID, payload.Error.Message)
	}
	if payload.Result == nil {
		return h.handleMissingArtifact(ctx, logger, buildGUID)
	}

	result, err := validateResult(build.LifecycleType, payload.Result)
	if err != nil {
		invalid := &InvalidCallbackPayloadError{GUID: buildGUID, Reason: err.Error()}
		var se *schemaError
		if errors.As(err, &se) {
			invalid.Field, invalid.Reason = se.field, se.reason
		}
		return h.malformed(ctx, logger, buildGUID, invalid)
	}

	droplet, err := h.store.GetDropletByBuild(ctx, buildGUID)
	if err != nil {
		return nil, fmt.Errorf("get droplet of build %s: %w", buildGUID, err)
	}
	if droplet == nil {
		return h.handleMissingArtifact(ctx, logger, buildGUID)
	}

	if err := h.store.SaveStagingResult(ctx, buildGUID, result); err != nil {
		return nil, fmt.Errorf("save staging result %s: %w", buildGUID, err)
	}
	logger.Info("staging.success", "droplet_guid", droplet.ID)
	return &Outcome{GUID: buildGUID, State: model.BuildStateStaged.String(), Result: result}, nil
}

func (h *StagingHandler) malformed(ctx context.Context, logger *slog.Logger, buildGUID string, invalid *InvalidCallbackPayloadError) (*Outcome, error) {
	logger.Error("staging.invalid-message", "field", invalid.Field, "reason", invalid.Reason)
	outcome, err := h.fail(ctx, buildGUID, model.StagingErrorID, MalformedMessage)
	if err != nil {
		return nil, err
	}
	return outcome, invalid
}

func (h *StagingHandler) handleMissingArtifact(ctx context.Context, logger *slog.Logger, buildGUID string) (*Outcome, error) {
	logger.Error("staging.missing-droplet")
	return h.fail(ctx, buildGUID, "", MissingDropletMessage)
}

func (h *StagingHandler) fail(ctx context.Context, buildGUID, errorID, message string) (*Outcome, error) {
	if errorID == "" {
		errorID = model.StagingErrorID
	}
	if err := h.store.FailBuild(ctx, buildGUID, errorID, message); err != nil {
		return nil, fmt.Errorf("fail build %s: %w", buildGUID, err)
	}
	return &Outcome{
		GUID:    buildGUID,
		State:   model.BuildStateFailed.String(),
		Failed:  true,
		ErrorID: errorID,
		Reason:  message,
	}, nil
}
