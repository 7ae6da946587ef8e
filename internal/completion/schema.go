package completion

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/me/diegobridge/pkg/model"
)

// schemaError names the offending field of a staging result.
type schemaError struct {
	field  string
	reason string
}

func (e *schemaError) Error() string { return e.field + ": " + e.reason }

type resultDoc struct {
	ExecutionMetadata *string           `json:"execution_metadata"`
	LifecycleType     *string           `json:"lifecycle_type"`
	LifecycleMetadata json.RawMessage   `json:"lifecycle_metadata"`
	ProcessTypes      map[string]string `json:"process_types"`
}

type buildpackMetadata struct {
	BuildpackKey      *string               `json:"buildpack_key"`
	DetectedBuildpack *string               `json:"detected_buildpack"`
	Buildpacks        []model.BuildpackInfo `json:"buildpacks"`
}

type cnbMetadata struct {
	Buildpacks []model.BuildpackInfo `json:"buildpacks"`
}

// validateResult checks raw against the result schema of kind. An empty
// kind accepts either known lifecycle type.
func validateResult(kind string, raw json.RawMessage) (*model.StagingResult, error) {
	var doc resultDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, typeError("result", err)
	}
	if doc.ExecutionMetadata == nil {
		return nil, &schemaError{field: "result.execution_metadata", reason: "required"}
	}
	if doc.LifecycleType == nil {
		return nil, &schemaError{field: "result.lifecycle_type", reason: "required"}
	}
	lifecycleType := *doc.LifecycleType
	switch {
	case kind != "" && lifecycleType != kind:
		return nil, &schemaError{field: "result.lifecycle_type", reason: fmt.Sprintf("expected %q, got %q", kind, lifecycleType)}
	case lifecycleType != model.LifecycleBuildpack && lifecycleType != model.LifecycleCNB:
		return nil, &schemaError{field: "result.lifecycle_type", reason: fmt.Sprintf("unknown lifecycle %q", lifecycleType)}
	}
	if isNull(doc.LifecycleMetadata) {
		return nil, &schemaError{field: "result.lifecycle_metadata", reason: "required"}
	}
	if doc.ProcessTypes == nil {
		return nil, &schemaError{field: "result.process_types", reason: "required"}
	}

	result := &model.StagingResult{
		ExecutionMetadata: *doc.ExecutionMetadata,
		ProcessTypes:      doc.ProcessTypes,
		LifecycleType:     lifecycleType,
	}
	switch lifecycleType {
	case model.LifecycleBuildpack:
		var md buildpackMetadata
		if err := json.Unmarshal(doc.LifecycleMetadata, &md); err != nil {
			return nil, typeError("result.lifecycle_metadata", err)
		}
		result.LifecycleMetadata.Buildpacks = md.Buildpacks
		if md.BuildpackKey != nil {
			result.LifecycleMetadata.BuildpackKey = *md.BuildpackKey
		}
		if md.DetectedBuildpack != nil {
			result.LifecycleMetadata.DetectedBuildpack = *md.DetectedBuildpack
		}
	case model.LifecycleCNB:
		var md cnbMetadata
		if err := json.Unmarshal(doc.LifecycleMetadata, &md); err != nil {
			return nil, typeError("result.lifecycle_metadata", err)
		}
		result.LifecycleMetadata.Buildpacks = md.Buildpacks
	}
	return result, nil
}

func typeError(prefix string, err error) error {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		field := prefix
		if te.Field != "" {
			field += "." + te.Field
		}
		return &schemaError{field: field, reason: "expected " + te.Type.String() + ", got " + te.Value}
	}
	return &schemaError{field: prefix, reason: err.Error()}
}
