package completion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/me/diegobridge/pkg/model"
)

// ErrorDetail is the failure half of a staging callback.
type ErrorDetail struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Payload is a staging callback reduced to its two shapes: exactly one of
// Error and Result is set for a well-formed callback. Both nil means the
// callback claimed success without carrying a result.
type Payload struct {
	Error  *ErrorDetail
	Result json.RawMessage
}

// rawCallback covers both the {error, result} envelope and the scheduler's
// task callback {task_guid, failed, failure_reason, result}, where result is
// a JSON document encoded as a string.
type rawCallback struct {
	TaskGUID      string          `json:"task_guid"`
	Failed        bool            `json:"failed"`
	FailureReason string          `json:"failure_reason"`
	Error         json.RawMessage `json:"error"`
	Result        json.RawMessage `json:"result"`
}

// ParsePayload decodes a staging callback body.
func ParsePayload(body []byte) (*Payload, error) {
	var raw rawCallback
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode callback: %w", err)
	}

	p := &Payload{}
	if raw.Failed {
		p.Error = &ErrorDetail{ID: model.StagingErrorID, Message: raw.FailureReason}
		return p, nil
	}
	if !isNull(raw.Error) {
		var e ErrorDetail
		if err := json.Unmarshal(raw.Error, &e); err != nil {
			return nil, fmt.Errorf("error: %w", err)
		}
		if e.ID == "" && e.Message == "" {
			return nil, errors.New("error: id or message required")
		}
		p.Error = &e
		return p, nil
	}
	if isNull(raw.Result) {
		return p, nil
	}

	result := raw.Result
	if result[0] == '"' {
		var s string
		if err := json.Unmarshal(result, &s); err != nil {
			return nil, fmt.Errorf("result: %w", err)
		}
		if s == "" {
			return p, nil
		}
		result = json.RawMessage(s)
	}
	p.Result = result
	return p, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
