package completion

import (
	"errors"
	"fmt"
)

// MalformedMessage is the failure recorded for callbacks that do not match
// the expected schema.
const MalformedMessage = "Malformed message from Diego stager"

// MissingDropletMessage is the failure recorded when a successful staging
// callback cannot be attached to a droplet.
const MissingDropletMessage = "no droplet"

var (
	ErrBuildNotFound = errors.New("build not found")
	ErrTaskNotFound  = errors.New("task not found")
)

// InvalidCallbackPayloadError is returned when a callback body does not
// match the schema of its lifecycle kind. The failure has already been
// recorded when it is returned.
type InvalidCallbackPayloadError struct {
	GUID   string
	Field  string
	Reason string
}

func (e *InvalidCallbackPayloadError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid callback payload for %s: %s", e.GUID, e.Reason)
	}
	return fmt.Sprintf("invalid callback payload for %s: %s: %s", e.GUID, e.Field, e.Reason)
}
