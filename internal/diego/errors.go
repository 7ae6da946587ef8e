package diego

import "fmt"

// DNSResolutionError is returned when the BBS hostname cannot be resolved.
// It is not retried within a call.
type DNSResolutionError struct {
	Host string
	Err  error
}

func (e *DNSResolutionError) Error() string {
	return fmt.Sprintf("dns resolution failed for %s: %v", e.Host, e.Err)
}

func (e *DNSResolutionError) Unwrap() error { return e.Err }

// RequestError is returned once every attempt of a call failed at the
// transport level. Its message is the last failure's message.
type RequestError struct {
	Attempts int
	Err      error
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

// EncodeError is returned when a request cannot be serialized.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return "encode request: " + e.Err.Error() }

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError is returned when a 200 response body cannot be parsed.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode response: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// ResponseError is returned when the BBS answers with a non-200 status.
type ResponseError struct {
	Status int
	Body   []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("failed with status: %d, body: %s", e.Status, e.Body)
}
