package model

import "time"

// Response is the envelope of every callback API reply.
type Response struct {
	Status     string      `json:"status"`
	RequestID  string      `json:"request_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Data       any         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      *APIError   `json:"error"`
}

// Pagination describes one page of a build or task listing.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// Page size bounds for listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListOptions pages and filters build and task listings. Empty filters
// match everything.
type ListOptions struct {
	Limit   int
	Offset  int
	State   string
	AppGUID string
}

// DefaultListOptions returns the first page with the default size.
func DefaultListOptions() ListOptions {
	return ListOptions{Limit: DefaultPageSize}
}

// Clamp pulls Limit into 1..MaxPageSize and Offset to non-negative.
func (o *ListOptions) Clamp() {
	if o.Limit <= 0 {
		o.Limit = DefaultPageSize
	}
	if o.Limit > MaxPageSize {
		o.Limit = MaxPageSize
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}

// Page describes the page o selects out of total matching records.
func (o ListOptions) Page(total int) *Pagination {
	return &Pagination{
		Total:   total,
		Limit:   o.Limit,
		Offset:  o.Offset,
		HasMore: o.Offset+o.Limit < total,
	}
}
