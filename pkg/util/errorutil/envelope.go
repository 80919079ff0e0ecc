package errorutil

import "time"

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorBody is the error portion of the response envelope. Optional fields
// are omitted entirely when unset rather than emitted as null.
type ErrorBody struct {
	Type           string       `json:"type"`
	Code           string       `json:"code"`
	Title          string       `json:"title"`
	Status         int          `json:"status"`
	Detail         string       `json:"detail"`
	Timestamp      time.Time    `json:"timestamp"`
	Path           string       `json:"path,omitempty"`
	Errors         []FieldError `json:"errors,omitempty"`
	TraceID        string       `json:"traceId,omitempty"`
	RetryAfter     *int         `json:"retryAfter,omitempty"`
	AllowedMethods []string     `json:"allowedMethods,omitempty"`
}

// Envelope wraps every error response. Success is always false.
type Envelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// NewEnvelope renders a taxonomy entry as a response envelope. An empty
// detail falls back to the entry's curated default message; raw internal
// error text is never placed here.
func NewEnvelope(entry Entry, detail, path string) Envelope {
	if detail == "" {
		detail = entry.DefaultMessage
	}
	return Envelope{
		Error: ErrorBody{
			Type:      entry.Type,
			Code:      entry.Code,
			Title:     entry.Title,
			Status:    entry.Status,
			Detail:    detail,
			Timestamp: time.Now().UTC(),
			Path:      path,
		},
	}
}

// WithFieldErrors attaches field-level validation errors.
func (e Envelope) WithFieldErrors(errs []FieldError) Envelope {
	e.Error.Errors = errs
	return e
}

// WithTraceID attaches a correlation identifier, used for 500-class errors.
func (e Envelope) WithTraceID(traceID string) Envelope {
	e.Error.TraceID = traceID
	return e
}
