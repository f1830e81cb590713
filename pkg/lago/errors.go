package lago

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
)

// Error codes and field error tags used by Lago in error responses.
const (
	CodeValidationErrors = "validation_errors"
	TagValueAlreadyExist = "value_already_exist"
)

// ErrorResponse is the JSON body Lago sends with non-2xx responses.
type ErrorResponse struct {
	Status       int             `json:"status"`
	Error        string          `json:"error"`
	Code         string          `json:"code"`
	ErrorDetails json.RawMessage `json:"error_details,omitempty"`
}

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte

	// Response is the decoded body, or nil if the body was not a JSON object.
	Response *ErrorResponse
}

func newHTTPError(method, path string, status int, body []byte) *HTTPError {
	e := &HTTPError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Body:       body,
	}
	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil {
		e.Response = &resp
	}
	return e
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d for %s %s: %s", e.StatusCode, e.Method, e.Path, string(e.Body))
}

// FieldErrors maps a field name to the error tags reported for it.
type FieldErrors map[string][]string

// ValidationErrors returns the per-event error map of a 422 validation
// response, keyed by position within the submitted batch. ok is false when the
// error is any other kind of failure, or when error_details is not a map of
// non-negative integer indices to field errors.
func (e *HTTPError) ValidationErrors() (details map[int]FieldErrors, ok bool) {
	if e.StatusCode != http.StatusUnprocessableEntity || e.Response == nil {
		return nil, false
	}
	if e.Response.Code != CodeValidationErrors || len(e.Response.ErrorDetails) == 0 {
		return nil, false
	}

	var raw map[string]FieldErrors
	if err := json.Unmarshal(e.Response.ErrorDetails, &raw); err != nil {
		return nil, false
	}

	details = make(map[int]FieldErrors, len(raw))
	for key, fields := range raw {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 {
			return nil, false
		}
		details[idx] = fields
	}
	return details, true
}

// IsDuplicateTransaction reports whether the only error on an event is that
// its transaction_id was already ingested.
func (f FieldErrors) IsDuplicateTransaction() bool {
	if len(f) != 1 {
		return false
	}
	tags, ok := f["transaction_id"]
	return ok && slices.Equal(tags, []string{TagValueAlreadyExist})
}
