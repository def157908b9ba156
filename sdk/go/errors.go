package formmailer

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors returned by the SDK.
var (
	// ErrNoSource is returned when a call names no event source.
	ErrNoSource = errors.New("formmailer: source is required")

	// ErrNoValues is returned by the relay when a form post carries no fields.
	ErrNoValues = errors.New("formmailer: form has no values")

	// ErrInvalidForm is returned by the relay when the form body cannot be parsed.
	ErrInvalidForm = errors.New("formmailer: invalid form body")
)

// APIError represents an error response from the formmailer API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("formmailer: API error %d [%s]: %s", e.StatusCode, e.Code, e.Message)
}

// apiErrorWrapper matches the formmailer API error envelope.
type apiErrorWrapper struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseAPIError(statusCode int, body []byte) error {
	var wrapper apiErrorWrapper
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Error.Code != "" {
		return &APIError{
			StatusCode: statusCode,
			Code:       wrapper.Error.Code,
			Message:    wrapper.Error.Message,
		}
	}

	return &APIError{
		StatusCode: statusCode,
		Code:       "unknown",
		Message:    string(body),
	}
}

// IsAPIError checks whether err is an APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsTriggerNotFound reports whether err means no trigger is bound to the source.
func IsTriggerNotFound(err error) bool {
	apiErr, ok := IsAPIError(err)
	return ok && apiErr.Code == "trigger_not_found"
}
