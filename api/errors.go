package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// Error is a failed API call. Transport failures have StatusCode 0; HTTP
// failures carry the decoded server message and, for validation errors, the
// per-field messages.
type Error struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
	cause      error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return "api: " + e.Message
	}
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
}

// Unwrap exposes the underlying transport error, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// HTTPStatus returns the HTTP status code, or 0 for transport failures.
func (e *Error) HTTPStatus() int {
	return e.StatusCode
}

// AsError unwraps err into an *Error.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsTransport returns true for failures that never got an HTTP response.
func IsTransport(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.StatusCode == 0
}

// IsValidation returns true for 400 responses.
func IsValidation(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.StatusCode == http.StatusBadRequest
}

// IsAuthError returns true for 401 responses.
func IsAuthError(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.StatusCode == http.StatusUnauthorized
}

// IsPermissionError returns true for 403 responses.
func IsPermissionError(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.StatusCode == http.StatusForbidden
}

// IsNotFound returns true for 404 responses.
func IsNotFound(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

func transportError(err error) *Error {
	return &Error{Message: err.Error(), cause: err}
}

const maxErrorBody = 1 << 20

// decodeError turns a non-2xx response into an *Error. The server answers
// with {"error": msg}, {"detail": msg}, or a per-field validation map; each
// shape is folded into a readable message.
func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}

	switch value := payload.(type) {
	case map[string]any:
		if msg, ok := stringValue(value["error"]); ok {
			apiErr.Message = msg
			return apiErr
		}
		if msg, ok := stringValue(value["detail"]); ok {
			apiErr.Message = msg
			return apiErr
		}
		fields := make(map[string][]string)
		collectFieldErrors("", value, fields)
		if len(fields) > 0 {
			apiErr.Fields = fields
			apiErr.Message = summarizeFields(fields)
		}
	case []any:
		var messages []string
		for _, item := range value {
			if msg, ok := stringValue(item); ok {
				messages = append(messages, msg)
			}
		}
		if len(messages) > 0 {
			apiErr.Message = strings.Join(messages, "; ")
		}
	}
	return apiErr
}

func stringValue(raw any) (string, bool) {
	msg, ok := raw.(string)
	if !ok || msg == "" {
		return "", false
	}
	return msg, true
}

// collectFieldErrors flattens a validation payload. Nested maps become
// dotted keys, so {"rows": {"2": {"cells": ["bad"]}}} reads as
// "rows.2.cells: bad".
func collectFieldErrors(prefix string, value map[string]any, fields map[string][]string) {
	for key, raw := range value {
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}
		switch v := raw.(type) {
		case string:
			fields[name] = append(fields[name], v)
		case []any:
			for _, item := range v {
				switch typed := item.(type) {
				case string:
					fields[name] = append(fields[name], typed)
				case map[string]any:
					collectFieldErrors(name, typed, fields)
				}
			}
		case map[string]any:
			collectFieldErrors(name, v, fields)
		}
	}
}

func summarizeFields(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, strings.Join(fields[key], "; ")))
	}
	return strings.Join(parts, "; ")
}
