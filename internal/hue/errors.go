package hue

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StatusError is returned when the bridge answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// BridgeError is a single entry of a v1 error response.
type BridgeError struct {
	Type        int    `json:"type"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

// APIError is returned when the bridge answers 200 but reports errors in the
// v1 response array, e.g. an unauthorized user or a read-only parameter.
type APIError struct {
	Method string
	Path   string
	Errors []BridgeError
}

func (e *APIError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, be := range e.Errors {
		if be.Address != "" {
			msgs[i] = fmt.Sprintf("%s (type %d, %s)", be.Description, be.Type, be.Address)
		} else {
			msgs[i] = fmt.Sprintf("%s (type %d)", be.Description, be.Type)
		}
	}
	return fmt.Sprintf("%s %s: bridge error: %s", e.Method, e.Path, strings.Join(msgs, "; "))
}

// parseBridgeErrors extracts v1 error entries from a response body. Bodies
// that are not a JSON array yield nil.
func parseBridgeErrors(body []byte) []BridgeError {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "[") {
		return nil
	}

	var items []struct {
		Error *BridgeError `json:"error"`
	}
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil
	}

	var errs []BridgeError
	for _, item := range items {
		if item.Error != nil {
			errs = append(errs, *item.Error)
		}
	}
	return errs
}
