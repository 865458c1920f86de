package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies a failed API call.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConnectivity means the server could not be reached.
	KindConnectivity
	// KindUnauthenticated means the session is missing or expired (401).
	KindUnauthenticated
	// KindValidation is any other non-2xx response.
	KindValidation
	// KindNotFound is a 404 response.
	KindNotFound
	// KindShape means a 2xx response body did not match the expected record shape.
	KindShape
)

func (k Kind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindShape:
		return "shape"
	default:
		return "unknown"
	}
}

// Sentinel errors
var (
	// ErrUnauthenticated is wrapped by every 401 on a non-auth endpoint.
	ErrUnauthenticated = errors.New("please login to continue")

	// ErrConnectivity is wrapped by transport failures.
	ErrConnectivity = errors.New("unable to connect to the server")
)

// Error is a failed API call with a human readable message.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsUnauthenticated reports whether err came from a 401.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || KindOf(err) == KindUnauthenticated
}

// IsConnectivity reports whether err came from an unreachable server.
func IsConnectivity(err error) bool {
	return errors.Is(err, ErrConnectivity) || KindOf(err) == KindConnectivity
}

// Reword returns a copy of err with msg as its message, keeping kind and
// cause. Used by callers that know which operation failed.
func Reword(err error, msg string) error {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return &Error{Kind: apiErr.Kind, Status: apiErr.Status, Message: msg, Err: apiErr}
}

func connectivityError(server string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &Error{
		Kind:    KindConnectivity,
		Message: fmt.Sprintf("Unable to connect to the server at %s. Please ensure the server is running.", server),
		Err:     fmt.Errorf("%w: %v", ErrConnectivity, err),
	}
}

func unauthenticatedError() error {
	return &Error{
		Kind:    KindUnauthenticated,
		Status:  http.StatusUnauthorized,
		Message: "Please login to continue",
		Err:     ErrUnauthenticated,
	}
}

// ServerMessage extracts the message from a DRF style error body: the
// "error" or "detail" string, or field errors joined as "field: message".
func ServerMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	for _, key := range []string{"error", "detail"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		switch v := payload[k].(type) {
		case string:
			parts = append(parts, fmt.Sprintf("%s: %s", k, v))
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					parts = append(parts, fmt.Sprintf("%s: %s", k, s))
				}
			}
		}
	}
	return strings.Join(parts, "; ")
}
