package upstream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies an upstream API failure. Only AuthExpired ever drives the
// token-refresh protocol; everything else propagates to the caller untouched.
type Kind string

const (
	// AuthExpired means the server rejected the bearer credential.
	AuthExpired Kind = "auth_expired"
	// AuthInvalid means bad input (login/registration validation errors).
	AuthInvalid Kind = "auth_invalid"
	// Forbidden means the credential is valid but lacks the permission; it
	// never triggers a refresh.
	Forbidden Kind = "forbidden"
	// NotFound is a domain 404; it must never clear the session nor trigger a refresh.
	NotFound Kind = "not_found"
	// NetworkFailure is a transport-level error (no HTTP status received).
	NetworkFailure Kind = "network_failure"
	// ServerError covers 5xx and any other unexpected status.
	ServerError Kind = "server_error"
)

// Error is the canonical form of every upstream failure. The server's error
// payloads come in several shapes (a "detail" string, a "detail" array, a
// "non_field_errors" array, per-field message arrays); they are all normalized
// here into one {Summary, Fields} structure at the gateway boundary.
type Error struct {
	Kind    Kind
	Status  int
	Summary string
	Fields  map[string][]string
}

func (e *Error) Error() string {
	if e.Summary != "" {
		return fmt.Sprintf("upstream: %s: %s", e.Kind, e.Summary)
	}
	return fmt.Sprintf("upstream: %s (status %d)", e.Kind, e.Status)
}

// ErrorOf unwraps err down to an upstream *Error if there is one.
func ErrorOf(err error) (*Error, bool) {
	var uerr *Error
	if errors.As(err, &uerr) {
		return uerr, true
	}
	return nil, false
}

// KindOf reports the Kind of err, or "" if err is not an upstream Error.
func KindOf(err error) Kind {
	if uerr, ok := ErrorOf(err); ok {
		return uerr.Kind
	}
	return ""
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return AuthExpired
	case status == http.StatusForbidden:
		return Forbidden
	case status == http.StatusNotFound:
		return NotFound
	case status >= 400 && status < 500:
		return AuthInvalid
	default:
		return ServerError
	}
}

func defaultSummary(status int) string {
	switch kindForStatus(status) {
	case AuthExpired:
		return "authentication credentials are missing or have expired"
	case Forbidden:
		return "permission denied"
	case NotFound:
		return "not found"
	case AuthInvalid:
		return "the server rejected the submitted data"
	default:
		return "the server could not process the request"
	}
}

// newError normalizes an upstream error response body into an Error.
func newError(status int, body []byte) *Error {
	uerr := &Error{
		Kind:   kindForStatus(status),
		Status: status,
		Fields: nil,
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload) == 0 {
		uerr.Summary = defaultSummary(status)
		return uerr
	}

	var summaries []string
	fields := make(map[string][]string)

	appendDetail := func(val interface{}) {
		switch v := val.(type) {
		case string:
			summaries = append(summaries, v)
		case []interface{}:
			summaries = append(summaries, stringList(v)...)
		case map[string]interface{}:
			for fld, msgs := range v {
				fields[fld] = append(fields[fld], stringListOrOne(msgs)...)
			}
		}
	}

	for _, key := range sortedKeys(payload) {
		val := payload[key]
		switch key {
		case "detail", "non_field_errors", "message", "error":
			appendDetail(val)
		default:
			if msgs := stringListOrOne(val); len(msgs) > 0 {
				fields[key] = append(fields[key], msgs...)
			}
		}
	}

	// deterministic summary: general messages first, then per-field messages in
	// field name order
	parts := summaries
	for _, fld := range sortedKeys2(fields) {
		parts = append(parts, strings.Join(fields[fld], ", "))
	}
	if len(parts) > 0 {
		uerr.Summary = strings.Join(parts, ", ")
	} else {
		uerr.Summary = defaultSummary(status)
	}
	if len(fields) > 0 {
		uerr.Fields = fields
	}
	return uerr
}

func stringList(vals []interface{}) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringListOrOne(val interface{}) []string {
	switch v := val.(type) {
	case string:
		return []string{v}
	case []interface{}:
		return stringList(v)
	}
	return nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys2(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
