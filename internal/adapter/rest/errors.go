package rest

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// mapStatus converts a non-2xx response into a *domain.APIError.
// Bad requests carrying a field map also expose a *domain.ValidationError.
func mapStatus(op string, status int, body []byte) error {
	apiErr := &domain.APIError{Op: op, Status: status, Kind: kindForStatus(status)}

	msg, fields := parseErrorBody(body)
	apiErr.Message = msg

	if status == http.StatusBadRequest && len(fields) > 0 {
		vErr := domain.ValidationErrorFromMap(fields)
		apiErr.Err = vErr
		if apiErr.Message == "" && len(vErr.Errors) > 0 {
			apiErr.Message = vErr.Errors[0].Message
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.ErrValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthorized
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrConflict
	default:
		return domain.ErrTransport
	}
}

// parseErrorBody understands the server's error shapes: {"error": "..."},
// {"detail": "..."} and field maps {"field": ["msg", ...]} where a value may
// also be a bare string.
func parseErrorBody(body []byte) (string, map[string][]string) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return strings.TrimSpace(string(firstLine(body))), nil
	}

	for _, key := range []string{"error", "detail", "message"} {
		if v, ok := raw[key]; ok {
			var s string
			if json.Unmarshal(v, &s) == nil && s != "" {
				return s, nil
			}
		}
	}

	fields := make(map[string][]string, len(raw))
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if msgs := decodeMessages(raw[k]); len(msgs) > 0 {
			fields[k] = msgs
		}
	}
	return "", fields
}

func decodeMessages(v json.RawMessage) []string {
	var list []string
	if json.Unmarshal(v, &list) == nil {
		return list
	}
	var one string
	if json.Unmarshal(v, &one) == nil && one != "" {
		return []string{one}
	}
	return nil
}

// firstLine keeps non-JSON error pages (proxies, HTML) out of messages.
func firstLine(b []byte) []byte {
	if strings.HasPrefix(strings.TrimSpace(string(b)), "<") {
		return nil
	}
	if i := strings.IndexByte(string(b), '\n'); i >= 0 {
		b = b[:i]
	}
	if len(b) > 200 {
		b = b[:200]
	}
	return b
}
