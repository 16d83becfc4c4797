package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// maxDetailLength bounds how much of an error body is echoed into messages.
const maxDetailLength = 512

// RequestError reports a failed exchange with the optimization service:
// a transport failure, a non-2xx status, or a body that is not the expected JSON.
type RequestError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 && (e.StatusCode < 200 || e.StatusCode > 299) {
		msg := fmt.Sprintf("HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
		if detail := e.Detail(); detail != "" {
			msg += ": " + detail
		}
		return msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s %s failed", e.Method, e.URL)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Detail extracts a human-readable message from the error body. It understands
// {"detail": ...} and {"error": ...} bodies and otherwise returns the trimmed text.
func (e *RequestError) Detail() string {
	trimmed := strings.TrimSpace(string(e.Body))
	if trimmed == "" {
		return ""
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			switch v := payload[key].(type) {
			case nil:
			case string:
				return v
			default:
				if encoded, err := json.Marshal(v); err == nil {
					return truncate(string(encoded))
				}
			}
		}
	}
	return truncate(trimmed)
}

func truncate(s string) string {
	if len(s) <= maxDetailLength {
		return s
	}
	return s[:maxDetailLength] + "..."
}
