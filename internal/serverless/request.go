// Package serverless implements the one-shot function surface: a JSON event in, a
// status/headers/body triple out, with CORS on every response.
package serverless

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Request is a function invocation event.
type Request struct {
	HTTPMethod      string            `json:"httpMethod"`
	Method          string            `json:"method"`
	Path            string            `json:"path"`
	Headers         map[string]string `json:"headers"`
	Body            json.RawMessage   `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
}

// Response is a function result.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

var (
	errMissingBody      = errors.New("request body is missing")
	errMalformedDataURI = errors.New("malformed base64 data URI")
)

// HTTPMethodName returns the upper-cased method, defaulting to POST when the event has none.
func (r *Request) HTTPMethodName() string {
	m := r.HTTPMethod
	if m == "" {
		m = r.Method
	}
	if m == "" {
		return "POST"
	}
	return strings.ToUpper(m)
}

// Header returns a header value, matching the name case-insensitively.
func (r *Request) Header(name string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// RequestID returns the platform request ID, or a fresh UUID when there is none.
func (r *Request) RequestID() string {
	if id := r.Header("x-vercel-id"); id != "" {
		return id
	}
	return uuid.NewString()
}

// decodePayload unmarshals the body into v. The body may be an object, a JSON string holding
// an object, or (with IsBase64Encoded) a string holding base64 of an object.
func (r *Request) decodePayload(v any) error {
	raw := []byte(strings.TrimSpace(string(r.Body)))
	if len(raw) == 0 || string(raw) == "null" {
		return errMissingBody
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		if r.IsBase64Encoded {
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return fmt.Errorf("body is not valid base64: %w", err)
			}
			s = string(b)
		}
		if strings.TrimSpace(s) == "" {
			return errMissingBody
		}
		raw = []byte(s)
	} else if raw[0] != '{' {
		return errors.New("unexpected body type")
	}
	return json.Unmarshal(raw, v)
}

// DecodeBase64 decodes a base64 document, stripping a data: URI prefix if present.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		_, after, ok := strings.Cut(s, ",")
		if !ok {
			return nil, errMalformedDataURI
		}
		s = after
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if b2, err2 := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); err2 == nil {
			return b2, nil
		}
		return nil, err
	}
	return b, nil
}

// ParseThreshold reads a threshold given as a JSON number or numeric string. Anything missing,
// unparsable, or outside [0, 1] yields def.
func ParseThreshold(raw json.RawMessage, def float64) float64 {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return def
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return def
		}
		s = strings.TrimSpace(str)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > 1 {
		return def
	}
	return v
}
