package serverless

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/hyperjump/resumatch/internal/corpus"
	"github.com/hyperjump/resumatch/internal/lazy"
	"github.com/hyperjump/resumatch/internal/matcher"
)

// RetryAfterSeconds is sent with 503 responses while a shared resource is initializing.
const RetryAfterSeconds = 5

const (
	msgInitFailed = "Server initialization failed."
	msgStarting   = "Server is starting up, retry later."
	msgInternal   = "An unexpected internal server error occurred."
)

// CORSHeaders returns the headers set on every response.
func CORSHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "POST, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type",
	}
}

func newResponse(status int, body string) *Response {
	return &Response{StatusCode: status, Headers: CORSHeaders(), Body: body}
}

func jsonResponse(status int, v any) *Response {
	b, err := json.Marshal(v)
	if err != nil {
		return errorResponse(500, msgInternal)
	}
	r := newResponse(status, string(b))
	r.Headers["Content-Type"] = "application/json"
	return r
}

func errorResponse(status int, msg string) *Response {
	return jsonResponse(status, map[string]string{"error": msg})
}

// ErrorStatus maps an error from the matching flow to an HTTP status and a client-safe message.
// Internal details are only exposed for validation and lookup errors.
func ErrorStatus(err error) (int, string) {
	var (
		ve *matcher.ValidationError
		ie *lazy.InitError
	)
	switch {
	case errors.As(err, &ve):
		return 400, ve.Error()
	case errors.Is(err, corpus.ErrJobNotFound):
		return 404, err.Error()
	case errors.Is(err, lazy.ErrInitializing):
		return 503, msgStarting
	case errors.As(err, &ie):
		return 500, msgInitFailed
	default:
		return 500, msgInternal
	}
}

func errorFor(err error) *Response {
	status, msg := ErrorStatus(err)
	r := errorResponse(status, msg)
	if status == 503 {
		r.Headers["Retry-After"] = strconv.Itoa(RetryAfterSeconds)
	}
	return r
}
