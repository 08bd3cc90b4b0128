package serverless

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/hyperjump/resumatch/internal/corpus"
	"github.com/hyperjump/resumatch/internal/embedding"
	"github.com/hyperjump/resumatch/internal/extract"
	"github.com/hyperjump/resumatch/internal/lazy"
	"github.com/hyperjump/resumatch/internal/matcher"
	"github.com/hyperjump/resumatch/internal/models"
)

// rawExtractor treats every upload as plain text regardless of extension.
type rawExtractor struct{}

func (rawExtractor) ExtractFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(string(b)) == "" {
		return "", extract.ErrNoText
	}
	return string(b), nil
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func testHandler(t *testing.T) *Handler {
	t.Helper()
	e := embedding.NewMockEmbedder(2)
	e.Pin("backend", []float32{1, 0})
	e.Pin("golang", []float32{0.9, 0.1})
	e.Pin("accounting", []float32{0, 1})
	c, err := corpus.New(corpus.Meta{Dimensions: 2}, []corpus.JobRecord{
		{ID: "1", Title: "Backend Engineer", Description: "backend", Embedding: []float32{1, 0}},
		{ID: "2", Title: "Accountant", Description: "accounting", Embedding: []float32{0, 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	m := matcher.New(lazy.Ready[embedding.Embedder]("embedding model", e), lazy.Ready("job corpus", c),
		matcher.WithTempDir(t.TempDir()), matcher.WithExtractor(rawExtractor{}))
	return NewHandler(m)
}

func body(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHandler_methods(t *testing.T) {
	h := testHandler(t)
	resp := h.Match(context.Background(), &Request{HTTPMethod: "OPTIONS"})
	if resp.StatusCode != 200 || resp.Body != "" {
		t.Errorf("OPTIONS = %d %q", resp.StatusCode, resp.Body)
	}
	if resp.Headers["Access-Control-Allow-Origin"] != "*" {
		t.Error("missing CORS header on OPTIONS")
	}
	resp = h.FindCandidates(context.Background(), &Request{HTTPMethod: "GET"})
	if resp.StatusCode != 405 {
		t.Errorf("GET = %d", resp.StatusCode)
	}
	if resp.Headers["Access-Control-Allow-Origin"] != "*" {
		t.Error("missing CORS header on 405")
	}
}

func TestHandler_FindCandidates(t *testing.T) {
	h := testHandler(t)
	payload := map[string]any{
		"job_description": "Senior backend developer",
		"threshold":       "0.5",
		"resumes_data": []map[string]any{
			{"filename": "gopher.txt", "content": "data:text/plain;base64," + b64("golang services")},
			{"filename": "bad.txt", "content": "%%%"},
			{"filename": "", "content": b64("accounting ledger")},
		},
	}
	resp := h.FindCandidates(context.Background(), &Request{HTTPMethod: "POST", Body: body(t, payload)})
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d body = %s", resp.StatusCode, resp.Body)
	}
	var got []models.CandidateMatch
	if err := json.Unmarshal([]byte(resp.Body), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Filename != "gopher.txt" {
		t.Errorf("matches = %+v", got)
	}
	if resp.Headers[FallbackHeader] != "false" {
		t.Errorf("fallback header = %q", resp.Headers[FallbackHeader])
	}
}

func TestHandler_FindCandidates_fallbackFilename(t *testing.T) {
	h := testHandler(t)
	payload := map[string]any{
		"job_description": "backend",
		"threshold":       2,
		"resumes_data":    []map[string]any{{"filename": nil, "content": b64("accounting only")}},
	}
	resp := h.FindCandidates(context.Background(), &Request{Body: body(t, payload)})
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d body = %s", resp.StatusCode, resp.Body)
	}
	var got []models.CandidateMatch
	if err := json.Unmarshal([]byte(resp.Body), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Filename != "resume_1.pdf" {
		t.Errorf("matches = %+v", got)
	}
	if resp.Headers[FallbackHeader] != "true" {
		t.Errorf("below-threshold result should be a fallback, header = %q", resp.Headers[FallbackHeader])
	}
}

func TestHandler_FindCandidates_byJobID(t *testing.T) {
	h := testHandler(t)
	payload := map[string]any{
		"job_id":       2,
		"resumes_data": []map[string]any{{"filename": "acct.txt", "content": b64("accounting")}},
	}
	resp := h.FindCandidates(context.Background(), &Request{Body: body(t, payload)})
	if resp.StatusCode != 200 || !strings.Contains(resp.Body, "acct.txt") {
		t.Errorf("status = %d body = %s", resp.StatusCode, resp.Body)
	}
	payload["job_id"] = "404"
	resp = h.FindCandidates(context.Background(), &Request{Body: body(t, payload)})
	if resp.StatusCode != 404 {
		t.Errorf("unknown job status = %d", resp.StatusCode)
	}
}

func TestHandler_FindCandidates_validation(t *testing.T) {
	h := testHandler(t)
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"no job description", map[string]any{"resumes_data": []map[string]any{{"filename": "a.pdf", "content": b64("x")}}}},
		{"no resumes", map[string]any{"job_description": "jd"}},
		{"item without content", map[string]any{"job_description": "jd", "resumes_data": []map[string]any{{"filename": "a.pdf"}}}},
		{"item without filename", map[string]any{"job_description": "jd", "resumes_data": []map[string]any{{"content": b64("x")}}}},
		{"one item without filename", map[string]any{"job_description": "jd", "resumes_data": []map[string]any{
			{"filename": "a.pdf", "content": b64("x")},
			{"content": b64("y")},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.FindCandidates(context.Background(), &Request{Body: body(t, tt.payload)})
			if resp.StatusCode != 400 {
				t.Errorf("status = %d body = %s", resp.StatusCode, resp.Body)
			}
		})
	}
	resp := h.FindCandidates(context.Background(), &Request{})
	if resp.StatusCode != 400 {
		t.Errorf("empty body status = %d", resp.StatusCode)
	}
}

func TestHandler_Match(t *testing.T) {
	h := testHandler(t)
	payload := map[string]any{"resume": b64("golang engineer"), "filename": "cv.txt", "threshold": 0.5}
	resp := h.Match(context.Background(), &Request{Body: body(t, payload)})
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d body = %s", resp.StatusCode, resp.Body)
	}
	var got []models.JobMatch
	if err := json.Unmarshal([]byte(resp.Body), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].JobID != "1" || got[0].Title != "Backend Engineer" {
		t.Errorf("matches = %+v", got)
	}

	resp = h.Match(context.Background(), &Request{Body: body(t, map[string]any{"resume": "data:application/pdf;base64"})})
	if resp.StatusCode != 400 {
		t.Errorf("malformed data URI status = %d", resp.StatusCode)
	}
	resp = h.Match(context.Background(), &Request{Body: body(t, map[string]any{"threshold": 0.5})})
	if resp.StatusCode != 400 {
		t.Errorf("missing resume status = %d", resp.StatusCode)
	}
}

func TestHandler_initErrors(t *testing.T) {
	failing := lazy.New[embedding.Embedder]("embedding model", func(ctx context.Context) (embedding.Embedder, error) {
		return nil, errors.New("onnxruntime not found")
	})
	h := NewHandler(matcher.New(failing, nil))
	payload := map[string]any{"job_description": "jd", "resumes_data": []map[string]any{{"filename": "cv.pdf", "content": b64("x")}}}
	for i := 0; i < 2; i++ {
		resp := h.FindCandidates(context.Background(), &Request{Body: body(t, payload)})
		if resp.StatusCode != 500 || !strings.Contains(resp.Body, msgInitFailed) {
			t.Errorf("attempt %d: status = %d body = %s", i, resp.StatusCode, resp.Body)
		}
		if strings.Contains(resp.Body, "onnxruntime") {
			t.Error("internal error detail leaked")
		}
	}
}

func TestHandler_initInProgress(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	slow := lazy.New[embedding.Embedder]("embedding model", func(ctx context.Context) (embedding.Embedder, error) {
		once.Do(func() { close(started) })
		<-release
		return embedding.NewMockEmbedder(2), nil
	})
	h := NewHandler(matcher.New(slow, nil))
	slow.Warm(context.Background())
	<-started
	defer close(release)

	payload := map[string]any{"job_description": "jd", "resumes_data": []map[string]any{{"filename": "cv.pdf", "content": b64("x")}}}
	resp := h.FindCandidates(context.Background(), &Request{Body: body(t, payload)})
	if resp.StatusCode != 503 || resp.Headers["Retry-After"] != fmt.Sprint(RetryAfterSeconds) {
		t.Errorf("status = %d headers = %v", resp.StatusCode, resp.Headers)
	}
}
