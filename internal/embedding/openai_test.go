package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/hyperjump/resumatch/internal/vector"
)

type embeddingsRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

func newOpenAITestServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data := make([]map[string]interface{}, len(req.Input))
		// Answer in reverse order to exercise index mapping.
		for i := range req.Input {
			j := len(req.Input) - 1 - i
			vec := make([]float64, req.Dimensions)
			vec[j%req.Dimensions] = 2
			data[i] = map[string]interface{}{"object": "embedding", "index": j, "embedding": vec}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func TestOpenAIEmbedder_EmbedBatch(t *testing.T) {
	var calls int32
	srv := newOpenAITestServer(t, &calls)
	defer srv.Close()

	e, err := NewOpenAIEmbedder("sk-test", srv.URL+"/", "text-embedding-3-small", 3, 10)
	if err != nil {
		t.Fatal(err)
	}
	out, err := e.EmbedBatch(context.Background(), []string{"first", "second", "third"})
	if err != nil {
		t.Fatal(err)
	}
	for i, vec := range out {
		if len(vec) != 3 || vec[i] != 1 {
			t.Errorf("embedding %d = %v", i, vec)
		}
		if !vector.IsNormalized(vec, 1e-6) {
			t.Errorf("embedding %d not normalized", i)
		}
	}

	if _, err := e.Embed(context.Background(), "second"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected cached second call, server saw %d requests", calls)
	}
}

func TestOpenAIEmbedder_validation(t *testing.T) {
	if _, err := NewOpenAIEmbedder("", "", "m", 3, 0); err == nil {
		t.Error("expected error without API key")
	}
	e, err := NewOpenAIEmbedder("sk-test", "http://127.0.0.1:0/", "m", 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Embed(context.Background(), " "); err != ErrEmptyText {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}

func TestOpenAIEmbedder_dimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"m","data":[{"object":"embedding","index":0,"embedding":[1,0]}],"usage":{"prompt_tokens":1,"total_tokens":1}}`))
	}))
	defer srv.Close()
	e, err := NewOpenAIEmbedder("sk-test", srv.URL+"/", "m", 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Embed(context.Background(), "text"); err == nil {
		t.Error("expected dimension error")
	}
}
