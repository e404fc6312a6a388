// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package embedder

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/wikirelated/internal/config"
	"github.com/tomtom215/wikirelated/internal/metrics"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingDatum struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// fakeOpenAI answers /embeddings with [len(text), 0] per input, in reverse order.
func fakeOpenAI(t *testing.T, status int) (*httptest.Server, *[]embeddingRequest) {
	t.Helper()
	var seen []embeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		seen = append(seen, req)

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
			return
		}

		data := make([]embeddingDatum, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, embeddingDatum{
				Object:    "embedding",
				Embedding: []float32{float32(len(req.Input[i])), 0},
				Index:     i,
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestOpenAIEmbedder_OrdersByIndexAndNormalizes(t *testing.T) {
	srv, seen := fakeOpenAI(t, http.StatusOK)

	e, err := NewOpenAI("test-key", "", srv.URL+"/v1")
	if err != nil {
		t.Fatal(err)
	}
	before := testutil.ToFloat64(metrics.EmbeddingRequests.WithLabelValues(providerOpenAI, "success"))

	got, err := e.Embed(context.Background(), []string{"a", "bbb"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d vectors, want 2", len(got))
	}
	for i, v := range got {
		if math.Abs(float64(v[0])-1) > 1e-6 || v[1] != 0 {
			t.Errorf("vector %d = %v, want unit [1 0]", i, v)
		}
	}

	if len(*seen) != 1 || (*seen)[0].Model != defaultOpenAIModel {
		t.Errorf("requests = %+v", *seen)
	}
	after := testutil.ToFloat64(metrics.EmbeddingRequests.WithLabelValues(providerOpenAI, "success"))
	if after-before != 1 {
		t.Errorf("success counter delta = %v, want 1", after-before)
	}
}

func TestOpenAIEmbedder_SplitsLargeInputs(t *testing.T) {
	srv, seen := fakeOpenAI(t, http.StatusOK)

	e, err := NewOpenAI("test-key", "text-embedding-3-large", srv.URL+"/v1")
	if err != nil {
		t.Fatal(err)
	}

	texts := make([]string, openAIBatchSize+3)
	for i := range texts {
		texts[i] = strings.Repeat("x", i%5+1)
	}
	got, err := e.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(got) != len(texts) {
		t.Errorf("got %d vectors, want %d", len(got), len(texts))
	}
	if len(*seen) != 2 {
		t.Errorf("made %d requests, want 2", len(*seen))
	}
}

func TestOpenAIEmbedder_Errors(t *testing.T) {
	srv, _ := fakeOpenAI(t, http.StatusInternalServerError)

	e, err := NewOpenAI("test-key", "", srv.URL+"/v1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Embed(context.Background(), []string{"text"}); err == nil {
		t.Error("expected an error for a failing upstream")
	}
	if _, err := e.Embed(context.Background(), []string{""}); err == nil {
		t.Error("expected an error for empty text")
	}

	if _, err := NewOpenAI("", "", ""); err == nil {
		t.Error("missing key must fail")
	}
}

func TestNew(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	if _, err := New(ctx, &config.LoaderConfig{EmbedderProvider: config.EmbedderNone}); !errors.Is(err, ErrNoProvider) {
		t.Errorf("none provider error = %v, want ErrNoProvider", err)
	}
	if _, err := New(ctx, &config.LoaderConfig{EmbedderProvider: "word2vec"}); err == nil {
		t.Error("unknown provider must fail")
	}

	e, err := New(ctx, &config.LoaderConfig{EmbedderProvider: config.EmbedderOpenAI, OpenAIAPIKey: "k"})
	if err != nil {
		t.Fatalf("New(openai) error = %v", err)
	}
	if e.Name() != providerOpenAI {
		t.Errorf("Name() = %s", e.Name())
	}

	if _, err := New(ctx, &config.LoaderConfig{EmbedderProvider: config.EmbedderGemini}); err == nil {
		t.Error("gemini without key must fail")
	}
}

func TestL2Normalize(t *testing.T) {
	t.Parallel()

	v := []float32{3, 4}
	l2normalize(v)
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("l2normalize([3 4]) = %v", v)
	}

	zero := []float32{0, 0}
	l2normalize(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}

func TestChunks(t *testing.T) {
	t.Parallel()

	got := chunks([]string{"a", "b", "c", "d", "e"}, 2)
	if len(got) != 3 || len(got[2]) != 1 {
		t.Errorf("chunks() = %v", got)
	}
	if got := chunks(nil, 2); len(got) != 0 {
		t.Errorf("chunks(nil) = %v", got)
	}
}
