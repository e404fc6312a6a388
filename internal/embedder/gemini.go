// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package embedder

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tomtom215/wikirelated/internal/metrics"
)

const (
	providerGemini = "gemini"

	defaultGeminiModel = "text-embedding-004"

	// geminiBatchSize is the BatchEmbedContents request limit.
	geminiBatchSize = 100
)

// GeminiEmbedder uses the Gemini embedding API.
type GeminiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

// NewGemini creates a Gemini embedder. An empty model selects text-embedding-004.
func NewGemini(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiEmbedder{
		client: client,
		model:  client.EmbeddingModel(model),
	}, nil
}

// Name implements Embedder.
func (e *GeminiEmbedder) Name() string { return providerGemini }

// Embed implements Embedder.
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, batch := range chunks(texts, geminiBatchSize) {
		vecs, err := e.embedBatch(ctx, batch)
		metrics.RecordEmbeddingRequest(providerGemini, err)
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *GeminiEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	b := e.model.NewBatch()
	for _, t := range texts {
		b.AddContent(genai.Text(t))
	}

	resp, err := e.model.BatchEmbedContents(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("gemini batch embed failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("gemini returned an empty embedding at position %d", i)
		}
		v := make([]float32, len(emb.Values))
		for j, x := range emb.Values {
			v[j] = float32(x)
		}
		l2normalize(v)
		out[i] = v
	}
	return out, nil
}

// Close implements Embedder.
func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}
