// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

// Package embedder turns article text into vectors for the loader.
//
// The server never embeds: it reads vectors stored at load time.
package embedder

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/tomtom215/wikirelated/internal/config"
)

// ErrNoProvider is returned by New when embedding is disabled.
var ErrNoProvider = errors.New("no embedder provider configured")

// Embedder produces one unit-length vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Name identifies the provider in logs and metrics.
	Name() string
	Close() error
}

// New builds the embedder selected by cfg.
func New(ctx context.Context, cfg *config.LoaderConfig) (Embedder, error) {
	switch cfg.EmbedderProvider {
	case config.EmbedderOpenAI:
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.EmbedderModel, "")
	case config.EmbedderGemini:
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.EmbedderModel)
	case config.EmbedderNone, "":
		return nil, ErrNoProvider
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", cfg.EmbedderProvider)
	}
}

// l2normalize scales v to unit length in place. Zero vectors are left alone.
func l2normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

// chunks splits texts into runs of at most size.
func chunks(texts []string, size int) [][]string {
	var out [][]string
	for len(texts) > size {
		out = append(out, texts[:size])
		texts = texts[size:]
	}
	if len(texts) > 0 {
		out = append(out, texts)
	}
	return out
}
