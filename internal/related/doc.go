// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

// Package related implements the related-articles retrieval and re-ranking pipeline.
//
// A request flows through five stages:
//
//	Resolver   normalizes the raw title and resolves it to an article record
//	Retriever  reconstructs the article's embedding and gathers its nearest neighbours
//	MetaFilter drops administrative, list and disambiguation pages
//	Blender    combines semantic distance and popularity into one score
//	Ranker     sorts, truncates and shapes the final result list
//
// The metadata store and the vector index are consumed through the MetadataStore and
// VectorIndex interfaces. Both are injected once at construction and never mutated, so a
// Pipeline is safe for concurrent use by any number of requests.
//
// Every stage reports failures as explicit error values:
//
//	*NotFoundError          the normalized title matches no article
//	*EmbeddingMissingError  the article exists but the index holds no vector for it
//	*StoreUnavailableError  the metadata store or vector index failed
//
// Use errors.As (or errors.Is with ErrNotFound, ErrEmbeddingMissing, ErrStoreUnavailable)
// to classify them at the transport boundary.
package related
