// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package api

import (
	"context"
	"net/http"
	"time"
)

// readyCheckTimeout bounds the database ping of a readiness probe.
const readyCheckTimeout = 2 * time.Second

// HealthLive handles liveness probe requests.
// Returns 200 OK whenever the process can serve HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests.
// Returns 200 OK only if the database answers and the vector index holds
// vectors; 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
	defer cancel()

	dbConnected := h.db != nil && h.db.Ping(ctx) == nil
	vectors := 0
	if h.index != nil {
		vectors = h.index.Count()
	}
	ready := dbConnected && vectors > 0

	data := map[string]interface{}{
		"database_connected": dbConnected,
		"index_vectors":      vectors,
		"ready_to_serve":     ready,
		"uptime":             time.Since(h.startTime).Seconds(),
	}

	rw := NewResponseWriter(w, r)
	if !ready {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service is not ready", data)
		return
	}
	rw.Success(data)
}
