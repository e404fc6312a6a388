// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

/*
Package middleware provides HTTP middleware shared by every route.

  - RequestID: accepts or generates X-Request-ID, echoes it on the response
    and stores request and correlation ids in the context for logging.
  - PrometheusMetrics: records request count, duration and in-flight
    requests, labelled by the chi route pattern so path parameters such as
    article titles never become label values.

Both have the func(http.Handler) http.Handler shape expected by chi's Use.
*/
package middleware
