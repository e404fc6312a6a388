// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package metrics

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordDBQuery_ErrorTruncation verifies error labels are truncated at 50 chars
func TestRecordDBQuery_ErrorTruncation(t *testing.T) {
	long := strings.Repeat("c", 100)
	RecordDBQuery("SELECT", "trunc_test", time.Millisecond, errors.New(long))

	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("SELECT", "trunc_test", long[:50])); got != 1 {
		t.Errorf("truncated error label count = %v, want 1", got)
	}
}

func TestRecordDBQuery_SuccessRecordsNoError(t *testing.T) {
	before := testutil.CollectAndCount(DBQueryErrors)
	RecordDBQuery("SELECT", "articles_ok", 5*time.Millisecond, nil)

	if after := testutil.CollectAndCount(DBQueryErrors); after != before {
		t.Errorf("error series changed from %d to %d on success", before, after)
	}
}

func TestRecordRelatedRequest(t *testing.T) {
	c := RelatedRequests.WithLabelValues("not_found")
	before := testutil.ToFloat64(c)

	RecordRelatedRequest("not_found", 3*time.Millisecond)
	RecordRelatedRequest("not_found", 4*time.Millisecond)

	if got := testutil.ToFloat64(c) - before; got != 2 {
		t.Errorf("not_found delta = %v, want 2", got)
	}
}

func TestRecordVectorOp(t *testing.T) {
	c := VectorIndexErrors.WithLabelValues("test_backend", "search")
	before := testutil.ToFloat64(c)

	RecordVectorOp("test_backend", "search", time.Millisecond, nil)
	RecordVectorOp("test_backend", "search", time.Millisecond, errors.New("closed"))

	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
}

func TestSetIndexVectors(t *testing.T) {
	SetIndexVectors("test_gauge", 42)
	if got := testutil.ToFloat64(IndexVectors.WithLabelValues("test_gauge")); got != 42 {
		t.Errorf("vectors = %v, want 42", got)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits, misses := testutil.ToFloat64(ResultCacheHits), testutil.ToFloat64(ResultCacheMisses)

	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)

	if got := testutil.ToFloat64(ResultCacheHits) - hits; got != 1 {
		t.Errorf("hit delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ResultCacheMisses) - misses; got != 2 {
		t.Errorf("miss delta = %v, want 2", got)
	}
}

func TestRecordLoaderRecords_IgnoresNonPositive(t *testing.T) {
	c := LoaderRecords.WithLabelValues("skipped")
	before := testutil.ToFloat64(c)

	RecordLoaderRecords("skipped", 0)
	RecordLoaderRecords("skipped", -3)
	RecordLoaderRecords("skipped", 5)

	if got := testutil.ToFloat64(c) - before; got != 5 {
		t.Errorf("skipped delta = %v, want 5", got)
	}
}

// TestTrackActiveRequest_Concurrent verifies the gauge returns to its start value
func TestTrackActiveRequest_Concurrent(t *testing.T) {
	start := testutil.ToFloat64(APIActiveRequests)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			TrackActiveRequest(true)
			TrackActiveRequest(false)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(APIActiveRequests); got != start {
		t.Errorf("active requests = %v, want %v", got, start)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	c := APIRequestsTotal.WithLabelValues("GET", "/related/{title}", "404")
	before := testutil.ToFloat64(c)

	RecordAPIRequest("GET", "/related/{title}", "404", 2*time.Millisecond)

	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("request delta = %v, want 1", got)
	}
}
