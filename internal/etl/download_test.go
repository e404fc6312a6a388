// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package etl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/wikirelated/internal/config"
)

func newTestDownloader(t *testing.T, baseURL string, retries int) *Downloader {
	t.Helper()
	return NewDownloader(&config.LoaderConfig{
		PageviewsBaseURL: baseURL,
		DownloadDir:      t.TempDir(),
		RetryCount:       retries,
		RetryDelay:       time.Millisecond,
	}, nil)
}

func TestDayFiles(t *testing.T) {
	t.Parallel()
	d := newTestDownloader(t, "https://dumps.example.org/other/pageview_complete/", 0)

	files, err := d.DayFiles("2024-02")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 29 {
		t.Fatalf("got %d files for a leap February, want 29", len(files))
	}
	want := "https://dumps.example.org/other/pageview_complete/2024/2024-02/pageviews-20240201-user.bz2"
	if files[0].URL != want {
		t.Errorf("URL = %s, want %s", files[0].URL, want)
	}
	if files[28].Name != "pageviews-20240229-user.bz2" {
		t.Errorf("last file = %s", files[28].Name)
	}

	if _, err := d.DayFiles("2024/02"); err == nil {
		t.Error("malformed month must fail")
	}
}

func TestDownload_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte("dump-bytes"))
	}))
	defer srv.Close()

	d := newTestDownloader(t, srv.URL, 3)
	f := DumpFile{URL: srv.URL + "/x.bz2", Name: "x.bz2"}

	fetched, err := d.Download(context.Background(), f)
	if err != nil || !fetched {
		t.Fatalf("Download() = %v, %v", fetched, err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}

	data, err := os.ReadFile(d.LocalPath(f))
	if err != nil || string(data) != "dump-bytes" {
		t.Errorf("file = %q, %v", data, err)
	}
	if _, err := os.Stat(d.LocalPath(f) + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	// A second run finds the file and does not call the server.
	fetched, err = d.Download(context.Background(), f)
	if err != nil || fetched {
		t.Errorf("second Download() = %v, %v; want skip", fetched, err)
	}
	if calls.Load() != 3 {
		t.Errorf("existing file was downloaded again")
	}
}

func TestDownload_GivesUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		retries   int
		wantCalls int32
	}{
		{"client error is not retried", http.StatusNotFound, 3, 1},
		{"server error exhausts retries", http.StatusBadGateway, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			d := newTestDownloader(t, srv.URL, tt.retries)
			f := DumpFile{URL: srv.URL + "/y.bz2", Name: "y.bz2"}
			fetched, err := d.Download(context.Background(), f)
			if err == nil || fetched {
				t.Fatalf("Download() = %v, %v; want failure", fetched, err)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
			if _, err := os.Stat(d.LocalPath(f)); !os.IsNotExist(err) {
				t.Error("failed download left a file")
			}
		})
	}
}

func TestDownloadMonth(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "pageviews-20230215-user.bz2") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := newTestDownloader(t, srv.URL, 0)
	existing := filepath.Join(d.dir, "pageviews-20230201-user.bz2")
	if err := os.WriteFile(existing, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}

	stats, err := d.DownloadMonth(context.Background(), "2023-02")
	if err != nil {
		t.Fatalf("DownloadMonth() error = %v", err)
	}
	if stats.Downloaded != 26 || stats.Skipped != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 26 downloaded, 1 skipped, 1 failed", stats)
	}
}
