// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package etl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/wikirelated/internal/config"
	"github.com/tomtom215/wikirelated/internal/logging"
	"github.com/tomtom215/wikirelated/internal/metrics"
)

const userAgent = "wikirelated-loader/1.0 (pageview dump download)"

// errRetryable marks a failed attempt worth repeating.
var errRetryable = errors.New("retryable download failure")

// DumpFile is one daily pageview dump.
type DumpFile struct {
	URL  string
	Name string
}

// DownloadStats counts the outcome of a month download.
type DownloadStats struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Downloader fetches pageview dumps into a local directory.
type Downloader struct {
	client  *http.Client
	baseURL string
	dir     string
	retries int
	delay   time.Duration
	limiter *rate.Limiter
}

// NewDownloader builds a downloader from the loader settings. A nil client
// uses one with a generous per-file timeout.
func NewDownloader(cfg *config.LoaderConfig, client *http.Client) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Minute}
	}
	var limiter *rate.Limiter
	if cfg.DownloadsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.DownloadsPerSecond), 1)
	}
	return &Downloader{
		client:  client,
		baseURL: strings.TrimRight(cfg.PageviewsBaseURL, "/"),
		dir:     cfg.DownloadDir,
		retries: cfg.RetryCount,
		delay:   cfg.RetryDelay,
		limiter: limiter,
	}
}

// DayFiles lists the daily user dumps of month, given as YYYY-MM.
func (d *Downloader) DayFiles(month string) ([]DumpFile, error) {
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q, want YYYY-MM: %w", month, err)
	}

	var files []DumpFile
	for day := first; day.Month() == first.Month(); day = day.AddDate(0, 0, 1) {
		name := fmt.Sprintf("pageviews-%s-user.bz2", day.Format("20060102"))
		files = append(files, DumpFile{
			URL:  fmt.Sprintf("%s/%s/%s/%s", d.baseURL, day.Format("2006"), day.Format("2006-01"), name),
			Name: name,
		})
	}
	return files, nil
}

// LocalPath is where f is stored.
func (d *Downloader) LocalPath(f DumpFile) string {
	return filepath.Join(d.dir, f.Name)
}

// DownloadMonth fetches every daily dump of month. Individual failures are
// logged and counted; only cancellation stops the run early.
func (d *Downloader) DownloadMonth(ctx context.Context, month string) (DownloadStats, error) {
	var stats DownloadStats
	files, err := d.DayFiles(month)
	if err != nil {
		return stats, err
	}
	if err := os.MkdirAll(d.dir, 0o750); err != nil {
		return stats, fmt.Errorf("failed to create download directory: %w", err)
	}

	logging.Info().Str("month", month).Int("files", len(files)).Msg("Starting pageview download")
	for _, f := range files {
		fetched, err := d.Download(ctx, f)
		switch {
		case ctx.Err() != nil:
			return stats, ctx.Err()
		case err != nil:
			stats.Failed++
			logging.Error().Err(err).Str("file", f.Name).Msg("Pageview dump download failed")
		case fetched:
			stats.Downloaded++
		default:
			stats.Skipped++
		}
	}
	return stats, nil
}

// Download fetches f unless it already exists locally. It reports whether a
// file was written. Data lands in a .tmp file that is renamed only once the
// body has been read completely.
func (d *Downloader) Download(ctx context.Context, f DumpFile) (bool, error) {
	dest := d.LocalPath(f)
	if _, err := os.Stat(dest); err == nil {
		logging.Debug().Str("file", f.Name).Msg("Dump already present, skipping")
		metrics.RecordPageviewDownload("exists")
		return false, nil
	}

	tmp := dest + ".tmp"
	var lastErr error
	for attempt := 0; attempt <= d.retries; attempt++ {
		if attempt > 0 {
			wait := d.delay * time.Duration(attempt)
			logging.Warn().Err(lastErr).Str("file", f.Name).Int("attempt", attempt).Dur("delay", wait).Msg("Retrying download")
			metrics.RecordPageviewDownload("retry")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				_ = os.Remove(tmp)
				return false, ctx.Err()
			}
		}

		lastErr = d.fetch(ctx, f.URL, tmp)
		if lastErr == nil {
			if err := os.Rename(tmp, dest); err != nil {
				_ = os.Remove(tmp)
				metrics.RecordPageviewDownload("failed")
				return false, fmt.Errorf("failed to move %s into place: %w", f.Name, err)
			}
			logging.Info().Str("file", f.Name).Msg("Dump downloaded")
			metrics.RecordPageviewDownload("downloaded")
			return true, nil
		}
		if !errors.Is(lastErr, errRetryable) || ctx.Err() != nil {
			break
		}
	}

	_ = os.Remove(tmp)
	metrics.RecordPageviewDownload("failed")
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return false, fmt.Errorf("download %s: %w", f.URL, lastErr)
}

func (d *Downloader) fetch(ctx context.Context, url, tmp string) error {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", errRetryable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: server returned %d", errRetryable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	out, err := os.Create(tmp) //nolint:gosec // tmp is derived from the configured download directory
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return fmt.Errorf("%w: body read failed: %w", errRetryable, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	return nil
}
