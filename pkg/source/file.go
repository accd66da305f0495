package source

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"
	"time"

	"gdelt/pkg/apperror"
	"gdelt/pkg/cache"
	"gdelt/pkg/config"
	"gdelt/pkg/filter"
	"gdelt/pkg/httpx"
	"gdelt/pkg/logger"
	"gdelt/pkg/metrics"
	"gdelt/pkg/safety"
	"gdelt/pkg/slot"
	"gdelt/pkg/telemetry"
)

// Record is one validated record yielded by any source, tagged with the
// slot it came from so the streaming result can attribute failures and
// dedup keys back to a URL.
type Record struct {
	Value    any
	SlotURL  string
	SlotTime time.Time
}

// SlotFailure describes one slot that did not yield records.
type SlotFailure struct {
	URL        string
	Reason     string
	Code       apperror.ErrorCode
	HTTPStatus int
	RetryAfter int64
}

// FileSource enumerates 15-minute (or hourly) slot URLs and streams their
// decoded, validated records with bounded concurrency.
type FileSource struct {
	http      *httpx.Client
	artifacts *cache.ArtifactStore
	cfg       config.FilesConfig
}

// NewFileSource builds a FileSource from its collaborators.
func NewFileSource(httpClient *httpx.Client, artifacts *cache.ArtifactStore, cfg config.FilesConfig) *FileSource {
	return &FileSource{http: httpClient, artifacts: artifacts, cfg: cfg}
}

// Fetch enumerates f's slot URLs and streams their parsed records through
// the returned channel with a sliding window of at most
// cfg.MaxConcurrentDownloads concurrent in-flight downloads: a fixed pool
// of worker goroutines pulls one slot at a time from an internal job queue
// and only starts the next slot once a worker frees up, rather than
// launching every slot's goroutine up front behind a semaphore. The
// records channel is unbuffered, so a slow consumer throttles the window
// directly instead of the source racing ahead and buffering decompressed
// artifacts in memory.
func (s *FileSource) Fetch(ctx context.Context, f filter.Filter) (<-chan Record, <-chan SlotFailure) {
	records := make(chan Record)
	failures := make(chan SlotFailure, 16)

	urls, err := slot.Enumerate(f.RecordType, f.Range.Start, f.Range.End, s.cfg.BaseURL, s.cfg.BaseURLv3)
	if err != nil {
		close(records)
		failures <- SlotFailure{Reason: err.Error()}
		close(failures)
		return records, failures
	}

	jobs := make(chan slot.URL)
	n := s.cfg.MaxConcurrentDownloads
	if n <= 0 {
		n = 10
	}

	tracker := metrics.NewInFlightTracker(metrics.Get().ActiveDownloads)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			for u := range jobs {
				if !wantsSlot(f, u) {
					continue
				}
				s.processSlot(ctx, f, u, records, failures, tracker)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, u := range urls {
			select {
			case jobs <- u:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(records)
		close(failures)
	}()

	return records, failures
}

// wantsSlot reports whether u's translated-variant status matches what f
// requested; by default only the primary (non-translated) variant is
// fetched.
func wantsSlot(f filter.Filter, u slot.URL) bool {
	wantTranslated := len(f.Selectors["translated"]) > 0 && f.Selectors["translated"][0] == "true"
	return u.Translated == wantTranslated
}

func (s *FileSource) processSlot(ctx context.Context, f filter.Filter, u slot.URL, records chan<- Record, failures chan<- SlotFailure, tracker *metrics.InFlightTracker) {
	tracker.Start(string(f.RecordType))
	defer tracker.End(string(f.RecordType))

	start := time.Now()
	slotLog := logger.WithSlot(string(f.RecordType), u.URL)

	data, err := s.fetchArtifact(ctx, f, u)
	if err != nil {
		s.reportFailure(f, u, err, failures)
		metrics.Get().RecordSlotFetch(string(f.RecordType), "files", outcomeFor(err), time.Since(start))
		return
	}

	parsed, err := parseSlot(f.RecordType, data, f)
	if err != nil {
		s.reportFailure(f, u, apperror.Wrap(err, apperror.CodeParseMalformed, "parse failed"), failures)
		metrics.Get().RecordSlotFetch(string(f.RecordType), "files", "parse_error", time.Since(start))
		return
	}

	for _, v := range parsed {
		select {
		case records <- Record{Value: v, SlotURL: u.URL, SlotTime: u.Time}:
		case <-ctx.Done():
			return
		}
	}

	metrics.Get().RecordSlotFetch(string(f.RecordType), "files", "ok", time.Since(start))
	telemetry.AddEvent(ctx, "slot fetched",
		telemetry.SlotAttributes(string(f.RecordType), u.Time.Format("20060102150405"), u.URL)...)
	slotLog.Debug("slot fetched", "records", len(parsed))
}

// fetchArtifact returns a slot's decompressed bytes, consulting the
// artifact cache before going to the network.
func (s *FileSource) fetchArtifact(ctx context.Context, f filter.Filter, u slot.URL) ([]byte, error) {
	if cached, err := s.artifacts.Get(ctx, u.URL); err == nil {
		metrics.Get().RecordCacheLookup("file", true)
		return cached, nil
	}
	metrics.Get().RecordCacheLookup("file", false)

	safeURL, err := safety.CheckURL(u.URL, s.cfg.AllowedHosts)
	if err != nil {
		return nil, err
	}

	resp, err := s.http.Get(ctx, safeURL)
	if err != nil {
		return nil, err
	}

	limits := safety.Limits{
		MaxCompressedBytes:   s.cfg.MaxCompressedBytes,
		MaxDecompressedBytes: s.cfg.MaxDecompressedBytes,
		MaxRatio:             s.cfg.MaxDecompressionRatio,
	}

	var data []byte
	switch {
	case strings.HasSuffix(u.URL, ".zip"):
		data, err = safety.UnzipSingleBounded(resp.Body, limits)
	case strings.HasSuffix(u.URL, ".gz"):
		data, err = safety.GunzipBounded(resp.Body, limits)
	default:
		data = resp.Body
	}
	if err != nil {
		ratio := 0.0
		if len(resp.Body) > 0 {
			ratio = float64(len(data)) / float64(len(resp.Body))
		}
		metrics.Get().RecordDecompression(string(f.RecordType), ratio, "cap_exceeded")
		return nil, err
	}
	metrics.Get().RecordDecompression(string(f.RecordType), ratioOf(len(data), len(resp.Body)), "")

	if err := s.artifacts.Put(ctx, u.URL, u.Time, false, data); err != nil {
		logger.Warn("file source: failed to populate artifact cache", "url", u.URL, "error", err)
	}

	return data, nil
}

// reportFailure records a slot failure according to f's error policy.
// An absent slot (404) is not a failure: it is logged at DEBUG and leaves
// the failure list untouched, so a fetch spanning missing slots still
// completes clean.
func (s *FileSource) reportFailure(f filter.Filter, u slot.URL, err error, failures chan<- SlotFailure) {
	if apperror.Is(err, apperror.CodeAbsent) {
		logger.Debug("file source: slot absent", "url", u.URL)
		return
	}

	sf := SlotFailure{URL: u.URL, Reason: err.Error(), Code: apperror.Code(err)}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		sf.RetryAfter = appErr.RetryAfter
	}
	failures <- sf

	switch f.ErrorPolicy {
	case filter.PolicyRaise:
		logger.Error("file source: slot failed", "url", u.URL, "error", err)
	case filter.PolicyWarn:
		logger.Warn("file source: slot failed", "url", u.URL, "error", err)
	default:
		logger.Debug("file source: slot failed", "url", u.URL, "error", err)
	}
}

func outcomeFor(err error) string {
	if apperror.Is(err, apperror.CodeAbsent) {
		return "absent"
	}
	if apperror.Is(err, apperror.CodeRateLimited) {
		return "rate_limited"
	}
	if apperror.Is(err, apperror.CodeUpstreamUnavailable) {
		return "unavailable"
	}
	return "error"
}

func ratioOf(decompressed, compressed int) float64 {
	if compressed == 0 {
		return 0
	}
	return float64(decompressed) / float64(compressed)
}

// MasterIndexPath returns the well-known master file list path for baseURL.
func MasterIndexPath(baseURL string) string {
	return baseURL + "/" + path.Base("masterfilelist.txt")
}

// FetchMasterIndex downloads and parses the master file list, using the
// artifact cache's short master-index TTL rather than the per-slot
// retention policy.
func (s *FileSource) FetchMasterIndex(ctx context.Context) ([]slot.MasterEntry, error) {
	url := MasterIndexPath(s.cfg.BaseURL)

	if cached, err := s.artifacts.Get(ctx, url); err == nil {
		return slot.ParseMasterIndex(cached)
	}

	safeURL, err := safety.CheckURL(url, s.cfg.AllowedHosts)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Get(ctx, safeURL)
	if err != nil {
		return nil, err
	}
	if err := s.artifacts.Put(ctx, url, time.Time{}, true, resp.Body); err != nil {
		logger.Warn("file source: failed to cache master index", "error", err)
	}
	return slot.ParseMasterIndex(resp.Body)
}
