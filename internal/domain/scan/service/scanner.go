package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/domain/scan/entity"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/geo"
	"github.com/mattedwardseo/nk-seo-tool-sub005/internal/observability"
)

const (
	defaultConcurrency = 10
	lookupMaxRetries   = 2
	initialBackoff     = 500 * time.Millisecond
)

// LookupResult is the outcome of a single ranking lookup
type LookupResult struct {
	TargetRank *int
	TopResults []entity.RankedBusiness
}

// RankLookup defines the ranking lookup contract the scanner consumes.
// Interface is defined by consumer (scanner), not provider (places client).
type RankLookup interface {
	LookupRank(ctx context.Context, keyword string, lat, lng float64, targetPlaceID string) (*LookupResult, error)
}

// ProgressFunc receives completed/total call counts as a scan advances.
// It is called from worker goroutines and must be safe for concurrent use.
type ProgressFunc func(completed, total int)

// Scanner fans ranking lookups out over every (keyword, grid point) pair
// with bounded concurrency. Lookups share a process-wide rate budget via
// the injected semaphore, so concurrent scans never exceed it together.
type Scanner struct {
	lookup      RankLookup
	rateSem     *semaphore.Weighted
	concurrency int
	logger      *slog.Logger
}

// ScannerOption configures a Scanner
type ScannerOption func(*Scanner)

// WithConcurrency sets the per-scan fan-out ceiling
func WithConcurrency(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithScannerLogger sets a custom logger
func WithScannerLogger(logger *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// NewScanner creates a new Scanner. The semaphore bounds in-flight lookups
// across every scan in the process and must be shared, not per-scan.
func NewScanner(lookup RankLookup, rateSem *semaphore.Weighted, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		lookup:      lookup,
		rateSem:     rateSem,
		concurrency: defaultConcurrency,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// ScanBatch is the outcome of running all lookups for one scan
type ScanBatch struct {
	Results  []entity.KeywordScanResult
	APICalls int // lookup invocations including retries
	Failed   int // pairs whose lookup failed permanently
}

// Run executes one lookup per (keyword, point) pair and returns exactly one
// result for each, success or failure. Point-level failures never abort the
// batch; only context cancellation does. Result order is not guaranteed to
// match input order, but every result carries its (keyword, row, col) origin.
func (s *Scanner) Run(ctx context.Context, scanID, targetPlaceID string, keywords []string, points []geo.Point, onProgress ProgressFunc) (*ScanBatch, error) {
	total := len(keywords) * len(points)
	if total == 0 {
		return &ScanBatch{}, nil
	}

	var (
		mu        sync.Mutex
		results   = make([]entity.KeywordScanResult, 0, total)
		completed atomic.Int64
		apiCalls  atomic.Int64
		failed    atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, keyword := range keywords {
		for _, point := range points {
			g.Go(func() error {
				res := s.lookupPoint(gctx, keyword, point, targetPlaceID, &apiCalls)
				res.ScanID = scanID
				if !res.Success {
					failed.Add(1)
				}

				mu.Lock()
				results = append(results, res)
				mu.Unlock()

				done := int(completed.Add(1))
				if onProgress != nil {
					onProgress(done, total)
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &ScanBatch{
		Results:  results,
		APICalls: int(apiCalls.Load()),
		Failed:   int(failed.Load()),
	}, nil
}

// lookupPoint runs one lookup with retry and always returns a result
func (s *Scanner) lookupPoint(ctx context.Context, keyword string, point geo.Point, targetPlaceID string, apiCalls *atomic.Int64) entity.KeywordScanResult {
	result := entity.KeywordScanResult{
		Keyword:   keyword,
		Row:       point.Row,
		Col:       point.Col,
		Lat:       point.Lat,
		Lng:       point.Lng,
		CreatedAt: time.Now(),
	}

	operation := func() (*LookupResult, error) {
		if err := s.rateSem.Acquire(ctx, 1); err != nil {
			return nil, backoff.Permanent(err)
		}
		defer s.rateSem.Release(1)

		apiCalls.Add(1)
		observability.RecordLookupCall()

		out, err := s.lookup.LookupRank(ctx, keyword, point.Lat, point.Lng, targetPlaceID)
		if err != nil {
			if !retryable(err) {
				return nil, backoff.Permanent(err)
			}
			observability.RecordLookupRetry()
			return nil, err
		}
		return out, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialBackoff

	out, err := backoff.RetryWithData(operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, lookupMaxRetries), ctx),
	)
	if err != nil {
		s.logger.Warn("ranking lookup failed",
			"keyword", keyword,
			"row", point.Row,
			"col", point.Col,
			"error", err,
		)
		result.ErrorMessage = err.Error()
		return result
	}

	result.Success = true
	result.TargetRank = out.TargetRank
	result.TopResults = out.TopResults
	return result
}

// retryable reports whether a lookup error is worth retrying. Errors that
// classify themselves (the places APIError, net errors) are consulted;
// anything else is assumed to be a transient transport failure.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var t interface{ Temporary() bool }
	if errors.As(err, &t) {
		return t.Temporary()
	}
	// Timeouts and other transport failures are transient.
	return true
}
