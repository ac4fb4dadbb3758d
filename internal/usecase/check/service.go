// Package check provides the feed-check use case: fetch one feed, diff it
// against the caller's checkpoint, and report the new items together with
// the next checkpoint to persist. The caller owns checkpoint persistence;
// this service is stateless between calls.
package check

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"feedwatch/internal/diff"
	"feedwatch/internal/domain/entity"
	"feedwatch/internal/fetcher"
	"feedwatch/internal/observability/metrics"
	"feedwatch/internal/observability/tracing"
)

// ErrEmptyURL is returned when a check is requested without a feed URL.
var ErrEmptyURL = errors.New("feed url is empty")

// FeedFetcher retrieves and parses one feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (*entity.NormalizedFeed, error)
}

// Differ computes the new-item subset of a normalized feed.
type Differ interface {
	Diff(feed *entity.NormalizedFeed, lastSeenID string, forceCatchUp bool) diff.Result
}

// Result is the outcome of one feed check. NewestID is the checkpoint the
// caller should persist for the next check; TotalCount is the full entry
// count observed, independent of filtering.
type Result struct {
	NewItems   []entity.FeedItem
	NewestID   string
	TotalCount int
	Format     entity.Format
}

// Service orchestrates fetch and diff for one feed check.
type Service struct {
	fetcher FeedFetcher
	differ  Differ
	logger  *slog.Logger
}

// NewService creates a check Service.
func NewService(f FeedFetcher, d Differ, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{fetcher: f, differ: d, logger: logger}
}

// CheckFeed fetches feedURL and returns the items that are new relative to
// lastSeenID. An empty lastSeenID marks the first observation of the feed;
// forceCatchUp widens the first-observation window for downtime recovery.
func (s *Service) CheckFeed(ctx context.Context, feedURL, lastSeenID string, forceCatchUp bool) (*Result, error) {
	if feedURL == "" {
		return nil, ErrEmptyURL
	}

	ctx, span := tracing.GetTracer().Start(ctx, "feed.check")
	defer span.End()
	span.SetAttributes(attribute.String("feed.url", feedURL))

	start := time.Now()
	feed, err := s.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		metrics.RecordFeedCheck(false, time.Since(start))
		var fe *fetcher.Error
		if errors.As(err, &fe) {
			metrics.RecordFetchError(string(fe.Kind))
			span.SetAttributes(attribute.String("feed.error_kind", string(fe.Kind)))
		}
		span.SetAttributes(attribute.Bool("error", true))
		return nil, fmt.Errorf("check feed: %w", err)
	}

	d := s.differ.Diff(feed, lastSeenID, forceCatchUp)

	metrics.RecordFeedCheck(true, time.Since(start))
	metrics.RecordDiffResult(len(d.NewItems), d.TotalCount)
	span.SetAttributes(
		attribute.Int("feed.new_items", len(d.NewItems)),
		attribute.Int("feed.total_items", d.TotalCount),
		attribute.String("feed.format", string(feed.Format)),
	)

	s.logger.Info("feed checked",
		slog.String("url", feedURL),
		slog.String("format", string(feed.Format)),
		slog.Int("new_items", len(d.NewItems)),
		slog.Int("total_items", d.TotalCount),
		slog.Duration("duration", time.Since(start)))

	return &Result{
		NewItems:   d.NewItems,
		NewestID:   d.NewestID,
		TotalCount: d.TotalCount,
		Format:     feed.Format,
	}, nil
}
