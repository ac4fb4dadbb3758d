// Package diff computes which items of a normalized feed are new since the
// last observation. The engine is stateless between calls: the caller owns
// checkpoint persistence and passes the last-seen identifier back in.
package diff

import (
	"time"

	"feedwatch/internal/domain/entity"
)

const (
	// DefaultRecencyWindow is the trailing window used when a checkpoint
	// is no longer present in the feed.
	DefaultRecencyWindow = time.Hour

	// DefaultMaxFallbackItems bounds the burst size when the recency
	// window matches nothing.
	DefaultMaxFallbackItems = 5
)

// Config tunes the fallback heuristics. The constants are domain tuning,
// not invariants, so they stay configurable per deployment.
type Config struct {
	// RecencyWindow is the trailing window consulted when the checkpoint
	// has aged out of the feed.
	RecencyWindow time.Duration

	// MaxFallbackItems caps the number of items returned when no item
	// falls inside the recency window.
	MaxFallbackItems int
}

// DefaultConfig returns the tuning used for typical feed polling.
func DefaultConfig() Config {
	return Config{
		RecencyWindow:    DefaultRecencyWindow,
		MaxFallbackItems: DefaultMaxFallbackItems,
	}
}

// Result is the outcome of one diff call. NewestID is the identity of the
// first item in feed order, for the caller to persist as the next
// checkpoint; TotalCount is the full observed item count independent of
// filtering.
type Result struct {
	NewItems   []entity.FeedItem
	NewestID   string
	TotalCount int
}

// Engine computes new-item subsets. startRef is the process-start reference
// time used for first observations of a feed; it is fixed at construction
// so repeated checks within one process agree on it.
type Engine struct {
	cfg      Config
	startRef time.Time
	now      func() time.Time
}

// New creates an Engine with the given tuning, anchored at the current time.
func New(cfg Config) *Engine {
	return NewAt(cfg, time.Now())
}

// NewAt creates an Engine anchored at an explicit reference time.
func NewAt(cfg Config, startRef time.Time) *Engine {
	if cfg.RecencyWindow <= 0 {
		cfg.RecencyWindow = DefaultRecencyWindow
	}
	if cfg.MaxFallbackItems <= 0 {
		cfg.MaxFallbackItems = DefaultMaxFallbackItems
	}
	return &Engine{cfg: cfg, startRef: startRef, now: time.Now}
}

// Diff computes the new-item subset of feed given the caller's last-seen
// identifier. An empty lastSeenID means the feed has never been observed;
// forceCatchUp widens the first observation to a bounded window ending now,
// for recovering from downtime without re-announcing ancient history.
func (e *Engine) Diff(feed *entity.NormalizedFeed, lastSeenID string, forceCatchUp bool) Result {
	result := Result{TotalCount: len(feed.Items)}
	if len(feed.Items) == 0 {
		return result
	}
	result.NewestID = feed.Items[0].ID

	if lastSeenID == "" {
		if forceCatchUp {
			result.NewItems = e.itemsInWindow(feed.Items, e.startRef, e.now())
		} else {
			result.NewItems = e.itemsSince(feed.Items, e.startRef)
		}
		return result
	}

	if k, found := positionOf(feed.Items, lastSeenID); found {
		if k > 0 {
			result.NewItems = append([]entity.FeedItem(nil), feed.Items[:k]...)
			return result
		}
		// Checkpoint is nominally the newest entry. Feeds that reorder or
		// insert without moving the checkpoint still get their genuinely
		// newer items caught by timestamp.
		result.NewItems = e.itemsNewerThan(feed.Items, feed.Items[0].Published)
		return result
	}

	// Checkpoint aged out of the feed or the identifiers changed.
	result.NewItems = e.recencyFallback(feed.Items)
	return result
}

func positionOf(items []entity.FeedItem, id string) (int, bool) {
	for i := range items {
		if items[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// itemsSince returns items published at or after ref. Items without a
// publish time are excluded: on a first observation they cannot be told
// apart from ancient history.
func (e *Engine) itemsSince(items []entity.FeedItem, ref time.Time) []entity.FeedItem {
	var out []entity.FeedItem
	for _, it := range items {
		if it.HasPublished() && !it.Published.Before(ref) {
			out = append(out, it)
		}
	}
	return out
}

func (e *Engine) itemsInWindow(items []entity.FeedItem, from, to time.Time) []entity.FeedItem {
	var out []entity.FeedItem
	for _, it := range items {
		if it.HasPublished() && !it.Published.Before(from) && !it.Published.After(to) {
			out = append(out, it)
		}
	}
	return out
}

// itemsNewerThan returns items published strictly after the checkpoint's
// own publish time. A checkpoint without a timestamp yields nothing new.
func (e *Engine) itemsNewerThan(items []entity.FeedItem, checkpoint *time.Time) []entity.FeedItem {
	if checkpoint == nil || checkpoint.IsZero() {
		return nil
	}
	var out []entity.FeedItem
	for _, it := range items[1:] {
		if it.HasPublished() && it.Published.After(*checkpoint) {
			out = append(out, it)
		}
	}
	return out
}

// recencyFallback bounds the burst when the checkpoint is gone: prefer
// items inside the trailing recency window, else take the first items in
// feed order up to the cap.
func (e *Engine) recencyFallback(items []entity.FeedItem) []entity.FeedItem {
	cutoff := e.now().Add(-e.cfg.RecencyWindow)
	var recent []entity.FeedItem
	for _, it := range items {
		if it.HasPublished() && it.Published.After(cutoff) {
			recent = append(recent, it)
		}
	}
	if len(recent) > 0 {
		if len(recent) > e.cfg.MaxFallbackItems {
			recent = recent[:e.cfg.MaxFallbackItems]
		}
		return recent
	}

	n := min(e.cfg.MaxFallbackItems, len(items))
	return append([]entity.FeedItem(nil), items[:n]...)
}
