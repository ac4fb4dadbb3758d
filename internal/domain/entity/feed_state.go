package entity

import "time"

// FeedState is the caller-side registration of a feed: where to fetch it
// and the checkpoint (identity of the most recently seen item) persisted
// between checks. The engine itself never stores checkpoints; the worker
// owns this record.
type FeedState struct {
	ID            int64
	Name          string
	FeedURL       string
	LastSeenID    string
	LastCheckedAt *time.Time
	Active        bool
}
