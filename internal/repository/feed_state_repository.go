// Package repository defines the persistence contracts consumed by the
// use cases. Implementations live under internal/infra/adapter.
package repository

import (
	"context"
	"time"

	"feedwatch/internal/domain/entity"
)

// FeedStateRepository persists feed registrations and their checkpoints.
// Get returns (nil, nil) when the feed does not exist.
type FeedStateRepository interface {
	Get(ctx context.Context, id int64) (*entity.FeedState, error)
	List(ctx context.Context) ([]*entity.FeedState, error)
	ListActive(ctx context.Context) ([]*entity.FeedState, error)
	Create(ctx context.Context, feed *entity.FeedState) error
	Update(ctx context.Context, feed *entity.FeedState) error
	Delete(ctx context.Context, id int64) error

	// UpdateCheckpoint stores the newest-seen item identity and check time
	// after a feed check. It is the only mutation the poll loop performs.
	UpdateCheckpoint(ctx context.Context, id int64, lastSeenID string, checkedAt time.Time) error
}
