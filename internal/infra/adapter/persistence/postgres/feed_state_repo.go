package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"feedwatch/internal/domain/entity"
	"feedwatch/internal/observability/metrics"
	"feedwatch/internal/repository"
)

type FeedStateRepo struct{ db *sql.DB }

func NewFeedStateRepo(db *sql.DB) repository.FeedStateRepository {
	return &FeedStateRepo{db: db}
}

func scanFeedState(rows *sql.Rows) (*entity.FeedState, error) {
	var feed entity.FeedState
	if err := rows.Scan(
		&feed.ID, &feed.Name, &feed.FeedURL,
		&feed.LastSeenID, &feed.LastCheckedAt, &feed.Active,
	); err != nil {
		return nil, err
	}
	return &feed, nil
}

func (repo *FeedStateRepo) Get(ctx context.Context, id int64) (*entity.FeedState, error) {
	const query = `
SELECT id, name, feed_url, last_seen_id, last_checked_at, active
FROM feeds
WHERE id = $1
LIMIT 1`
	var feed entity.FeedState
	err := repo.db.QueryRowContext(ctx, query, id).Scan(
		&feed.ID, &feed.Name, &feed.FeedURL,
		&feed.LastSeenID, &feed.LastCheckedAt, &feed.Active,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &feed, nil
}

func (repo *FeedStateRepo) List(ctx context.Context) ([]*entity.FeedState, error) {
	const query = `
SELECT id, name, feed_url, last_seen_id, last_checked_at, active
FROM feeds
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	feeds := make([]*entity.FeedState, 0, 50)
	for rows.Next() {
		feed, err := scanFeedState(rows)
		if err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		feeds = append(feeds, feed)
	}
	return feeds, rows.Err()
}

func (repo *FeedStateRepo) ListActive(ctx context.Context) ([]*entity.FeedState, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("list_active_feeds", time.Since(start)) }()

	const query = `
SELECT id, name, feed_url, last_seen_id, last_checked_at, active
FROM feeds
WHERE active = TRUE
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	feeds := make([]*entity.FeedState, 0, 50)
	for rows.Next() {
		feed, err := scanFeedState(rows)
		if err != nil {
			return nil, fmt.Errorf("ListActive: %w", err)
		}
		feeds = append(feeds, feed)
	}
	return feeds, rows.Err()
}

func (repo *FeedStateRepo) Create(ctx context.Context, feed *entity.FeedState) error {
	const query = `
INSERT INTO feeds (name, feed_url, last_seen_id, last_checked_at, active)
VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.db.ExecContext(ctx, query,
		feed.Name, feed.FeedURL,
		feed.LastSeenID, feed.LastCheckedAt, feed.Active,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *FeedStateRepo) Update(ctx context.Context, feed *entity.FeedState) error {
	const query = `
UPDATE feeds SET
       name            = $1,
       feed_url        = $2,
       last_seen_id    = $3,
       last_checked_at = $4,
       active          = $5
WHERE id = $6`
	res, err := repo.db.ExecContext(ctx, query,
		feed.Name, feed.FeedURL,
		feed.LastSeenID, feed.LastCheckedAt, feed.Active, feed.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: no rows affected")
	}
	return nil
}

func (repo *FeedStateRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM feeds WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: no rows affected")
	}
	return nil
}

func (repo *FeedStateRepo) UpdateCheckpoint(ctx context.Context, id int64, lastSeenID string, checkedAt time.Time) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("update_checkpoint", time.Since(start)) }()

	const query = `UPDATE feeds SET last_seen_id = $1, last_checked_at = $2 WHERE id = $3`
	_, err := repo.db.ExecContext(ctx, query, lastSeenID, checkedAt, id)
	if err != nil {
		return fmt.Errorf("UpdateCheckpoint: %w", err)
	}
	return nil
}
