package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/johnrirwin/newsfeed/internal/models"
)

// FeedItemStore persists category snapshots in Postgres.
type FeedItemStore struct {
	db *DB
	x  *sqlx.DB
}

func NewFeedItemStore(db *DB) *FeedItemStore {
	return &FeedItemStore{db: db, x: sqlx.NewDb(db.DB, "postgres")}
}

// ReplaceCategory makes the stored category equal to items in one transaction.
func (s *FeedItemStore) ReplaceCategory(ctx context.Context, category string, items []models.FeedItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.DedupKey())
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM feed_items WHERE category = $1 AND NOT (item_key = ANY($2))`,
		category, pq.Array(keys),
	); err != nil {
		return fmt.Errorf("prune category %s: %w", category, err)
	}

	if err := upsertItems(ctx, tx, category, items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func upsertItems(ctx context.Context, tx *sql.Tx, category string, items []models.FeedItem) error {
	if len(items) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO feed_items (
			category, item_key, id, title, link,
			summary, author, source,
			published_at, image, tags,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11,
			NOW(), NOW()
		)
		ON CONFLICT (category, item_key) DO UPDATE SET
			id = EXCLUDED.id,
			title = EXCLUDED.title,
			link = EXCLUDED.link,
			summary = EXCLUDED.summary,
			author = EXCLUDED.author,
			source = EXCLUDED.source,
			published_at = EXCLUDED.published_at,
			image = EXCLUDED.image,
			tags = EXCLUDED.tags,
			updated_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		tags := item.Tags
		if tags == nil {
			tags = []string{}
		}

		if _, err := stmt.ExecContext(ctx,
			category,
			item.DedupKey(),
			item.ID,
			item.Title,
			item.Link,
			nullString(item.Summary),
			nullString(item.Author),
			item.Source,
			item.Published.UTC(),
			nullString(item.Image),
			pq.Array(tags),
		); err != nil {
			return fmt.Errorf("upsert feed item %s: %w", item.DedupKey(), err)
		}
	}
	return nil
}

func (s *FeedItemStore) DeleteItemsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM feed_items WHERE published_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old feed items: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}

// ListCategory returns every stored item of a category, newest first.
func (s *FeedItemStore) ListCategory(ctx context.Context, category string) ([]models.FeedItem, error) {
	items, _, err := s.QueryItems(ctx, category, models.FilterParams{})
	return items, err
}

// QueryItems returns items of a category plus the total matching count (before limit/offset).
func (s *FeedItemStore) QueryItems(ctx context.Context, category string, params models.FilterParams) ([]models.FeedItem, int, error) {
	whereParts := []string{"LOWER(category) = LOWER($1)"}
	args := []interface{}{category}
	argPos := 2

	if src := strings.TrimSpace(params.Source); src != "" {
		whereParts = append(whereParts, fmt.Sprintf("LOWER(source) = LOWER($%d)", argPos))
		args = append(args, src)
		argPos++
	}

	// Filter by tag (case-insensitive).
	if strings.TrimSpace(params.Tag) != "" {
		whereParts = append(whereParts, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(tags) t WHERE LOWER(t) = LOWER($%d))", argPos))
		args = append(args, strings.TrimSpace(params.Tag))
		argPos++
	}

	// Filter by query (case-insensitive search across multiple fields).
	if strings.TrimSpace(params.Query) != "" {
		placeholder := fmt.Sprintf("$%d", argPos)
		whereParts = append(whereParts, fmt.Sprintf("(title ILIKE %s OR summary ILIKE %s OR source ILIKE %s)", placeholder, placeholder, placeholder))
		args = append(args, "%"+strings.TrimSpace(params.Query)+"%")
		argPos++
	}

	if fromTime, ok := models.ParseDateFilter(params.FromDate); ok {
		whereParts = append(whereParts, fmt.Sprintf("published_at >= $%d", argPos))
		args = append(args, fromTime)
		argPos++
	}
	if toTime, ok := models.ParseDateFilter(params.ToDate); ok {
		// End of day for inclusive filter.
		toTime = toTime.Add(24*time.Hour - time.Nanosecond)
		whereParts = append(whereParts, fmt.Sprintf("published_at <= $%d", argPos))
		args = append(args, toTime)
		argPos++
	}

	whereSQL := strings.Join(whereParts, " AND ")

	var total int
	if err := s.x.GetContext(ctx, &total, "SELECT COUNT(*) FROM feed_items WHERE "+whereSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("count feed items: %w", err)
	}

	selectQuery := `
		SELECT id, title, link, summary, author, source, published_at, image, tags
		FROM feed_items
		WHERE ` + whereSQL + `
		ORDER BY published_at DESC, item_key`

	selectArgs := append([]interface{}{}, args...)
	if params.Limit > 0 {
		selectQuery += fmt.Sprintf("\n\t\tLIMIT $%d OFFSET $%d", argPos, argPos+1)
		selectArgs = append(selectArgs, params.Limit, params.Offset)
	}

	var rows []feedItemRow
	if err := s.x.SelectContext(ctx, &rows, selectQuery, selectArgs...); err != nil {
		return nil, 0, fmt.Errorf("query feed items: %w", err)
	}

	items := make([]models.FeedItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toItem())
	}
	return items, total, nil
}

type feedItemRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Link        string         `db:"link"`
	Summary     sql.NullString `db:"summary"`
	Author      sql.NullString `db:"author"`
	Source      string         `db:"source"`
	PublishedAt time.Time      `db:"published_at"`
	Image       sql.NullString `db:"image"`
	Tags        pq.StringArray `db:"tags"`
}

func (r feedItemRow) toItem() models.FeedItem {
	tags := []string(r.Tags)
	if tags == nil {
		tags = []string{}
	}
	return models.FeedItem{
		ID:        r.ID,
		Title:     r.Title,
		Link:      r.Link,
		Summary:   r.Summary.String,
		Author:    r.Author.String,
		Source:    r.Source,
		Published: r.PublishedAt.UTC(),
		Image:     r.Image.String,
		Tags:      tags,
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
