package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/johnrirwin/newsfeed/internal/database"
	"github.com/johnrirwin/newsfeed/internal/models"
	"github.com/johnrirwin/newsfeed/internal/testutil"
)

func newTestStore(t *testing.T) (*database.FeedItemStore, context.Context) {
	t.Helper()
	ctx := context.Background()

	tdb := testutil.NewTestDB(t)
	t.Cleanup(tdb.Close)

	db := &database.DB{DB: tdb.DB}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	tdb.Cleanup(ctx)
	t.Cleanup(func() { tdb.Cleanup(ctx) })

	return database.NewFeedItemStore(db), ctx
}

func TestFeedItemStore_ReplaceAndList(t *testing.T) {
	store, ctx := newTestStore(t)
	day := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	first := []models.FeedItem{
		{ID: "a", Title: "A", Link: "https://x/a", Source: "X", Author: "X", Published: day, Tags: []string{"go"}},
		{ID: "b", Title: "B", Link: "https://x/b", Source: "X", Published: day.Add(-time.Hour), Image: "https://x/b.png", Tags: []string{}},
	}
	if err := store.ReplaceCategory(ctx, "Tech", first); err != nil {
		t.Fatalf("ReplaceCategory() error = %v", err)
	}

	second := []models.FeedItem{
		{ID: "a", Title: "A v2", Link: "https://x/a", Source: "X", Published: day, Tags: []string{}},
		{Title: "C", Link: "https://x/c", Source: "X", Published: day.Add(time.Hour), Tags: []string{}},
	}
	if err := store.ReplaceCategory(ctx, "Tech", second); err != nil {
		t.Fatalf("ReplaceCategory() error = %v", err)
	}

	got, err := store.ListCategory(ctx, "tech")
	if err != nil {
		t.Fatalf("ListCategory() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListCategory() returned %d items, want 2", len(got))
	}
	if got[0].Link != "https://x/c" || got[1].Title != "A v2" {
		t.Errorf("ListCategory() = %+v", got)
	}
	if got[1].Tags == nil {
		t.Error("Tags should never be nil")
	}
}

func TestFeedItemStore_QueryItems(t *testing.T) {
	store, ctx := newTestStore(t)
	day := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	items := []models.FeedItem{
		{ID: "1", Title: "Go release", Link: "https://x/1", Source: "Go Blog", Published: day, Tags: []string{"Go"}},
		{ID: "2", Title: "Feeds", Link: "https://x/2", Source: "Example", Published: day.Add(-48 * time.Hour), Tags: []string{}},
	}
	if err := store.ReplaceCategory(ctx, "Tech", items); err != nil {
		t.Fatalf("ReplaceCategory() error = %v", err)
	}

	tests := []struct {
		name   string
		params models.FilterParams
		want   int
	}{
		{"all", models.FilterParams{}, 2},
		{"tag", models.FilterParams{Tag: "go"}, 1},
		{"query", models.FilterParams{Query: "FEED"}, 1},
		{"source", models.FilterParams{Source: "go blog"}, 1},
		{"from date", models.FilterParams{FromDate: "2024-03-01"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := store.QueryItems(ctx, "Tech", tt.params)
			if err != nil {
				t.Fatalf("QueryItems() error = %v", err)
			}
			if total != tt.want || len(got) != tt.want {
				t.Errorf("QueryItems() = %d items (total %d), want %d", len(got), total, tt.want)
			}
		})
	}

	deleted, err := store.DeleteItemsOlderThan(ctx, day.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteItemsOlderThan() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteItemsOlderThan() = %d, want 1", deleted)
	}
}
