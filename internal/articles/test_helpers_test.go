package articles

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type staticIDGenerator struct {
	ids   []string
	index int
}

func (g *staticIDGenerator) NewID() (string, error) {
	if g.index >= len(g.ids) {
		return "", errors.New("exhausted ids")
	}
	id := g.ids[g.index]
	g.index++
	return id, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:articles_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Article{}, &Tag{}, &ArticleTag{}, &ArticleFavorite{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestStore(t *testing.T, db *gorm.DB, ids ...string) *Store {
	t.Helper()

	clock := func() time.Time { return time.Unix(1700000600, 0).UTC() }
	store, err := NewStore(StoreConfig{
		Database:   db,
		Clock:      clock,
		IDProvider: &staticIDGenerator{ids: ids},
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func mustCreate(t *testing.T, store *Store, params CreateParams) Article {
	t.Helper()

	article, err := store.Create(context.Background(), params)
	if err != nil {
		t.Fatalf("failed to create article: %v", err)
	}
	return article
}
