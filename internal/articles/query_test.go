package articles

import (
	"context"
	"fmt"
	"testing"

	"github.com/conduitlabs/conduit/backend/internal/social"
)

type staticAuthorResolver struct{}

func (staticAuthorResolver) AuthorByID(_ context.Context, id string) (Author, error) {
	return Author{ID: id, Username: "author-" + id}, nil
}

type queryFixture struct {
	store     *Store
	favorites *Favorites
	graph     *social.Graph
	query     *Query
}

func newQueryFixture(t *testing.T, ids ...string) queryFixture {
	t.Helper()

	db := newTestDB(t)
	if err := db.AutoMigrate(&social.FollowEdge{}); err != nil {
		t.Fatalf("failed to migrate follow edges: %v", err)
	}

	store := newTestStore(t, db, ids...)
	favorites, err := NewFavorites(db, nil)
	if err != nil {
		t.Fatalf("failed to create favorites: %v", err)
	}
	graph, err := social.NewGraph(social.GraphConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create graph: %v", err)
	}
	query, err := NewQuery(QueryConfig{
		Store:     store,
		Favorites: favorites,
		Follows:   graph,
		Authors:   staticAuthorResolver{},
	})
	if err != nil {
		t.Fatalf("failed to create query service: %v", err)
	}

	return queryFixture{store: store, favorites: favorites, graph: graph, query: query}
}

func TestArticleInfoAnonymousViewHasFalseFlags(t *testing.T) {
	fx := newQueryFixture(t, "a1")

	article := mustCreate(t, fx.store, CreateParams{AuthorID: "user-1", Title: "First", Body: "b"})
	if err := fx.favorites.Favorite(context.Background(), "user-2", article.ID); err != nil {
		t.Fatalf("failed to favorite: %v", err)
	}

	info, err := fx.query.ArticleInfo(context.Background(), "", article)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Favorited || info.Following {
		t.Fatalf("anonymous view must have false flags, got %+v", info)
	}
	if info.FavoritesCount != 1 {
		t.Fatalf("expected favorites count 1, got %d", info.FavoritesCount)
	}
}

func TestArticleInfoDecoratesRelativeToViewer(t *testing.T) {
	fx := newQueryFixture(t, "a1")

	article := mustCreate(t, fx.store, CreateParams{AuthorID: "author-1", Title: "First", Body: "b"})
	if err := fx.favorites.Favorite(context.Background(), "viewer-1", article.ID); err != nil {
		t.Fatalf("failed to favorite: %v", err)
	}
	if err := fx.graph.Follow(context.Background(), "viewer-1", "author-1"); err != nil {
		t.Fatalf("failed to follow: %v", err)
	}

	info, err := fx.query.ArticleInfo(context.Background(), "viewer-1", article)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.Favorited {
		t.Fatalf("expected favorited for viewer")
	}
	if !info.Following {
		t.Fatalf("expected following for viewer")
	}
}

func TestFeedReturnsFollowedAuthorsArticlesOnly(t *testing.T) {
	fx := newQueryFixture(t, "a1", "a2", "a3")

	mustCreate(t, fx.store, CreateParams{AuthorID: "followed", Title: "First", Body: "b"})
	mustCreate(t, fx.store, CreateParams{AuthorID: "followed", Title: "Second", Body: "b"})
	mustCreate(t, fx.store, CreateParams{AuthorID: "stranger", Title: "Third", Body: "b"})

	if err := fx.graph.Follow(context.Background(), "viewer-1", "followed"); err != nil {
		t.Fatalf("failed to follow: %v", err)
	}

	feed, err := fx.query.Feed(context.Background(), "viewer-1", Facets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("expected 2 feed entries, got %d", len(feed))
	}
	for _, info := range feed {
		if info.Article.AuthorID != "followed" {
			t.Fatalf("feed leaked article by %q", info.Article.AuthorID)
		}
		if !info.Following {
			t.Fatalf("feed entries must be marked following")
		}
	}
}

func TestFeedWithNoFollowedAuthorsIsEmpty(t *testing.T) {
	fx := newQueryFixture(t, "a1")

	mustCreate(t, fx.store, CreateParams{AuthorID: "someone", Title: "First", Body: "b"})

	feed, err := fx.query.Feed(context.Background(), "loner", Facets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(feed) != 0 {
		t.Fatalf("expected empty feed, got %d entries", len(feed))
	}
}

func TestListDecoratesEveryResult(t *testing.T) {
	fx := newQueryFixture(t, "a1", "a2")

	for i := 0; i < 2; i++ {
		mustCreate(t, fx.store, CreateParams{AuthorID: "user-1", Title: fmt.Sprintf("Article %d", i), Body: "b"})
	}

	infos, err := fx.query.List(context.Background(), "", Facets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 results, got %d", len(infos))
	}
	for _, info := range infos {
		if info.Author.Username == "" {
			t.Fatalf("expected resolved author profile")
		}
	}
}
