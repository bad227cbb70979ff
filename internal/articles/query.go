package articles

import (
	"context"
	"errors"
)

var (
	errMissingStore     = errors.New("article store is required")
	errMissingFavorites = errors.New("favorite tracker is required")
	errMissingFollows   = errors.New("follow graph is required")
	errMissingAuthors   = errors.New("author resolver is required")
)

// FollowChecker is the follow-graph surface the read side composes against.
type FollowChecker interface {
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	FollowingOf(ctx context.Context, followerID string) ([]string, error)
}

// AuthorResolver resolves author profiles from the user directory.
type AuthorResolver interface {
	AuthorByID(ctx context.Context, id string) (Author, error)
}

// QueryConfig describes the collaborators of the article read side.
type QueryConfig struct {
	Store     *Store
	Favorites *Favorites
	Follows   FollowChecker
	Authors   AuthorResolver
}

// Query composes the article store, favorite tracker, and follow graph to
// answer listing queries decorated with viewer-relative flags. The persisted
// entities stay viewer-agnostic; decoration happens here on every read.
type Query struct {
	store     *Store
	favorites *Favorites
	follows   FollowChecker
	authors   AuthorResolver
}

// NewQuery constructs the article query service.
func NewQuery(cfg QueryConfig) (*Query, error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	if cfg.Favorites == nil {
		return nil, errMissingFavorites
	}
	if cfg.Follows == nil {
		return nil, errMissingFollows
	}
	if cfg.Authors == nil {
		return nil, errMissingAuthors
	}
	return &Query{
		store:     cfg.Store,
		favorites: cfg.Favorites,
		follows:   cfg.Follows,
		authors:   cfg.Authors,
	}, nil
}

// ArticleInfo decorates an article for the given viewer. An empty viewerID is
// the anonymous view: favorited and following are both false.
func (q *Query) ArticleInfo(ctx context.Context, viewerID string, article Article) (ArticleInfo, error) {
	count, err := q.favorites.CountFor(ctx, article.ID)
	if err != nil {
		return ArticleInfo{}, err
	}

	tags, err := q.store.TagsOf(ctx, article.ID)
	if err != nil {
		return ArticleInfo{}, err
	}

	author, err := q.authors.AuthorByID(ctx, article.AuthorID)
	if err != nil {
		return ArticleInfo{}, err
	}

	info := ArticleInfo{
		Article:        article,
		Tags:           tags,
		Author:         author,
		FavoritesCount: count,
	}
	if viewerID == "" {
		return info, nil
	}

	favorited, err := q.favorites.IsFavorited(ctx, viewerID, article.ID)
	if err != nil {
		return ArticleInfo{}, err
	}
	following, err := q.follows.IsFollowing(ctx, viewerID, article.AuthorID)
	if err != nil {
		return ArticleInfo{}, err
	}
	info.Favorited = favorited
	info.Following = following
	return info, nil
}

// List returns the global listing for the facets, decorated for the viewer
// (or anonymously when viewerID is empty).
func (q *Query) List(ctx context.Context, viewerID string, facets Facets) ([]ArticleInfo, error) {
	found, err := q.store.List(ctx, facets)
	if err != nil {
		return nil, err
	}
	return q.decorate(ctx, viewerID, found)
}

// Feed returns articles authored by the users the viewer follows, newest
// first. A viewer who follows nobody gets an empty sequence.
func (q *Query) Feed(ctx context.Context, viewerID string, facets Facets) ([]ArticleInfo, error) {
	following, err := q.follows.FollowingOf(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if len(following) == 0 {
		return []ArticleInfo{}, nil
	}

	found, err := q.store.ListByAuthors(ctx, following, facets)
	if err != nil {
		return nil, err
	}
	return q.decorate(ctx, viewerID, found)
}

func (q *Query) decorate(ctx context.Context, viewerID string, found []Article) ([]ArticleInfo, error) {
	infos := make([]ArticleInfo, 0, len(found))
	for _, article := range found {
		info, err := q.ArticleInfo(ctx, viewerID, article)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}
