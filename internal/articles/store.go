package articles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

// IDProvider issues identifiers for new articles.
type IDProvider interface {
	NewID() (string, error)
}

// StoreConfig describes the dependencies of the article store.
type StoreConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Store owns article persistence: creation, author-only mutation, deletion
// with referential cleanup, tag attachment, and filtered listings. Every
// public mutation runs in a single transaction; uniqueness constraints at the
// storage layer are the authority for conflicts.
type Store struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewStore constructs the article store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Store{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// BySlug returns the article with the given slug.
func (s *Store) BySlug(ctx context.Context, slug string) (Article, error) {
	var article Article
	err := s.db.WithContext(ctx).Where("slug = ?", strings.TrimSpace(slug)).Take(&article).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Article{}, ErrArticleNotFound
	}
	if err != nil {
		return Article{}, err
	}
	return article, nil
}

// List returns articles matching the facets, newest first. Pure filter and
// page; no viewer context.
func (s *Store) List(ctx context.Context, facets Facets) ([]Article, error) {
	facets = facets.normalized()

	query := s.db.WithContext(ctx).Model(&Article{})
	query = applyFacetFilters(query, facets)

	var found []Article
	err := query.
		Order("created_at DESC").
		Limit(facets.Limit).
		Offset(facets.Offset).
		Find(&found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ListByAuthors returns articles written by the given author set, newest
// first. An empty author set yields an empty result.
func (s *Store) ListByAuthors(ctx context.Context, authorIDs []string, facets Facets) ([]Article, error) {
	if len(authorIDs) == 0 {
		return []Article{}, nil
	}
	facets = facets.normalized()

	var found []Article
	err := s.db.WithContext(ctx).
		Where("author_id IN ?", authorIDs).
		Order("created_at DESC").
		Limit(facets.Limit).
		Offset(facets.Offset).
		Find(&found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

func applyFacetFilters(query *gorm.DB, facets Facets) *gorm.DB {
	if facets.Tag != "" {
		query = query.Where(
			"id IN (SELECT article_id FROM article_tag JOIN tags ON tags.id = article_tag.tag_id WHERE tags.name = ?)",
			strings.ToLower(strings.TrimSpace(facets.Tag)),
		)
	}
	if facets.Author != "" {
		query = query.Where(
			"author_id IN (SELECT id FROM users WHERE username = ?)",
			facets.Author,
		)
	}
	if facets.FavoritedBy != "" {
		query = query.Where(
			"id IN (SELECT article_id FROM article_favorite WHERE user_id IN (SELECT id FROM users WHERE username = ?))",
			facets.FavoritedBy,
		)
	}
	return query
}

// CreateParams carries the fields of a new article.
type CreateParams struct {
	AuthorID    string
	Title       string
	Description string
	Body        string
	Tags        []string
}

// Create persists a new article with a generated identifier and timestamps,
// attaching the given tags in the same transaction. Fails with ErrTitleTaken
// when the title already exists.
func (s *Store) Create(ctx context.Context, params CreateParams) (Article, error) {
	title := strings.TrimSpace(params.Title)
	if params.AuthorID == "" || title == "" {
		return Article{}, ErrInvalidArticle
	}
	slug := Slugify(title)
	if slug == "" {
		return Article{}, fmt.Errorf("%w: title yields empty slug", ErrInvalidArticle)
	}

	id, err := s.idProvider.NewID()
	if err != nil {
		return Article{}, fmt.Errorf("articles: generate id: %w", err)
	}

	now := s.clock().UTC()
	article := Article{
		ID:          id,
		Slug:        slug,
		Title:       title,
		Description: params.Description,
		Body:        params.Body,
		AuthorID:    params.AuthorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&article).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrTitleTaken
			}
			s.logger.Error("article insert failed", zap.Error(err), zap.String("slug", slug))
			return err
		}
		if len(params.Tags) > 0 {
			if _, err := attachTags(tx, article.ID, params.Tags); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return Article{}, txErr
	}
	return article, nil
}

// EditTitle renames the article, re-deriving its slug. Fails with ErrNotAuthor
// for non-authors and ErrTitleTaken when the new title collides with a
// different article.
func (s *Store) EditTitle(ctx context.Context, requesterID, slug, title string) (Article, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Article{}, ErrInvalidArticle
	}
	newSlug := Slugify(title)
	if newSlug == "" {
		return Article{}, fmt.Errorf("%w: title yields empty slug", ErrInvalidArticle)
	}

	var updated Article
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		article, err := lockBySlug(tx, slug)
		if err != nil {
			return err
		}
		if article.AuthorID != requesterID {
			return ErrNotAuthor
		}
		if article.Title == title {
			updated = article
			return nil
		}

		var collisions int64
		err = tx.Model(&Article{}).
			Where("title = ? AND id <> ?", title, article.ID).
			Count(&collisions).Error
		if err != nil {
			return err
		}
		if collisions > 0 {
			return ErrTitleTaken
		}

		err = tx.Model(&Article{}).
			Where("id = ?", article.ID).
			Updates(map[string]interface{}{
				"title":      title,
				"slug":       newSlug,
				"updated_at": s.clock().UTC(),
			}).Error
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrTitleTaken
			}
			return err
		}
		return tx.Where("id = ?", article.ID).Take(&updated).Error
	})
	if txErr != nil {
		return Article{}, txErr
	}
	return updated, nil
}

// EditDescription replaces the article description. Author-only.
func (s *Store) EditDescription(ctx context.Context, requesterID, slug, description string) (Article, error) {
	return s.editField(ctx, requesterID, slug, "description", description)
}

// EditBody replaces the article body. Author-only.
func (s *Store) EditBody(ctx context.Context, requesterID, slug, body string) (Article, error) {
	return s.editField(ctx, requesterID, slug, "body", body)
}

func (s *Store) editField(ctx context.Context, requesterID, slug, column, value string) (Article, error) {
	var updated Article
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		article, err := lockBySlug(tx, slug)
		if err != nil {
			return err
		}
		if article.AuthorID != requesterID {
			return ErrNotAuthor
		}
		err = tx.Model(&Article{}).
			Where("id = ?", article.ID).
			Updates(map[string]interface{}{
				column:       value,
				"updated_at": s.clock().UTC(),
			}).Error
		if err != nil {
			return err
		}
		return tx.Where("id = ?", article.ID).Take(&updated).Error
	})
	if txErr != nil {
		return Article{}, txErr
	}
	return updated, nil
}

// Delete removes the article along with its tag associations and favorites.
// Referential cleanup is the store's responsibility, not the caller's.
func (s *Store) Delete(ctx context.Context, requesterID, slug string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		article, err := lockBySlug(tx, slug)
		if err != nil {
			return err
		}
		if article.AuthorID != requesterID {
			return ErrNotAuthor
		}
		if err := tx.Where("article_id = ?", article.ID).Delete(&ArticleTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", article.ID).Delete(&ArticleFavorite{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", article.ID).Delete(&Article{}).Error
	})
}

// AttachTags resolves the named tags through the catalog, inserts only the
// associations the article does not already carry, and returns the article's
// full current tag set. Idempotent: repeating the same set changes nothing.
func (s *Store) AttachTags(ctx context.Context, articleID string, names []string) ([]Tag, error) {
	var attached []Tag
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		attached, err = attachTags(tx, articleID, names)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return attached, nil
}

func attachTags(tx *gorm.DB, articleID string, names []string) ([]Tag, error) {
	tags, err := ensureTags(tx, names)
	if err != nil {
		return nil, err
	}

	var existing []ArticleTag
	if err := tx.Where("article_id = ?", articleID).Find(&existing).Error; err != nil {
		return nil, err
	}
	attachedIDs := make(map[uint]struct{}, len(existing))
	for _, association := range existing {
		attachedIDs[association.TagID] = struct{}{}
	}

	for _, tag := range tags {
		if _, ok := attachedIDs[tag.ID]; ok {
			continue
		}
		association := ArticleTag{ArticleID: articleID, TagID: tag.ID}
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&association).Error
		if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}

	return tagsOf(tx, articleID)
}

// TagsOf returns the names of the tags attached to an article, sorted.
func (s *Store) TagsOf(ctx context.Context, articleID string) ([]string, error) {
	tags, err := tagsOf(s.db.WithContext(ctx), articleID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return names, nil
}

func tagsOf(tx *gorm.DB, articleID string) ([]Tag, error) {
	var tags []Tag
	err := tx.
		Joins("JOIN article_tag ON article_tag.tag_id = tags.id").
		Where("article_tag.article_id = ?", articleID).
		Order("tags.name ASC").
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func lockBySlug(tx *gorm.DB, slug string) (Article, error) {
	var article Article
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("slug = ?", strings.TrimSpace(slug)).
		Take(&article).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Article{}, ErrArticleNotFound
	}
	if err != nil {
		return Article{}, err
	}
	return article, nil
}
