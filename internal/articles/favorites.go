package articles

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Favorites owns the many-to-many relation between users and the articles
// they favorited.
type Favorites struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewFavorites constructs the favorite tracker.
func NewFavorites(db *gorm.DB, clock func() time.Time) (*Favorites, error) {
	if db == nil {
		return nil, errMissingDatabase
	}
	if clock == nil {
		clock = time.Now
	}
	return &Favorites{db: db, clock: clock}, nil
}

// IsFavorited reports whether the user has favorited the article.
func (f *Favorites) IsFavorited(ctx context.Context, userID, articleID string) (bool, error) {
	var favorite ArticleFavorite
	err := f.db.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Take(&favorite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Favorite inserts the favorite row. A duplicate, whether pre-existing or
// racing, surfaces as ErrAlreadyFavorited; the composite primary key is the
// authority.
func (f *Favorites) Favorite(ctx context.Context, userID, articleID string) error {
	favorite := ArticleFavorite{
		UserID:    userID,
		ArticleID: articleID,
		CreatedAt: f.clock().UTC(),
	}
	err := f.db.WithContext(ctx).Create(&favorite).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyFavorited
	}
	return err
}

// Unfavorite deletes the favorite row. Deleting an absent row surfaces as
// ErrNotFavorited.
func (f *Favorites) Unfavorite(ctx context.Context, userID, articleID string) error {
	result := f.db.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Delete(&ArticleFavorite{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFavorited
	}
	return nil
}

// CountFor returns the number of users who favorited the article.
func (f *Favorites) CountFor(ctx context.Context, articleID string) (int64, error) {
	var count int64
	err := f.db.WithContext(ctx).
		Model(&ArticleFavorite{}).
		Where("article_id = ?", articleID).
		Count(&count).Error
	return count, err
}
