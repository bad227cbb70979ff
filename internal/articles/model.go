// Package articles owns article entities, their tag associations, favorite
// tracking, and the viewer-decorated read side.
package articles

import "time"

// Article is the persisted article entity. Title and slug are globally unique;
// the author is immutable after creation and is the only user allowed to
// mutate or delete the article.
type Article struct {
	ID          string    `gorm:"column:id;primaryKey;size:190;not null"`
	Slug        string    `gorm:"column:slug;size:190;not null;uniqueIndex"`
	Title       string    `gorm:"column:title;size:320;not null;uniqueIndex"`
	Description string    `gorm:"column:description;type:text;not null;default:''"`
	Body        string    `gorm:"column:body;type:text;not null"`
	AuthorID    string    `gorm:"column:author_id;size:190;not null;index"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Article) TableName() string {
	return "articles"
}

// Tag is a globally unique tag name. Tags are created lazily when first
// referenced and never deleted.
type Tag struct {
	ID   uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Name string `gorm:"column:name;size:190;not null;uniqueIndex"`
}

// TableName provides the explicit table binding for GORM.
func (Tag) TableName() string {
	return "tags"
}

// ArticleTag associates an article with a tag. The composite primary key
// keeps each (article, tag) pair unique at the storage layer.
type ArticleTag struct {
	ArticleID string `gorm:"column:article_id;primaryKey;size:190;not null"`
	TagID     uint   `gorm:"column:tag_id;primaryKey;not null"`
}

// TableName provides the explicit table binding for GORM.
func (ArticleTag) TableName() string {
	return "article_tag"
}

// ArticleFavorite records that a user favorited an article. Presence of the
// row is the favorite; the composite primary key keeps each pair unique.
type ArticleFavorite struct {
	UserID    string    `gorm:"column:user_id;primaryKey;size:190;not null"`
	ArticleID string    `gorm:"column:article_id;primaryKey;size:190;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (ArticleFavorite) TableName() string {
	return "article_favorite"
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Facets is the filter and pagination descriptor applied to article listings.
// Filters that are empty strings are not applied.
type Facets struct {
	Tag         string
	Author      string
	FavoritedBy string
	Limit       int
	Offset      int
}

func (f Facets) normalized() Facets {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Author is the projection of a user the article read side needs. The user
// directory behind it is an external collaborator.
type Author struct {
	ID       string
	Username string
	Bio      string
	ImageURL string
}

// ArticleInfo is an article decorated with aggregate and viewer-relative
// fields. It is derived on read, never persisted.
type ArticleInfo struct {
	Article        Article
	Tags           []string
	Author         Author
	Following      bool
	Favorited      bool
	FavoritesCount int64
}
