package articles

import "errors"

var (
	// ErrArticleNotFound indicates that no article matches the requested slug.
	ErrArticleNotFound = errors.New("articles: article not found")
	// ErrTitleTaken indicates that the title is already used by another article.
	ErrTitleTaken = errors.New("articles: title already exists")
	// ErrNotAuthor indicates a mutation attempted by someone other than the author.
	ErrNotAuthor = errors.New("articles: requester is not the author")
	// ErrAlreadyFavorited indicates a favorite of an already-favorited article.
	ErrAlreadyFavorited = errors.New("articles: already favorited")
	// ErrNotFavorited indicates an unfavorite of an article that was not favorited.
	ErrNotFavorited = errors.New("articles: not favorited")
	// ErrInvalidArticle indicates that a required article field is empty.
	ErrInvalidArticle = errors.New("articles: invalid article")
)
