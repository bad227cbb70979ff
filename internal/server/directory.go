package server

import (
	"context"

	"github.com/conduitlabs/conduit/backend/internal/articles"
	"github.com/conduitlabs/conduit/backend/internal/users"
)

type userDirectory struct {
	users *users.Service
}

// NewAuthorResolver adapts the user directory to the article read side.
func NewAuthorResolver(service *users.Service) articles.AuthorResolver {
	return userDirectory{users: service}
}

func (d userDirectory) AuthorByID(ctx context.Context, id string) (articles.Author, error) {
	user, err := d.users.ByID(ctx, id)
	if err != nil {
		return articles.Author{}, err
	}
	return articles.Author{
		ID:       user.ID,
		Username: user.Username,
		Bio:      user.Bio,
		ImageURL: user.ImageURL,
	}, nil
}
