package database

import (
	"fmt"

	"github.com/conduitlabs/conduit/backend/internal/articles"
	"github.com/conduitlabs/conduit/backend/internal/social"
	"github.com/conduitlabs/conduit/backend/internal/users"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenSQLite establishes a SQLite connection and performs schema migrations.
// TranslateError is enabled so unique-index violations surface as
// gorm.ErrDuplicatedKey, which the domain services treat as the authoritative
// conflict signal.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&users.User{},
		&social.FollowEdge{},
		&articles.Article{},
		&articles.Tag{},
		&articles.ArticleTag{},
		&articles.ArticleFavorite{},
		&migrationRecord{},
	)
	if err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}
