package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationPurgeOrphanedArticleRelations = "2026-05-12_purge_orphaned_article_relations"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationPurgeOrphanedArticleRelations, apply: purgeOrphanedArticleRelations},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// purgeOrphanedArticleRelations drops association rows left behind by article
// deletions that predate transactional cascade cleanup.
func purgeOrphanedArticleRelations(db *gorm.DB) error {
	err := db.Exec("DELETE FROM article_tag WHERE article_id NOT IN (SELECT id FROM articles);").Error
	if err != nil {
		return err
	}
	return db.Exec("DELETE FROM article_favorite WHERE article_id NOT IN (SELECT id FROM articles);").Error
}
