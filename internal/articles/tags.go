package articles

import (
	"context"
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Catalog maintains the global set of known tags, deduplicated by name.
type Catalog struct {
	db *gorm.DB
}

// NewCatalog constructs the tag catalog.
func NewCatalog(db *gorm.DB) (*Catalog, error) {
	if db == nil {
		return nil, errMissingDatabase
	}
	return &Catalog{db: db}, nil
}

// EnsureTags returns the Tag row for each name, creating missing ones. Safe
// under concurrent callers requesting overlapping name sets: a duplicate-key
// rejection on insert means someone else just created the tag, so the name is
// re-read instead of failing the operation.
func (c *Catalog) EnsureTags(ctx context.Context, names []string) ([]Tag, error) {
	var tags []Tag
	txErr := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		tags, err = ensureTags(tx, names)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}
	return tags, nil
}

// All returns every known tag name, sorted.
func (c *Catalog) All(ctx context.Context) ([]string, error) {
	var names []string
	err := c.db.WithContext(ctx).
		Model(&Tag{}).
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// normalizeTagNames trims, lowercases, drops empties, and deduplicates while
// keeping first-seen order.
func normalizeTagNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	normalized := make([]string, 0, len(names))
	for _, name := range names {
		cleaned := strings.ToLower(strings.TrimSpace(name))
		if cleaned == "" {
			continue
		}
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}
		normalized = append(normalized, cleaned)
	}
	return normalized
}

func ensureTags(tx *gorm.DB, names []string) ([]Tag, error) {
	cleaned := normalizeTagNames(names)
	if len(cleaned) == 0 {
		return nil, nil
	}

	var existing []Tag
	if err := tx.Where("name IN ?", cleaned).Find(&existing).Error; err != nil {
		return nil, err
	}

	byName := make(map[string]Tag, len(cleaned))
	for _, tag := range existing {
		byName[tag.Name] = tag
	}

	for _, name := range cleaned {
		if _, ok := byName[name]; ok {
			continue
		}
		tag := Tag{Name: name}
		err := tx.Create(&tag).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race; the winner's row is authoritative.
			if err := tx.Where("name = ?", name).Take(&tag).Error; err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}
		byName[name] = tag
	}

	tags := make([]Tag, 0, len(byName))
	for _, name := range cleaned {
		tags = append(tags, byName[name])
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}
