// Package social maintains the directed follow graph between users.
package social

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

// FollowEdge records that the follower receives the followee's feed content.
// The composite primary key makes each directed pair exist at most once.
type FollowEdge struct {
	FollowerID string    `gorm:"column:follower_id;primaryKey;size:190;not null"`
	FolloweeID string    `gorm:"column:followee_id;primaryKey;size:190;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName provides the explicit table binding for GORM.
func (FollowEdge) TableName() string {
	return "follow"
}

// GraphConfig describes the dependencies of the follow graph.
type GraphConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Graph answers follow-relationship queries and mutates follow edges.
type Graph struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewGraph constructs the follow graph service.
func NewGraph(cfg GraphConfig) (*Graph, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Graph{db: cfg.Database, clock: clock, logger: logger}, nil
}

// IsFollowing reports whether a follow edge exists from follower to followee.
func (g *Graph) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	var edge FollowEdge
	err := g.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Take(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Follow inserts the directed edge. Re-following an already-followed user is a
// no-op; the primary key on the pair is what keeps a racing duplicate out.
func (g *Graph) Follow(ctx context.Context, followerID, followeeID string) error {
	edge := FollowEdge{
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  g.clock().UTC(),
	}
	err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&edge).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		g.logger.Error("follow edge insert failed", zap.Error(err),
			zap.String("follower_id", followerID),
			zap.String("followee_id", followeeID))
		return err
	}
	return nil
}

// Unfollow removes the directed edge. Removing an absent edge is a no-op.
func (g *Graph) Unfollow(ctx context.Context, followerID, followeeID string) error {
	return g.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&FollowEdge{}).Error
}

// FollowingOf returns the ids of every user the given user follows.
func (g *Graph) FollowingOf(ctx context.Context, followerID string) ([]string, error) {
	var followees []string
	err := g.db.WithContext(ctx).
		Model(&FollowEdge{}).
		Where("follower_id = ?", followerID).
		Pluck("followee_id", &followees).Error
	if err != nil {
		return nil, err
	}
	return followees, nil
}
