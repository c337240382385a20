package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// BlockRepository abstracts block-relationship persistence.
type BlockRepository interface {
	InsertBlock(ctx context.Context, blockerID, blockedID int) error
	DeleteBlock(ctx context.Context, blockerID, blockedID int) error
	Exists(ctx context.Context, a, b int) (bool, error)
	BlockedIDsFor(ctx context.Context, userID int) ([]int, error)
}

// BlockRepo is a sqlx implementation of BlockRepository.
type BlockRepo struct {
	db *sqlx.DB
}

// NewBlockRepo constructs a BlockRepo.
func NewBlockRepo(db *sqlx.DB) *BlockRepo {
	return &BlockRepo{db: db}
}

// InsertBlock records blocker -> blocked, a no-op when already present.
func (r *BlockRepo) InsertBlock(ctx context.Context, blockerID, blockedID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blocks (blocker_id, blocked_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		blockerID, blockedID)
	return err
}

// DeleteBlock removes the blocker -> blocked record if it exists.
func (r *BlockRepo) DeleteBlock(ctx context.Context, blockerID, blockedID int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM blocks WHERE blocker_id=$1 AND blocked_id=$2`, blockerID, blockedID)
	return err
}

// Exists reports whether a block record exists in either direction.
func (r *BlockRepo) Exists(ctx context.Context, a, b int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM blocks WHERE (blocker_id=$1 AND blocked_id=$2) OR (blocker_id=$2 AND blocked_id=$1))`,
		a, b)
	return exists, err
}

// BlockedIDsFor returns every user id in a block relationship with userID,
// in either direction, excluding userID itself.
func (r *BlockRepo) BlockedIDsFor(ctx context.Context, userID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`SELECT DISTINCT CASE WHEN blocker_id=$1 THEN blocked_id ELSE blocker_id END
         FROM blocks WHERE blocker_id=$1 OR blocked_id=$1`, userID)
	return ids, err
}
