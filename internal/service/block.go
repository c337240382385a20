package service

import (
	"context"

	"messaging-service/internal/repositories"
)

// BlockRegistry answers block-relationship questions. The relationship is
// stored directed but queried symmetrically: either direction blocks both
// users from each other.
type BlockRegistry struct {
	blocks repositories.BlockRepository
}

// NewBlockRegistry constructs a BlockRegistry.
func NewBlockRegistry(blocks repositories.BlockRepository) *BlockRegistry {
	return &BlockRegistry{blocks: blocks}
}

// Block records blockerID blocking blockedID. Idempotent.
func (r *BlockRegistry) Block(ctx context.Context, blockerID, blockedID int) error {
	if blockerID == blockedID {
		return invalidf("cannot block yourself")
	}
	return r.blocks.InsertBlock(ctx, blockerID, blockedID)
}

// Unblock removes the blockerID -> blockedID record.
func (r *BlockRegistry) Unblock(ctx context.Context, blockerID, blockedID int) error {
	return r.blocks.DeleteBlock(ctx, blockerID, blockedID)
}

// IsBlocked reports whether a block exists between the two users in either
// direction.
func (r *BlockRegistry) IsBlocked(ctx context.Context, a, b int) (bool, error) {
	return r.blocks.Exists(ctx, a, b)
}

// BlockedIDsFor returns every user in a block relationship with userID.
func (r *BlockRegistry) BlockedIDsFor(ctx context.Context, userID int) ([]int, error) {
	return r.blocks.BlockedIDsFor(ctx, userID)
}
