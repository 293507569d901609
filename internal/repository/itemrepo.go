package repository

import (
	"context"

	"github.com/and161185/covered/internal/model"
)

// Every inventory query is scoped by the owning user; an entity owned by
// someone else is reported as ErrNotFound.

// HomeRepository provides access to homes.
type HomeRepository interface {
	// List returns the user's homes, oldest first.
	List(ctx context.Context, userID string) ([]model.Home, error)
	// Get loads one home with its rooms.
	Get(ctx context.Context, userID, id string) (*model.Home, error)
	// Create inserts h; ID and UserID must be set.
	Create(ctx context.Context, h *model.Home) error
	// Update applies patch and returns the stored home.
	Update(ctx context.Context, userID, id string, patch model.HomePatch) (*model.Home, error)
	// Delete removes the home with its rooms and items.
	Delete(ctx context.Context, userID, id string) error
}

// RoomRepository provides access to rooms.
type RoomRepository interface {
	// ListByHome returns the rooms of a home, oldest first.
	ListByHome(ctx context.Context, userID, homeID string) ([]model.Room, error)
	// Create inserts r into a home owned by userID.
	Create(ctx context.Context, userID string, r *model.Room) error
	// Update applies patch and returns the stored room.
	Update(ctx context.Context, userID, id string, patch model.RoomPatch) (*model.Room, error)
	// Delete removes the room with its items.
	Delete(ctx context.Context, userID, id string) error
}

// ItemRepository provides access to items.
type ItemRepository interface {
	// ListByRoom returns the items of a room, oldest first.
	ListByRoom(ctx context.Context, userID, roomID string) ([]model.Item, error)
	// Create inserts it into a room owned by userID.
	Create(ctx context.Context, userID string, it *model.Item) error
	// Update applies patch and returns the stored item.
	Update(ctx context.Context, userID, id string, patch model.ItemPatch) (*model.Item, error)
	// Delete removes the item.
	Delete(ctx context.Context, userID, id string) error
}
