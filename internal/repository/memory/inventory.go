package memory

import (
	"context"

	"github.com/and161185/covered/internal/convert"
	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/model"
)

// homeOf returns the home of userID with id; mu must be held.
func (db *DB) homeOf(userID, id string) (rec[model.Home], bool) {
	h, ok := db.homes[id]
	if !ok || h.v.UserID != userID {
		return rec[model.Home]{}, false
	}
	return h, true
}

// roomOf returns the room with id whose home belongs to userID; mu must be held.
func (db *DB) roomOf(userID, id string) (rec[model.Room], bool) {
	r, ok := db.rooms[id]
	if !ok {
		return rec[model.Room]{}, false
	}
	if _, ok := db.homeOf(userID, r.v.HomeID); !ok {
		return rec[model.Room]{}, false
	}
	return r, true
}

func (db *DB) roomsOf(homeID string) []model.Room {
	return sorted(db.rooms, func(r model.Room) bool { return r.HomeID == homeID })
}

func (db *DB) deleteRoom(id string) {
	for iid, it := range db.items {
		if it.v.RoomID == id {
			delete(db.items, iid)
		}
	}
	delete(db.rooms, id)
}

// HomeRepo implements repository.HomeRepository.
type HomeRepo struct{ db *DB }

// NewHomeRepo constructs a home repository.
func NewHomeRepo(db *DB) *HomeRepo { return &HomeRepo{db: db} }

// List returns the user's homes in creation order.
func (r *HomeRepo) List(_ context.Context, userID string) ([]model.Home, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return sorted(r.db.homes, func(h model.Home) bool { return h.UserID == userID }), nil
}

// Get loads one home with its rooms.
func (r *HomeRepo) Get(_ context.Context, userID, id string) (*model.Home, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	h, ok := r.db.homeOf(userID, id)
	if !ok {
		return nil, errs.ErrNotFound
	}
	out := h.v
	out.Rooms = r.db.roomsOf(id)
	return &out, nil
}

// Create inserts h and fills its timestamps.
func (r *HomeRepo) Create(_ context.Context, h *model.Home) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.profiles[h.UserID]; !ok {
		return errs.ErrNotFound
	}
	if _, ok := r.db.homes[h.ID]; ok {
		return errs.ErrAlreadyExists
	}
	now := r.db.now()
	h.CreatedAt, h.UpdatedAt = now, now
	stored := *h
	stored.Rooms = nil
	r.db.homes[h.ID] = rec[model.Home]{v: stored, seq: r.db.nextSeq()}
	return nil
}

// Update applies patch.
func (r *HomeRepo) Update(_ context.Context, userID, id string, patch model.HomePatch) (*model.Home, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	h, ok := r.db.homeOf(userID, id)
	if !ok {
		return nil, errs.ErrNotFound
	}
	convert.ApplyHomePatch(&h.v, patch, r.db.now())
	r.db.homes[id] = h
	out := h.v
	return &out, nil
}

// Delete removes the home with its rooms and items.
func (r *HomeRepo) Delete(_ context.Context, userID, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.homeOf(userID, id); !ok {
		return errs.ErrNotFound
	}
	for rid, rm := range r.db.rooms {
		if rm.v.HomeID == id {
			r.db.deleteRoom(rid)
		}
	}
	delete(r.db.homes, id)
	return nil
}

// RoomRepo implements repository.RoomRepository.
type RoomRepo struct{ db *DB }

// NewRoomRepo constructs a room repository.
func NewRoomRepo(db *DB) *RoomRepo { return &RoomRepo{db: db} }

// ListByHome returns the rooms of a home owned by userID.
func (r *RoomRepo) ListByHome(_ context.Context, userID, homeID string) ([]model.Room, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if _, ok := r.db.homeOf(userID, homeID); !ok {
		return nil, errs.ErrNotFound
	}
	return r.db.roomsOf(homeID), nil
}

// Create inserts rm into a home owned by userID.
func (r *RoomRepo) Create(_ context.Context, userID string, rm *model.Room) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.homeOf(userID, rm.HomeID); !ok {
		return errs.ErrNotFound
	}
	if _, ok := r.db.rooms[rm.ID]; ok {
		return errs.ErrAlreadyExists
	}
	now := r.db.now()
	rm.CreatedAt, rm.UpdatedAt = now, now
	stored := *rm
	stored.Items = nil
	r.db.rooms[rm.ID] = rec[model.Room]{v: stored, seq: r.db.nextSeq()}
	return nil
}

// Update applies patch.
func (r *RoomRepo) Update(_ context.Context, userID, id string, patch model.RoomPatch) (*model.Room, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rm, ok := r.db.roomOf(userID, id)
	if !ok {
		return nil, errs.ErrNotFound
	}
	convert.ApplyRoomPatch(&rm.v, patch, r.db.now())
	r.db.rooms[id] = rm
	out := rm.v
	return &out, nil
}

// Delete removes the room with its items.
func (r *RoomRepo) Delete(_ context.Context, userID, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.roomOf(userID, id); !ok {
		return errs.ErrNotFound
	}
	r.db.deleteRoom(id)
	return nil
}

// ItemRepo implements repository.ItemRepository.
type ItemRepo struct{ db *DB }

// NewItemRepo constructs an item repository.
func NewItemRepo(db *DB) *ItemRepo { return &ItemRepo{db: db} }

// ListByRoom returns the items of a room owned by userID.
func (r *ItemRepo) ListByRoom(_ context.Context, userID, roomID string) ([]model.Item, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if _, ok := r.db.roomOf(userID, roomID); !ok {
		return nil, errs.ErrNotFound
	}
	return sorted(r.db.items, func(it model.Item) bool { return it.RoomID == roomID }), nil
}

// Create inserts it into a room owned by userID.
func (r *ItemRepo) Create(_ context.Context, userID string, it *model.Item) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.roomOf(userID, it.RoomID); !ok {
		return errs.ErrNotFound
	}
	if _, ok := r.db.items[it.ID]; ok {
		return errs.ErrAlreadyExists
	}
	now := r.db.now()
	it.CreatedAt, it.UpdatedAt = now, now
	r.db.items[it.ID] = rec[model.Item]{v: *it, seq: r.db.nextSeq()}
	return nil
}

// Update applies patch.
func (r *ItemRepo) Update(_ context.Context, userID, id string, patch model.ItemPatch) (*model.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	it, ok := r.db.items[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if _, ok := r.db.roomOf(userID, it.v.RoomID); !ok {
		return nil, errs.ErrNotFound
	}
	convert.ApplyItemPatch(&it.v, patch, r.db.now())
	r.db.items[id] = it
	out := it.v
	return &out, nil
}

// Delete removes the item.
func (r *ItemRepo) Delete(_ context.Context, userID, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	it, ok := r.db.items[id]
	if !ok {
		return errs.ErrNotFound
	}
	if _, ok := r.db.roomOf(userID, it.v.RoomID); !ok {
		return errs.ErrNotFound
	}
	delete(r.db.items, id)
	return nil
}
