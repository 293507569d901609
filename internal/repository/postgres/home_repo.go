package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/model"
)

// HomeRepo implements HomeRepository using PostgreSQL.
type HomeRepo struct{ db *DB }

// NewHomeRepo constructs a home repository.
func NewHomeRepo(db *DB) *HomeRepo { return &HomeRepo{db: db} }

const homeCols = `id::text, user_id::text, name, address, created_at, updated_at`

func scanHome(row pgx.Row) (model.Home, error) {
	var h model.Home
	err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Address, &h.CreatedAt, &h.UpdatedAt)
	return h, err
}

// List returns the user's homes ordered by creation time.
func (r *HomeRepo) List(ctx context.Context, userID string) ([]model.Home, error) {
	q := `SELECT ` + homeCols + ` FROM homes WHERE user_id=$1 ORDER BY created_at, id`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Home{}
	for rows.Next() {
		h, err := scanHome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Get loads one home together with its rooms.
func (r *HomeRepo) Get(ctx context.Context, userID, id string) (*model.Home, error) {
	q := `SELECT ` + homeCols + ` FROM homes WHERE id=$1 AND user_id=$2`
	h, err := scanHome(r.db.Pool.QueryRow(ctx, q, id, userID))
	if err != nil {
		return nil, rowErr(err)
	}
	rooms, err := listRooms(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	h.Rooms = rooms
	return &h, nil
}

// Create inserts h and fills its timestamps.
func (r *HomeRepo) Create(ctx context.Context, h *model.Home) error {
	const q = `
INSERT INTO homes (id, user_id, name, address)
VALUES ($1, $2, $3, $4)
RETURNING created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q, h.ID, h.UserID, h.Name, h.Address).Scan(&h.CreatedAt, &h.UpdatedAt)
	if isForeignKeyViolation(err) {
		return errs.ErrNotFound
	}
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Update applies the non-nil fields of patch.
func (r *HomeRepo) Update(ctx context.Context, userID, id string, patch model.HomePatch) (*model.Home, error) {
	q := `
UPDATE homes
SET name=COALESCE($3, name), address=COALESCE($4, address), updated_at=now()
WHERE id=$1 AND user_id=$2
RETURNING ` + homeCols
	h, err := scanHome(r.db.Pool.QueryRow(ctx, q, id, userID, patch.Name, patch.Address))
	if err != nil {
		return nil, rowErr(err)
	}
	return &h, nil
}

// Delete removes the home; rooms and items go with it through ON DELETE CASCADE.
func (r *HomeRepo) Delete(ctx context.Context, userID, id string) error {
	const q = `DELETE FROM homes WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// RoomRepo implements RoomRepository using PostgreSQL.
type RoomRepo struct{ db *DB }

// NewRoomRepo constructs a room repository.
func NewRoomRepo(db *DB) *RoomRepo { return &RoomRepo{db: db} }

const roomCols = `r.id::text, r.home_id::text, r.name, r.room_type, r.is_completed, r.created_at, r.updated_at`

func scanRoom(row pgx.Row) (model.Room, error) {
	var (
		rm       model.Room
		roomType string
	)
	err := row.Scan(&rm.ID, &rm.HomeID, &rm.Name, &roomType, &rm.IsCompleted, &rm.CreatedAt, &rm.UpdatedAt)
	rm.RoomType = model.RoomType(roomType)
	return rm, err
}

func listRooms(ctx context.Context, db *DB, homeID string) ([]model.Room, error) {
	q := `SELECT ` + roomCols + ` FROM rooms r WHERE r.home_id=$1 ORDER BY r.created_at, r.id`
	rows, err := db.Pool.Query(ctx, q, homeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Room{}
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// ownsHome reports whether homeID exists and belongs to userID.
func ownsHome(ctx context.Context, db *DB, userID, homeID string) error {
	const q = `SELECT EXISTS (SELECT 1 FROM homes WHERE id=$1 AND user_id=$2)`
	var ok bool
	if err := db.Pool.QueryRow(ctx, q, homeID, userID).Scan(&ok); err != nil {
		return err
	}
	if !ok {
		return errs.ErrNotFound
	}
	return nil
}

// ListByHome returns the rooms of a home owned by userID.
func (r *RoomRepo) ListByHome(ctx context.Context, userID, homeID string) ([]model.Room, error) {
	if err := ownsHome(ctx, r.db, userID, homeID); err != nil {
		return nil, err
	}
	return listRooms(ctx, r.db, homeID)
}

// Create inserts rm; the home must belong to userID.
func (r *RoomRepo) Create(ctx context.Context, userID string, rm *model.Room) error {
	const q = `
INSERT INTO rooms (id, home_id, name, room_type)
SELECT $1, h.id, $3, $4 FROM homes h WHERE h.id=$2 AND h.user_id=$5
RETURNING is_completed, created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q, rm.ID, rm.HomeID, rm.Name, string(rm.RoomType), userID).
		Scan(&rm.IsCompleted, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isForeignKeyViolation(err) {
			return errs.ErrNotFound
		}
		return err
	}
	return nil
}

// Update applies the non-nil fields of patch.
func (r *RoomRepo) Update(ctx context.Context, userID, id string, patch model.RoomPatch) (*model.Room, error) {
	q := `
UPDATE rooms r
SET name=COALESCE($3, r.name),
    room_type=COALESCE($4, r.room_type),
    is_completed=COALESCE($5, r.is_completed),
    updated_at=now()
FROM homes h
WHERE r.id=$1 AND h.id=r.home_id AND h.user_id=$2
RETURNING ` + roomCols
	rm, err := scanRoom(r.db.Pool.QueryRow(ctx, q, id, userID, patch.Name, textArg(patch.RoomType), patch.IsCompleted))
	if err != nil {
		return nil, rowErr(err)
	}
	return &rm, nil
}

// Delete removes the room; its items go with it through ON DELETE CASCADE.
func (r *RoomRepo) Delete(ctx context.Context, userID, id string) error {
	const q = `DELETE FROM rooms r USING homes h WHERE r.id=$1 AND h.id=r.home_id AND h.user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
