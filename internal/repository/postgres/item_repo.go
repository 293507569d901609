package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/model"
)

// ItemRepo implements ItemRepository using PostgreSQL.
type ItemRepo struct{ db *DB }

// NewItemRepo constructs an item repository.
func NewItemRepo(db *DB) *ItemRepo { return &ItemRepo{db: db} }

const itemCols = `i.id::text, i.room_id::text, i.name, i.category, i.brand, i.model, i.serial_number,
i.purchase_date::text, i.purchase_price::float8, i.estimated_value::float8, i.condition, i.notes,
i.created_at, i.updated_at`

func scanItem(row pgx.Row) (model.Item, error) {
	var (
		it                        model.Item
		category, condition       string
		brand, mdl, serial, notes pgtype.Text
		purchaseDate              pgtype.Text
		purchasePrice             pgtype.Float8
	)
	err := row.Scan(&it.ID, &it.RoomID, &it.Name, &category, &brand, &mdl, &serial,
		&purchaseDate, &purchasePrice, &it.EstimatedValue, &condition, &notes,
		&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return model.Item{}, err
	}
	it.Category = model.ItemCategory(category)
	it.Condition = model.ItemCondition(condition)
	it.Brand = textPtr(brand)
	it.Model = textPtr(mdl)
	it.SerialNumber = textPtr(serial)
	it.PurchaseDate = textPtr(purchaseDate)
	it.PurchasePrice = floatPtr(purchasePrice)
	it.Notes = textPtr(notes)
	return it, nil
}

// ownsRoom reports whether roomID exists in a home that belongs to userID.
func ownsRoom(ctx context.Context, db *DB, userID, roomID string) error {
	const q = `
SELECT EXISTS (
  SELECT 1 FROM rooms r JOIN homes h ON h.id=r.home_id
  WHERE r.id=$1 AND h.user_id=$2)`
	var ok bool
	if err := db.Pool.QueryRow(ctx, q, roomID, userID).Scan(&ok); err != nil {
		return err
	}
	if !ok {
		return errs.ErrNotFound
	}
	return nil
}

// ListByRoom returns the items of a room owned by userID.
func (r *ItemRepo) ListByRoom(ctx context.Context, userID, roomID string) ([]model.Item, error) {
	if err := ownsRoom(ctx, r.db, userID, roomID); err != nil {
		return nil, err
	}
	q := `SELECT ` + itemCols + ` FROM items i WHERE i.room_id=$1 ORDER BY i.created_at, i.id`
	rows, err := r.db.Pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Create inserts it; the room must belong to userID.
func (r *ItemRepo) Create(ctx context.Context, userID string, it *model.Item) error {
	const q = `
INSERT INTO items (id, room_id, name, category, brand, model, serial_number,
                   purchase_date, purchase_price, estimated_value, condition, notes)
SELECT $1, rm.id, $3, $4, $5, $6, $7, $8::date, $9::numeric, $10::numeric, $11, $12
FROM rooms rm JOIN homes h ON h.id=rm.home_id
WHERE rm.id=$2 AND h.user_id=$13
RETURNING created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q,
		it.ID, it.RoomID, it.Name, string(it.Category), it.Brand, it.Model, it.SerialNumber,
		it.PurchaseDate, it.PurchasePrice, it.EstimatedValue, string(it.Condition), it.Notes,
		userID,
	).Scan(&it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isForeignKeyViolation(err) {
			return errs.ErrNotFound
		}
		return err
	}
	return nil
}

// Update applies the non-nil fields of patch. Optional columns cannot be
// cleared through a patch.
func (r *ItemRepo) Update(ctx context.Context, userID, id string, patch model.ItemPatch) (*model.Item, error) {
	q := `
UPDATE items i
SET name=COALESCE($3, i.name),
    category=COALESCE($4, i.category),
    brand=COALESCE($5, i.brand),
    model=COALESCE($6, i.model),
    serial_number=COALESCE($7, i.serial_number),
    purchase_date=COALESCE($8::date, i.purchase_date),
    purchase_price=COALESCE($9::numeric, i.purchase_price),
    estimated_value=COALESCE($10::numeric, i.estimated_value),
    condition=COALESCE($11, i.condition),
    notes=COALESCE($12, i.notes),
    updated_at=now()
FROM rooms rm JOIN homes h ON h.id=rm.home_id
WHERE i.id=$1 AND rm.id=i.room_id AND h.user_id=$2
RETURNING ` + itemCols
	it, err := scanItem(r.db.Pool.QueryRow(ctx, q,
		id, userID, patch.Name, textArg(patch.Category), patch.Brand, patch.Model, patch.SerialNumber,
		patch.PurchaseDate, patch.PurchasePrice, patch.EstimatedValue, textArg(patch.Condition), patch.Notes,
	))
	if err != nil {
		return nil, rowErr(err)
	}
	return &it, nil
}

// Delete removes the item.
func (r *ItemRepo) Delete(ctx context.Context, userID, id string) error {
	const q = `
DELETE FROM items i USING rooms rm, homes h
WHERE i.id=$1 AND rm.id=i.room_id AND h.id=rm.home_id AND h.user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
