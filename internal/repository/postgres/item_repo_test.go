package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/model"
	"github.com/and161185/covered/internal/repository"
)

var (
	_ repository.AccountRepository      = (*AccountRepo)(nil)
	_ repository.RefreshTokenRepository = (*RefreshTokenRepo)(nil)
	_ repository.ProfileRepository      = (*ProfileRepo)(nil)
	_ repository.PushTokenRepository    = (*PushTokenRepo)(nil)
	_ repository.HomeRepository         = (*HomeRepo)(nil)
	_ repository.RoomRepository         = (*RoomRepo)(nil)
	_ repository.ItemRepository         = (*ItemRepo)(nil)
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var itemColNames = []string{
	"id", "room_id", "name", "category", "brand", "model", "serial_number",
	"purchase_date", "purchase_price", "estimated_value", "condition", "notes",
	"created_at", "updated_at",
}

func expectOwnsRoom(mock pgxmock.PgxPoolIface, roomID, userID string, ok bool) {
	mock.ExpectQuery(`SELECT EXISTS \( SELECT 1 FROM rooms r JOIN homes h ON h.id=r.home_id WHERE r.id=\$1 AND h.user_id=\$2\)`).
		WithArgs(roomID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(ok))
}

func TestItemRepo_ListByRoom(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewItemRepo(db)
	now := time.Now()

	expectOwnsRoom(mock, "r1", "u1", true)
	mock.ExpectQuery(`FROM items i WHERE i.room_id=\$1 ORDER BY i.created_at, i.id`).
		WithArgs("r1").
		WillReturnRows(pgxmock.NewRows(itemColNames).
			AddRow("i1", "r1", "TV", "electronics", "Sony", nil, nil, "2023-05-01", 899.0, 500.0, "good", nil, now, now).
			AddRow("i2", "r1", "Sofa", "furniture", nil, nil, nil, nil, nil, 0.0, "fair", "grey", now, now))

	items, err := r.ListByRoom(context.Background(), "u1", "r1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	tv := items[0]
	require.Equal(t, model.CategoryElectronics, tv.Category)
	require.Equal(t, model.ConditionGood, tv.Condition)
	require.NotNil(t, tv.Brand)
	require.Equal(t, "Sony", *tv.Brand)
	require.Nil(t, tv.Model)
	require.Equal(t, "2023-05-01", *tv.PurchaseDate)
	require.Equal(t, 899.0, *tv.PurchasePrice)
	require.Equal(t, 500.0, tv.EstimatedValue)

	sofa := items[1]
	require.Nil(t, sofa.Brand)
	require.Nil(t, sofa.PurchasePrice)
	require.Equal(t, "grey", *sofa.Notes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepo_ListByRoom_ForeignRoom(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewItemRepo(db)

	expectOwnsRoom(mock, "r1", "u2", false)
	_, err := r.ListByRoom(context.Background(), "u2", "r1")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestItemRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewItemRepo(db)
	now := time.Now()
	brand := "Sony"
	it := &model.Item{
		ID: "i1", RoomID: "r1", Name: "TV", Category: model.CategoryElectronics,
		Brand: &brand, EstimatedValue: 500, Condition: model.ConditionGood,
	}
	args := []any{
		"i1", "r1", "TV", "electronics", &brand, (*string)(nil), (*string)(nil),
		(*string)(nil), (*float64)(nil), 500.0, "good", (*string)(nil),
	}

	mock.ExpectQuery(`INSERT INTO items .* FROM rooms rm JOIN homes h ON h.id=rm.home_id WHERE rm.id=\$2 AND h.user_id=\$13`).
		WithArgs(append(args, "u1")...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	require.NoError(t, r.Create(context.Background(), "u1", it))
	require.Equal(t, now, it.CreatedAt)

	mock.ExpectQuery(`INSERT INTO items`).
		WithArgs(append(args, "u2")...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}))
	require.ErrorIs(t, r.Create(context.Background(), "u2", it), errs.ErrNotFound)
}

func TestItemRepo_Update(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewItemRepo(db)
	now := time.Now()
	value := 750.0
	cond := model.ConditionExcellent
	condText := "excellent"
	patch := model.ItemPatch{EstimatedValue: &value, Condition: &cond}

	mock.ExpectQuery(`UPDATE items i SET name=COALESCE\(\$3, i.name\)`).
		WithArgs("i1", "u1",
			(*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil),
			(*string)(nil), (*float64)(nil), &value, &condText, (*string)(nil)).
		WillReturnRows(pgxmock.NewRows(itemColNames).
			AddRow("i1", "r1", "TV", "electronics", nil, nil, nil, nil, nil, 750.0, "excellent", nil, now, now))
	it, err := r.Update(context.Background(), "u1", "i1", patch)
	require.NoError(t, err)
	require.Equal(t, 750.0, it.EstimatedValue)
	require.Equal(t, model.ConditionExcellent, it.Condition)

	mock.ExpectQuery(`UPDATE items i`).
		WithArgs("i1", "u2",
			(*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil),
			(*string)(nil), (*float64)(nil), &value, &condText, (*string)(nil)).
		WillReturnRows(pgxmock.NewRows(itemColNames))
	_, err = r.Update(context.Background(), "u2", "i1", patch)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestItemRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewItemRepo(db)

	mock.ExpectExec(`DELETE FROM items i USING rooms rm, homes h WHERE i.id=\$1`).
		WithArgs("i1", "u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(context.Background(), "u1", "i1"))

	mock.ExpectExec(`DELETE FROM items`).
		WithArgs("i1", "u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.Delete(context.Background(), "u1", "i1"), errs.ErrNotFound)
}

func TestItemRepo_ListByRoom_QueryErr(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewItemRepo(db)
	boom := errors.New("boom")

	expectOwnsRoom(mock, "r1", "u1", true)
	mock.ExpectQuery(`FROM items i WHERE i.room_id=\$1`).
		WithArgs("r1").
		WillReturnError(boom)
	_, err := r.ListByRoom(context.Background(), "u1", "r1")
	require.ErrorIs(t, err, boom)
}
