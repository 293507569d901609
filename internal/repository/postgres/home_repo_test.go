package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/model"
)

var (
	homeColNames = []string{"id", "user_id", "name", "address", "created_at", "updated_at"}
	roomColNames = []string{"id", "home_id", "name", "room_type", "is_completed", "created_at", "updated_at"}
)

func TestHomeRepo_List(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewHomeRepo(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT id::text, user_id::text, name, address, created_at, updated_at FROM homes WHERE user_id=\$1 ORDER BY created_at, id`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows(homeColNames).
			AddRow("h1", "u1", "Beach House", "1 Ocean Dr", now, now).
			AddRow("h2", "u1", "Cabin", "2 Forest Rd", now, now))
	homes, err := r.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, homes, 2)
	require.Equal(t, "Cabin", homes[1].Name)

	mock.ExpectQuery(`FROM homes WHERE user_id=\$1`).
		WithArgs("u2").
		WillReturnRows(pgxmock.NewRows(homeColNames))
	homes, err = r.List(context.Background(), "u2")
	require.NoError(t, err)
	require.NotNil(t, homes)
	require.Empty(t, homes)
}

func TestHomeRepo_GetWithRooms(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewHomeRepo(db)
	now := time.Now()

	mock.ExpectQuery(`FROM homes WHERE id=\$1 AND user_id=\$2`).
		WithArgs("h1", "u1").
		WillReturnRows(pgxmock.NewRows(homeColNames).AddRow("h1", "u1", "Beach House", "1 Ocean Dr", now, now))
	mock.ExpectQuery(`FROM rooms r WHERE r.home_id=\$1 ORDER BY r.created_at, r.id`).
		WithArgs("h1").
		WillReturnRows(pgxmock.NewRows(roomColNames).
			AddRow("r1", "h1", "Kitchen", "kitchen", false, now, now).
			AddRow("r2", "h1", "Den", "living_room", true, now, now))

	h, err := r.Get(context.Background(), "u1", "h1")
	require.NoError(t, err)
	require.Len(t, h.Rooms, 2)
	require.Equal(t, model.RoomKitchen, h.Rooms[0].RoomType)
	require.True(t, h.Rooms[1].IsCompleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHomeRepo_Get_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewHomeRepo(db)

	mock.ExpectQuery(`FROM homes WHERE id=\$1 AND user_id=\$2`).
		WithArgs("h1", "intruder").
		WillReturnRows(pgxmock.NewRows(homeColNames))
	_, err := r.Get(context.Background(), "intruder", "h1")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestHomeRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewHomeRepo(db)
	now := time.Now()
	h := &model.Home{ID: "h1", UserID: "u1", Name: "Beach House", Address: "1 Ocean Dr"}

	mock.ExpectQuery(`INSERT INTO homes \(id, user_id, name, address\) VALUES \(\$1, \$2, \$3, \$4\) RETURNING created_at, updated_at`).
		WithArgs("h1", "u1", "Beach House", "1 Ocean Dr").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	require.NoError(t, r.Create(context.Background(), h))
	require.Equal(t, now, h.CreatedAt)

	mock.ExpectQuery(`INSERT INTO homes`).
		WithArgs("h2", "ghost", "X", "Y").
		WillReturnError(&pgconn.PgError{Code: "23503"})
	err := r.Create(context.Background(), &model.Home{ID: "h2", UserID: "ghost", Name: "X", Address: "Y"})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestHomeRepo_Update(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewHomeRepo(db)
	now := time.Now()
	name := "Lake House"
	patch := model.HomePatch{Name: &name}

	mock.ExpectQuery(`UPDATE homes SET name=COALESCE\(\$3, name\), address=COALESCE\(\$4, address\), updated_at=now\(\) WHERE id=\$1 AND user_id=\$2`).
		WithArgs("h1", "u1", &name, (*string)(nil)).
		WillReturnRows(pgxmock.NewRows(homeColNames).AddRow("h1", "u1", "Lake House", "1 Ocean Dr", now, now))
	h, err := r.Update(context.Background(), "u1", "h1", patch)
	require.NoError(t, err)
	require.Equal(t, "Lake House", h.Name)
	require.Equal(t, "1 Ocean Dr", h.Address)

	mock.ExpectQuery(`UPDATE homes`).
		WithArgs("h1", "u2", &name, (*string)(nil)).
		WillReturnRows(pgxmock.NewRows(homeColNames))
	_, err = r.Update(context.Background(), "u2", "h1", patch)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestHomeRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewHomeRepo(db)

	mock.ExpectExec(`DELETE FROM homes WHERE id=\$1 AND user_id=\$2`).
		WithArgs("h1", "u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(context.Background(), "u1", "h1"))

	mock.ExpectExec(`DELETE FROM homes`).
		WithArgs("h1", "u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.Delete(context.Background(), "u1", "h1"), errs.ErrNotFound)

	boom := errors.New("boom")
	mock.ExpectExec(`DELETE FROM homes`).
		WithArgs("h1", "u1").
		WillReturnError(boom)
	require.ErrorIs(t, r.Delete(context.Background(), "u1", "h1"), boom)
}

func TestRoomRepo_ListByHome(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRoomRepo(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM homes WHERE id=\$1 AND user_id=\$2\)`).
		WithArgs("h1", "u1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`FROM rooms r WHERE r.home_id=\$1`).
		WithArgs("h1").
		WillReturnRows(pgxmock.NewRows(roomColNames).AddRow("r1", "h1", "Kitchen", "kitchen", false, now, now))
	rooms, err := r.ListByHome(context.Background(), "u1", "h1")
	require.NoError(t, err)
	require.Len(t, rooms, 1)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("h1", "u2").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	_, err = r.ListByHome(context.Background(), "u2", "h1")
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRoomRepo(db)
	now := time.Now()
	rm := &model.Room{ID: "r1", HomeID: "h1", Name: "Kitchen", RoomType: model.RoomKitchen}

	mock.ExpectQuery(`INSERT INTO rooms \(id, home_id, name, room_type\) SELECT \$1, h.id, \$3, \$4 FROM homes h WHERE h.id=\$2 AND h.user_id=\$5`).
		WithArgs("r1", "h1", "Kitchen", "kitchen", "u1").
		WillReturnRows(pgxmock.NewRows([]string{"is_completed", "created_at", "updated_at"}).AddRow(false, now, now))
	require.NoError(t, r.Create(context.Background(), "u1", rm))
	require.Equal(t, now, rm.UpdatedAt)

	mock.ExpectQuery(`INSERT INTO rooms`).
		WithArgs("r1", "h1", "Kitchen", "kitchen", "u2").
		WillReturnRows(pgxmock.NewRows([]string{"is_completed", "created_at", "updated_at"}))
	require.ErrorIs(t, r.Create(context.Background(), "u2", rm), errs.ErrNotFound)
}

func TestRoomRepo_UpdateComplete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRoomRepo(db)
	now := time.Now()
	done := true

	mock.ExpectQuery(`UPDATE rooms r SET name=COALESCE\(\$3, r.name\), room_type=COALESCE\(\$4, r.room_type\), is_completed=COALESCE\(\$5, r.is_completed\)`).
		WithArgs("r1", "u1", (*string)(nil), (*string)(nil), &done).
		WillReturnRows(pgxmock.NewRows(roomColNames).AddRow("r1", "h1", "Kitchen", "kitchen", true, now, now))
	rm, err := r.Update(context.Background(), "u1", "r1", model.RoomPatch{IsCompleted: &done})
	require.NoError(t, err)
	require.True(t, rm.IsCompleted)
}

func TestRoomRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRoomRepo(db)

	mock.ExpectExec(`DELETE FROM rooms r USING homes h WHERE r.id=\$1 AND h.id=r.home_id AND h.user_id=\$2`).
		WithArgs("r1", "u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(context.Background(), "u1", "r1"))

	mock.ExpectExec(`DELETE FROM rooms`).
		WithArgs("r1", "u2").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.Delete(context.Background(), "u2", "r1"), errs.ErrNotFound)
}
