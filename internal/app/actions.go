package app

import (
	"context"

	"github.com/and161185/covered/internal/api"
	"github.com/and161185/covered/internal/model"
)

// The methods below are what the screens do: call the sync service and, on
// success, apply the returned entity to the store. A failed call leaves the
// store untouched.

// LoadHomes replaces the home list.
func (a *App) LoadHomes(ctx context.Context) api.Result[[]model.Home] {
	res := a.API.ListHomes(ctx)
	if res.Success {
		a.Store.SetHomes(res.Data)
	}
	return res
}

// CreateHome appends the created home.
func (a *App) CreateHome(ctx context.Context, in model.HomeInput) api.Result[*model.Home] {
	res := a.API.CreateHome(ctx, in)
	if res.Success {
		a.Store.AddHome(*res.Data)
	}
	return res
}

// UpdateHome replaces the home in the list and in the current selection.
func (a *App) UpdateHome(ctx context.Context, id string, patch model.HomePatch) api.Result[*model.Home] {
	res := a.API.UpdateHome(ctx, id, patch)
	if res.Success {
		a.Store.UpdateHome(*res.Data)
	}
	return res
}

// DeleteHome removes the home and, if it was selected, its rooms and items.
func (a *App) DeleteHome(ctx context.Context, id string) api.Result[struct{}] {
	res := a.API.DeleteHome(ctx, id)
	if res.Success {
		a.Store.RemoveHome(id)
	}
	return res
}

// SelectHome fetches the home with its rooms and makes it current.
func (a *App) SelectHome(ctx context.Context, id string) api.Result[*model.Home] {
	res := a.API.GetHome(ctx, id)
	if !res.Success {
		return res
	}
	h := *res.Data
	rooms := h.Rooms
	if rooms == nil {
		rooms = []model.Room{}
	}
	// Rooms live in the room list only; the current home carries none.
	h.Rooms = nil
	a.Store.SetCurrentHome(&h)
	a.Store.SetRooms(rooms)
	a.Store.SetItems([]model.Item{})
	return res
}

// LoadRooms replaces the room list with the rooms of homeID.
func (a *App) LoadRooms(ctx context.Context, homeID string) api.Result[[]model.Room] {
	res := a.API.ListRooms(ctx, homeID)
	if res.Success {
		a.Store.SetRooms(res.Data)
	}
	return res
}

// CreateRoom appends the created room.
func (a *App) CreateRoom(ctx context.Context, in model.RoomInput) api.Result[*model.Room] {
	res := a.API.CreateRoom(ctx, in)
	if res.Success {
		a.Store.AddRoom(*res.Data)
	}
	return res
}

// UpdateRoom replaces the room in the list.
func (a *App) UpdateRoom(ctx context.Context, id string, patch model.RoomPatch) api.Result[*model.Room] {
	res := a.API.UpdateRoom(ctx, id, patch)
	if res.Success {
		a.Store.UpdateRoom(*res.Data)
	}
	return res
}

// CompleteRoom marks a room as fully catalogued.
func (a *App) CompleteRoom(ctx context.Context, id string, done bool) api.Result[*model.Room] {
	return a.UpdateRoom(ctx, id, model.RoomPatch{IsCompleted: &done})
}

// DeleteRoom removes the room and its items.
func (a *App) DeleteRoom(ctx context.Context, id string) api.Result[struct{}] {
	res := a.API.DeleteRoom(ctx, id)
	if res.Success {
		a.Store.RemoveRoom(id)
	}
	return res
}

// LoadItems replaces the item list with the items of roomID.
func (a *App) LoadItems(ctx context.Context, roomID string) api.Result[[]model.Item] {
	res := a.API.ListItems(ctx, roomID)
	if res.Success {
		a.Store.SetItems(res.Data)
	}
	return res
}

// CreateItem appends the created item.
func (a *App) CreateItem(ctx context.Context, in model.ItemInput) api.Result[*model.Item] {
	res := a.API.CreateItem(ctx, in)
	if res.Success {
		a.Store.AddItem(*res.Data)
	}
	return res
}

// UpdateItem replaces the item in the list.
func (a *App) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) api.Result[*model.Item] {
	res := a.API.UpdateItem(ctx, id, patch)
	if res.Success {
		a.Store.UpdateItem(*res.Data)
	}
	return res
}

// DeleteItem removes the item.
func (a *App) DeleteItem(ctx context.Context, id string) api.Result[struct{}] {
	res := a.API.DeleteItem(ctx, id)
	if res.Success {
		a.Store.RemoveItem(id)
	}
	return res
}

// RegisterPushToken stores the device push token for the signed-in user.
func (a *App) RegisterPushToken(ctx context.Context, token string) api.Result[struct{}] {
	return a.API.StorePushToken(ctx, token)
}
