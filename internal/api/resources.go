package api

import (
	"context"
	"net/http"

	"github.com/and161185/covered/internal/model"
	"github.com/and161185/covered/internal/validate"
)

// VerifyAuth establishes or confirms the backend user record for the session.
func (s *Service) VerifyAuth(ctx context.Context) Result[struct{}] {
	return call[struct{}](ctx, s.gw, http.MethodPost, PathVerify, nil, "")
}

// GetProfile fetches the backend profile.
func (s *Service) GetProfile(ctx context.Context) Result[*model.Profile] {
	return call[*model.Profile](ctx, s.gw, http.MethodGet, PathProfile, nil, "user")
}

// ListHomes returns the user's homes.
func (s *Service) ListHomes(ctx context.Context) Result[[]model.Home] {
	return call[[]model.Home](ctx, s.gw, http.MethodGet, PathHomes, nil, "homes")
}

// GetHome returns one home.
func (s *Service) GetHome(ctx context.Context, id string) Result[*model.Home] {
	if r, ok := requireID[*model.Home]("home_id", id); !ok {
		return r
	}
	return call[*model.Home](ctx, s.gw, http.MethodGet, withID(PathHomes, id), nil, "home")
}

// CreateHome creates a home; name and address are required.
func (s *Service) CreateHome(ctx context.Context, in model.HomeInput) Result[*model.Home] {
	in = in.Trimmed()
	if err := validate.Struct(in); err != nil {
		return fail[*model.Home](err)
	}
	return call[*model.Home](ctx, s.gw, http.MethodPost, PathHomes, in, "home")
}

// UpdateHome applies patch to home id.
func (s *Service) UpdateHome(ctx context.Context, id string, patch model.HomePatch) Result[*model.Home] {
	if r, ok := requireID[*model.Home]("home_id", id); !ok {
		return r
	}
	if err := validate.Struct(patch); err != nil {
		return fail[*model.Home](err)
	}
	return call[*model.Home](ctx, s.gw, http.MethodPut, withID(PathHomes, id), patch, "home")
}

// DeleteHome deletes home id; the backend cascades to its rooms and items.
func (s *Service) DeleteHome(ctx context.Context, id string) Result[struct{}] {
	if r, ok := requireID[struct{}]("home_id", id); !ok {
		return r
	}
	return call[struct{}](ctx, s.gw, http.MethodDelete, withID(PathHomes, id), nil, "")
}

// ListRooms returns the rooms of a home.
func (s *Service) ListRooms(ctx context.Context, homeID string) Result[[]model.Room] {
	if r, ok := requireID[[]model.Room]("home_id", homeID); !ok {
		return r
	}
	return call[[]model.Room](ctx, s.gw, http.MethodGet, withQuery(PathRooms, "home_id", homeID), nil, "rooms")
}

// CreateRoom creates a room in in.HomeID.
func (s *Service) CreateRoom(ctx context.Context, in model.RoomInput) Result[*model.Room] {
	in = in.Trimmed()
	if err := validate.Struct(in); err != nil {
		return fail[*model.Room](err)
	}
	return call[*model.Room](ctx, s.gw, http.MethodPost, PathRooms, in, "room")
}

// UpdateRoom applies patch to room id.
func (s *Service) UpdateRoom(ctx context.Context, id string, patch model.RoomPatch) Result[*model.Room] {
	if r, ok := requireID[*model.Room]("room_id", id); !ok {
		return r
	}
	if err := validate.Struct(patch); err != nil {
		return fail[*model.Room](err)
	}
	return call[*model.Room](ctx, s.gw, http.MethodPut, withID(PathRooms, id), patch, "room")
}

// DeleteRoom deletes room id.
func (s *Service) DeleteRoom(ctx context.Context, id string) Result[struct{}] {
	if r, ok := requireID[struct{}]("room_id", id); !ok {
		return r
	}
	return call[struct{}](ctx, s.gw, http.MethodDelete, withID(PathRooms, id), nil, "")
}

// ListItems returns the items of a room.
func (s *Service) ListItems(ctx context.Context, roomID string) Result[[]model.Item] {
	if r, ok := requireID[[]model.Item]("room_id", roomID); !ok {
		return r
	}
	return call[[]model.Item](ctx, s.gw, http.MethodGet, withQuery(PathItems, "room_id", roomID), nil, "items")
}

// CreateItem creates an item in in.RoomID.
func (s *Service) CreateItem(ctx context.Context, in model.ItemInput) Result[*model.Item] {
	in = in.Trimmed()
	if err := validate.Struct(in); err != nil {
		return fail[*model.Item](err)
	}
	return call[*model.Item](ctx, s.gw, http.MethodPost, PathItems, in, "item")
}

// UpdateItem applies patch to item id.
func (s *Service) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) Result[*model.Item] {
	if r, ok := requireID[*model.Item]("item_id", id); !ok {
		return r
	}
	if err := validate.Struct(patch); err != nil {
		return fail[*model.Item](err)
	}
	return call[*model.Item](ctx, s.gw, http.MethodPut, withID(PathItems, id), patch, "item")
}

// DeleteItem deletes item id.
func (s *Service) DeleteItem(ctx context.Context, id string) Result[struct{}] {
	if r, ok := requireID[struct{}]("item_id", id); !ok {
		return r
	}
	return call[struct{}](ctx, s.gw, http.MethodDelete, withID(PathItems, id), nil, "")
}

// StorePushToken registers the device push token for the signed-in user.
func (s *Service) StorePushToken(ctx context.Context, token string) Result[struct{}] {
	in := model.PushTokenInput{PushToken: token}
	if err := validate.Struct(in); err != nil {
		return fail[struct{}](err)
	}
	return call[struct{}](ctx, s.gw, http.MethodPost, PathPushToken, in, "")
}
