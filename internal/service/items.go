package service

import (
	"context"
	"fmt"

	"github.com/and161185/covered/internal/convert"
	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/model"
	"github.com/and161185/covered/internal/repository"
	"github.com/and161185/covered/internal/validate"
)

// invalid reports rejected input; msg is shown to the client as-is.
func invalid(field, msg string) error {
	return fmt.Errorf("%w: %w", errs.ErrInvalidInput, &errs.ValidationError{Fields: map[string]string{field: msg}})
}

func checkUser(userID string) error {
	if userID == "" {
		return invalid("user_id", "user id is required")
	}
	return nil
}

// parseID canonicalises a path or body id.
func parseID(field, raw string) (string, error) {
	id, err := convert.ParseID(raw)
	if err != nil {
		return "", invalid(field, field+" must be a valid UUID")
	}
	return id, nil
}

// checkStruct validates v by its tags and marks the failure as invalid input.
func checkStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidInput, err)
	}
	return nil
}

// ProfileService keeps the backend user record in step with the identity provider.
type ProfileService interface {
	// Verify records the bearer's identity and returns the stored profile.
	Verify(ctx context.Context, u model.IdentityUser) (*model.Profile, error)
	// Get returns the stored profile.
	Get(ctx context.Context, userID string) (*model.Profile, error)
}

type ProfileServiceImpl struct{ repo repository.ProfileRepository }

// NewProfileService constructs ProfileService.
func NewProfileService(repo repository.ProfileRepository) *ProfileServiceImpl {
	return &ProfileServiceImpl{repo: repo}
}

// Verify upserts the profile from verified token claims.
func (s *ProfileServiceImpl) Verify(ctx context.Context, u model.IdentityUser) (*model.Profile, error) {
	if err := checkUser(u.ID); err != nil {
		return nil, err
	}
	return s.repo.Upsert(ctx, &model.Profile{ID: u.ID, Email: u.Email, Name: u.UserMetadata.DisplayName})
}

// Get loads the profile of userID.
func (s *ProfileServiceImpl) Get(ctx context.Context, userID string) (*model.Profile, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

// HomeService manages the caller's homes.
type HomeService interface {
	List(ctx context.Context, userID string) ([]model.Home, error)
	Get(ctx context.Context, userID, id string) (*model.Home, error)
	Create(ctx context.Context, userID string, in model.HomeInput) (*model.Home, error)
	Update(ctx context.Context, userID, id string, patch model.HomePatch) (*model.Home, error)
	Delete(ctx context.Context, userID, id string) error
}

type HomeServiceImpl struct{ repo repository.HomeRepository }

// NewHomeService constructs HomeService.
func NewHomeService(repo repository.HomeRepository) *HomeServiceImpl {
	return &HomeServiceImpl{repo: repo}
}

func (s *HomeServiceImpl) List(ctx context.Context, userID string) ([]model.Home, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userID)
}

func (s *HomeServiceImpl) Get(ctx context.Context, userID, id string) (*model.Home, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	id, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID, id)
}

// Create validates in and stores a new home with a server-assigned id.
func (s *HomeServiceImpl) Create(ctx context.Context, userID string, in model.HomeInput) (*model.Home, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	in = in.Trimmed()
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	h := convert.NewHome(convert.NewID(), userID, in)
	if err := s.repo.Create(ctx, &h); err != nil {
		return nil, fmt.Errorf("create home: %w", err)
	}
	return &h, nil
}

func (s *HomeServiceImpl) Update(ctx context.Context, userID, id string, patch model.HomePatch) (*model.Home, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	id, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	if err := checkStruct(patch); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, userID, id, patch)
}

func (s *HomeServiceImpl) Delete(ctx context.Context, userID, id string) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	id, err := parseID("id", id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID, id)
}

// RoomService manages rooms inside the caller's homes.
type RoomService interface {
	ListByHome(ctx context.Context, userID, homeID string) ([]model.Room, error)
	Create(ctx context.Context, userID string, in model.RoomInput) (*model.Room, error)
	Update(ctx context.Context, userID, id string, patch model.RoomPatch) (*model.Room, error)
	Delete(ctx context.Context, userID, id string) error
}

type RoomServiceImpl struct{ repo repository.RoomRepository }

// NewRoomService constructs RoomService.
func NewRoomService(repo repository.RoomRepository) *RoomServiceImpl {
	return &RoomServiceImpl{repo: repo}
}

func (s *RoomServiceImpl) ListByHome(ctx context.Context, userID, homeID string) ([]model.Room, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	homeID, err := parseID("home_id", homeID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByHome(ctx, userID, homeID)
}

func (s *RoomServiceImpl) Create(ctx context.Context, userID string, in model.RoomInput) (*model.Room, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	in = in.Trimmed()
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	homeID, err := parseID("home_id", in.HomeID)
	if err != nil {
		return nil, err
	}
	in.HomeID = homeID
	r := convert.NewRoom(convert.NewID(), in)
	if err := s.repo.Create(ctx, userID, &r); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return &r, nil
}

func (s *RoomServiceImpl) Update(ctx context.Context, userID, id string, patch model.RoomPatch) (*model.Room, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	id, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	if err := checkStruct(patch); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, userID, id, patch)
}

func (s *RoomServiceImpl) Delete(ctx context.Context, userID, id string) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	id, err := parseID("id", id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID, id)
}

// ItemService manages items inside the caller's rooms.
type ItemService interface {
	ListByRoom(ctx context.Context, userID, roomID string) ([]model.Item, error)
	Create(ctx context.Context, userID string, in model.ItemInput) (*model.Item, error)
	Update(ctx context.Context, userID, id string, patch model.ItemPatch) (*model.Item, error)
	Delete(ctx context.Context, userID, id string) error
}

type ItemServiceImpl struct{ repo repository.ItemRepository }

// NewItemService constructs ItemService.
func NewItemService(repo repository.ItemRepository) *ItemServiceImpl {
	return &ItemServiceImpl{repo: repo}
}

func (s *ItemServiceImpl) ListByRoom(ctx context.Context, userID, roomID string) ([]model.Item, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	roomID, err := parseID("room_id", roomID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByRoom(ctx, userID, roomID)
}

func (s *ItemServiceImpl) Create(ctx context.Context, userID string, in model.ItemInput) (*model.Item, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	in = in.Trimmed()
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	roomID, err := parseID("room_id", in.RoomID)
	if err != nil {
		return nil, err
	}
	in.RoomID = roomID
	it := convert.NewItem(convert.NewID(), in)
	if err := s.repo.Create(ctx, userID, &it); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return &it, nil
}

func (s *ItemServiceImpl) Update(ctx context.Context, userID, id string, patch model.ItemPatch) (*model.Item, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	id, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	if err := checkStruct(patch); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, userID, id, patch)
}

func (s *ItemServiceImpl) Delete(ctx context.Context, userID, id string) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	id, err := parseID("id", id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID, id)
}

// PushTokenService stores device push tokens.
type PushTokenService interface {
	Register(ctx context.Context, userID string, in model.PushTokenInput) error
}

type PushTokenServiceImpl struct{ repo repository.PushTokenRepository }

// NewPushTokenService constructs PushTokenService.
func NewPushTokenService(repo repository.PushTokenRepository) *PushTokenServiceImpl {
	return &PushTokenServiceImpl{repo: repo}
}

// Register replaces the user's device token.
func (s *PushTokenServiceImpl) Register(ctx context.Context, userID string, in model.PushTokenInput) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	if err := checkStruct(in); err != nil {
		return err
	}
	return s.repo.Upsert(ctx, model.PushToken{UserID: userID, Token: in.PushToken})
}
