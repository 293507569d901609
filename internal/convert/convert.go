// Package convert maps request shapes onto domain entities.
package convert

import (
	"fmt"
	"strings"
	"time"

	u "github.com/gofrs/uuid/v5"

	"github.com/and161185/covered/internal/model"
)

// --- ids ---

// NewID returns a fresh random entity id.
func NewID() string { return u.Must(u.NewV4()).String() }

// ParseID validates an entity id and returns it in canonical form.
func ParseID(s string) (string, error) {
	id, err := u.FromString(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id.String(), nil
}

// --- create (request -> entity) ---

// NewHome builds a home owned by userID from in.
func NewHome(id, userID string, in model.HomeInput) model.Home {
	return model.Home{
		ID:      id,
		UserID:  userID,
		Name:    strings.TrimSpace(in.Name),
		Address: strings.TrimSpace(in.Address),
	}
}

// NewRoom builds a room from in; HomeID is taken from the request.
func NewRoom(id string, in model.RoomInput) model.Room {
	return model.Room{
		ID:       id,
		HomeID:   in.HomeID,
		Name:     strings.TrimSpace(in.Name),
		RoomType: in.RoomType,
	}
}

// NewItem builds an item from in.
func NewItem(id string, in model.ItemInput) model.Item {
	return model.Item{
		ID:             id,
		RoomID:         in.RoomID,
		Name:           strings.TrimSpace(in.Name),
		Category:       in.Category,
		Brand:          in.Brand,
		Model:          in.Model,
		SerialNumber:   in.SerialNumber,
		PurchaseDate:   in.PurchaseDate,
		PurchasePrice:  in.PurchasePrice,
		EstimatedValue: in.EstimatedValue,
		Condition:      in.Condition,
		Notes:          in.Notes,
	}
}

// --- patches ---

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// setOpt stores a copy so the entity never aliases the request.
func setOpt[T any](dst **T, v *T) {
	if v != nil {
		c := *v
		*dst = &c
	}
}

// ApplyHomePatch copies the non-nil fields of p into h and stamps UpdatedAt.
func ApplyHomePatch(h *model.Home, p model.HomePatch, now time.Time) {
	set(&h.Name, p.Name)
	set(&h.Address, p.Address)
	h.UpdatedAt = now
}

// ApplyRoomPatch copies the non-nil fields of p into r and stamps UpdatedAt.
func ApplyRoomPatch(r *model.Room, p model.RoomPatch, now time.Time) {
	set(&r.Name, p.Name)
	set(&r.RoomType, p.RoomType)
	set(&r.IsCompleted, p.IsCompleted)
	r.UpdatedAt = now
}

// ApplyItemPatch copies the non-nil fields of p into it and stamps UpdatedAt.
func ApplyItemPatch(it *model.Item, p model.ItemPatch, now time.Time) {
	set(&it.Name, p.Name)
	set(&it.Category, p.Category)
	setOpt(&it.Brand, p.Brand)
	setOpt(&it.Model, p.Model)
	setOpt(&it.SerialNumber, p.SerialNumber)
	setOpt(&it.PurchaseDate, p.PurchaseDate)
	setOpt(&it.PurchasePrice, p.PurchasePrice)
	set(&it.EstimatedValue, p.EstimatedValue)
	set(&it.Condition, p.Condition)
	setOpt(&it.Notes, p.Notes)
	it.UpdatedAt = now
}

// --- identity (account -> wire user) ---

// ToIdentityUser renders an account the way the identity provider reports users.
func ToIdentityUser(a model.Account) model.IdentityUser {
	return model.IdentityUser{
		ID:    a.ID,
		Email: a.Email,
		UserMetadata: model.UserMetadata{
			DisplayName:   a.DisplayName,
			EmailVerified: true,
		},
		CreatedAt: a.CreatedAt,
	}
}
