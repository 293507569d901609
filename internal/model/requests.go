package model

import "strings"

// Request shapes sent by the client and decoded by the backend. Validation tags
// are evaluated by go-playground/validator on both sides.

// HomeInput creates a home.
type HomeInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Address string `json:"address" validate:"required,max=500"`
}

// HomePatch updates a home; nil fields are left unchanged.
type HomePatch struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Address *string `json:"address,omitempty" validate:"omitempty,min=1,max=500"`
}

// RoomInput creates a room in a home.
type RoomInput struct {
	HomeID   string   `json:"home_id" validate:"required"`
	Name     string   `json:"name" validate:"required,max=200"`
	RoomType RoomType `json:"room_type" validate:"required,oneof=living_room kitchen bedroom bathroom dining_room office garage basement attic closet laundry_room pantry"`
}

// RoomPatch updates a room; nil fields are left unchanged.
type RoomPatch struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	RoomType    *RoomType `json:"room_type,omitempty" validate:"omitempty,oneof=living_room kitchen bedroom bathroom dining_room office garage basement attic closet laundry_room pantry"`
	IsCompleted *bool     `json:"is_completed,omitempty"`
}

// ItemInput creates an item in a room.
type ItemInput struct {
	RoomID         string        `json:"room_id" validate:"required"`
	Name           string        `json:"name" validate:"required,max=200"`
	Category       ItemCategory  `json:"category" validate:"required,oneof=electronics appliances jewelry art musical_instruments tools furniture sports_equipment clothing books collectibles other"`
	Brand          *string       `json:"brand,omitempty"`
	Model          *string       `json:"model,omitempty"`
	SerialNumber   *string       `json:"serial_number,omitempty"`
	PurchaseDate   *string       `json:"purchase_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PurchasePrice  *float64      `json:"purchase_price,omitempty" validate:"omitempty,gte=0"`
	EstimatedValue float64       `json:"estimated_value" validate:"gte=0"`
	Condition      ItemCondition `json:"condition" validate:"required,oneof=new excellent good fair poor"`
	Notes          *string       `json:"notes,omitempty"`
}

// ItemPatch updates an item; nil fields are left unchanged.
type ItemPatch struct {
	Name           *string        `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Category       *ItemCategory  `json:"category,omitempty" validate:"omitempty,oneof=electronics appliances jewelry art musical_instruments tools furniture sports_equipment clothing books collectibles other"`
	Brand          *string        `json:"brand,omitempty"`
	Model          *string        `json:"model,omitempty"`
	SerialNumber   *string        `json:"serial_number,omitempty"`
	PurchaseDate   *string        `json:"purchase_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PurchasePrice  *float64       `json:"purchase_price,omitempty" validate:"omitempty,gte=0"`
	EstimatedValue *float64       `json:"estimated_value,omitempty" validate:"omitempty,gte=0"`
	Condition      *ItemCondition `json:"condition,omitempty" validate:"omitempty,oneof=new excellent good fair poor"`
	Notes          *string        `json:"notes,omitempty"`
}

// Trimmed returns in with surrounding whitespace removed from its text fields,
// so that blank values fail the required checks.
func (in HomeInput) Trimmed() HomeInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	return in
}

func (in RoomInput) Trimmed() RoomInput {
	in.HomeID = strings.TrimSpace(in.HomeID)
	in.Name = strings.TrimSpace(in.Name)
	return in
}

func (in ItemInput) Trimmed() ItemInput {
	in.RoomID = strings.TrimSpace(in.RoomID)
	in.Name = strings.TrimSpace(in.Name)
	return in
}

// PushTokenInput registers a device push token.
type PushTokenInput struct {
	PushToken string `json:"pushToken" validate:"required"`
}
