// Package model defines domain entities shared by the client core and the backend.
package model

import (
	"encoding/json"
	"time"
)

// Session is the credential bundle issued by the identity provider.
type Session struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"`
	ExpiresAt    time.Time     `json:"expires_at"`
	User         *IdentityUser `json:"user,omitempty"`
}

// Expired reports whether the access token is past its expiry (with skew).
func (s *Session) Expired(now time.Time, skew time.Duration) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(skew).Before(s.ExpiresAt)
}

// UserMetadata is the free-form metadata attached at sign-up.
type UserMetadata struct {
	DisplayName   string `json:"display_name,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
}

// IdentityUser is the identity provider's view of an account.
type IdentityUser struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Profile is the backend user record.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Home is a dwelling owned by a single user.
type Home struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Rooms     []Room    `json:"rooms,omitempty"`
}

// Room belongs to exactly one Home.
type Room struct {
	ID          string    `json:"id"`
	HomeID      string    `json:"home_id"`
	Name        string    `json:"name"`
	RoomType    RoomType  `json:"room_type"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Items       []Item    `json:"items,omitempty"`
}

// Item is a catalogued possession inside a Room.
type Item struct {
	ID             string        `json:"id"`
	RoomID         string        `json:"room_id"`
	Name           string        `json:"name"`
	Category       ItemCategory  `json:"category"`
	Brand          *string       `json:"brand,omitempty"`
	Model          *string       `json:"model,omitempty"`
	SerialNumber   *string       `json:"serial_number,omitempty"`
	PurchaseDate   *string       `json:"purchase_date,omitempty"`
	PurchasePrice  *float64      `json:"purchase_price,omitempty"`
	EstimatedValue float64       `json:"estimated_value"`
	Condition      ItemCondition `json:"condition"`
	Notes          *string       `json:"notes,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// ItemImage is a photo attached to either an item or a room.
type ItemImage struct {
	ID              string          `json:"id"`
	ItemID          *string         `json:"item_id,omitempty"`
	RoomID          *string         `json:"room_id,omitempty"`
	FileURL         string          `json:"file_url"`
	FileName        string          `json:"file_name"`
	ImageType       ImageType       `json:"image_type"`
	AIAnalysisData  json.RawMessage `json:"ai_analysis_data,omitempty"`
	IsProcessing    *bool           `json:"is_processing,omitempty"`
	ProcessingError *string         `json:"processing_error,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Account is a credential record of the development identity provider.
type Account struct {
	ID          string
	Email       string
	DisplayName string
	PwdHash     []byte // Argon2id(password, Salt)
	Salt        []byte
	CreatedAt   time.Time
}

// RefreshToken is a rotating refresh credential issued by the development identity provider.
type RefreshToken struct {
	TokenHash []byte
	AccountID string
	ExpiresAt time.Time
	Revoked   bool
}

// PushToken is a device push token registered for a user.
type PushToken struct {
	UserID    string
	Token     string
	UpdatedAt time.Time
}
