package convert

import (
	"strings"
	"testing"
	"time"

	"github.com/and161185/covered/internal/model"
)

func TestParseID(t *testing.T) {
	t.Parallel()

	id := NewID()
	got, err := ParseID(" " + strings.ToUpper(id) + " ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != id {
		t.Fatalf("canonical form: got %q want %q", got, id)
	}

	if _, err := ParseID("h1"); err == nil {
		t.Fatalf("expected error for non-uuid id")
	}
}

func TestNewHome_Trims(t *testing.T) {
	t.Parallel()

	h := NewHome("h1", "u1", model.HomeInput{Name: "  Beach House ", Address: "1 Ocean Dr\n"})
	if h.Name != "Beach House" || h.Address != "1 Ocean Dr" {
		t.Fatalf("not trimmed: %+v", h)
	}
	if h.UserID != "u1" || h.ID != "h1" {
		t.Fatalf("ids: %+v", h)
	}
}

func TestApplyRoomPatch(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := model.Room{ID: "r1", Name: "Kitchen", RoomType: model.RoomKitchen}
	done := true
	ApplyRoomPatch(&r, model.RoomPatch{IsCompleted: &done}, now)

	if !r.IsCompleted || r.Name != "Kitchen" || r.RoomType != model.RoomKitchen {
		t.Fatalf("patch applied wrong fields: %+v", r)
	}
	if !r.UpdatedAt.Equal(now) {
		t.Fatalf("updated_at not stamped")
	}
}

func TestApplyItemPatch_CopiesOptional(t *testing.T) {
	t.Parallel()

	it := model.Item{Name: "TV", EstimatedValue: 100, Condition: model.ConditionGood}
	brand := "Sony"
	value := 250.0
	ApplyItemPatch(&it, model.ItemPatch{Brand: &brand, EstimatedValue: &value}, time.Now())

	if it.Brand == nil || *it.Brand != "Sony" {
		t.Fatalf("brand not set")
	}
	brand = "LG"
	if *it.Brand != "Sony" {
		t.Fatalf("item aliases the patch")
	}
	if it.EstimatedValue != 250 || it.Name != "TV" || it.Condition != model.ConditionGood {
		t.Fatalf("unexpected item: %+v", it)
	}
}

func TestToIdentityUser(t *testing.T) {
	t.Parallel()

	u := ToIdentityUser(model.Account{ID: "a1", Email: "jane@example.com", DisplayName: "Jane"})
	if u.UserMetadata.DisplayName != "Jane" || !u.UserMetadata.EmailVerified {
		t.Fatalf("metadata: %+v", u.UserMetadata)
	}
}
