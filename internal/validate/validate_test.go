package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/model"
)

func TestPasswordProblems(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pw   string
		want int
	}{
		{"Aa1!aaaa", 0},
		{"Aa1!", 1},
		{"aa1!aaaa", 1},
		{"Aaa!aaaa", 1},
		{"Aa1aaaaa", 1},
		{"", 4},
	}
	for _, tt := range tests {
		require.Len(t, PasswordProblems(tt.pw), tt.want, "password %q", tt.pw)
	}
}

func TestIsEmail(t *testing.T) {
	t.Parallel()

	require.True(t, IsEmail("a@b.com"))
	require.False(t, IsEmail("a@b"))
	require.False(t, IsEmail("a b@c.com"))
	require.False(t, IsEmail(""))
}

func TestStruct_SignUp(t *testing.T) {
	t.Parallel()

	require.NoError(t, Struct(SignUpInput{Email: "a@b.com", Password: "Aa1!aaaa", Name: "Jane Doe"}))

	err := Struct(SignUpInput{Email: "nope", Password: "short"})
	require.ErrorIs(t, err, errs.ErrValidation)

	var ve *errs.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Contains(t, ve.Fields, "email")
	require.Contains(t, ve.Fields, "password")
	require.Equal(t, "name is required", ve.Fields["name"])
	require.Contains(t, ve.Fields["password"], "at least 8 characters")
}

func TestStruct_SignIn(t *testing.T) {
	t.Parallel()

	require.NoError(t, Struct(SignInInput{Email: "a@b.com", Password: "x"}))
	require.ErrorIs(t, Struct(SignInInput{Email: "a@b.com"}), errs.ErrValidation)
}

func TestStruct_ModelShapes(t *testing.T) {
	t.Parallel()

	require.NoError(t, Struct(model.HomeInput{Name: "Beach House", Address: "1 Ocean Dr"}))

	err := Struct(model.HomeInput{Name: "Beach House"})
	var ve *errs.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, map[string]string{"address": "address is required"}, ve.Fields)

	require.ErrorIs(t, Struct(model.RoomInput{HomeID: "h1", Name: "Den", RoomType: "dungeon"}), errs.ErrValidation)

	date := "2024-13-01"
	err = Struct(model.ItemInput{RoomID: "r1", Name: "TV", Category: model.CategoryElectronics, Condition: model.ConditionGood, PurchaseDate: &date})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()
	require.Equal(t, "a@b.com", NormalizeEmail("  A@B.com "))
}
