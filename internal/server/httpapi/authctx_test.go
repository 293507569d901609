package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/covered/internal/model"
	"github.com/and161185/covered/internal/service"
)

func Test_bearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"BEARER   abc  ", "abc", true},
		{"Basic foo", "", false},
		{"Bearer   ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		require.Equal(t, tt.ok, ok, tt.header)
		require.Equal(t, tt.want, got, tt.header)
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	key := []byte("secret")

	var seen string
	h := Authenticate(key)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromCtx(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/homes", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := call("")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"success":false,"error":"Missing or invalid authorization header"}`, rec.Body.String())

	tok, _, err := service.IssueAccessToken(key, model.IdentityUser{ID: "u1"}, time.Now(), time.Minute)
	require.NoError(t, err)
	rec = call("Bearer " + tok)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "u1", seen)

	other, _, err := service.IssueAccessToken([]byte("other"), model.IdentityUser{ID: "u1"}, time.Now(), time.Minute)
	require.NoError(t, err)
	rec = call("Bearer " + other)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, _, err := service.IssueAccessToken(key, model.IdentityUser{ID: "u1"}, time.Now().Add(-time.Hour), time.Minute)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, call("Bearer "+expired).Code)

	// A token signed with another algorithm is refused even with the right key.
	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	s, err := hs512.SignedString(key)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, call("Bearer "+s).Code)
}

func TestClaimsFromCtx_Empty(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := ClaimsFromCtx(req.Context())
	require.False(t, ok)
	_, ok = UserIDFromCtx(WithClaims(req.Context(), nil))
	require.False(t, ok)
}
