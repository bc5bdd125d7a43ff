package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/employee"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/i18n"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(jwtService *jwt.JWTService, h http.Handler) http.Handler {
	return jwtauth.Verifier(jwtService.JWTAuth())(AuthRequired(h))
}

func TestAuthRequired_PlacesActor(t *testing.T) {
	jwtService := jwt.NewJWTService("secret", time.Hour)
	token, _, err := jwtService.GenerateAccessToken("user-1", "emp-1", employee.RoleHR)
	require.NoError(t, err)

	var got leave.Actor
	h := protected(jwtService, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, leave.Actor{UserID: "user-1", EmployeeID: "emp-1", Role: employee.RoleHR}, got)
}

func TestAuthRequired_Rejects(t *testing.T) {
	jwtService := jwt.NewJWTService("secret", time.Hour)
	sseToken, _, err := jwtService.GenerateSSEToken("user-1")
	require.NoError(t, err)
	badRole, _, err := jwtService.GenerateAccessToken("user-1", "emp-1", employee.Role("owner"))
	require.NoError(t, err)
	noEmployee, _, err := jwtService.GenerateAccessToken("user-1", "", employee.RoleHR)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"no token", ""},
		{"garbage", "Bearer abc"},
		{"sse token", "Bearer " + sseToken},
		{"unknown role", "Bearer " + badRole},
		{"missing employee", "Bearer " + noEmployee},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := protected(jwtService, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireCreditAdmin(ok)

	for role, want := range map[employee.Role]int{
		employee.RoleHR:       http.StatusNoContent,
		employee.RoleAdmin:    http.StatusNoContent,
		employee.RoleDeptHead: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithActor(req.Context(), leave.Actor{UserID: "u", EmployeeID: "e", Role: role}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}
}

func TestLocale(t *testing.T) {
	var got string
	h := Locale(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = i18n.LocaleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "fil-PH,fil;q=0.9,en;q=0.8")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "fil", got)

	req = httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	req.Header.Set("Accept-Language", "fil")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "en", got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "de-DE")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "en", got)
}
