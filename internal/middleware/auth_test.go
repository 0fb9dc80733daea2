// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/membership"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

type stubVerifier struct {
	claims *AccessTokenClaims
	err    error
}

func (v stubVerifier) VerifyAccessToken(context.Context, string) (*AccessTokenClaims, error) {
	return v.claims, v.err
}

type stubResolver struct {
	sessions map[string]*policy.Session
	err      error
}

func (r stubResolver) ResolveSession(_ context.Context, userID string) (*policy.Session, error) {
	if r.err != nil {
		return nil, r.err
	}
	sess, ok := r.sessions[userID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return sess, nil
}

func sessionEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := GetSession(r.Context())
		if sess == nil {
			w.Header().Set("X-Session", "anonymous")
		} else {
			w.Header().Set("X-Session", sess.UserID+":"+sess.Role)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticatorRejectsMissingToken(t *testing.T) {
	h := Authenticator(stubVerifier{})(sessionEcho())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorMapsExpiredToken(t *testing.T) {
	h := Authenticator(stubVerifier{err: core.ErrTokenExpired})(sessionEcho())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOKEN_EXPIRED")
}

func TestSessionUsesFreshRecordRole(t *testing.T) {
	verifier := stubVerifier{claims: &AccessTokenClaims{UserID: "u1", Role: policy.RoleUser}}
	resolver := stubResolver{sessions: map[string]*policy.Session{
		"u1": {UserID: "u1", Email: "u1@forum.test", Role: policy.RoleAdmin, Member: membership.Bronze},
	}}

	h := Authenticator(verifier)(Session(resolver, true)(RequireAdmin(sessionEcho())))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1:admin", rec.Header().Get("X-Session"))
}

func TestSessionRejectsDeletedAccount(t *testing.T) {
	verifier := stubVerifier{claims: &AccessTokenClaims{UserID: "gone", Role: policy.RoleUser}}
	h := Authenticator(verifier)(Session(stubResolver{}, true)(sessionEcho()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalSessionFallsBackToAnonymous(t *testing.T) {
	verifier := stubVerifier{claims: &AccessTokenClaims{UserID: "u1"}}
	resolver := stubResolver{err: errors.New("db down")}
	h := OptionalAuth(verifier)(Session(resolver, false)(sessionEcho()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Header().Get("X-Session"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "anonymous", rec.Header().Get("X-Session"))
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		middleware func(http.Handler) http.Handler
		want       int
	}{
		{"anonymous to admin route", "", RequireAdmin, http.StatusUnauthorized},
		{"user to admin route", policy.RoleUser, RequireAdmin, http.StatusForbidden},
		{"admin to admin route", policy.RoleAdmin, RequireAdmin, http.StatusOK},
		{"super-admin to admin route", policy.RoleSuperAdmin, RequireAdmin, http.StatusOK},
		{"admin to super-admin route", policy.RoleAdmin, RequireSuperAdmin, http.StatusForbidden},
		{"super-admin to super-admin route", policy.RoleSuperAdmin, RequireSuperAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.role != "" {
				req = req.WithContext(WithSession(req.Context(), &policy.Session{
					UserID: "u1",
					Email:  "u1@forum.test",
					Role:   tt.role,
				}))
			}

			rec := httptest.NewRecorder()
			tt.middleware(sessionEcho()).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(req))

	req.Header.Set("Authorization", "bearer  tok ")
	assert.Equal(t, "tok", ExtractToken(req))

	req.Header.Set("Authorization", "Basic dXNlcg==")
	assert.Empty(t, ExtractToken(req))
}
