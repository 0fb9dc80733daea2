// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/policy"
)

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
	ClaimsKey   contextKey = "jwt_claims"
	SessionKey  contextKey = "session"
)

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

// SessionResolver turns an authenticated user id into a session built from
// the current user record. Tokens only identify the caller; role and
// membership always come from here.
type SessionResolver interface {
	ResolveSession(ctx context.Context, userID string) (*policy.Session, error)
}

type AccessTokenClaims struct {
	UserID       string
	Role         string
	Member       string
	TokenVersion int
	JTI          string
	ExpiresAt    time.Time
}

func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth attaches claims when a valid token is present and lets
// anonymous requests through untouched.
func OptionalAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token != "" {
				claims, err := verifier.VerifyAccessToken(r.Context(), token)
				if err == nil {
					r = r.WithContext(withClaims(r.Context(), claims))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Session loads the caller's session after Authenticator or OptionalAuth.
// A token whose user no longer exists is rejected; on optional routes the
// request continues anonymously instead.
func Session(resolver SessionResolver, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				if required {
					core.JSONError(w, core.UnauthorizedError(""))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			sess, err := resolver.ResolveSession(r.Context(), userID)
			if err != nil {
				if !required {
					slog.DebugContext(r.Context(), "optional session dropped",
						"user_id", userID,
						"error", err,
					)
					next.ServeHTTP(w, r)
					return
				}
				if errors.Is(err, core.ErrNotFound) {
					core.JSONError(w, core.UnauthorizedError("account no longer exists"))
					return
				}
				core.Fail(w, err, "user")
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, sess)
			ctx = context.WithValue(ctx, UserRoleKey, sess.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole := GetUserRole(r.Context())

			if userRole == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if _, ok := roleSet[userRole]; !ok {
				core.JSONError(
					w,
					core.ForbiddenError("insufficient permissions"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(policy.RoleAdmin, policy.RoleSuperAdmin)(next)
}

func RequireSuperAdmin(next http.Handler) http.Handler {
	return RequireRole(policy.RoleSuperAdmin)(next)
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func withClaims(ctx context.Context, claims *AccessTokenClaims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
	return context.WithValue(ctx, ClaimsKey, claims)
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

func GetUserRole(ctx context.Context) string {
	if role, ok := ctx.Value(UserRoleKey).(string); ok {
		return role
	}
	return ""
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims); ok {
		return claims
	}
	return nil
}

// GetSession returns the loaded session, or nil for anonymous callers.
func GetSession(ctx context.Context) *policy.Session {
	if sess, ok := ctx.Value(SessionKey).(*policy.Session); ok {
		return sess
	}
	return nil
}

// WithSession stores sess in ctx the same way the Session middleware does.
func WithSession(ctx context.Context, sess *policy.Session) context.Context {
	if sess == nil {
		return ctx
	}
	ctx = context.WithValue(ctx, UserIDKey, sess.UserID)
	ctx = context.WithValue(ctx, UserRoleKey, sess.Role)
	return context.WithValue(ctx, SessionKey, sess)
}

func IsAuthenticated(ctx context.Context) bool {
	return GetUserID(ctx) != ""
}

func IsAdmin(ctx context.Context) bool {
	role := GetUserRole(ctx)
	return role == policy.RoleAdmin || role == policy.RoleSuperAdmin
}

// Authenticated requires a valid token and a live account.
func Authenticated(
	verifier TokenVerifier,
	resolver SessionResolver,
) func(http.Handler) http.Handler {
	authn := Authenticator(verifier)
	sess := Session(resolver, true)
	return func(next http.Handler) http.Handler {
		return authn(sess(next))
	}
}

// Optional loads a session when the caller sent a usable token.
func Optional(
	verifier TokenVerifier,
	resolver SessionResolver,
) func(http.Handler) http.Handler {
	authn := OptionalAuth(verifier)
	sess := Session(resolver, false)
	return func(next http.Handler) http.Handler {
		return authn(sess(next))
	}
}
