// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/forum-api/internal/config"
	"github.com/carterperez-dev/forum-api/internal/core"
	"github.com/carterperez-dev/forum-api/internal/middleware"
)

const accessTokenType = "access"

// JWTManager signs access tokens with one ES256 key and publishes its
// public half as a JWKS.
type JWTManager struct {
	signer   jwk.Key
	verifier jwk.Key
	jwks     jwk.Set
	config   config.JWTConfig
}

func NewJWTManager(cfg config.JWTConfig) (*JWTManager, error) {
	pemBytes, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	parsed, err := jwk.ParseKey(pemBytes, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	signer, err := signingKey(parsed)
	if err != nil {
		return nil, err
	}

	verifier, err := signer.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}
	if err := verifier.Set(jwk.KeyUsageKey, "sig"); err != nil {
		return nil, fmt.Errorf("set key usage: %w", err)
	}

	jwks := jwk.NewSet()
	if err := jwks.AddKey(verifier); err != nil {
		return nil, fmt.Errorf("add key to set: %w", err)
	}

	return &JWTManager{
		signer:   signer,
		verifier: verifier,
		jwks:     jwks,
		config:   cfg,
	}, nil
}

// signingKey stamps alg and a thumbprint-derived kid on key, so the kid is
// stable across restarts for the same key material.
func signingKey(key jwk.Key) (jwk.Key, error) {
	if err := key.Set(jwk.AlgorithmKey, jwa.ES256()); err != nil {
		return nil, fmt.Errorf("set algorithm: %w", err)
	}

	thumb, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return nil, fmt.Errorf("key thumbprint: %w", err)
	}
	if err := key.Set(jwk.KeyIDKey, base64.RawURLEncoding.EncodeToString(thumb[:9])); err != nil {
		return nil, fmt.Errorf("set key id: %w", err)
	}

	return key, nil
}

func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	imported, err := jwk.Import(raw)
	if err != nil {
		return fmt.Errorf("import private key: %w", err)
	}

	private, err := signingKey(imported)
	if err != nil {
		return err
	}

	public, err := private.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	if err := writePEM(private, privateKeyPath, 0o600); err != nil {
		return err
	}
	//nolint:gosec // G306: public key is world-readable
	return writePEM(public, publicKeyPath, 0o644)
}

func writePEM(key jwk.Key, path string, mode os.FileMode) error {
	encoded, err := jwk.Pem(key)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, encoded, mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// AccessTokenClaims identify the caller. Role and member are copies taken
// at issue time; authorization always reloads the user record.
type AccessTokenClaims struct {
	UserID       string `json:"sub"`
	Role         string `json:"role"`
	Member       string `json:"member"`
	TokenVersion int    `json:"token_version"`
}

func (m *JWTManager) CreateAccessToken(claims AccessTokenClaims) (string, error) {
	now := time.Now()

	token, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(claims.UserID).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(m.config.AccessTokenExpire)).
		Claim("type", accessTokenType).
		Claim("role", claims.Role).
		Claim("member", claims.Member).
		Claim("token_version", claims.TokenVersion).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), m.signer))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return string(signed), nil
}

func (m *JWTManager) VerifyAccessToken(
	_ context.Context,
	tokenString string,
) (*middleware.AccessTokenClaims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.ES256(), m.verifier),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
	)
	if err != nil {
		return nil, tokenError("verify token", err)
	}

	claims := &middleware.AccessTokenClaims{}
	var kind string
	var version float64
	if err := requireClaims(token, "verify token", map[string]any{
		"type":          &kind,
		"role":          &claims.Role,
		"member":        &claims.Member,
		"token_version": &version,
	}); err != nil {
		return nil, err
	}
	if kind != accessTokenType {
		return nil, fmt.Errorf("verify token: type %q: %w", kind, core.ErrTokenInvalid)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf("verify token: missing subject: %w", core.ErrTokenInvalid)
	}

	claims.UserID = subject
	claims.TokenVersion = int(version)
	claims.JTI, _ = token.JwtID()
	claims.ExpiresAt, _ = token.Expiration()

	return claims, nil
}

// requireClaims reads every named private claim into its destination.
func requireClaims(token jwt.Token, op string, dest map[string]any) error {
	for name, ptr := range dest {
		if err := token.Get(name, ptr); err != nil {
			return fmt.Errorf("%s: missing %s claim: %w", op, name, core.ErrTokenInvalid)
		}
	}
	return nil
}

// tokenError maps a jwx parse failure onto the token sentinels.
func tokenError(op string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "exp") && strings.Contains(msg, "not satisfied") {
		return fmt.Errorf("%s: %w", op, core.ErrTokenExpired)
	}
	return fmt.Errorf("%s: %w", op, core.ErrTokenInvalid)
}

func (m *JWTManager) GetJWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if err := json.NewEncoder(w).Encode(m.jwks); err != nil {
			core.InternalServerError(w, err)
		}
	}
}

func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.config.AccessTokenExpire
}

func (m *JWTManager) GetKeyID() string {
	kid, _ := m.signer.KeyID()
	return kid
}

type RefreshTokenData struct {
	Token     string
	Hash      string
	ExpiresAt time.Time
	FamilyID  string
}

// CreateRefreshToken mints an opaque refresh token. An empty familyID
// starts a new family.
func (m *JWTManager) CreateRefreshToken(userID, familyID string) (*RefreshTokenData, error) {
	token, err := core.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token for %s: %w", userID, err)
	}

	if familyID == "" {
		familyID = uuid.New().String()
	}

	return &RefreshTokenData{
		Token:     token,
		Hash:      core.HashToken(token),
		ExpiresAt: time.Now().Add(m.config.RefreshTokenExpire),
		FamilyID:  familyID,
	}, nil
}
