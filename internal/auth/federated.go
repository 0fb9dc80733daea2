// AngelaMos | 2026
// federated.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"golang.org/x/sync/singleflight"

	"github.com/carterperez-dev/forum-api/internal/config"
	"github.com/carterperez-dev/forum-api/internal/core"
)

var ErrFederationDisabled = errors.New("federated sign-in is not configured")

// Principal is what the external identity provider vouches for.
type Principal struct {
	Email    string
	Name     string
	PhotoURL string
}

// IdentityVerifier checks OIDC ID tokens against the provider's published
// key set. The set is fetched lazily and refreshed after ttl.
type IdentityVerifier struct {
	cfg   config.IdentityConfig
	fetch func(ctx context.Context, url string) (jwk.Set, error)

	mu        sync.RWMutex
	keys      jwk.Set
	fetchedAt time.Time
	sf        singleflight.Group
}

func NewIdentityVerifier(cfg config.IdentityConfig) *IdentityVerifier {
	if cfg.JWKSTTL <= 0 {
		cfg.JWKSTTL = time.Hour
	}
	return &IdentityVerifier{
		cfg: cfg,
		fetch: func(ctx context.Context, url string) (jwk.Set, error) {
			return jwk.Fetch(ctx, url)
		},
	}
}

func (v *IdentityVerifier) Enabled() bool {
	return v != nil && v.cfg.JWKSURL != ""
}

func (v *IdentityVerifier) Verify(ctx context.Context, idToken string) (*Principal, error) {
	if !v.Enabled() {
		return nil, ErrFederationDisabled
	}

	keys, err := v.keySet(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(keys, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(30 * time.Second),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	token, err := jwt.Parse([]byte(idToken), opts...)
	if err != nil {
		return nil, tokenError("verify id token", err)
	}

	var email string
	if err := requireClaims(token, "verify id token", map[string]any{"email": &email}); err != nil {
		return nil, err
	}
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("verify id token: empty email: %w", core.ErrTokenInvalid)
	}

	var verified bool
	if err := token.Get("email_verified", &verified); err == nil && !verified {
		return nil, fmt.Errorf("verify id token: email not verified: %w", core.ErrTokenInvalid)
	}

	p := &Principal{Email: strings.ToLower(strings.TrimSpace(email))}
	//nolint:errcheck // display name and picture are optional claims
	_ = token.Get("name", &p.Name)
	//nolint:errcheck // display name and picture are optional claims
	_ = token.Get("picture", &p.PhotoURL)

	return p, nil
}

func (v *IdentityVerifier) keySet(ctx context.Context) (jwk.Set, error) {
	v.mu.RLock()
	keys, fetchedAt := v.keys, v.fetchedAt
	v.mu.RUnlock()

	if keys != nil && time.Since(fetchedAt) < v.cfg.JWKSTTL {
		return keys, nil
	}

	out, err, _ := v.sf.Do("jwks", func() (any, error) {
		set, err := v.fetch(ctx, v.cfg.JWKSURL)
		if err != nil {
			return nil, err
		}
		v.mu.Lock()
		v.keys = set
		v.fetchedAt = time.Now()
		v.mu.Unlock()
		return set, nil
	})
	if err != nil {
		if keys != nil {
			// serve the stale set rather than lock everyone out
			return keys, nil
		}
		return nil, fmt.Errorf("fetch jwks: %w: %w", core.ErrUnavailable, err)
	}

	set, ok := out.(jwk.Set)
	if !ok {
		return nil, fmt.Errorf("fetch jwks: unexpected type %T", out)
	}
	return set, nil
}
