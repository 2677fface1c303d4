package identity

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/net/context"
	"golang.org/x/oauth2"
)

const (
	cacheKeyPrefix = "identity:"
	cacheTTL       = 5 * time.Minute
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Cache is the subset of the redis client used to memoize remote lookups.
type Cache interface {
	SetValue(ctx context.Context, key string, value string, expiration time.Duration) error
	GetValue(ctx context.Context, key string) (string, error)
}

type supabase struct {
	baseURL string
	apiKey  string
	cache   Cache
	timeout time.Duration
	// base is the transport wrapped by the per-token oauth2 client.
	base *http.Client
}

type supabaseUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func NewSupabase(baseURL, apiKey string, cache Cache) (Provider, error) {
	if baseURL == "" || apiKey == "" {
		return nil, errors.New("supabase identity provider requires url and api key")
	}

	return &supabase{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		cache:   cache,
		timeout: 10 * time.Second,
		base:    http.DefaultClient,
	}, nil
}

func (s *supabase) Name() string {
	return VariantSupabase
}

func (s *supabase) Resolve(ctx context.Context, credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, ErrMissingCredential
	}

	key := cacheKey(credential)
	if id, ok := s.cached(ctx, key); ok {
		return id, nil
	}

	id, err := s.fetch(ctx, credential)
	if err != nil {
		return Identity{}, err
	}

	if ttl := cacheLifetime(credential, time.Now()); s.cache != nil && ttl > 0 {
		if raw, err := json.Marshal(id); err == nil {
			_ = s.cache.SetValue(ctx, key, string(raw), ttl)
		}
	}

	return id, nil
}

func (s *supabase) cached(ctx context.Context, key string) (Identity, bool) {
	if s.cache == nil {
		return Identity{}, false
	}

	raw, err := s.cache.GetValue(ctx, key)
	if err != nil {
		return Identity{}, false
	}

	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil || id.ID == "" {
		return Identity{}, false
	}
	return id, true
}

func (s *supabase) fetch(ctx context.Context, credential string) (Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: credential,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("apikey", s.apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("supabase user lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return Identity{}, ErrInvalidCredential
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Identity{}, fmt.Errorf("supabase user lookup: status %d: %s", resp.StatusCode, string(body))
	}

	var user supabaseUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return Identity{}, fmt.Errorf("decode supabase user: %w", err)
	}
	if user.ID == "" {
		return Identity{}, ErrInvalidCredential
	}

	return Identity{
		Variant: VariantSupabase,
		ID:      user.ID,
		Email:   user.Email,
		Phone:   user.Phone,
	}, nil
}

// cacheLifetime caps cacheTTL at the token's own expiry. The signature is not
// checked here; the remote lookup already accepted the token. Tokens without
// a readable exp claim get the full cacheTTL.
func cacheLifetime(credential string, now time.Time) time.Duration {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return cacheTTL
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return cacheTTL
	}

	remaining := exp.Sub(now)
	if remaining < cacheTTL {
		return remaining
	}
	return cacheTTL
}

func cacheKey(credential string) string {
	sum := blake2b.Sum256([]byte(credential))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
