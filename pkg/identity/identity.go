package identity

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/context"
)

const (
	VariantSupabase    = "supabase"
	VariantJWT         = "jwt"
	VariantDevelopment = "development"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
)

// Identity is the caller as seen by the upstream auth provider.
type Identity struct {
	Variant string `json:"variant"`
	ID      string `json:"id"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

type Provider interface {
	Resolve(ctx context.Context, credential string) (Identity, error)
	Name() string
}

// RequiresCredential reports whether p rejects requests with no bearer token.
func RequiresCredential(p Provider) bool {
	return p.Name() != VariantDevelopment
}

type Config struct {
	Provider string

	SupabaseURL    string
	SupabaseAPIKey string

	JWTSecret string

	DevUserID string
	DevEmail  string
	DevPhone  string
}

// New builds the provider named by cfg.Provider. cache may be nil, in which
// case remote lookups are never cached.
func New(cfg Config, cache Cache) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case VariantSupabase:
		return NewSupabase(cfg.SupabaseURL, cfg.SupabaseAPIKey, cache)
	case VariantJWT:
		return NewJWT(cfg.JWTSecret)
	case VariantDevelopment, "":
		return NewDevelopment(cfg.DevUserID, cfg.DevEmail, cfg.DevPhone), nil
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.Provider)
	}
}
