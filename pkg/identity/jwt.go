package identity

import (
	jwtPkg "callstack/pkg/jwt"
	"errors"
	"fmt"

	"golang.org/x/net/context"
)

type jwtProvider struct {
	secret string
}

func NewJWT(secret string) (Provider, error) {
	if secret == "" {
		return nil, errors.New("jwt identity provider requires a secret")
	}
	return &jwtProvider{secret: secret}, nil
}

func (j *jwtProvider) Resolve(_ context.Context, credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, ErrMissingCredential
	}

	claims, err := jwtPkg.Parse(credential, j.secret)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, fmt.Errorf("%w: token has no subject", ErrInvalidCredential)
	}

	email, _ := claims["email"].(string)
	phone, _ := claims["phone"].(string)

	return Identity{
		Variant: VariantJWT,
		ID:      sub,
		Email:   email,
		Phone:   phone,
	}, nil
}

func (j *jwtProvider) Name() string {
	return VariantJWT
}
