package backend

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/boletera/admin-gateway/pkg/config"
	pkgerrors "github.com/boletera/admin-gateway/pkg/errors"
)

// TokenProvider supplies the bearer token attached to every backend call.
// Token lifecycle (issuance, refresh) stays with the surrounding
// application; the gateway only consumes the value.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// NewTokenProvider assembles the provider chain from configuration.
func NewTokenProvider(cfg config.BackendConfig) TokenProvider {
	var provider TokenProvider = NewStaticTokenProvider(cfg.ServiceToken)
	if cfg.VerifyExpiry {
		provider = NewExpiryCheckedProvider(provider)
	}
	return provider
}

// StaticTokenProvider serves a fixed token from configuration.
type StaticTokenProvider struct {
	token string
}

func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: strings.TrimSpace(token)}
}

func (p *StaticTokenProvider) Token(ctx context.Context) (string, error) {
	if p == nil || p.token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "backend token not configured")
	}
	return p.token, nil
}

// ExpiryCheckedProvider wraps another provider and rejects JWTs whose exp
// claim has passed, so a dead token never makes a network round-trip.
// Opaque (non-JWT) tokens pass through untouched.
type ExpiryCheckedProvider struct {
	inner  TokenProvider
	leeway time.Duration
	now    func() time.Time
}

func NewExpiryCheckedProvider(inner TokenProvider) *ExpiryCheckedProvider {
	return &ExpiryCheckedProvider{inner: inner, now: time.Now}
}

func (p *ExpiryCheckedProvider) Token(ctx context.Context) (string, error) {
	raw, err := p.inner.Token(ctx)
	if err != nil {
		return "", err
	}

	if strings.Count(raw, ".") != 2 {
		return raw, nil
	}

	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		// Not a parseable JWT; let the backend decide.
		return raw, nil
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return raw, nil
	}

	if p.now().Add(-p.leeway).After(exp.Time) {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "backend token expired")
	}
	return raw, nil
}
