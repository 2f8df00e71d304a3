package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"courtbook/internal/config"
	"courtbook/internal/models"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrTokenExpired    = errors.New("token expired")
	ErrMissingToken    = errors.New("missing bearer token")
)

// memberClaims is the token body issued at login.
type memberClaims struct {
	Phone             string `json:"phone"`
	IsProfileComplete bool   `json:"is_profile_complete"`
	IsAdmin           bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// JWTProvider verifies and issues HS256 member tokens.
type JWTProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTProvider(cfg config.APIAuthConfig) (*JWTProvider, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("jwt secret is empty")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = models.DefaultTokenTTLHours * time.Hour
	}
	return &JWTProvider{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Verify checks signature, expiry and issuer and returns the caller's
// claims. Every failure wraps ErrUnauthenticated.
func (p *JWTProvider) Verify(_ context.Context, token string) (*models.Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, ErrMissingToken)
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	var claims memberClaims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	})
	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	if p.issuer != "" && !claims.VerifyIssuer(p.issuer, true) {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrUnauthenticated, claims.Issuer)
	}

	return &models.Claims{
		MemberID:          claims.Subject,
		Phone:             claims.Phone,
		IsProfileComplete: claims.IsProfileComplete,
		IsAdmin:           claims.IsAdmin,
	}, nil
}

// Issue signs a token for c valid for ttl (the provider default when ttl <= 0).
func (p *JWTProvider) Issue(c *models.Claims, ttl time.Duration) (string, error) {
	if c == nil || c.MemberID == "" {
		return "", fmt.Errorf("member id is required")
	}
	if ttl <= 0 {
		ttl = p.ttl
	}

	now := p.now().UTC()
	claims := memberClaims{
		Phone:             c.Phone,
		IsProfileComplete: c.IsProfileComplete,
		IsAdmin:           c.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.MemberID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func BearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, ErrMissingToken)
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: malformed authorization header", ErrUnauthenticated)
	}
	return strings.TrimSpace(token), nil
}

type claimsKey struct{}

// WithClaims stores verified claims on the context.
func WithClaims(ctx context.Context, c *models.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFrom returns the claims stored by WithClaims, if any.
func ClaimsFrom(ctx context.Context) (*models.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*models.Claims)
	return c, ok && c != nil
}
