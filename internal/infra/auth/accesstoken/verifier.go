package accesstoken

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/config"
	"github.com/bdCalling-Sdt-hub/jewellery-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AlgorithmHS256 = "HS256"
	AlgorithmRS256 = "RS256"

	defaultHTTPTimeout = 5 * time.Second
)

type accessTokenClaims struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Verifier validates signed access tokens and turns them into AccessClaims.
type Verifier struct {
	algorithm       string
	secret          []byte
	publicKey       *rsa.PublicKey
	keys            *keyring
	issuer          string
	audience        string
	expectedPurpose string
	clockSkew       time.Duration
	now             func() time.Time
}

type Option func(*Verifier)

func WithHTTPClient(client *http.Client) Option {
	return func(v *Verifier) {
		if client != nil && v.keys != nil {
			v.keys.client = client
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

func NewVerifier(cfg config.Config, opts ...Option) (*Verifier, error) {
	v := &Verifier{
		algorithm:       strings.ToUpper(strings.TrimSpace(cfg.JWTAlgorithm)),
		issuer:          strings.TrimSpace(cfg.JWTIssuer),
		audience:        strings.TrimSpace(cfg.JWTAudience),
		expectedPurpose: strings.TrimSpace(cfg.JWTExpectedPurpose),
		clockSkew:       time.Duration(cfg.JWTClockSkewSecs) * time.Second,
		now:             time.Now,
	}
	if v.algorithm == "" {
		v.algorithm = AlgorithmHS256
	}
	switch v.algorithm {
	case AlgorithmHS256:
		if cfg.JWTAccessSecret == "" {
			return nil, errors.New("JWT_ACCESS_SECRET is required for HS256")
		}
		v.secret = []byte(cfg.JWTAccessSecret)
	case AlgorithmRS256:
		switch {
		case strings.TrimSpace(cfg.JWTPublicKeyPEM) != "":
			key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.JWTPublicKeyPEM))
			if err != nil {
				return nil, fmt.Errorf("parse JWT_PUBLIC_KEY_PEM: %w", err)
			}
			v.publicKey = key
		case strings.TrimSpace(cfg.JWTJWKSURL) != "":
			ring := newKeyring(strings.TrimSpace(cfg.JWTJWKSURL), &http.Client{Timeout: defaultHTTPTimeout})
			if cfg.JWKSCacheTTLSeconds > 0 {
				ring.ttl = time.Duration(cfg.JWKSCacheTTLSeconds) * time.Second
			}
			if cfg.JWKSMaxStaleSeconds > 0 {
				ring.grace = time.Duration(cfg.JWKSMaxStaleSeconds) * time.Second
			}
			if cfg.JWKSFetchTimeoutSeconds > 0 {
				ring.fetchTimeout = time.Duration(cfg.JWKSFetchTimeoutSeconds) * time.Second
			}
			v.keys = ring
		default:
			return nil, errors.New("JWT_PUBLIC_KEY_PEM or JWT_JWKS_URL is required for RS256")
		}
	default:
		return nil, fmt.Errorf("unsupported JWT_ALGORITHM %q", cfg.JWTAlgorithm)
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.keys != nil {
		v.keys.now = v.now
	}
	return v, nil
}

func (v *Verifier) Verify(ctx context.Context, token string) (domain.AccessClaims, error) {
	if v == nil {
		return domain.AccessClaims{}, domain.ErrInvalidCredential
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.AccessClaims{}, domain.ErrInvalidCredential
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.algorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.audience))
	}

	var claims accessTokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.keyFor(ctx, t)
	}, parserOpts...)
	if err != nil {
		return domain.AccessClaims{}, fmt.Errorf("%w: %v", domain.ErrInvalidCredential, err)
	}
	if !parsed.Valid {
		return domain.AccessClaims{}, domain.ErrInvalidCredential
	}
	return v.toAccessClaims(claims)
}

func (v *Verifier) keyFor(ctx context.Context, t *jwt.Token) (any, error) {
	switch v.algorithm {
	case AlgorithmHS256:
		return v.secret, nil
	case AlgorithmRS256:
		if v.publicKey != nil {
			return v.publicKey, nil
		}
		kid, _ := t.Header["kid"].(string)
		return v.keys.Key(ctx, kid)
	}
	return nil, errors.New("no verification key")
}

func (v *Verifier) toAccessClaims(claims accessTokenClaims) (domain.AccessClaims, error) {
	if strings.TrimSpace(claims.ID) == "" {
		return domain.AccessClaims{}, fmt.Errorf("%w: id claim is required", domain.ErrInvalidCredential)
	}
	role := domain.Role(claims.Role)
	if !role.Valid() {
		return domain.AccessClaims{}, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidCredential, claims.Role)
	}
	if v.expectedPurpose != "" && claims.Purpose != v.expectedPurpose {
		return domain.AccessClaims{}, fmt.Errorf("%w: unexpected purpose %q", domain.ErrInvalidCredential, claims.Purpose)
	}
	return domain.AccessClaims{
		ID:      claims.ID,
		Email:   claims.Email,
		Role:    role,
		Purpose: claims.Purpose,
	}, nil
}
