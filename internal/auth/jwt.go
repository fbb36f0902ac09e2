// Package auth issues and verifies the bearer credentials handed out after an
// OTP verification or a staff password login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tbourn/metrosite-backend/internal/config"
	"github.com/tbourn/metrosite-backend/internal/domain"
)

// PrincipalKind tells website accounts and staff users apart.
type PrincipalKind string

const (
	KindAccount PrincipalKind = "account"
	KindStaff   PrincipalKind = "staff"
)

// TokenType separates short-lived access tokens from refresh tokens.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Principal is the authenticated caller of a request.
type Principal struct {
	Subject string        // account or staff id
	Kind    PrincipalKind // account|staff
	Role    domain.Role
	Phone   string // accounts only
}

// IsAccount reports whether p is a verified website account.
func (p Principal) IsAccount() bool { return p.Kind == KindAccount }

// Claims is the JWT body.
type Claims struct {
	Kind  PrincipalKind `json:"kind"`
	Role  domain.Role   `json:"role"`
	Phone string        `json:"phone,omitempty"`
	Type  TokenType     `json:"typ"`
	jwt.RegisteredClaims
}

// Pair is an access and refresh token issued together.
type Pair struct {
	Access          string
	Refresh         string
	AccessExpiresAt time.Time
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// NewIssuer builds an Issuer from configuration.
func NewIssuer(cfg config.JWTConfig) (*Issuer, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("JWT secret must be at least 32 bytes")
	}
	return &Issuer{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		Now:        time.Now,
	}, nil
}

// Issue signs an access and refresh token for p.
func (i *Issuer) Issue(p Principal) (Pair, error) {
	now := i.Now().UTC()
	access, err := i.sign(p, TypeAccess, now, i.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.sign(p, TypeRefresh, now, i.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh, AccessExpiresAt: now.Add(i.accessTTL)}, nil
}

func (i *Issuer) sign(p Principal, typ TokenType, now time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		Kind:  p.Kind,
		Role:  p.Role,
		Phone: p.Phone,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			Issuer:    i.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Parse verifies token and requires it to be of type want.
func (i *Issuer) Parse(token string, want TokenType) (Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.Now),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Type != want {
		return Principal{}, fmt.Errorf("%w: expected %s token", ErrInvalidToken, want)
	}
	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	switch claims.Kind {
	case KindAccount, KindStaff:
	default:
		return Principal{}, fmt.Errorf("%w: unknown kind", ErrInvalidToken)
	}
	role, err := domain.ParseRole(string(claims.Role))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Principal{Subject: claims.Subject, Kind: claims.Kind, Role: role, Phone: claims.Phone}, nil
}
