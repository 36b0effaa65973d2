package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"interviewsignal/internal/core/domain"
	"interviewsignal/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims are the bearer token claims issued by the platform's auth service.
type Claims struct {
	UserID domain.UserID `json:"user_id"`
	Name   string        `json:"name,omitempty"`
	Role   domain.Role   `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type jwtIdentityVerifier struct {
	secret   []byte
	issuer   string
	accounts ports.AccountDirectory // optional
}

// NewIdentityVerifier verifies HS256 bearer tokens. When accounts is not nil
// the token's user must also exist and be active.
func NewIdentityVerifier(secret, issuer string, accounts ports.AccountDirectory) ports.IdentityVerifier {
	return &jwtIdentityVerifier{
		secret:   []byte(secret),
		issuer:   issuer,
		accounts: accounts,
	}
}

func (v *jwtIdentityVerifier) ResolveIdentity(ctx context.Context, token string) (domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Identity{}, ErrMissingToken
	}

	claims, err := v.parse(token)
	if err != nil {
		return domain.Identity{}, err
	}

	identity := domain.Identity{
		UserID: claims.UserID,
		Name:   claims.Name,
		Role:   claims.Role,
		Active: true,
	}
	if v.accounts == nil {
		return identity, nil
	}

	account, err := v.accounts.LookupAccount(ctx, claims.UserID)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("lookup account %s: %w", claims.UserID, err)
	}
	if !account.Active {
		return domain.Identity{}, domain.ErrAccountInactive
	}
	if account.Name != "" {
		identity.Name = account.Name
	}
	if account.Role != domain.RoleNone {
		identity.Role = account.Role
	}
	return identity, nil
}

func (v *jwtIdentityVerifier) parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateToken signs a token in the format the verifier accepts. The
// service never issues tokens to end users; this is used by tests and local
// tooling.
func GenerateToken(secret, issuer string, identity domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: identity.UserID,
		Name:   identity.Name,
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   identity.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
