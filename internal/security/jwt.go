package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenExpiryBuffer is the safety margin against races between the
// expiry check and the token's actual use: a token expiring within the
// buffer is treated as already expired.
const AccessTokenExpiryBuffer = 30 * time.Second

var ErrNoExpiry = errors.New("token carries no exp claim")

// TokenExpiry decodes the exp claim of a JWT without verifying its
// signature. The server is the authority on token validity; the client only
// needs the expiry instant to decide whether a refresh is due.
func TokenExpiry(raw string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, fmt.Errorf("decode token payload: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// TokenFresh reports whether the token's expiry is more than the buffer in
// the future. Undecodable tokens count as stale.
func TokenFresh(raw string, now time.Time) bool {
	exp, err := TokenExpiry(raw)
	if err != nil {
		return false
	}
	return exp.After(now.Add(AccessTokenExpiryBuffer))
}

type Claims struct {
	TokenType string `json:"token_type"`
	Role      string `json:"role,omitempty"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager mints HS256 token pairs. It backs the mock auth server; the
// client side of this module never signs or verifies tokens itself.
type JWTManager struct {
	issuer string
	secret []byte
}

func NewJWTManager(issuer, secret string) *JWTManager {
	return &JWTManager{issuer: issuer, secret: []byte(secret)}
}

func (m *JWTManager) SignAccessToken(userID int, email, role string, ttl time.Duration) (string, error) {
	claims := Claims{
		TokenType: "access",
		Role:      role,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   fmt.Sprintf("%d", userID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *JWTManager) SignRefreshToken(userID int, ttl time.Duration) (string, error) {
	claims := Claims{
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   fmt.Sprintf("%d", userID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *JWTManager) ParseToken(raw, tokenType string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing algorithm")
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("unexpected token type: %s", claims.TokenType)
	}
	return claims, nil
}
