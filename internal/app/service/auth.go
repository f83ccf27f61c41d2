package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// AuthIface defines the identity collaborator used by the middleware. The
// core only ever receives a trusted owner id from it; credential checks
// happen outside this service.
type AuthIface interface {
	BuildJWTString(userID int64) (string, error)
	ParseClaims(c *http.Cookie) (*Claims, error)
}

// Claims represents the claims carried by the session token.
type Claims struct {
	jwt.RegisteredClaims
	// UserID is the authenticated owner id.
	UserID int64 `json:"user_id"`
}

// TokenExp defines the expiration time of the session token.
const TokenExp = time.Hour * 24 * 30

const secretKey = "supersecretkey"

// Auth issues and parses session tokens.
type Auth struct{}

func NewAuth() *Auth {
	return &Auth{}
}

// BuildJWTString signs a token carrying the owner id. The login flow calls
// this after validating credentials; tests use it to mint sessions directly.
func (a *Auth) BuildJWTString(userID int64) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExp)),
		},
		UserID: userID,
	})

	return token.SignedString([]byte(secretKey))
}

// ParseClaims parses the session token from the provided HTTP cookie and
// returns the claims embedded within it.
func (a *Auth) ParseClaims(c *http.Cookie) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(c.Value, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
