package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ethos/backend/internal/models"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
)

const identityKey = "identity"

var ErrInvalidToken = errors.New("invalid token")

// Claims is the bearer token payload. The subject is the participant id.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenAuth verifies HS256 bearer tokens issued by the identity service.
type TokenAuth struct {
	secret []byte
	issuer string
}

func NewTokenAuth(secret, issuer string) *TokenAuth {
	return &TokenAuth{secret: []byte(secret), issuer: issuer}
}

// IssueToken mints a token for identity. The server only verifies tokens;
// this exists for the admin CLI and tests.
func (a *TokenAuth) IssueToken(identity models.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken validates signature, issuer and expiry and returns the identity.
func (a *TokenAuth) ParseToken(tokenString string) (models.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	identity := models.Identity{ID: claims.Subject, Role: claims.Role}
	if identity.ID == "" || !identity.Role.Valid() {
		return models.Identity{}, fmt.Errorf("%w: missing subject or unknown role", ErrInvalidToken)
	}
	return identity, nil
}

// RequireIdentity rejects requests without a valid bearer token and stores
// the identity in the gin context. Browsers cannot set headers on a websocket
// handshake, so the access_token query parameter is accepted as well.
func (h *Handler) RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
			return
		}

		identity, err := h.Auth.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

func identityFrom(c *gin.Context) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(models.Identity); ok {
			return identity
		}
	}
	return models.Identity{}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return c.Query("access_token")
}
