package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

const scopeKey = "requestScope"

const tokenTTL = 72 * time.Hour

// GenerateJWT signs a token carrying the user in "sub" and the active home
// in "home". homeID may be empty.
func GenerateJWT(userID, homeID, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(tokenTTL).Unix(),
	}
	if homeID != "" {
		claims["home"] = homeID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// verifies the JWT and returns the scope it grants.
func parseToken(tokenString, secret string) (model.Scope, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return model.Scope{}, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.Scope{}, errors.New("invalid claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return model.Scope{}, errors.New("invalid sub claim")
	}
	home, _ := claims["home"].(string)
	return model.Scope{UserID: sub, HomeID: home}, nil
}

func bearer(c *gin.Context) (string, bool, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false, nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", true, errors.New("invalid auth header")
	}
	return parts[1], true, nil
}

// JWTMiddleware requires "Authorization: Bearer <token>" and stores the
// resulting scope on the context.
func JWTMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, present, err := bearer(c)
		if !present {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing auth header"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		scope, err := parseToken(raw, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(scopeKey, scope)
		c.Next()
	}
}

// OptionalJWTMiddleware lets requests without a token through as anonymous.
// A token that is present must still be valid.
func OptionalJWTMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, present, err := bearer(c)
		if !present {
			c.Next()
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		scope, err := parseToken(raw, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(scopeKey, scope)
		c.Next()
	}
}

// GetScope returns the scope set by the JWT middleware, or the anonymous
// scope.
func GetScope(c *gin.Context) model.Scope {
	v, ok := c.Get(scopeKey)
	if !ok {
		return model.Scope{}
	}
	scope, _ := v.(model.Scope)
	return scope
}
