package middleware

import (
	"context"
	"net/http"
	"strings"

	"tajeats-api/apperr"
	"tajeats-api/auth"
	"tajeats-api/logger"
	"tajeats-api/models"
	"tajeats-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const claimsKey = "claims"

// TokenParser verifies a bearer token and returns its claims
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// RevocationChecker reports whether a token id was revoked at logout
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// StaffLinks resolves the stored restaurant link of a staff account
type StaffLinks interface {
	RestaurantOf(ctx context.Context, userID uint) (*uint, error)
}

// AuthRequired validates the JWT and injects claims into context. When links
// is set, the restaurant id of owner and rider tokens is replaced by the
// stored link so unlinked staff lose access before their token expires.
func AuthRequired(tokens TokenParser, revoked RevocationChecker, links StaffLinks) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required (Bearer <token>)"})
			return
		}
		authenticate(c, tokens, revoked, links, strings.TrimPrefix(header, "Bearer "))
	}
}

// OptionalAuth authenticates the caller when a bearer token is sent and lets
// anonymous requests through. A token that is sent but invalid is rejected.
func OptionalAuth(tokens TokenParser, revoked RevocationChecker, links StaffLinks) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must be a Bearer token"})
			return
		}
		authenticate(c, tokens, revoked, links, strings.TrimPrefix(header, "Bearer "))
	}
}

func authenticate(c *gin.Context, tokens TokenParser, revoked RevocationChecker, links StaffLinks, tokenStr string) {
	claims, err := tokens.Parse(tokenStr)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	if claims.ID != "" {
		gone, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			logger.FromGin(c).Error("Failed to check token revocation", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify token"})
			return
		}
		if gone {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
			return
		}
	}
	if links != nil && (claims.Role == models.RoleRestaurantOwner || claims.Role == models.RoleRider) {
		rid, err := links.RestaurantOf(c.Request.Context(), claims.UserID)
		if apperr.Is(err, apperr.KindInvalidCredentials) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
			return
		}
		if err != nil {
			logger.FromGin(c).Error("Failed to resolve staff restaurant", zap.Uint("user_id", claims.UserID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify token"})
			return
		}
		current := *claims
		current.RestaurantID = rid
		claims = &current
	}
	c.Set(claimsKey, claims)
	c.Next()
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Role not found in context"})
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Access denied. Required role(s): " + rolesString(roles),
		})
	}
}

func rolesString(roles []models.UserRole) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

// ClaimsFrom returns the caller's token claims, if the request was authenticated
func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// ActorFrom returns the authenticated caller. Anonymous requests get the zero Actor.
func ActorFrom(c *gin.Context) services.Actor {
	claims, ok := ClaimsFrom(c)
	if !ok {
		return services.Actor{}
	}
	return services.Actor{UserID: claims.UserID, Role: claims.Role, RestaurantID: claims.RestaurantID}
}
