package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"occ-api/internal/model"
	"occ-api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Context keys set by RequireAuth and friends.
const (
	CtxUserID   = "userID"
	CtxUserRole = "userRole"
)

// PermissionSource resolves the permission codes granted to a role.
type PermissionSource interface {
	GetPermissionCodes(ctx context.Context, roleName string) ([]string, error)
}

var (
	jwtSecret     []byte
	permSource    PermissionSource
	secureCookies bool
)

// InitAuth wires the signing secret and permission lookup used by every
// middleware in this package. Call once at startup.
func InitAuth(secret []byte, perms PermissionSource, secure bool) {
	jwtSecret = secret
	permSource = perms
	secureCookies = secure
	ClearPermissionCache("")
}

// Claims are the fields read from an access token.
type Claims struct {
	UserID uuid.UUID
	Role   string
}

// ParseToken validates an HS256 token and extracts sub and role.
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, errors.New("invalid subject in token")
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return nil, errors.New("role not found in token")
	}
	return &Claims{UserID: id, Role: role}, nil
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, accessToken, refreshToken string, accessTTL, refreshTTL time.Duration) {
	// Cross-origin deployments need SameSite=None, which browsers only accept with Secure.
	sameSite := http.SameSiteLaxMode
	if secureCookies {
		sameSite = http.SameSiteNoneMode
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", accessToken, int(accessTTL.Seconds()), "/", "", secureCookies, true)
	c.SetCookie("refresh_token", refreshToken, int(refreshTTL.Seconds()), "/", "", secureCookies, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	if secureCookies {
		sameSite = http.SameSiteNoneMode
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secureCookies, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secureCookies, true)
}

// authenticate reads the token from the cookie or the Authorization header.
// It aborts the request and returns nil when the caller is not authenticated.
func authenticate(c *gin.Context) *Claims {
	tokenString, cookieErr := c.Cookie("access_token")
	if cookieErr != nil || tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return nil
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
			return nil
		}
		tokenString = parts[1]
	}

	claims, err := ParseToken(tokenString, jwtSecret)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token: "+err.Error()))
		return nil
	}

	c.Set(CtxUserID, claims.UserID.String())
	c.Set(CtxUserRole, claims.Role)
	return claims
}

// RequireAuth accepts any valid token regardless of role.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticate(c) == nil {
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie("access_token")
		if err != nil || tokenString == "" {
			tokenString = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if tokenString != "" {
			if claims, err := ParseToken(tokenString, jwtSecret); err == nil {
				c.Set(CtxUserID, claims.UserID.String())
				c.Set(CtxUserRole, claims.Role)
			}
		}
		c.Next()
	}
}

// RequireRole Middleware validates the JWT token and checks if the user's role exists in the allowedRoles list
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := authenticate(c)
		if claims == nil {
			return
		}

		roleAllowed := false
		for _, role := range allowedRoles {
			if claims.Role == role {
				roleAllowed = true
				break
			}
		}

		if !roleAllowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Next()
	}
}

// RequireStaff is RequireRole for SUPER_ADMIN and ADMIN.
func RequireStaff() gin.HandlerFunc {
	return RequireRole(model.RoleSuperAdmin, model.RoleAdmin)
}

// --- Permission-based middleware ---

// permCacheEntry stores cached permission codes for a role with TTL
type permCacheEntry struct {
	codes     []string
	expiresAt time.Time
}

var (
	permCache    sync.Map // roleName -> permCacheEntry
	permCacheTTL = 5 * time.Minute
)

// RequirePermission validates the JWT and checks that the user's role holds
// every required permission code. SUPER_ADMIN always passes.
func RequirePermission(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := authenticate(c)
		if claims == nil {
			return
		}
		if claims.Role == model.RoleSuperAdmin {
			c.Next()
			return
		}

		userPerms, err := GetPermissionsForRole(c.Request.Context(), claims.Role)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}

		permSet := make(map[string]bool, len(userPerms))
		for _, p := range userPerms {
			permSet[p] = true
		}

		for _, required := range requiredPerms {
			if !permSet[required] {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+required+"'"))
				return
			}
		}

		c.Next()
	}
}

// GetPermissionsForRole returns cached or freshly loaded permission codes for a role name
func GetPermissionsForRole(ctx context.Context, roleName string) ([]string, error) {
	if entry, ok := permCache.Load(roleName); ok {
		cached := entry.(permCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.codes, nil
		}
	}

	if permSource == nil {
		return nil, fmt.Errorf("permission middleware not initialized")
	}

	codes, err := permSource.GetPermissionCodes(ctx, roleName)
	if err != nil {
		return nil, err
	}

	permCache.Store(roleName, permCacheEntry{
		codes:     codes,
		expiresAt: time.Now().Add(permCacheTTL),
	})

	return codes, nil
}

// ClearPermissionCache removes cached permissions for a specific role (or all roles if empty)
func ClearPermissionCache(roleName string) {
	if roleName == "" {
		permCache.Range(func(key, _ interface{}) bool {
			permCache.Delete(key)
			return true
		})
		return
	}
	permCache.Delete(roleName)
}

// CurrentUser returns the authenticated actor stored on the context.
func CurrentUser(c *gin.Context) (uuid.UUID, string, bool) {
	raw := c.GetString(CtxUserID)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, c.GetString(CtxUserRole), true
}
