package middleware

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/anand-babu-0003/ParkWise-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "Bearer"
	UserIDKey               = "userID"
	UserRoleKey             = "userRole"
	UsernameKey             = "username"
)

type AuthMiddleware struct {
	authService *service.AuthService
}

func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate validates the bearer token and stores the resolved principal
// (id, role, username) in the gin context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeaderKey)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 || !strings.EqualFold(fields[0], AuthorizationTypeBearer) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		accessToken := fields[1]
		_, claims, err := m.authService.ValidateToken(accessToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is invalid or expired", "details": err.Error()})
			return
		}

		userIDStr, okUserID := claims["sub"].(string)
		userRole, okUserRole := claims["role"].(string)
		username, okUsername := claims["username"].(string)
		if !okUserID || !okUserRole || !okUsername {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user information in token"})
			return
		}
		userID, err := strconv.Atoi(userIDStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user id in token"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(UserRoleKey, userRole)
		c.Set(UsernameKey, username)

		c.Next()
	}
}

// AuthorizeRole allows the request through only when the authenticated
// principal carries one of the required roles.
func (m *AuthMiddleware) AuthorizeRole(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRoleVal, exists := c.Get(UserRoleKey)
		if !exists {
			log.Printf("AuthorizeRole: no user role in context (Authenticate() must run first)")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied (missing role)"})
			return
		}

		userRole, ok := userRoleVal.(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied (invalid role)"})
			return
		}

		authorized := false
		for _, reqRole := range requiredRoles {
			if userRole == reqRole {
				authorized = true
				break
			}
		}

		if !authorized {
			log.Printf("AuthorizeRole: role '%s' denied (required: %v)", userRole, requiredRoles)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied (insufficient role)"})
			return
		}

		c.Next()
	}
}

// Principal reads the authenticated user id and role set by Authenticate.
func Principal(c *gin.Context) (int, string) {
	userID, _ := c.Get(UserIDKey)
	role, _ := c.Get(UserRoleKey)
	id, _ := userID.(int)
	r, _ := role.(string)
	return id, r
}
