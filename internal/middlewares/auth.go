package middlewares

import (
	"gcoin-shop/internal/domain/dto"
	"gcoin-shop/internal/lib/jwt"
	"github.com/gin-gonic/gin"
	"net/http"
	"strings"
)

type AuthMiddleware struct {
	jwtGen *jwt.Generator
}

func NewAuthMiddleware(jwtGen *jwt.Generator) *AuthMiddleware {
	return &AuthMiddleware{jwtGen: jwtGen}
}

// Handle validates the bearer access token and stores "user_id" and "role"
// in the gin context.
func (m *AuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := m.parseHeader(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "unauthorized",
				Message: err.Error(),
			})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != jwt.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
				Error:   "forbidden",
				Message: "admin role required",
			})
			return
		}

		c.Next()
	}
}

func (m *AuthMiddleware) parseHeader(header string) (*jwt.Claims, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	claims, err := m.jwtGen.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, jwt.ErrInvalidToken
	}
	if claims.TokenType != jwt.TokenTypeAccess {
		return nil, ErrNotAccessToken
	}

	return claims, nil
}
