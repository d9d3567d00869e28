package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	roleAdmin         = "admin"
	contextKeySubject = "auth_subject"
	contextKeyRole    = "auth_role"
	bearerPrefix      = "Bearer "
)

// bearerAuth validates an HS256 bearer token and stores its sub and role claims.
func bearerAuth(signingKey string) gin.HandlerFunc {
	key := []byte(signingKey)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing bearer token"))
			return
		}
		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(strings.TrimPrefix(header, bearerPrefix), claims, func(*jwt.Token) (any, error) {
			return key, nil
		})
		if err != nil || !token.Valid {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "invalid token"))
			return
		}
		subject, _ := claims.GetSubject()
		role, _ := claims["role"].(string)
		ctx.Set(contextKeySubject, subject)
		ctx.Set(contextKeyRole, role)
		ctx.Next()
	}
}

func requireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(ctx *gin.Context) {
		if !allowed[ctx.GetString(contextKeyRole)] {
			ctx.AbortWithStatusJSON(http.StatusForbidden, errorResponse("forbidden", "insufficient role"))
			return
		}
		ctx.Next()
	}
}
