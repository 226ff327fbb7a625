package http

import (
	"strings"

	"github.com/gin-gonic/gin"

	"aegis-ledger/internal/service"
)

const roleKey = "request_role"

// RoleMiddleware resuelve el rol del llamador desde el bearer token y lo
// deja en el contexto. Sin token, o con token invalido, el rol es guest;
// este nucleo no autentica, solo estampa el rol hacia el clasificador.
func RoleMiddleware(tokenSvc *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := service.RoleGuest

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if tokenSvc != nil && strings.HasPrefix(strings.ToLower(header), "bearer ") {
			token := strings.TrimSpace(header[len("Bearer "):])
			role = tokenSvc.ParseRole(token)
		}

		c.Set(roleKey, role)
		c.Next()
	}
}

// GetRole obtiene el rol resuelto desde el contexto.
func GetRole(c *gin.Context) string {
	val, ok := c.Get(roleKey)
	if !ok {
		return service.RoleGuest
	}
	role, ok := val.(string)
	if !ok || role == "" {
		return service.RoleGuest
	}
	return role
}
