package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stackit/stackit/models"
	"github.com/stackit/stackit/utils"
)

// RequireRoles declares the allow-list of roles for an operation. It must run
// after AuthRequired. Callers outside the list get a 403.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(ctx *gin.Context) {
		role := CallerRole(ctx)
		if role == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40106, "unauthorized")
			ctx.Abort()
			return
		}
		if _, ok := allowed[role]; !ok {
			utils.Error(ctx, http.StatusForbidden, 40301, "access denied")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// IsOwnerOrAdmin implements the ownership gate: the caller must be the
// resource creator or hold the admin role.
func IsOwnerOrAdmin(ctx *gin.Context, ownerID uint) bool {
	callerID, ok := CallerID(ctx)
	if !ok {
		return false
	}
	return callerID == ownerID || CallerRole(ctx) == models.RoleAdmin
}
