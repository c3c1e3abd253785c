package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coopec/missions-backend/internal/application/port"
	"github.com/coopec/missions-backend/internal/domain/entity"
	"github.com/coopec/missions-backend/pkg/utils"
)

const currentUserKey = "currentUser"

// authMiddleware validates the Bearer token and loads the acting user
func authMiddleware(tokenMgr *utils.TokenManager, userRepo port.UserRepository, logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing bearer token",
			})
			return
		}

		claims, err := tokenMgr.CheckToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid token",
			})
			return
		}

		user, err := userRepo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			logger.Error("Failed to load user for token", "user_id", claims.UserID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
				Success: false,
				Error:   "internal error",
			})
			return
		}
		if user == nil || !user.Active {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "account unknown or deactivated",
			})
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// currentUser returns the authenticated user placed by authMiddleware
func currentUser(c *gin.Context) *entity.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*entity.User)
	return user
}
