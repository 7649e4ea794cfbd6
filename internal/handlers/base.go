package handlers

import (
	"github.com/gin-gonic/gin"

	"songlin/internal/middleware"
	"songlin/internal/models"
)

// currentUser 取出 LoadUser 中间件装载的用户档案，未登录返回 nil
func currentUser(c *gin.Context) *models.Profile {
	if v, exists := c.Get(middleware.CheckUserKey); exists {
		if p, ok := v.(*models.Profile); ok {
			return p
		}
	}
	return nil
}

// currentUserID 未登录返回 ""
func currentUserID(c *gin.Context) string {
	if p := currentUser(c); p != nil {
		return p.ID
	}
	return ""
}
