package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"songlin/internal/services"
)

const CheckUserKey = "user"

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get("user_id") == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Next()
	}
}

// LoadUser retrieves user from session and sets profile to context.
// 装入上下文的是档案快照，权威对象留在串行队列里。
func LoadUser(forum *services.Forum) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, _ := session.Get("user_id").(string)
		if userID != "" {
			if p, ok := forum.Profile(userID); ok {
				c.Set(CheckUserKey, p)
				// 防沉迷访问记账
				forum.RecordVisit(userID)
			}
		}
		c.Next()
	}
}
