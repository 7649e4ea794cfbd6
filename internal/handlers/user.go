package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"songlin/internal/services"
	"songlin/internal/utils"
)

type UserHandler struct {
	forum *services.Forum
}

func NewUserHandler(f *services.Forum) *UserHandler {
	return &UserHandler{forum: f}
}

// Profile 用户公开主页
func (h *UserHandler) Profile(c *gin.Context) {
	id := c.Param("id")
	p, ok := h.forum.Profile(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         p.ID,
		"karma":      p.Karma,
		"created_at": p.CreatedAt,
	})
}

// UpdateSettings 更新当前用户的偏好设置
func (h *UserHandler) UpdateSettings(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}

	s := services.Settings{
		SeesDead:   c.PostForm("showdead") == "1",
		Delay:      utils.StringToInt(c.PostForm("delay")),
		Noprocrast: c.PostForm("noprocrast") == "1",
		MaxVisit:   utils.StringToInt(c.PostForm("maxvisit")),
		MinAway:    utils.StringToInt(c.PostForm("minaway")),
	}
	if err := h.forum.SetSettings(user.ID, s); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "settings not saved"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
