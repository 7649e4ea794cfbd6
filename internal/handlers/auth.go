package handlers

import (
	"net/http"
	"regexp"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"songlin/internal/services"
	"songlin/internal/utils"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,15}$`)

type AuthHandler struct {
	forum *services.Forum
}

func NewAuthHandler(f *services.Forum) *AuthHandler {
	return &AuthHandler{forum: f}
}

// Register 注册新用户并直接登录
func (h *AuthHandler) Register(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	if !usernameRe.MatchString(username) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "用户名需为 2-15 位字母数字"})
		return
	}
	if len(password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "密码至少6位"})
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	p, ok := h.forum.Register(username, hash)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "用户名已注册"})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", username)
	session.Save()
	c.JSON(http.StatusOK, gin.H{"id": username, "karma": p.Karma})
}

// Login 登录
func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	p, ok := h.forum.Profile(username)
	if !ok || !utils.CheckPassword(password, p.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "用户名或密码错误"})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", username)
	session.Save()
	c.JSON(http.StatusOK, gin.H{"id": username, "karma": p.Karma})
}

// Logout 退出登录
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
