package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"songlin/internal/services"
	"songlin/internal/store"
	"songlin/internal/utils"
)

type AdminHandler struct {
	forum *services.Forum
}

func NewAdminHandler(f *services.Forum) *AdminHandler {
	return &AdminHandler{forum: f}
}

// requireAdmin 管理操作的统一入口检查
func (h *AdminHandler) requireAdmin(c *gin.Context) (string, bool) {
	user := currentUser(c)
	if user == nil || !user.Privileged() {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin required"})
		return "", false
	}
	return user.ID, true
}

// Kill 置 dead
func (h *AdminHandler) Kill(c *gin.Context) {
	h.setDead(c, true)
}

// Unkill 恢复
func (h *AdminHandler) Unkill(c *gin.Context) {
	h.setDead(c, false)
}

func (h *AdminHandler) setDead(c *gin.Context, dead bool) {
	adminID, ok := h.requireAdmin(c)
	if !ok {
		return
	}
	itemID := utils.StringToInt64(c.Param("id"))
	if err := h.forum.SetDead(adminID, itemID, dead); err != nil {
		switch {
		case errors.Is(err, store.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNotAuthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "not saved"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ModerateUser 调整用户降权/封禁信号
func (h *AdminHandler) ModerateUser(c *gin.Context) {
	adminID, ok := h.requireAdmin(c)
	if !ok {
		return
	}
	userID := c.Param("id")
	weight, err := strconv.ParseFloat(c.DefaultPostForm("weight", "0.5"), 64)
	if err != nil || weight < 0 || weight > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weight must be in [0,1]"})
		return
	}
	ignored := c.PostForm("ignored") == "1"

	if err := h.forum.ModerateUser(adminID, userID, weight, ignored); err != nil {
		switch {
		case errors.Is(err, store.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNotAuthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "not saved"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
