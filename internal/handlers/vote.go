package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"songlin/internal/models"
	"songlin/internal/services"
	"songlin/internal/store"
	"songlin/internal/utils"
)

type VoteHandler struct {
	forum *services.Forum
}

func NewVoteHandler(f *services.Forum) *VoteHandler {
	return &VoteHandler{forum: f}
}

// Vote 处理投票请求，dir 参数为 up/down，缺省 up
func (h *VoteHandler) Vote(c *gin.Context) {
	voter := currentUser(c)
	if voter == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}

	itemID := utils.StringToInt64(c.Param("id"))
	dir := models.DirUp
	if c.DefaultPostForm("dir", "up") == "down" {
		dir = models.DirDown
	}

	out, err := h.forum.SubmitVote(voter.ID, itemID, dir, c.ClientIP())
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) || errors.Is(err, store.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		// 持久化失败：状态不确定，绝不能向用户报成功
		c.JSON(http.StatusInternalServerError, gin.H{"error": "vote not recorded"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// Flag 处理举报
func (h *VoteHandler) Flag(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}

	itemID := utils.StringToInt64(c.Param("id"))
	if err := h.forum.FlagItem(user.ID, itemID); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "flag not recorded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
