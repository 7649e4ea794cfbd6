package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"songlin/internal/models"
	"songlin/internal/services"
	"songlin/internal/store"
	"songlin/internal/utils"
)

type StoryHandler struct {
	forum *services.Forum
}

func NewStoryHandler(f *services.Forum) *StoryHandler {
	return &StoryHandler{forum: f}
}

// itemView 列表/详情的公共 JSON 视图
func itemView(it *models.Item) gin.H {
	v := gin.H{
		"id":         it.ID,
		"type":       it.Type.String(),
		"by":         it.By,
		"created_at": it.CreatedAt,
		"score":      it.Score, // 展示分含 sockvotes，排名口径在引擎内部
		"dead":       it.Dead,
	}
	if it.Title != "" {
		v["title"] = it.Title
	}
	if it.URL != "" {
		v["url"] = it.URL
		v["sitename"] = utils.Sitename(it.URL)
	}
	if it.Text != "" {
		v["text"] = it.Text
	}
	if it.ParentID != nil {
		v["parent"] = *it.ParentID
	}
	if len(it.Kids) > 0 {
		v["kids"] = it.Kids
	}
	return v
}

// ListTop 首页：排名降序的 story/poll
func (h *StoryHandler) ListTop(c *gin.Context) {
	viewerID := currentUserID(c)
	items := h.forum.Frontpage(viewerID)

	perPage := 30
	page := utils.StringToInt(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + perPage
	if end > len(items) {
		end = len(items)
	}

	out := make([]gin.H, 0, end-offset)
	for _, it := range items[offset:end] {
		out = append(out, itemView(it))
	}
	c.JSON(http.StatusOK, gin.H{"items": out, "page": page, "total": len(items)})
}

// Detail 条目详情 + 排好序的评论树
func (h *StoryHandler) Detail(c *gin.Context) {
	viewerID := currentUserID(c)
	itemID := utils.StringToInt64(c.Param("id"))

	tree, err := h.forum.Comments(itemID, viewerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	it, _ := h.forum.Item(itemID)
	if !h.forum.CanSee(viewerID, it) {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	comments := make([]gin.H, 0, len(tree))
	for _, r := range tree {
		v := itemView(r.Item)
		v["depth"] = r.Depth
		if viewerID != "" {
			v["can_down"] = h.forum.CanVoteOn(viewerID, r.Item.ID, models.DirDown)
		}
		comments = append(comments, v)
	}

	v := itemView(it)
	if viewerID != "" {
		v["can_up"] = h.forum.CanVoteOn(viewerID, it.ID, models.DirUp)
	}
	c.JSON(http.StatusOK, gin.H{"item": v, "comments": comments})
}

// Create 提交新 story 或 poll（带 options 时按 poll 处理）
func (h *StoryHandler) Create(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	url := strings.TrimSpace(c.PostForm("url"))
	text := c.PostForm("text")
	opts := c.PostFormArray("options")

	var it *models.Item
	var err error
	if len(opts) > 0 {
		it, err = h.forum.SubmitPoll(user.ID, title, text, opts, c.ClientIP())
	} else {
		it, err = h.forum.SubmitStory(user.ID, title, url, text, c.ClientIP())
	}
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrNotAuthorized) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, itemView(it))
}

// CreateComment 提交评论
func (h *StoryHandler) CreateComment(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}

	parentID := utils.StringToInt64(c.Param("id"))
	text := c.PostForm("text")

	it, err := h.forum.SubmitComment(user.ID, parentID, text, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadParent), errors.Is(err, store.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNotAuthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, itemView(it))
}
