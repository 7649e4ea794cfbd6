package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"songlin/internal/models"
)

func TestCanSeeDeleted(t *testing.T) {
	now := time.Now()
	v := NewVisibility(10)
	it := &models.Item{ID: 1, Type: models.TypeStory, By: "alice", Deleted: true, CreatedAt: now.Add(-time.Hour)}

	assert.False(t, v.CanSee(nil, it, 0, now))
	assert.False(t, v.CanSee(&models.Profile{ID: "alice"}, it, 0, now), "作者也看不到 deleted")
	assert.True(t, v.CanSee(&models.Profile{ID: "mod", Editor: true}, it, 0, now))
	assert.True(t, v.CanSee(&models.Profile{ID: "root", Admin: true}, it, 0, now))
}

func TestCanSeeDead(t *testing.T) {
	now := time.Now()
	v := NewVisibility(10)
	it := &models.Item{ID: 1, Type: models.TypeStory, By: "alice", Dead: true, CreatedAt: now.Add(-time.Hour)}

	assert.False(t, v.CanSee(nil, it, 0, now))
	assert.True(t, v.CanSee(&models.Profile{ID: "alice"}, it, 0, now), "作者可见")
	assert.True(t, v.CanSee(&models.Profile{ID: "bob", SeesDead: true}, it, 0, now), "showdead 可见")
	assert.False(t, v.CanSee(&models.Profile{ID: "bob", SeesDead: true, Ignored: true}, it, 0, now), "被封禁的 showdead 无效")
	assert.False(t, v.CanSee(&models.Profile{ID: "bob"}, it, 0, now))
	assert.True(t, v.CanSee(&models.Profile{ID: "mod", Editor: true}, it, 0, now))
}

func TestCanSeeDelayedComment(t *testing.T) {
	now := time.Now()
	v := NewVisibility(10)
	it := &models.Item{ID: 1, Type: models.TypeComment, By: "alice", CreatedAt: now.Add(-2 * time.Minute)}

	// 延迟 5 分钟，2 分钟龄：只有作者可见
	assert.True(t, v.CanSee(&models.Profile{ID: "alice"}, it, 5, now))
	assert.False(t, v.CanSee(&models.Profile{ID: "bob"}, it, 5, now))
	assert.False(t, v.CanSee(nil, it, 5, now))
}

func TestCanSeeDelayCappedByGlobalMax(t *testing.T) {
	now := time.Now()
	v := NewVisibility(10)
	it := &models.Item{ID: 1, Type: models.TypeComment, By: "alice", CreatedAt: now.Add(-11 * time.Minute)}

	// 作者设了 60 分钟，但全局上限 10 分钟：11 分钟龄对所有人可见
	assert.True(t, v.CanSee(&models.Profile{ID: "bob"}, it, 60, now))
}

func TestMaturityIsOneWay(t *testing.T) {
	now := time.Now()
	v := NewVisibility(10)
	it := &models.Item{ID: 1, Type: models.TypeComment, By: "alice", CreatedAt: now.Add(-6 * time.Minute)}

	// 6 分钟龄超过 5 分钟延迟：可见，并打上 matured 标记
	assert.True(t, v.CanSee(&models.Profile{ID: "bob"}, it, 5, now))

	// 同一条评论即使按更早的时刻重新评估（年龄变小），也保持可见
	earlier := now.Add(-5 * time.Minute)
	assert.True(t, v.CanSee(&models.Profile{ID: "bob"}, it, 5, earlier))
}

func TestCanSeeNormalItem(t *testing.T) {
	now := time.Now()
	v := NewVisibility(10)
	it := &models.Item{ID: 1, Type: models.TypeStory, By: "alice", CreatedAt: now.Add(-time.Hour)}

	assert.True(t, v.CanSee(nil, it, 0, now))
	assert.True(t, v.CanSee(&models.Profile{ID: "bob"}, it, 0, now))
}
