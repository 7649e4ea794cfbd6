package ranking

import (
	"sync"
	"time"

	"songlin/internal/models"
)

// Visibility 判断单个条目对某个访问者是否可见。
// matured 集合记录评论延迟期的单向转换：一旦过期永远可见，
// 避免长生命周期进程里反复按当前年龄重算同一条评论。
type Visibility struct {
	mu       sync.Mutex
	matured  map[int64]bool
	maxDelay int // 全局延迟上限（分钟）
}

func NewVisibility(maxDelay int) *Visibility {
	return &Visibility{
		matured:  make(map[int64]bool),
		maxDelay: maxDelay,
	}
}

// CanSee 规则按序匹配，命中即返回：
//  1. deleted 只有特权用户可见
//  2. dead 作者本人、开了 showdead 且未被封禁的用户、特权用户可见
//  3. 延迟期内的评论只有作者可见（过期后打 matured 标记，之后不再检查）
//  4. 其余人人可见
//
// authorDelay 是条目作者的延迟设置（分钟），由调用方解析。
func (v *Visibility) CanSee(viewer *models.Profile, it *models.Item, authorDelay int, now time.Time) bool {
	if it.Deleted {
		return viewer.Privileged()
	}
	if it.Dead {
		if viewer == nil {
			return false
		}
		return viewer.ID == it.By ||
			(viewer.SeesDead && !viewer.Ignored) ||
			viewer.Privileged()
	}
	if it.Type == models.TypeComment && !v.isMatured(it.ID) {
		delay := authorDelay
		if v.maxDelay < delay {
			delay = v.maxDelay
		}
		if delay > 0 && it.Age(now) < time.Duration(delay)*time.Minute {
			return viewer != nil && viewer.ID == it.By
		}
		// 延迟已过（或未设置），之后不再按年龄重算
		v.markMatured(it.ID)
	}
	return true
}

func (v *Visibility) isMatured(id int64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.matured[id]
}

func (v *Visibility) markMatured(id int64) {
	v.mu.Lock()
	v.matured[id] = true
	v.mu.Unlock()
}
