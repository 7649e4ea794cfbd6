package ranking

import (
	"sort"
	"time"

	"songlin/internal/models"
)

// Ranked 是展示顺序中的一个节点
type Ranked struct {
	Item  *models.Item
	Depth int
}

// OrderComments 为展示排列一棵评论子树：每层取对访问者可见、
// 未 dead/deleted 的子节点，按排名降序（同分保持原顺序），
// 每个子节点的子树紧随其后、深度加一。只影响展示，不改分数。
func (e *Engine) OrderComments(root *models.Item, viewer *models.Profile, now time.Time) []Ranked {
	seen := map[int64]bool{root.ID: true}
	return e.orderLevel(root, viewer, now, 0, seen)
}

func (e *Engine) orderLevel(parent *models.Item, viewer *models.Profile, now time.Time, depth int, seen map[int64]bool) []Ranked {
	var kids []*models.Item
	for _, id := range parent.Kids {
		if seen[id] {
			continue
		}
		child, ok := e.src.Item(id)
		if !ok {
			continue
		}
		seen[id] = true
		if child.Dead || child.Deleted {
			continue
		}
		if !e.vis.CanSee(viewer, child, e.authorDelay(child.By), now) {
			continue
		}
		kids = append(kids, child)
	}

	ranks := make(map[int64]float64, len(kids))
	for _, k := range kids {
		ranks[k.ID] = e.Rank(k, e.FamilySize(viewer, k, now), now)
	}
	sort.SliceStable(kids, func(i, j int) bool {
		return ranks[kids[i].ID] > ranks[kids[j].ID]
	})

	var out []Ranked
	for _, k := range kids {
		out = append(out, Ranked{Item: k, Depth: depth})
		out = append(out, e.orderLevel(k, viewer, now, depth+1, seen)...)
	}
	return out
}
