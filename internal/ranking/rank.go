package ranking

import (
	"math"
	"sort"
	"time"

	"songlin/internal/config"
	"songlin/internal/models"
	"songlin/internal/utils"
)

// Source 提供条目与用户的只读查询，由 store 实现。
// 排名引擎自身不做 I/O。
type Source interface {
	Item(id int64) (*models.Item, bool)
	Profile(id string) (*models.Profile, bool)
}

// RealScore 是排名口径的分数：展示分减去疑似马甲的赞
func RealScore(it *models.Item) int {
	return it.Score - it.Sockvotes
}

// Engine 根据分数、年龄、内容类型和争议系数计算条目排名
type Engine struct {
	src Source
	vis *Visibility
	cfg config.Tunables
}

func NewEngine(src Source, vis *Visibility, cfg config.Tunables) *Engine {
	return &Engine{src: src, vis: vis, cfg: cfg}
}

// Rank 排名公式（HN 风格）：(realScore-1)^0.8 / ((ageMin+120)/60)^1.8 * 内容系数。
// family 是可见家族规模，用 FamilySize 计算。
func (e *Engine) Rank(it *models.Item, family int, now time.Time) float64 {
	base := float64(RealScore(it) - 1)
	if base > 0 {
		// 次线性放大；零/负基数不开分数次幂
		base = math.Pow(base, e.cfg.ScorePower)
	}
	ageMin := it.Age(now).Minutes()
	timeFactor := math.Pow((ageMin+e.cfg.TimeBase)/60, e.cfg.Gravity)
	return base / timeFactor * e.contentFactor(it, family)
}

// contentFactor 按内容类型给出系数，story/poll 才有低质和争议折扣
func (e *Engine) contentFactor(it *models.Item, family int) float64 {
	switch it.Type {
	case models.TypeStory, models.TypePoll:
		if it.URL == "" {
			return 0.4 // 自述帖
		}
		if e.lightweight(it) {
			return math.Min(e.cfg.LightweightCap, e.controversy(it, family))
		}
		return e.controversy(it, family)
	case models.TypeComment, models.TypePollOpt:
		return 0.5
	}
	return 0.5
}

// lightweight 低质判定，按序短路：dead、rally/image 标签、
// 低质站点表、图片后缀
func (e *Engine) lightweight(it *models.Item) bool {
	if it.Dead {
		return true
	}
	if it.HasKey(models.KeyRally) || it.HasKey(models.KeyImage) {
		return true
	}
	if e.cfg.LightweightSites[utils.Sitename(it.URL)] {
		return true
	}
	return utils.HasImageExt(it.URL)
}

// controversy 争议系数：评论数相对分数过大的热帖被重罚
func (e *Engine) controversy(it *models.Item, family int) float64 {
	if family <= e.cfg.ControversyAt {
		return 1
	}
	r := float64(RealScore(it)) / float64(family)
	return math.Min(1, r*r)
}

// FamilySize 计算可见家族规模：条目本身可见记 1，
// 加上沿 kids 递归可达的所有可见后代。缺失的子 id 跳过，
// 访问集合防御畸形的环路。
func (e *Engine) FamilySize(viewer *models.Profile, it *models.Item, now time.Time) int {
	seen := make(map[int64]bool)
	return e.familySize(viewer, it, now, seen)
}

func (e *Engine) familySize(viewer *models.Profile, it *models.Item, now time.Time, seen map[int64]bool) int {
	if seen[it.ID] {
		return 0
	}
	seen[it.ID] = true

	n := 0
	if e.vis.CanSee(viewer, it, e.authorDelay(it.By), now) {
		n = 1
	}
	for _, kid := range it.Kids {
		child, ok := e.src.Item(kid)
		if !ok {
			continue
		}
		n += e.familySize(viewer, child, now, seen)
	}
	return n
}

func (e *Engine) authorDelay(by string) int {
	if p, ok := e.src.Profile(by); ok {
		return p.Delay
	}
	return 0
}

// RankAll 对候选条目按排名降序排序并返回。
// 排名相同的保持输入顺序（稳定排序），保证结果确定。
func (e *Engine) RankAll(items []*models.Item, viewer *models.Profile, now time.Time) []*models.Item {
	ranks := make(map[int64]float64, len(items))
	for _, it := range items {
		ranks[it.ID] = e.Rank(it, e.FamilySize(viewer, it, now), now)
	}
	out := make([]*models.Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return ranks[out[i].ID] > ranks[out[j].ID]
	})
	return out
}
