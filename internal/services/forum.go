package services

import (
	"errors"
	"log"
	"sort"
	"time"

	"songlin/internal/config"
	"songlin/internal/models"
	"songlin/internal/ranking"
	"songlin/internal/store"
	"songlin/internal/utils"
	"songlin/internal/votes"
)

var (
	ErrEmptyTitle    = errors.New("title required")
	ErrEmptyText     = errors.New("text required")
	ErrBadParent     = errors.New("parent not available")
	ErrNotAuthorized = errors.New("not authorized")
)

// RejectProcrast 在防沉迷休息窗口内的投票拒绝原因。
// 在进入 Validate 状态机之前由服务层拦截。
const RejectProcrast = votes.Rejection("procrastination break")

const frontpageCacheKey = "frontpage:anon"

// VoteOutcome 一次投票请求的最终结果（拒绝是正常结果，不是错误）
type VoteOutcome struct {
	Accepted bool            `json:"accepted"`
	Reason   votes.Rejection `json:"reason,omitempty"`
	Score    int             `json:"score"`
}

type task func()

// Forum 是引擎的单写者外壳：所有状态变更（投票、karma、流水、
// 建帖）经由一个任务队列串行执行，读路径走 store 的读锁。
// 参考异步排名服务的 worker 模式，但这里调用方同步等待结果。
type Forum struct {
	store *store.Store
	vis   *ranking.Visibility
	eng   *ranking.Engine
	cfg   config.Tunables

	tasks chan task
	cache *utils.Cache
}

func NewForum(st *store.Store, cfg config.Tunables) *Forum {
	vis := ranking.NewVisibility(cfg.MaxDelay)
	f := &Forum{
		store: st,
		vis:   vis,
		eng:   ranking.NewEngine(st, vis, cfg),
		cfg:   cfg,
		tasks: make(chan task, 256),
		cache: utils.NewCache(500),
	}
	go f.worker()
	return f
}

func (f *Forum) worker() {
	for t := range f.tasks {
		t()
	}
}

// do 把变更闭包投递到串行队列并同步等待执行结果
func (f *Forum) do(fn func() error) error {
	errc := make(chan error, 1)
	f.tasks <- func() { errc <- fn() }
	return <-errc
}

// SubmitVote 组合校验、落票、流水、karma 与持久化。
// 拒绝通过 VoteOutcome 返回；error 只表示协作方故障或对象缺失。
func (f *Forum) SubmitVote(voterID string, itemID int64, dir models.Direction, ip string) (VoteOutcome, error) {
	var out VoteOutcome
	err := f.do(func() error {
		voter, ok := f.store.Profile(voterID)
		if !ok {
			return store.ErrProfileNotFound
		}
		it, ok := f.store.Item(itemID)
		if !ok {
			return store.ErrItemNotFound
		}
		now := time.Now()

		if !f.mayAct(voter, now) {
			out = VoteOutcome{Reason: RejectProcrast, Score: it.Score}
			return nil
		}

		table := f.store.UserVotes(voterID)
		res := votes.Validate(voter, it, table, dir, ip, voter.Editor, voter.Votes, f.cfg)
		if !res.Accepted {
			out = VoteOutcome{Reason: res.Reason, Score: it.Score}
			return nil
		}

		votes.Apply(it, voter, dir, ip, res, voter.Admin, now)
		votes.RecordUserVote(voter, table, it, dir, f.cfg.VoteWindow, now)

		if res.CountsForKarma {
			if author, ok := f.store.Profile(it.By); ok {
				votes.ApplyKarma(author, dir)
				if err := f.store.SaveProfile(author); err != nil {
					return err
				}
			}
		}

		if err := f.store.SaveItem(it); err != nil {
			return err
		}
		if err := f.store.SaveProfile(voter); err != nil {
			return err
		}
		if err := f.store.SaveUserVotes(voterID); err != nil {
			return err
		}

		f.cache.Delete(frontpageCacheKey)
		out = VoteOutcome{Accepted: true, Score: it.Score}
		return nil
	})
	return out, err
}

// newItem 建帖公共路径：登记条目、写入创建自投、更新作者状态并持久化
func (f *Forum) newItem(author *models.Profile, it *models.Item, now time.Time) error {
	it.Score = 1 // 作者自投
	f.store.CreateItem(it)

	rec := models.VoteRecord{Time: now, IP: it.IP, UserID: author.ID, Dir: models.DirUp, Score: 1}
	it.Votes = []models.VoteRecord{rec}

	table := f.store.UserVotes(author.ID)
	votes.RecordUserVote(author, table, it, models.DirUp, f.cfg.VoteWindow, now)

	if it.ParentID != nil {
		f.store.AddKid(*it.ParentID, it.ID)
		if parent, ok := f.store.Item(*it.ParentID); ok {
			if err := f.store.SaveItem(parent); err != nil {
				return err
			}
		}
	}

	if err := f.store.SaveItem(it); err != nil {
		return err
	}
	if err := f.store.SaveProfile(author); err != nil {
		return err
	}
	if err := f.store.SaveUserVotes(author.ID); err != nil {
		return err
	}
	f.cache.Delete(frontpageCacheKey)
	return nil
}

// SubmitStory 提交新 story（url 帖或自述帖）
func (f *Forum) SubmitStory(authorID, title, url, text, ip string) (*models.Item, error) {
	if title == "" {
		return nil, ErrEmptyTitle
	}
	var created *models.Item
	err := f.do(func() error {
		author, ok := f.store.Profile(authorID)
		if !ok {
			return store.ErrProfileNotFound
		}
		now := time.Now()
		if !f.mayAct(author, now) {
			return ErrNotAuthorized
		}
		it := &models.Item{
			Type:      models.TypeStory,
			By:        author.ID,
			IP:        ip,
			CreatedAt: now,
			URL:       url,
			Title:     title,
		}
		if text != "" {
			it.Text = utils.RenderMarkdown(text)
		}
		if err := f.newItem(author, it, now); err != nil {
			return err
		}
		created = it.Clone()
		return nil
	})
	return created, err
}

// SubmitComment 在 parent（story 或评论）下提交回复
func (f *Forum) SubmitComment(authorID string, parentID int64, text, ip string) (*models.Item, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	var created *models.Item
	err := f.do(func() error {
		author, ok := f.store.Profile(authorID)
		if !ok {
			return store.ErrProfileNotFound
		}
		parent, ok := f.store.Item(parentID)
		if !ok || parent.Deleted {
			return ErrBadParent
		}
		now := time.Now()
		if !f.mayAct(author, now) {
			return ErrNotAuthorized
		}
		pid := parent.ID
		it := &models.Item{
			Type:      models.TypeComment,
			By:        author.ID,
			IP:        ip,
			CreatedAt: now,
			Text:      utils.RenderMarkdown(text),
			ParentID:  &pid,
		}
		if err := f.newItem(author, it, now); err != nil {
			return err
		}
		created = it.Clone()
		return nil
	})
	return created, err
}

// SubmitPoll 提交投票贴及其选项（选项作为 pollopt 子条目）
func (f *Forum) SubmitPoll(authorID, title, text string, opts []string, ip string) (*models.Item, error) {
	if title == "" {
		return nil, ErrEmptyTitle
	}
	var created *models.Item
	err := f.do(func() error {
		author, ok := f.store.Profile(authorID)
		if !ok {
			return store.ErrProfileNotFound
		}
		now := time.Now()
		if !f.mayAct(author, now) {
			return ErrNotAuthorized
		}
		poll := &models.Item{
			Type:      models.TypePoll,
			By:        author.ID,
			IP:        ip,
			CreatedAt: now,
			Title:     title,
		}
		if text != "" {
			poll.Text = utils.RenderMarkdown(text)
		}
		if err := f.newItem(author, poll, now); err != nil {
			return err
		}
		for _, o := range opts {
			if o == "" {
				continue
			}
			pid := poll.ID
			opt := &models.Item{
				Type:      models.TypePollOpt,
				By:        author.ID,
				IP:        ip,
				CreatedAt: now,
				Text:      o,
				ParentID:  &pid,
			}
			if err := f.newItem(author, opt, now); err != nil {
				return err
			}
		}
		created = poll.Clone()
		return nil
	})
	return created, err
}

// FlagItem 记录社区举报；达到阈值且未带 nokill 的条目自动置 dead
func (f *Forum) FlagItem(userID string, itemID int64) error {
	return f.do(func() error {
		if _, ok := f.store.Profile(userID); !ok {
			return store.ErrProfileNotFound
		}
		it, ok := f.store.Item(itemID)
		if !ok {
			return store.ErrItemNotFound
		}
		if it.FlaggedBy(userID) {
			return nil
		}
		it.Flags = append(it.Flags, userID)
		if len(it.Flags) >= f.cfg.FlagKill && !it.HasKey(models.KeyNokill) && !it.Dead {
			it.Dead = true
			log.Printf("item %d killed by flags (%d)", it.ID, len(it.Flags))
			f.cache.Delete(frontpageCacheKey)
		}
		return f.store.SaveItem(it)
	})
}

// SetDead 管理员 kill / unkill
func (f *Forum) SetDead(adminID string, itemID int64, dead bool) error {
	return f.do(func() error {
		admin, ok := f.store.Profile(adminID)
		if !ok || !admin.Privileged() {
			return ErrNotAuthorized
		}
		it, ok := f.store.Item(itemID)
		if !ok {
			return store.ErrItemNotFound
		}
		it.Dead = dead
		f.cache.Delete(frontpageCacheKey)
		return f.store.SaveItem(it)
	})
}

// ModerateUser 管理员调整用户的降权/封禁信号
func (f *Forum) ModerateUser(adminID, userID string, weight float64, ignored bool) error {
	return f.do(func() error {
		admin, ok := f.store.Profile(adminID)
		if !ok || !admin.Admin {
			return ErrNotAuthorized
		}
		p, ok := f.store.Profile(userID)
		if !ok {
			return store.ErrProfileNotFound
		}
		p.Weight = weight
		p.Ignored = ignored
		return f.store.SaveProfile(p)
	})
}

// Settings 用户可自助修改的设置
type Settings struct {
	SeesDead   bool
	Delay      int
	Noprocrast bool
	MaxVisit   int
	MinAway    int
}

// SetSettings 更新用户偏好（delay 会在可见性判断时再按全局上限截断）
func (f *Forum) SetSettings(userID string, s Settings) error {
	return f.do(func() error {
		p, ok := f.store.Profile(userID)
		if !ok {
			return store.ErrProfileNotFound
		}
		p.SeesDead = s.SeesDead
		p.Delay = s.Delay
		p.Noprocrast = s.Noprocrast
		if s.MaxVisit > 0 {
			p.MaxVisit = s.MaxVisit
		}
		if s.MinAway > 0 {
			p.MinAway = s.MinAway
		}
		return f.store.SaveProfile(p)
	})
}

// RecordVisit 防沉迷访问记账：离开足够久则开启新的访问窗口
func (f *Forum) RecordVisit(userID string) {
	_ = f.do(func() error {
		p, ok := f.store.Profile(userID)
		if !ok {
			return nil
		}
		now := time.Now()
		if p.LastVisit == nil || now.Sub(*p.LastVisit) >= time.Duration(p.MinAway)*time.Minute {
			p.FirstVisit = &now
		}
		p.LastVisit = &now
		return f.store.SaveProfile(p)
	})
}

// mayAct 防沉迷闸门：noprocrast 用户在本次访问超时后、
// 强制离开时长未满前，不允许触发影响排名的状态变更
func (f *Forum) mayAct(p *models.Profile, now time.Time) bool {
	if !p.Noprocrast {
		return true
	}
	if p.FirstVisit == nil || p.LastVisit == nil {
		return true
	}
	if now.Sub(*p.LastVisit) >= time.Duration(p.MinAway)*time.Minute {
		return true // 已离开足够久，新窗口从下次访问记账开始
	}
	return now.Sub(*p.FirstVisit) <= time.Duration(p.MaxVisit)*time.Minute
}

// 读路径同样经过串行队列：权威对象只在 worker 上被触碰，
// 交给请求方的一律是深拷贝快照，之后的写入不会改到它们。

// Frontpage 返回对该访问者排好序的候选条目快照（story/poll，
// 未 dead/deleted）。匿名视图缓存一分钟，缓存里也只存快照。
func (f *Forum) Frontpage(viewerID string) []*models.Item {
	if viewerID == "" {
		if cached := f.cache.Get(frontpageCacheKey); cached != nil {
			if items, ok := cached.([]*models.Item); ok {
				return items
			}
		}
	}

	var out []*models.Item
	_ = f.do(func() error {
		var viewer *models.Profile
		if viewerID != "" {
			viewer, _ = f.store.Profile(viewerID)
		}

		candidates := f.store.Items(func(it *models.Item) bool {
			if it.Dead || it.Deleted {
				return false
			}
			switch it.Type {
			case models.TypeStory, models.TypePoll:
				return true
			case models.TypeComment, models.TypePollOpt:
				return false
			}
			return false
		})
		// map 遍历乱序；先回到发现顺序，排名相同的才能稳定
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

		ranked := f.eng.RankAll(candidates, viewer, time.Now())
		out = make([]*models.Item, len(ranked))
		for i, it := range ranked {
			out[i] = it.Clone()
		}
		if viewerID == "" {
			f.cache.Set(frontpageCacheKey, out, time.Minute)
		}
		return nil
	})
	return out
}

// Item 条目只读查询，返回快照
func (f *Forum) Item(id int64) (*models.Item, bool) {
	var it *models.Item
	_ = f.do(func() error {
		if live, ok := f.store.Item(id); ok {
			it = live.Clone()
		}
		return nil
	})
	return it, it != nil
}

// Profile 用户档案只读查询，返回快照
func (f *Forum) Profile(id string) (*models.Profile, bool) {
	var p *models.Profile
	_ = f.do(func() error {
		if live, ok := f.store.Profile(id); ok {
			p = live.Clone()
		}
		return nil
	})
	return p, p != nil
}

// Register 注册新用户：惰性创建档案并写入口令 hash。
// 用户名已存在时返回 false。
func (f *Forum) Register(username, passwordHash string) (*models.Profile, bool) {
	var out *models.Profile
	err := f.do(func() error {
		p, created := f.store.EnsureProfile(username, time.Now())
		if !created {
			return nil
		}
		p.Password = passwordHash
		if err := f.store.SaveProfile(p); err != nil {
			return err
		}
		out = p.Clone()
		return nil
	})
	if err != nil || out == nil {
		return nil, false
	}
	return out, true
}

// Comments 返回根条目下排好序的评论树快照（带深度）
func (f *Forum) Comments(rootID int64, viewerID string) ([]ranking.Ranked, error) {
	var out []ranking.Ranked
	err := f.do(func() error {
		root, ok := f.store.Item(rootID)
		if !ok {
			return store.ErrItemNotFound
		}
		var viewer *models.Profile
		if viewerID != "" {
			viewer, _ = f.store.Profile(viewerID)
		}
		tree := f.eng.OrderComments(root, viewer, time.Now())
		out = make([]ranking.Ranked, len(tree))
		for i, r := range tree {
			out[i] = ranking.Ranked{Item: r.Item.Clone(), Depth: r.Depth}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CanSee 供展示层判断单个条目可见性。it 是调用方持有的快照，
// 档案查询在队列内完成。
func (f *Forum) CanSee(viewerID string, it *models.Item) bool {
	var visible bool
	_ = f.do(func() error {
		var viewer *models.Profile
		if viewerID != "" {
			viewer, _ = f.store.Profile(viewerID)
		}
		delay := 0
		if p, ok := f.store.Profile(it.By); ok {
			delay = p.Delay
		}
		visible = f.vis.CanSee(viewer, it, delay, time.Now())
		return nil
	})
	return visible
}

// CanVoteOn 供展示层决定是否渲染投票控件
func (f *Forum) CanVoteOn(viewerID string, itemID int64, dir models.Direction) bool {
	if viewerID == "" {
		return false
	}
	var can bool
	_ = f.do(func() error {
		viewer, ok := f.store.Profile(viewerID)
		if !ok {
			return nil
		}
		it, ok := f.store.Item(itemID)
		if !ok {
			return nil
		}
		parentAuthor := ""
		if it.ParentID != nil {
			if parent, ok := f.store.Item(*it.ParentID); ok {
				parentAuthor = parent.By
			}
		}
		can = votes.CanVote(viewer, it, f.store.UserVotes(viewerID), dir, parentAuthor, f.cfg)
		return nil
	})
	return can
}
