package models

import (
	"time"
)

// Profile 用户侧 key
const (
	KeyNoVote  = "novote"  // 禁止投票（对自己的条目除外）
	KeyNoDowns = "nodowns" // 禁止点踩
)

// LedgerEntry 用户个人投票流水中的一条（有界，最近的在前）
type LedgerEntry struct {
	Time     time.Time `json:"time"`
	ItemID   int64     `json:"item_id"`
	By       string    `json:"by"` // 目标条目的作者
	Sitename string    `json:"sitename,omitempty"`
	Dir      Direction `json:"dir"`
}

// UserVote 按条目去重的权威投票记录，双重投票检查走这里（O(1)）
type UserVote struct {
	Dir  Direction `json:"dir"`
	Time time.Time `json:"time"`
}

// Profile 表示一个注册用户。首次访问时惰性创建，永不删除。
type Profile struct {
	// 用户名即主键。Password 是 bcrypt hash，持久化时随聚合
	// 序列化；对外视图由展示层自行挑选字段，不直接编码本结构。
	ID        string    `json:"id"`
	Password  string    `json:"password,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Karma  int     `json:"karma"`  // 初始为 1
	Weight float64 `json:"weight"` // [0,1] 人工降权信号，默认 0.5

	Ignored bool `json:"ignored"` // 社区封禁标记
	Editor  bool `json:"editor"`
	Admin   bool `json:"admin"`

	SeesDead bool     `json:"sees_dead"` // showdead 偏好
	Delay    int      `json:"delay"`     // 本人评论的延迟可见分钟数
	Keys     []string `json:"keys,omitempty"`

	// 防沉迷（procrastination）设置：开启后在强制休息窗口内
	// 不允许触发影响排名的状态变更
	Noprocrast bool       `json:"noprocrast"`
	MaxVisit   int        `json:"max_visit"` // 单次访问时长上限（分钟）
	MinAway    int        `json:"min_away"`  // 强制离开时长（分钟）
	FirstVisit *time.Time `json:"first_visit,omitempty"`
	LastVisit  *time.Time `json:"last_visit,omitempty"`

	Votes []LedgerEntry `json:"votes,omitempty"` // 有界个人流水
}

// HasKey 判断用户是否带有指定策略 key
func (p *Profile) HasKey(key string) bool {
	for _, k := range p.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Privileged 是否为特权用户（编辑或管理员）
func (p *Profile) Privileged() bool {
	return p != nil && (p.Editor || p.Admin)
}

// Clone 返回用户档案的深拷贝，供读路径在串行队列外安全持有
func (p *Profile) Clone() *Profile {
	cp := *p
	cp.Keys = append([]string(nil), p.Keys...)
	cp.Votes = append([]LedgerEntry(nil), p.Votes...)
	if p.FirstVisit != nil {
		t := *p.FirstVisit
		cp.FirstVisit = &t
	}
	if p.LastVisit != nil {
		t := *p.LastVisit
		cp.LastVisit = &t
	}
	return &cp
}

// NewProfile 构建带默认值的新用户
func NewProfile(id string, now time.Time) *Profile {
	return &Profile{
		ID:        id,
		CreatedAt: now,
		Karma:     1,
		Weight:    0.5,
		MaxVisit:  20,
		MinAway:   180,
	}
}
