package models

import (
	"time"
)

// ItemType 内容类型（封闭枚举，排名和 karma 规则按类型分支）
type ItemType int

const (
	TypeStory ItemType = iota
	TypeComment
	TypePoll
	TypePollOpt
)

func (t ItemType) String() string {
	switch t {
	case TypeStory:
		return "story"
	case TypeComment:
		return "comment"
	case TypePoll:
		return "poll"
	case TypePollOpt:
		return "pollopt"
	}
	return "unknown"
}

// Direction 投票方向
type Direction int8

const (
	DirUp   Direction = 1
	DirDown Direction = -1
)

// Delta 返回该方向对分数的贡献
func (d Direction) Delta() int {
	if d == DirDown {
		return -1
	}
	return 1
}

func (d Direction) String() string {
	if d == DirDown {
		return "down"
	}
	return "up"
}

// VoteRecord 条目上的单条投票记录（Votes 列表按时间倒序存放）
type VoteRecord struct {
	Time   time.Time `json:"time"`
	IP     string    `json:"ip"`
	UserID string    `json:"user_id"`
	Dir    Direction `json:"dir"`
	Score  int       `json:"score"` // 投票落地后的条目分数
}

// 特殊策略 key
const (
	KeyNokill = "nokill" // 管理员投过票的条目不参与自动 kill
	KeyRally  = "rally"
	KeyImage  = "image"
)

// Item 表示一条内容：story、comment、poll 或 poll-option。
// 创建后只会原地修改，软删除通过 Dead/Deleted 标记。
type Item struct {
	ID        int64     `json:"id"`
	Type      ItemType  `json:"type"`
	By        string    `json:"by"` // 作者用户名
	IP        string    `json:"ip"` // 提交来源 IP
	CreatedAt time.Time `json:"created_at"`

	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`

	Score     int          `json:"score"`     // 创建时为 1（作者自投）
	Sockvotes int          `json:"sockvotes"` // 疑似马甲的赞数，始终 <= 赞总数
	Votes     []VoteRecord `json:"votes"`     // 最近的在前

	Flags []string `json:"flags,omitempty"` // 举报过的用户名
	Keys  []string `json:"keys,omitempty"`

	Dead    bool `json:"dead"`
	Deleted bool `json:"deleted"`

	ParentID *int64  `json:"parent_id,omitempty"`
	Kids     []int64 `json:"kids,omitempty"`
}

// HasKey 判断条目是否带有指定策略 key
func (it *Item) HasKey(key string) bool {
	for _, k := range it.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// AddKey 幂等地追加策略 key
func (it *Item) AddKey(key string) {
	if !it.HasKey(key) {
		it.Keys = append(it.Keys, key)
	}
}

// FlaggedBy 判断用户是否已举报过该条目
func (it *Item) FlaggedBy(userID string) bool {
	for _, f := range it.Flags {
		if f == userID {
			return true
		}
	}
	return false
}

// Age 返回条目距创建时刻的年龄
func (it *Item) Age(now time.Time) time.Duration {
	return now.Sub(it.CreatedAt)
}

// Clone 返回条目的深拷贝。读路径把拷贝交给请求方持有，
// 权威对象只在串行化的写路径里被修改。
func (it *Item) Clone() *Item {
	cp := *it
	cp.Votes = append([]VoteRecord(nil), it.Votes...)
	cp.Flags = append([]string(nil), it.Flags...)
	cp.Keys = append([]string(nil), it.Keys...)
	cp.Kids = append([]int64(nil), it.Kids...)
	if it.ParentID != nil {
		pid := *it.ParentID
		cp.ParentID = &pid
	}
	return &cp
}
