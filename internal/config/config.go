package config

import (
	"os"
	"strings"
)

// 排名与投票合法性相关的可调参数。零值无意义，统一走 Default()。
type Tunables struct {
	// 排名
	Gravity        float64 // 时间重力指数
	TimeBase       float64 // 时间基准偏移（分钟），防止新条目排名趋近无穷
	ScorePower     float64 // 分数次线性放大指数
	ControversyAt  int     // 可见家族规模超过该值才计算争议系数
	LightweightCap float64 // 低质条目的内容系数上限

	// 投票合法性
	DownvoteKarma int // 点踩所需 karma（需严格大于）
	DownvoteFloor int // 低于等于该分数的评论不可再踩
	KarmaBombRun  int // 连续对同一作者点踩多少次后拦截
	LegitKarma    int // 超过该 karma 即视为 legit 用户（放行同 IP 投票）

	// 马甲判定（默认 0 表示"新号且低 karma"分支不生效）
	SockMaxAgeDays int
	SockMaxKarma   int

	// 可见性
	MaxDelay int // 评论延迟可见的全局上限（分钟）

	// 社区治理
	FlagKill   int // 举报数达到该值且无 nokill 则自动置 dead
	VoteWindow int // 个人投票流水的窗口大小

	// 低质站点表（域名 -> true）
	LightweightSites map[string]bool
}

// Default 返回与线上行为一致的默认参数
func Default() Tunables {
	return Tunables{
		Gravity:        1.8,
		TimeBase:       120,
		ScorePower:     0.8,
		ControversyAt:  20,
		LightweightCap: 0.3,

		DownvoteKarma: 200,
		DownvoteFloor: -4,
		KarmaBombRun:  3,
		LegitKarma:    0,

		MaxDelay: 10,

		FlagKill:   4,
		VoteWindow: 100,

		LightweightSites: map[string]bool{},
	}
}

// FromEnv 在默认值基础上应用环境变量覆盖。
// LIGHTWEIGHT_SITES 为逗号分隔的域名列表。
func FromEnv() Tunables {
	t := Default()
	if v := os.Getenv("LIGHTWEIGHT_SITES"); v != "" {
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				t.LightweightSites[s] = true
			}
		}
	}
	return t
}

// Env 读取环境变量，为空时返回 fallback
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
