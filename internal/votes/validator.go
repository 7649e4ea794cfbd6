package votes

import (
	"time"

	"songlin/internal/config"
	"songlin/internal/models"
)

// Rejection 校验失败的结构化原因。拒绝是预期内的正常结果，
// 以值返回，绝不 panic。
type Rejection string

const (
	RejectAlreadyVoted Rejection = "already voted"
	RejectDeadItem     Rejection = "item is dead"
	RejectRestricted   Rejection = "vote restricted"
	RejectNoDowns      Rejection = "downvotes disabled"
	RejectKarmaBomb    Rejection = "karma bombing prevented"
	RejectDuplicateIP  Rejection = "duplicate ip vote"
)

// Result 一次投票请求的校验结论
type Result struct {
	Accepted bool
	Reason   Rejection // Accepted 为 false 时有效

	// 接受时的分类
	Sockpuppet     bool // 计入 sockvotes，从 real score 中扣除
	CountsForKarma bool // 是否给作者记 karma
}

func reject(r Rejection) Result {
	return Result{Reason: r}
}

// Validate 投票合法性状态机。检查按序执行，首个失败即返回：
//  1. 已投过票（查 per-user 投票表）
//  2. dead/deleted 条目，且投票者不是作者
//  3. 被封禁或带 novote key 的用户（对自己的条目除外）
//  4. 点踩专项（非编辑）：nodowns key；对同一作者连续点踩的轰炸模式
//  5. 非 legit 用户对同一条目的同 IP 重复投票
//
// prior 是投票者的权威投票表，recent 是其个人流水（最近的在前）。
func Validate(voter *models.Profile, it *models.Item, prior map[int64]models.UserVote,
	dir models.Direction, ip string, editor bool, recent []models.LedgerEntry,
	cfg config.Tunables) Result {

	if _, ok := prior[it.ID]; ok {
		return reject(RejectAlreadyVoted)
	}
	if (it.Dead || it.Deleted) && voter.ID != it.By {
		return reject(RejectDeadItem)
	}
	if (voter.Ignored || voter.HasKey(models.KeyNoVote)) && voter.ID != it.By {
		return reject(RejectRestricted)
	}
	if dir == models.DirDown && !editor {
		if voter.HasKey(models.KeyNoDowns) {
			return reject(RejectNoDowns)
		}
		if karmaBombing(recent, it.By, cfg.KarmaBombRun) {
			return reject(RejectKarmaBomb)
		}
	}
	if !legit(voter, editor, cfg) && voter.ID != it.By && ipVoted(it, ip) {
		return reject(RejectDuplicateIP)
	}

	return Result{
		Accepted:       true,
		Sockpuppet:     dir == models.DirUp && possibleSockpuppet(voter, cfg),
		CountsForKarma: countsForKarma(voter, it, ip, editor),
	}
}

// legit 用户可以绕过同 IP 去重：编辑，或 karma 高于阈值
func legit(voter *models.Profile, editor bool, cfg config.Tunables) bool {
	return editor || voter.Karma > cfg.LegitKarma
}

// ipVoted 条目上是否已有来自该 IP 的投票
func ipVoted(it *models.Item, ip string) bool {
	for _, v := range it.Votes {
		if v.IP == ip {
			return true
		}
	}
	return false
}

// karmaBombing 投票者紧邻的 run 条流水是否全部为对同一目标作者的点踩
func karmaBombing(recent []models.LedgerEntry, target string, run int) bool {
	if run <= 0 || len(recent) < run {
		return false
	}
	for _, e := range recent[:run] {
		if e.Dir != models.DirDown || e.By != target {
			return false
		}
	}
	return true
}

// possibleSockpuppet 疑似马甲：被封禁、人工降权低于 0.5、
// 或既新又低 karma（阈值默认 0，该分支不生效）
func possibleSockpuppet(voter *models.Profile, cfg config.Tunables) bool {
	if voter.Ignored {
		return true
	}
	if voter.Weight < 0.5 {
		return true
	}
	if cfg.SockMaxAgeDays > 0 && cfg.SockMaxKarma > 0 {
		age := time.Since(voter.CreatedAt)
		if age < time.Duration(cfg.SockMaxAgeDays)*24*time.Hour && voter.Karma < cfg.SockMaxKarma {
			return true
		}
	}
	return false
}

// countsForKarma 作者自投不记；与条目来源同 IP 的非编辑投票不记；
// poll-option 永不记
func countsForKarma(voter *models.Profile, it *models.Item, ip string, editor bool) bool {
	if voter.ID == it.By {
		return false
	}
	if ip == it.IP && !editor {
		return false
	}
	switch it.Type {
	case models.TypePollOpt:
		return false
	case models.TypeStory, models.TypeComment, models.TypePoll:
		return true
	}
	return true
}

// CanVote 展示层的开关：是否渲染投票控件。必须与 Validate 在
// 其覆盖的场景上结论一致。parentAuthor 是目标条目父节点的作者
// （防止踩别人对自己评论的回复）。
func CanVote(voter *models.Profile, it *models.Item, prior map[int64]models.UserVote,
	dir models.Direction, parentAuthor string, cfg config.Tunables) bool {

	if voter == nil {
		return false
	}
	if _, ok := prior[it.ID]; ok {
		return false
	}
	if it.Dead || it.Deleted {
		return false
	}
	if dir == models.DirDown {
		if it.Type != models.TypeComment {
			return false
		}
		if it.Score <= cfg.DownvoteFloor {
			return false
		}
		if voter.Karma <= cfg.DownvoteKarma {
			return false
		}
		if parentAuthor != "" && parentAuthor == voter.ID {
			return false
		}
	}
	return true
}
