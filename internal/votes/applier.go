package votes

import (
	"time"

	"songlin/internal/models"
	"songlin/internal/utils"
)

// Apply 把一次已通过校验的投票落到条目上（原地修改），
// 返回生成的投票记录。拒绝的投票绝不应走到这里。
func Apply(it *models.Item, voter *models.Profile, dir models.Direction, ip string,
	res Result, admin bool, now time.Time) models.VoteRecord {

	it.Score += dir.Delta()
	if res.Sockpuppet {
		it.Sockvotes++
	}
	if admin {
		// 管理员投过票的条目不再被自动 kill
		it.AddKey(models.KeyNokill)
	}

	rec := models.VoteRecord{
		Time:   now,
		IP:     ip,
		UserID: voter.ID,
		Dir:    dir,
		Score:  it.Score,
	}
	it.Votes = append([]models.VoteRecord{rec}, it.Votes...)
	return rec
}

// RecordUserVote 更新投票者自己的状态：个人流水前插并截断到窗口，
// 投票表登记（双重投票检查的权威记录，每对 (user,item) 只写一次）。
func RecordUserVote(voter *models.Profile, table map[int64]models.UserVote,
	it *models.Item, dir models.Direction, window int, now time.Time) {

	entry := models.LedgerEntry{
		Time:     now,
		ItemID:   it.ID,
		By:       it.By,
		Sitename: utils.Sitename(it.URL),
		Dir:      dir,
	}
	voter.Votes = append([]models.LedgerEntry{entry}, voter.Votes...)
	if window > 0 && len(voter.Votes) > window {
		voter.Votes = voter.Votes[:window]
	}

	table[it.ID] = models.UserVote{Dir: dir, Time: now}
}

// ApplyKarma 给作者记 karma。只在 Result.CountsForKarma 为真时由
// 调用方触发；这一层不设上下限。
func ApplyKarma(author *models.Profile, dir models.Direction) {
	author.Karma += dir.Delta()
}
