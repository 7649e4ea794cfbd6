package votes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songlin/internal/config"
	"songlin/internal/models"
)

func testVoter(id string) *models.Profile {
	return models.NewProfile(id, time.Now().Add(-30*24*time.Hour))
}

func testStory(id int64, by string) *models.Item {
	return &models.Item{
		ID:        id,
		Type:      models.TypeStory,
		By:        by,
		IP:        "10.0.0.1",
		Score:     1,
		CreatedAt: time.Now().Add(-time.Hour),
	}
}

func noPrior() map[int64]models.UserVote {
	return map[int64]models.UserVote{}
}

func downsAgainst(target string, n int) []models.LedgerEntry {
	out := make([]models.LedgerEntry, n)
	for i := range out {
		out[i] = models.LedgerEntry{ItemID: int64(100 + i), By: target, Dir: models.DirDown}
	}
	return out
}

func TestValidateAccepts(t *testing.T) {
	cfg := config.Default()
	res := Validate(testVoter("bob"), testStory(1, "alice"), noPrior(),
		models.DirUp, "10.0.0.2", false, nil, cfg)

	require.True(t, res.Accepted)
	assert.False(t, res.Sockpuppet)
	assert.True(t, res.CountsForKarma)
}

func TestValidateAlreadyVoted(t *testing.T) {
	cfg := config.Default()
	prior := map[int64]models.UserVote{1: {Dir: models.DirUp, Time: time.Now()}}

	for _, dir := range []models.Direction{models.DirUp, models.DirDown} {
		res := Validate(testVoter("bob"), testStory(1, "alice"), prior, dir, "10.0.0.2", false, nil, cfg)
		require.False(t, res.Accepted)
		assert.Equal(t, RejectAlreadyVoted, res.Reason)
	}
}

func TestValidateDeadItem(t *testing.T) {
	cfg := config.Default()
	it := testStory(1, "alice")
	it.Dead = true

	res := Validate(testVoter("bob"), it, noPrior(), models.DirUp, "10.0.0.2", false, nil, cfg)
	require.False(t, res.Accepted)
	assert.Equal(t, RejectDeadItem, res.Reason)

	// 作者本人可以投自己的 dead 条目
	res = Validate(testVoter("alice"), it, noPrior(), models.DirUp, "10.0.0.2", false, nil, cfg)
	assert.True(t, res.Accepted)

	it.Dead = false
	it.Deleted = true
	res = Validate(testVoter("bob"), it, noPrior(), models.DirUp, "10.0.0.2", false, nil, cfg)
	require.False(t, res.Accepted)
	assert.Equal(t, RejectDeadItem, res.Reason)
}

func TestValidateRestrictedVoter(t *testing.T) {
	cfg := config.Default()

	banned := testVoter("bob")
	banned.Ignored = true
	res := Validate(banned, testStory(1, "alice"), noPrior(), models.DirUp, "10.0.0.2", false, nil, cfg)
	require.False(t, res.Accepted)
	assert.Equal(t, RejectRestricted, res.Reason)

	noVote := testVoter("carol")
	noVote.Keys = []string{models.KeyNoVote}
	res = Validate(noVote, testStory(1, "alice"), noPrior(), models.DirUp, "10.0.0.2", false, nil, cfg)
	require.False(t, res.Accepted)
	assert.Equal(t, RejectRestricted, res.Reason)

	// 对自己的条目不受限
	res = Validate(banned, testStory(1, "bob"), noPrior(), models.DirUp, "10.0.0.2", false, nil, cfg)
	assert.True(t, res.Accepted)
}

func TestValidateNoDowns(t *testing.T) {
	cfg := config.Default()
	voter := testVoter("bob")
	voter.Keys = []string{models.KeyNoDowns}

	res := Validate(voter, testStory(1, "alice"), noPrior(), models.DirDown, "10.0.0.2", false, nil, cfg)
	require.False(t, res.Accepted)
	assert.Equal(t, RejectNoDowns, res.Reason)

	// 只限点踩
	res = Validate(voter, testStory(1, "alice"), noPrior(), models.DirUp, "10.0.0.2", false, nil, cfg)
	assert.True(t, res.Accepted)

	// 编辑不受限
	res = Validate(voter, testStory(1, "alice"), noPrior(), models.DirDown, "10.0.0.2", true, nil, cfg)
	assert.True(t, res.Accepted)
}

func TestValidateKarmaBombing(t *testing.T) {
	cfg := config.Default()

	// 紧邻的 3 条流水都是对同一作者的点踩：拦截第 4 次
	res := Validate(testVoter("bob"), testStory(1, "alice"), noPrior(),
		models.DirDown, "10.0.0.2", false, downsAgainst("alice", 3), cfg)
	require.False(t, res.Accepted)
	assert.Equal(t, RejectKarmaBomb, res.Reason)

	// 2 条不拦
	res = Validate(testVoter("bob"), testStory(1, "alice"), noPrior(),
		models.DirDown, "10.0.0.2", false, downsAgainst("alice", 2), cfg)
	assert.True(t, res.Accepted)

	// 3 条但目标不同不拦
	recent := downsAgainst("alice", 2)
	recent = append([]models.LedgerEntry{{ItemID: 99, By: "dave", Dir: models.DirDown}}, recent...)
	res = Validate(testVoter("bob"), testStory(1, "alice"), noPrior(),
		models.DirDown, "10.0.0.2", false, recent, cfg)
	assert.True(t, res.Accepted)

	// 最近一条是赞则不构成连续点踩
	recent = downsAgainst("alice", 3)
	recent[0].Dir = models.DirUp
	res = Validate(testVoter("bob"), testStory(1, "alice"), noPrior(),
		models.DirDown, "10.0.0.2", false, recent, cfg)
	assert.True(t, res.Accepted)

	// 编辑永不拦
	res = Validate(testVoter("bob"), testStory(1, "alice"), noPrior(),
		models.DirDown, "10.0.0.2", true, downsAgainst("alice", 3), cfg)
	assert.True(t, res.Accepted)
}

func TestValidateDuplicateIP(t *testing.T) {
	cfg := config.Default()
	it := testStory(1, "alice")
	it.Votes = []models.VoteRecord{{UserID: "eve", IP: "10.0.0.9", Dir: models.DirUp}}

	// karma 0 的用户不是 legit，同 IP 拦截
	low := testVoter("bob")
	low.Karma = 0
	res := Validate(low, it, noPrior(), models.DirUp, "10.0.0.9", false, nil, cfg)
	require.False(t, res.Accepted)
	assert.Equal(t, RejectDuplicateIP, res.Reason)

	// karma 超过阈值即 legit，放行
	res = Validate(testVoter("carol"), it, noPrior(), models.DirUp, "10.0.0.9", false, nil, cfg)
	assert.True(t, res.Accepted)

	// 编辑放行
	lowEd := testVoter("dave")
	lowEd.Karma = 0
	res = Validate(lowEd, it, noPrior(), models.DirUp, "10.0.0.9", true, nil, cfg)
	assert.True(t, res.Accepted)

	// 作者本人放行
	lowAuthor := testVoter("alice")
	lowAuthor.Karma = 0
	res = Validate(lowAuthor, it, noPrior(), models.DirUp, "10.0.0.9", false, nil, cfg)
	assert.True(t, res.Accepted)

	// 不同 IP 放行
	res = Validate(low, it, noPrior(), models.DirUp, "10.0.0.2", false, nil, cfg)
	assert.True(t, res.Accepted)
}

func TestValidateSockpuppetClassification(t *testing.T) {
	cfg := config.Default()

	// 人工降权低于 0.5 的赞计为马甲票
	weighted := testVoter("bob")
	weighted.Weight = 0.4
	res := Validate(weighted, testStory(1, "alice"), noPrior(), models.DirUp, "10.0.0.2", false, nil, cfg)
	require.True(t, res.Accepted)
	assert.True(t, res.Sockpuppet)

	// 点踩不计
	res = Validate(weighted, testStory(1, "alice"), noPrior(), models.DirDown, "10.0.0.2", false, nil, cfg)
	require.True(t, res.Accepted)
	assert.False(t, res.Sockpuppet)

	// 被封禁的作者给自己的条目投赞：接受但计马甲
	banned := testVoter("alice")
	banned.Ignored = true
	res = Validate(banned, testStory(1, "alice"), noPrior(), models.DirUp, "10.0.0.2", false, nil, cfg)
	require.True(t, res.Accepted)
	assert.True(t, res.Sockpuppet)

	// 默认阈值下"新号低 karma"分支不生效
	fresh := models.NewProfile("newbie", time.Now())
	res = Validate(fresh, testStory(1, "alice"), noPrior(), models.DirUp, "10.0.0.2", false, nil, cfg)
	require.True(t, res.Accepted)
	assert.False(t, res.Sockpuppet)

	// 调高阈值后生效
	cfg.SockMaxAgeDays = 7
	cfg.SockMaxKarma = 10
	res = Validate(fresh, testStory(1, "alice"), noPrior(), models.DirUp, "10.0.0.2", false, nil, cfg)
	require.True(t, res.Accepted)
	assert.True(t, res.Sockpuppet)
}

func TestValidateKarmaAttribution(t *testing.T) {
	cfg := config.Default()
	it := testStory(1, "alice")

	// 作者自投不记 karma
	res := Validate(testVoter("alice"), it, noPrior(), models.DirUp, "10.0.0.2", false, nil, cfg)
	require.True(t, res.Accepted)
	assert.False(t, res.CountsForKarma)

	// 与条目来源同 IP 的非编辑投票不记
	res = Validate(testVoter("bob"), it, noPrior(), models.DirUp, it.IP, false, nil, cfg)
	require.True(t, res.Accepted)
	assert.False(t, res.CountsForKarma)

	// 同 IP 但是编辑：记
	res = Validate(testVoter("bob"), it, noPrior(), models.DirUp, it.IP, true, nil, cfg)
	require.True(t, res.Accepted)
	assert.True(t, res.CountsForKarma)

	// poll-option 永不记
	opt := testStory(2, "alice")
	opt.Type = models.TypePollOpt
	res = Validate(testVoter("bob"), opt, noPrior(), models.DirUp, "10.0.0.2", false, nil, cfg)
	require.True(t, res.Accepted)
	assert.False(t, res.CountsForKarma)
}

func TestCanVoteUp(t *testing.T) {
	cfg := config.Default()
	it := testStory(1, "alice")

	assert.False(t, CanVote(nil, it, noPrior(), models.DirUp, "", cfg), "未登录")
	assert.True(t, CanVote(testVoter("bob"), it, noPrior(), models.DirUp, "", cfg))

	prior := map[int64]models.UserVote{1: {Dir: models.DirUp}}
	assert.False(t, CanVote(testVoter("bob"), it, prior, models.DirUp, "", cfg))

	dead := testStory(2, "alice")
	dead.Dead = true
	assert.False(t, CanVote(testVoter("bob"), dead, noPrior(), models.DirUp, "", cfg))
}

func TestCanVoteDownKarmaThreshold(t *testing.T) {
	cfg := config.Default()
	c := testStory(1, "alice")
	c.Type = models.TypeComment

	exactly := testVoter("bob")
	exactly.Karma = 200
	assert.False(t, CanVote(exactly, c, noPrior(), models.DirDown, "carol", cfg), "karma 恰好 200 不够")

	enough := testVoter("bob")
	enough.Karma = 201
	assert.True(t, CanVote(enough, c, noPrior(), models.DirDown, "carol", cfg))
}

func TestCanVoteDownOnlyComments(t *testing.T) {
	cfg := config.Default()
	voter := testVoter("bob")
	voter.Karma = 1000

	assert.False(t, CanVote(voter, testStory(1, "alice"), noPrior(), models.DirDown, "", cfg), "story 不可踩")

	poll := testStory(2, "alice")
	poll.Type = models.TypePoll
	assert.False(t, CanVote(voter, poll, noPrior(), models.DirDown, "", cfg), "poll 不可踩")
}

func TestCanVoteDownScoreFloor(t *testing.T) {
	cfg := config.Default()
	voter := testVoter("bob")
	voter.Karma = 1000

	c := testStory(1, "alice")
	c.Type = models.TypeComment
	c.Score = -4
	assert.False(t, CanVote(voter, c, noPrior(), models.DirDown, "carol", cfg), "-4 到底")

	c.Score = -3
	assert.True(t, CanVote(voter, c, noPrior(), models.DirDown, "carol", cfg))
}

func TestCanVoteDownSelfReplyBlocked(t *testing.T) {
	cfg := config.Default()
	voter := testVoter("bob")
	voter.Karma = 1000

	c := testStory(1, "alice")
	c.Type = models.TypeComment

	assert.False(t, CanVote(voter, c, noPrior(), models.DirDown, "bob", cfg), "不能踩别人对自己评论的回复")
	assert.True(t, CanVote(voter, c, noPrior(), models.DirDown, "carol", cfg))
}
