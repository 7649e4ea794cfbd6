package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songlin/internal/models"
)

func TestCreateItemAssignsIDs(t *testing.T) {
	s := New(nil)

	a := s.CreateItem(&models.Item{Type: models.TypeStory, By: "alice"})
	b := s.CreateItem(&models.Item{Type: models.TypeComment, By: "bob"})

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	got, ok := s.Item(1)
	require.True(t, ok)
	assert.Equal(t, "alice", got.By)

	_, ok = s.Item(99)
	assert.False(t, ok)
}

func TestLoadResumesIDSequence(t *testing.T) {
	s := New(nil)
	s.Load([]*models.Item{
		{ID: 7, Type: models.TypeStory, By: "alice"},
		{ID: 3, Type: models.TypeStory, By: "bob"},
	}, nil, nil)

	next := s.CreateItem(&models.Item{Type: models.TypeStory, By: "carol"})
	assert.Equal(t, int64(8), next.ID, "回灌后自增序列从最大 id 续起")
}

func TestAddKidPreservesOrder(t *testing.T) {
	s := New(nil)
	parent := s.CreateItem(&models.Item{Type: models.TypeStory, By: "alice"})

	s.AddKid(parent.ID, 10)
	s.AddKid(parent.ID, 11)
	s.AddKid(999, 12) // 不存在的父条目：静默忽略

	got, _ := s.Item(parent.ID)
	assert.Equal(t, []int64{10, 11}, got.Kids)
}

func TestUserVotesLazyInit(t *testing.T) {
	s := New(nil)

	m := s.UserVotes("alice")
	require.NotNil(t, m)
	m[1] = models.UserVote{Dir: models.DirUp, Time: time.Now()}

	// 同一用户拿到同一张表
	again := s.UserVotes("alice")
	_, ok := again[1]
	assert.True(t, ok)
}

func TestItemsSnapshotFilter(t *testing.T) {
	s := New(nil)
	s.CreateItem(&models.Item{Type: models.TypeStory, By: "alice"})
	dead := s.CreateItem(&models.Item{Type: models.TypeStory, By: "bob"})
	dead.Dead = true
	s.CreateItem(&models.Item{Type: models.TypeComment, By: "carol"})

	live := s.Items(func(it *models.Item) bool { return !it.Dead && it.Type == models.TypeStory })
	require.Len(t, live, 1)
	assert.Equal(t, "alice", live[0].By)

	all := s.Items(nil)
	assert.Len(t, all, 3)
}

func TestEnsureProfile(t *testing.T) {
	s := New(nil)
	now := time.Now()

	p, created := s.EnsureProfile("alice", now)
	require.True(t, created)
	assert.Equal(t, 1, p.Karma)
	assert.Equal(t, 0.5, p.Weight)

	again, created := s.EnsureProfile("alice", now.Add(time.Hour))
	assert.False(t, created)
	assert.Same(t, p, again)
}

// 写穿失败必须向上冒泡，不允许吞掉
func TestSaveErrorsPropagate(t *testing.T) {
	boom := errors.New("disk full")
	s := New(failingPersister{err: boom})

	it := s.CreateItem(&models.Item{Type: models.TypeStory, By: "alice"})
	assert.ErrorIs(t, s.SaveItem(it), boom)
	assert.ErrorIs(t, s.SaveProfile(models.NewProfile("alice", time.Now())), boom)
	assert.ErrorIs(t, s.SaveUserVotes("alice"), boom)
}

type failingPersister struct{ err error }

func (f failingPersister) SaveItem(*models.Item) error       { return f.err }
func (f failingPersister) SaveProfile(*models.Profile) error { return f.err }
func (f failingPersister) SaveUserVotes(string, map[int64]models.UserVote) error {
	return f.err
}
