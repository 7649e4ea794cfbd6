package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemCloneIndependence(t *testing.T) {
	now := time.Now()
	parent := int64(1)
	it := &Item{
		ID: 2, Type: TypeComment, By: "alice", CreatedAt: now,
		Score:    3,
		Votes:    []VoteRecord{{UserID: "bob", Dir: DirUp, Score: 3}},
		Flags:    []string{"carol"},
		Keys:     []string{KeyNokill},
		ParentID: &parent,
		Kids:     []int64{5},
	}

	cp := it.Clone()
	require.Equal(t, it, cp)

	// 改原件不影响拷贝
	it.Score = 9
	it.Votes = append(it.Votes, VoteRecord{UserID: "dave"})
	it.Kids = append(it.Kids, 6)
	*it.ParentID = 7

	assert.Equal(t, 3, cp.Score)
	assert.Len(t, cp.Votes, 1)
	assert.Equal(t, []int64{5}, cp.Kids)
	assert.Equal(t, int64(1), *cp.ParentID)
}

func TestProfileCloneIndependence(t *testing.T) {
	now := time.Now()
	p := NewProfile("alice", now)
	p.Votes = []LedgerEntry{{ItemID: 1, By: "bob", Dir: DirUp}}
	first := now
	p.FirstVisit = &first

	cp := p.Clone()

	p.Karma = 50
	p.Votes = append(p.Votes, LedgerEntry{ItemID: 2})
	*p.FirstVisit = now.Add(time.Hour)

	assert.Equal(t, 1, cp.Karma)
	assert.Len(t, cp.Votes, 1)
	assert.True(t, cp.FirstVisit.Equal(now))
}
