package db

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"songlin/internal/models"
)

// 行模型：每条聚合整体序列化为 JSON 列。条目/用户只会原地更新，
// 不会被物理删除，所以 upsert 即追加写。

type ItemRow struct {
	ID        int64       `gorm:"primaryKey"`
	Data      models.Item `gorm:"serializer:json"`
	UpdatedAt time.Time
}

type ProfileRow struct {
	ID        string         `gorm:"primaryKey;size:64"`
	Data      models.Profile `gorm:"serializer:json"`
	UpdatedAt time.Time
}

type UserVotesRow struct {
	UserID    string                    `gorm:"primaryKey;size:64"`
	Votes     map[int64]models.UserVote `gorm:"serializer:json"`
	UpdatedAt time.Time
}

// GormPersister 把内存变更写穿到数据库，实现 store.Persister
type GormPersister struct {
	db *gorm.DB
}

func NewPersister(gdb *gorm.DB) *GormPersister {
	return &GormPersister{db: gdb}
}

func (g *GormPersister) SaveItem(item *models.Item) error {
	row := ItemRow{ID: item.ID, Data: *item}
	return g.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (g *GormPersister) SaveProfile(p *models.Profile) error {
	row := ProfileRow{ID: p.ID, Data: *p}
	return g.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (g *GormPersister) SaveUserVotes(userID string, votes map[int64]models.UserVote) error {
	row := UserVotesRow{UserID: userID, Votes: votes}
	return g.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// LoadAll 启动时回灌全部状态
func (g *GormPersister) LoadAll() ([]*models.Item, []*models.Profile, map[string]map[int64]models.UserVote, error) {
	var itemRows []ItemRow
	if err := g.db.Find(&itemRows).Error; err != nil {
		return nil, nil, nil, err
	}
	items := make([]*models.Item, 0, len(itemRows))
	for i := range itemRows {
		it := itemRows[i].Data
		items = append(items, &it)
	}

	var profileRows []ProfileRow
	if err := g.db.Find(&profileRows).Error; err != nil {
		return nil, nil, nil, err
	}
	profiles := make([]*models.Profile, 0, len(profileRows))
	for i := range profileRows {
		p := profileRows[i].Data
		profiles = append(profiles, &p)
	}

	var voteRows []UserVotesRow
	if err := g.db.Find(&voteRows).Error; err != nil {
		return nil, nil, nil, err
	}
	votes := make(map[string]map[int64]models.UserVote, len(voteRows))
	for _, r := range voteRows {
		votes[r.UserID] = r.Votes
	}
	return items, profiles, votes, nil
}
