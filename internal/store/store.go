package store

import (
	"errors"
	"sync"
	"time"

	"songlin/internal/models"
)

var (
	ErrItemNotFound    = errors.New("item not found")
	ErrProfileNotFound = errors.New("profile not found")
)

// Persister 是持久化协作方：每次内存变更成功后追加写出。
// 写失败向上传播，调用方必须按"状态不确定"处理，不做静默重试。
type Persister interface {
	SaveItem(item *models.Item) error
	SaveProfile(p *models.Profile) error
	SaveUserVotes(userID string, votes map[int64]models.UserVote) error
}

// NopPersister 测试用的空实现
type NopPersister struct{}

func (NopPersister) SaveItem(*models.Item) error       { return nil }
func (NopPersister) SaveProfile(*models.Profile) error { return nil }
func (NopPersister) SaveUserVotes(string, map[int64]models.UserVote) error {
	return nil
}

// Store 持有进程内的条目/用户/投票表。内存是系统的权威状态，
// 变更通过 Persister 写穿到磁盘。写路径由上层串行化，
// 这里的锁只保护并发读与单写者之间的 map 访问。
type Store struct {
	mu        sync.RWMutex
	items     map[int64]*models.Item
	profiles  map[string]*models.Profile
	userVotes map[string]map[int64]models.UserVote
	maxID     int64

	persist Persister
}

func New(p Persister) *Store {
	if p == nil {
		p = NopPersister{}
	}
	return &Store{
		items:     make(map[int64]*models.Item),
		profiles:  make(map[string]*models.Profile),
		userVotes: make(map[string]map[int64]models.UserVote),
		persist:   p,
	}
}

// Item 按 id 查条目
func (s *Store) Item(id int64) (*models.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	return it, ok
}

// Profile 按用户名查用户
func (s *Store) Profile(id string) (*models.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	return p, ok
}

// UserVotes 返回用户的投票表（item id -> 方向/时间）。
// 返回的是内部 map，调用方只能在串行化的写路径里修改它。
func (s *Store) UserVotes(userID string) map[int64]models.UserVote {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.userVotes[userID]
	if !ok {
		m = make(map[int64]models.UserVote)
		s.userVotes[userID] = m
	}
	return m
}

// CreateItem 分配自增 id 并登记条目（不负责初始自投，那是服务层的事）
func (s *Store) CreateItem(it *models.Item) *models.Item {
	s.mu.Lock()
	s.maxID++
	it.ID = s.maxID
	s.items[it.ID] = it
	s.mu.Unlock()
	return it
}

// PutProfile 登记用户
func (s *Store) PutProfile(p *models.Profile) {
	s.mu.Lock()
	s.profiles[p.ID] = p
	s.mu.Unlock()
}

// AddKid 把 child 挂到 parent 的 kids 末尾（保持发现顺序）
func (s *Store) AddKid(parentID, childID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.items[parentID]; ok {
		p.Kids = append(p.Kids, childID)
	}
}

// Items 返回满足过滤条件的条目快照（乱序，调用方自行排序）
func (s *Store) Items(keep func(*models.Item) bool) []*models.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Item
	for _, it := range s.items {
		if keep == nil || keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// Load 用于启动时从持久层回灌内存状态
func (s *Store) Load(items []*models.Item, profiles []*models.Profile, votes map[string]map[int64]models.UserVote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		s.items[it.ID] = it
		if it.ID > s.maxID {
			s.maxID = it.ID
		}
	}
	for _, p := range profiles {
		s.profiles[p.ID] = p
	}
	for uid, m := range votes {
		s.userVotes[uid] = m
	}
}

// SaveItem / SaveProfile / SaveUserVotes 把变更写穿到持久层
func (s *Store) SaveItem(it *models.Item) error { return s.persist.SaveItem(it) }

func (s *Store) SaveProfile(p *models.Profile) error { return s.persist.SaveProfile(p) }

func (s *Store) SaveUserVotes(userID string) error {
	s.mu.RLock()
	m := s.userVotes[userID]
	s.mu.RUnlock()
	return s.persist.SaveUserVotes(userID, m)
}

// EnsureProfile 惰性创建用户（首次访问路径）
func (s *Store) EnsureProfile(id string, now time.Time) (*models.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[id]; ok {
		return p, false
	}
	p := models.NewProfile(id, now)
	s.profiles[id] = p
	return p, true
}
