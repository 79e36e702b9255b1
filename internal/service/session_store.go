package service

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"kids_edu_backend/internal/quiz"
	"kids_edu_backend/internal/util"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// StoredSession 会话及其归属信息
type StoredSession struct {
	Session *quiz.Session `json:"session"`
	// OwnerID 为 0 表示游客会话
	OwnerID uint `json:"ownerId"`
	// RowID 对应 quiz_progress 行，尚未写入时为 0
	RowID uint `json:"rowId"`
}

// SessionStore 进行中的测验会话；找不到或已过期返回 util.ErrSessionNotFound
type SessionStore interface {
	Save(ctx context.Context, s *StoredSession) error
	Load(ctx context.Context, id string) (*StoredSession, error)
	Delete(ctx context.Context, id string) error
}

const sessionKeyPrefix = "quiz:session:"

type RedisSessionStore struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{Redis: rdb, TTL: ttl}
}

func (r *RedisSessionStore) Save(ctx context.Context, s *StoredSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.Redis.Set(ctx, sessionKeyPrefix+s.Session.ID, data, r.TTL).Err()
}

func (r *RedisSessionStore) Load(ctx context.Context, id string) (*StoredSession, error) {
	val, err := r.Redis.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var s StoredSession
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return r.Redis.Del(ctx, sessionKeyPrefix+id).Err()
}

// MemorySessionStore 未启用 Redis 时使用，单实例有效
type MemorySessionStore struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	ttl   time.Duration
	now   func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{items: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

// 存序列化后的副本，调用方修改不会影响已保存的状态
func (m *MemorySessionStore) Save(ctx context.Context, s *StoredSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gc()
	m.items[s.Session.ID] = memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemorySessionStore) Load(ctx context.Context, id string) (*StoredSession, error) {
	m.mu.Lock()
	entry, ok := m.items[id]
	if ok && m.now().After(entry.expiresAt) {
		delete(m.items, id)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return nil, util.ErrSessionNotFound
	}
	var s StoredSession
	if err := json.Unmarshal(entry.data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *MemorySessionStore) gc() {
	now := m.now()
	for id, e := range m.items {
		if now.After(e.expiresAt) {
			delete(m.items, id)
		}
	}
}

// sessionLocks 同一会话的操作串行执行
type sessionLocks struct {
	stripes [64]sync.Mutex
}

func (l *sessionLocks) lock(id string) func() {
	h := fnv.New32a()
	h.Write([]byte(id))
	mu := &l.stripes[h.Sum32()%uint32(len(l.stripes))]
	mu.Lock()
	return mu.Unlock
}
