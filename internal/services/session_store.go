package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"alfredoptarigan/career-copilot/internal/config"
	"alfredoptarigan/career-copilot/internal/models"
)

const DefaultSessionTTL = 2 * time.Hour

// maxUpdateAttempts bounds optimistic retries when another writer touches the same session.
const maxUpdateAttempts = 5

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionConflict = errors.New("session was modified concurrently")
)

// SessionStore keeps wizard sessions for a bounded time.
//
// Update applies fn to the current stored session and writes the result back atomically, so two
// requests that change different fields never overwrite each other. It refreshes the expiry.
// fn may run more than once and must only change the fields it owns.
type SessionStore interface {
	Create(ctx context.Context) (*models.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Update(ctx context.Context, id uuid.UUID, fn func(*models.Session) error) (*models.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NewSessionStore uses Redis when REDIS_URL is set and memory otherwise.
func NewSessionStore(ctx context.Context, cfg config.SessionConfig, logger *logrus.Logger) (SessionStore, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	if cfg.RedisURL == "" {
		logger.WithField("ttl", ttl).Info("🗂️ Using in-memory session store")
		return NewMemorySessionStore(ttl), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.WithFields(logrus.Fields{"addr": opts.Addr, "ttl": ttl}).Info("🗂️ Using redis session store")
	return NewRedisSessionStore(client, ttl), nil
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in process. Entries are stored as JSON so callers never
// share mutable state with the store.
type MemorySessionStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		entries: make(map[uuid.UUID]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemorySessionStore) Create(ctx context.Context) (*models.Session, error) {
	now := m.now()
	session := &models.Session{
		ID:        uuid.New(),
		CreatedAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked(now)
	if err := m.putLocked(session, now); err != nil {
		return nil, err
	}
	return session, nil
}

func (m *MemorySessionStore) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, id)
		return nil, ErrSessionNotFound
	}

	var session models.Session
	if err := json.Unmarshal(entry.data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

func (m *MemorySessionStore) Update(ctx context.Context, id uuid.UUID, fn func(*models.Session) error) (*models.Session, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok || !now.Before(entry.expiresAt) {
		delete(m.entries, id)
		return nil, ErrSessionNotFound
	}

	var session models.Session
	if err := json.Unmarshal(entry.data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if err := fn(&session); err != nil {
		return nil, err
	}
	session.ID = id
	if err := m.putLocked(&session, now); err != nil {
		return nil, err
	}
	return &session, nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *MemorySessionStore) putLocked(session *models.Session, now time.Time) error {
	session.ExpiresAt = now.Add(m.ttl)
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	m.entries[session.ID] = memoryEntry{data: data, expiresAt: session.ExpiresAt}
	return nil
}

func (m *MemorySessionStore) sweepLocked(now time.Time) {
	for id, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, id)
		}
	}
}

// RedisSessionStore stores each session as a JSON value with a key TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (r *RedisSessionStore) Create(ctx context.Context) (*models.Session, error) {
	session := &models.Session{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
	}
	if err := r.put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *RedisSessionStore) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// Update runs fn inside WATCH/MULTI so a concurrent write to the same key aborts and retries.
func (r *RedisSessionStore) Update(ctx context.Context, id uuid.UUID, fn func(*models.Session) error) (*models.Session, error) {
	key := sessionKey(id)
	var updated *models.Session

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		var session models.Session
		if err := json.Unmarshal(data, &session); err != nil {
			return fmt.Errorf("failed to decode session: %w", err)
		}
		if err := fn(&session); err != nil {
			return err
		}
		session.ID = id
		session.ExpiresAt = time.Now().Add(r.ttl)
		encoded, err := json.Marshal(&session)
		if err != nil {
			return fmt.Errorf("failed to encode session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, r.ttl)
			return nil
		})
		if err == nil {
			updated = &session
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrSessionConflict
}

func (r *RedisSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Close() error {
	return r.client.Close()
}

func (r *RedisSessionStore) put(ctx context.Context, session *models.Session) error {
	session.ExpiresAt = time.Now().Add(r.ttl)
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(session.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func sessionKey(id uuid.UUID) string {
	return "career-copilot:session:" + id.String()
}
