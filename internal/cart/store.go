package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNoSession = errors.New("cart: empty session id")

// KV: минимальный контракт сессионного хранилища.
type KV interface {
	// Get возвращает found=false, если ключа нет (или он истёк).
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Store struct {
	kv  KV
	ttl time.Duration
}

func NewStore(kv KV, ttl time.Duration) *Store {
	return &Store{kv: kv, ttl: ttl}
}

func key(sessionID string) string { return "cart:" + sessionID }

// Read возвращает корзину сессии; отсутствующая корзина пустая, это не ошибка.
func (s *Store) Read(ctx context.Context, sessionID string) (*Cart, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	raw, found, err := s.kv.Get(ctx, key(sessionID))
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if !found || len(raw) == 0 {
		return New(), nil
	}
	c := New()
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if c.Lines == nil {
		c.Lines = map[uuid.UUID]Line{}
	}
	return c, nil
}

// Save перезаписывает корзину; пустая корзина удаляет ключ.
func (s *Store) Save(ctx context.Context, sessionID string, c *Cart) error {
	if sessionID == "" {
		return ErrNoSession
	}
	if c.IsEmpty() {
		return s.Clear(ctx, sessionID)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, key(sessionID), raw, s.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}
	if err := s.kv.Delete(ctx, key(sessionID)); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
