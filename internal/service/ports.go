package service

import (
	"context"
	"time"

	"warehouse-service/internal/cart"
	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"

	"github.com/google/uuid"
)

// TxRunner: явная граница транзакции. *repository.Repository реализует его через gorm Transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *repository.Repository) error) error
}

// CartStore: корзины сессий (cart.Store).
type CartStore interface {
	Read(ctx context.Context, sessionID string) (*cart.Cart, error)
	Save(ctx context.Context, sessionID string, c *cart.Cart) error
	Clear(ctx context.Context, sessionID string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

type Claims struct {
	UserID    uuid.UUID
	Role      models.Role
	SessionID string
	Exp       time.Time
}

type TokenProvider interface {
	SignAccess(ctx context.Context, sub uuid.UUID, role models.Role, sessionID string, ttl time.Duration) (string, time.Time, error)
	ParseAndValidateAccess(ctx context.Context, token string) (*Claims, error)
}
