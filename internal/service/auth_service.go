package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"warehouse-service/internal/hashing"
	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"

	"github.com/google/uuid"
	"github.com/nanorand/nanorand"
	"go.uber.org/zap"
)

const sessionIDLength = 32

type LoginResult struct {
	User        *models.User
	AccessToken string
	ExpiresAt   time.Time
	SessionID   string
}

type AuthService struct {
	repo   *repository.Repository
	hasher PasswordHasher
	tokens TokenProvider
	carts  CartStore

	accessTTL time.Duration
	now       func() time.Time
	newSID    func() (string, error)

	log *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	hasher PasswordHasher,
	tokens TokenProvider,
	carts CartStore,
	accessTTL time.Duration,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		carts:     carts,
		accessTTL: accessTTL,
		now:       time.Now,
		newSID:    func() (string, error) { return nanorand.Gen(sessionIDLength) },
		log:       log,
	}
}

func validateCredentials(ve *ValidationError, username, email, password string, passwordRequired bool) {
	if l := len(username); l < 3 || l > 64 {
		ve.add("username", "username must be between 3 and 64 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil || len(email) > 120 {
		ve.add("email", "invalid email address")
	}
	if passwordRequired || password != "" {
		if len(password) < hashing.MinPasswordLength {
			ve.add("password", "password must be at least 6 characters")
		}
	}
}

// Register: самостоятельная регистрация, роль всегда InventoryStaff.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)

	ve := &ValidationError{}
	validateCredentials(ve, username, email, password, true)
	if err := ve.orNil(); err != nil {
		return nil, err
	}
	if err := checkUserUnique(ctx, s.repo.Users, username, email, nil); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleInventoryStaff,
		IsActive:     true,
	}
	if err := s.repo.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", u.ID.String()), zap.String("username", u.Username))
	return u, nil
}

func checkUserUnique(ctx context.Context, users repository.UserRepo, username, email string, except *uuid.UUID) error {
	taken, err := users.ExistsByUsername(ctx, username, except)
	if err != nil {
		return err
	}
	if taken {
		return ErrUsernameTaken
	}
	taken, err = users.ExistsByEmail(ctx, email, except)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}

// Login выдаёт access-токен с новым id сессии: у новой сессии пустая корзина.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.repo.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive || !s.hasher.Compare(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	sid, err := s.newSID()
	if err != nil {
		return nil, err
	}
	access, exp, err := s.tokens.SignAccess(ctx, u.ID, u.Role, sid, s.accessTTL)
	if err != nil {
		return nil, err
	}
	s.log.Info("user logged in", zap.String("user_id", u.ID.String()))
	return &LoginResult{User: u, AccessToken: access, ExpiresAt: exp, SessionID: sid}, nil
}

// Logout очищает корзину сессии. Сам токен stateless и доживает до exp.
func (s *AuthService) Logout(ctx context.Context) error {
	if _, _, err := requireAuth(ctx); err != nil {
		return err
	}
	sid, err := requireSession(ctx)
	if err != nil {
		return err
	}
	return s.carts.Clear(ctx, sid)
}

func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	uid, _, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Users.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive {
		return nil, ErrUnauthorized
	}
	return u, nil
}

// Principal перечитывает пользователя по id из токена. Роль и активность берутся из БД,
// поэтому смена роли или деактивация действуют сразу, а не после истечения токена.
func (s *AuthService) Principal(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.repo.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive {
		return nil, ErrUnauthorized
	}
	return u, nil
}
