package service

import (
	"context"
	"strings"
	"time"

	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	UsersPageSize        = 10
	PrimaryAdminUsername = "admin"
)

// UserInput: форма администратора. Пустой Password при обновлении не меняет пароль.
type UserInput struct {
	Username    string
	Email       string
	Password    string
	Role        models.Role
	Name        *string
	ContactInfo *string
	IsActive    bool
}

type UserService interface {
	List(ctx context.Context, page int) (*Page[models.User], error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, in UserInput) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, in UserInput) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	repo         *repository.Repository
	tx           TxRunner
	hasher       PasswordHasher
	primaryAdmin string
	log          *zap.Logger
}

func NewUserService(repo *repository.Repository, tx TxRunner, hasher PasswordHasher, primaryAdmin string, log *zap.Logger) UserService {
	if log == nil {
		log = zap.NewNop()
	}
	if primaryAdmin == "" {
		primaryAdmin = PrimaryAdminUsername
	}
	return &userService{repo: repo, tx: tx, hasher: hasher, primaryAdmin: primaryAdmin, log: log}
}

func (s *userService) List(ctx context.Context, page int) (*Page[models.User], error) {
	if _, _, err := requireCapability(ctx, CapManageUsers); err != nil {
		return nil, err
	}
	page, off := pageOffset(page, UsersPageSize)
	list, total, err := s.repo.Users.List(ctx, UsersPageSize, off)
	if err != nil {
		return nil, err
	}
	return &Page[models.User]{Items: list, Page: page, PageSize: UsersPageSize, Total: total}, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if _, _, err := requireCapability(ctx, CapManageUsers); err != nil {
		return nil, err
	}
	u, err := s.repo.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func normalizeUser(in *UserInput, create bool) error {
	in.Username, in.Email = strings.TrimSpace(in.Username), strings.TrimSpace(in.Email)
	in.Name, in.ContactInfo = trimPtr(in.Name), trimPtr(in.ContactInfo)

	ve := &ValidationError{}
	validateCredentials(ve, in.Username, in.Email, in.Password, create)
	if err := ve.orNil(); err != nil {
		return err
	}
	if !in.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

func (s *userService) Create(ctx context.Context, in UserInput) (*models.User, error) {
	if _, _, err := requireCapability(ctx, CapManageUsers); err != nil {
		return nil, err
	}
	if err := normalizeUser(&in, true); err != nil {
		return nil, err
	}
	if err := checkUserUnique(ctx, s.repo.Users, in.Username, in.Email, nil); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Name:         in.Name,
		ContactInfo:  in.ContactInfo,
		IsActive:     in.IsActive,
	}
	if err := s.repo.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.String("user_id", u.ID.String()), zap.String("role", string(u.Role)))
	return u, nil
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, in UserInput) (*models.User, error) {
	if _, _, err := requireCapability(ctx, CapManageUsers); err != nil {
		return nil, err
	}
	if err := normalizeUser(&in, false); err != nil {
		return nil, err
	}

	cur, err := s.repo.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrUserNotFound
	}
	if err := checkUserUnique(ctx, s.repo.Users, in.Username, in.Email, &id); err != nil {
		return nil, err
	}

	fields := map[string]any{
		"username":     in.Username,
		"email":        in.Email,
		"role":         in.Role,
		"name":         in.Name,
		"contact_info": in.ContactInfo,
		"is_active":    in.IsActive,
		"updated_at":   time.Now(),
	}
	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}
	if err := s.repo.Users.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.repo.Users.GetByID(ctx, id)
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	actor, _, err := requireCapability(ctx, CapManageUsers)
	if err != nil {
		return err
	}
	if actor == id {
		return ErrCannotDeleteSelf
	}

	return s.tx.WithTx(ctx, func(tx *repository.Repository) error {
		u, err := tx.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if u == nil {
			return ErrUserNotFound
		}
		if u.Username == s.primaryAdmin && u.Role == models.RoleAdmin {
			return ErrPrimaryAdmin
		}
		has, err := tx.Orders.ExistsByUser(ctx, id)
		if err != nil {
			return err
		}
		if has {
			return ErrUserHasOrders
		}
		if _, err := tx.Users.Delete(ctx, id); err != nil {
			return err
		}
		s.log.Info("user deleted", zap.String("user_id", id.String()), zap.String("by", actor.String()))
		return nil
	})
}
