package service

import (
	"context"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxUserIDKey    ctxKey = "userID"
	ctxRoleKey      ctxKey = "role"
	ctxSessionIDKey ctxKey = "sessionID"
)

func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, id)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ctxUserIDKey).(uuid.UUID)
	return v, ok
}

func WithRole(ctx context.Context, r models.Role) context.Context {
	return context.WithValue(ctx, ctxRoleKey, r)
}

func RoleFromContext(ctx context.Context) (models.Role, bool) {
	v, ok := ctx.Value(ctxRoleKey).(models.Role)
	return v, ok
}

// WithSessionID: id сессии, к которой привязана корзина.
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, ctxSessionIDKey, sid)
}

func SessionIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxSessionIDKey).(string)
	return v, ok && v != ""
}

// WithPrincipal: всё сразу, так делает auth middleware.
func WithPrincipal(ctx context.Context, userID uuid.UUID, role models.Role, sessionID string) context.Context {
	return WithSessionID(WithRole(WithUserID(ctx, userID), role), sessionID)
}

func requireAuth(ctx context.Context) (uuid.UUID, models.Role, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok || uid == uuid.Nil {
		return uuid.Nil, "", ErrUnauthorized
	}
	role, ok := RoleFromContext(ctx)
	if !ok {
		return uuid.Nil, "", ErrUnauthorized
	}
	return uid, role, nil
}

// requireCapability: requireAuth + проверка прав роли.
func requireCapability(ctx context.Context, caps ...Capability) (uuid.UUID, models.Role, error) {
	uid, role, err := requireAuth(ctx)
	if err != nil {
		return uuid.Nil, "", err
	}
	if !Can(role, caps...) {
		return uuid.Nil, "", ErrForbidden
	}
	return uid, role, nil
}

func requireSession(ctx context.Context) (string, error) {
	sid, ok := SessionIDFromContext(ctx)
	if !ok {
		return "", ErrNoSession
	}
	return sid, nil
}
