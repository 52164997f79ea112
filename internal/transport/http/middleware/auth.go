package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"warehouse-service/internal/models"
	"warehouse-service/internal/service"
	"warehouse-service/internal/transport/http/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ключи gin-контекста
const (
	CtxUserID    = "user_id"
	CtxUserRole  = "user_role"
	CtxSessionID = "session_id"
)

// UserLoader отдаёт актуального пользователя по id из токена
// или service.ErrUnauthorized, если его нет или он деактивирован.
type UserLoader interface {
	Principal(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// AuthRequired проверяет Bearer токен, перечитывает пользователя и кладёт его в контекст запроса,
// откуда его берут сервисы (service.WithPrincipal). Роль берётся из БД, не из claims.
func AuthRequired(tokens service.TokenProvider, users UserLoader, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("missing Authorization header"))
			return
		}
		token, ok := ExtractBearerToken(authz)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("invalid Authorization header"))
			return
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("empty token"))
			return
		}

		claims, err := tokens.ParseAndValidateAccess(c.Request.Context(), token)
		if err != nil {
			log.Warn("token validation failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("invalid token"))
			return
		}

		u, err := users.Principal(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				log.Warn("token of missing or inactive user", zap.String("user_id", claims.UserID.String()))
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("user is inactive or does not exist"))
				return
			}
			log.Error("failed to load user", zap.String("user_id", claims.UserID.String()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewInternalError())
			return
		}

		c.Set(CtxUserID, u.ID.String())
		c.Set(CtxUserRole, string(u.Role))
		c.Set(CtxSessionID, claims.SessionID)
		c.Request = c.Request.WithContext(
			service.WithPrincipal(c.Request.Context(), u.ID, u.Role, claims.SessionID),
		)
		c.Next()
	}
}

// ExtractBearerToken извлекает токен из заголовка Authorization, устойчиво к лишним символам
// Примеры допустимых значений:
// - "Bearer abc.def.ghi"
// - "Bearer \"abc.def.ghi\""
// - "Bearer abc.def.ghi, extra"
func ExtractBearerToken(authz string) (string, bool) {
	if authz == "" {
		return "", false
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	t := strings.Trim(strings.TrimSpace(parts[1]), " \"'")
	// всё после запятой отбрасываем
	if i := strings.IndexRune(t, ','); i >= 0 {
		t = strings.Trim(strings.TrimSpace(t[:i]), " \"'")
	}
	if i := strings.IndexByte(t, ' '); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return strings.Trim(t, " \"'"), true
}
