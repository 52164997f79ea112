package token

import (
	"context"
	"errors"
	"time"

	"warehouse-service/internal/models"
	"warehouse-service/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// HSProvider подписывает access-токены HS256. Refresh-токенов нет: сессия живёт, пока жив access.
type HSProvider struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

func NewHSProvider(secret, issuer, audience string) *HSProvider {
	return &HSProvider{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
}

type customClaims struct {
	Role string `json:"role"`
	SID  string `json:"sid"` // id сессии, к нему привязана корзина
	jwt.RegisteredClaims
}

func (p *HSProvider) SignAccess(ctx context.Context, sub uuid.UUID, role models.Role, sessionID string, ttl time.Duration) (string, time.Time, error) {
	now := p.now()
	exp := now.Add(ttl)

	claims := customClaims{
		Role: string(role),
		SID:  sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   sub.String(),
			Audience:  []string{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(p.secret)
	return signed, exp, err
}

func (p *HSProvider) ParseAndValidateAccess(ctx context.Context, token string) (*service.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &customClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	},
		jwt.WithAudience(p.audience),
		jwt.WithIssuer(p.issuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, err
	}
	cc, ok := parsed.Claims.(*customClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	uid, err := uuid.Parse(cc.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	role := models.Role(cc.Role)
	if !role.Valid() || cc.SID == "" {
		return nil, ErrInvalidToken
	}
	return &service.Claims{UserID: uid, Role: role, SessionID: cc.SID, Exp: cc.ExpiresAt.Time}, nil
}
