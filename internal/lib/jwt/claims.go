package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Стадии сессионного токена.
const (
	StageFull       = "full"
	StagePending2FA = "pending_2fa"
)

// ErrNoExpiry — в токене нет claim exp.
var ErrNoExpiry = errors.New("token has no exp claim")

// CustomClaims — данные пользователя внутри сессионного токена.
type CustomClaims struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Stage    string `json:"stage"`
	jwt.RegisteredClaims
}

// GenerateToken выпускает полный токен.
func (j *MakerImpl) GenerateToken(userID, username, role string) (string, error) {
	return j.sign(userID, username, role, StageFull, j.tokenTTL)
}

// GeneratePendingToken выпускает короткий токен, годный только для проверки кода TOTP.
func (j *MakerImpl) GeneratePendingToken(userID, username, role string) (string, error) {
	return j.sign(userID, username, role, StagePending2FA, j.pendingTTL)
}

func (j *MakerImpl) sign(userID, username, role, stage string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		Stage:    stage,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken проверяет подпись и срок действия, возвращает claims.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}

// UnverifiedExpiry читает exp из чужого токена без проверки подписи.
// Используется только для того, чтобы знать, когда токен внешнего API пора обновить.
func UnverifiedExpiry(tokenStr string) (time.Time, error) {
	const op = "jwt.UnverifiedExpiry"
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, ErrNoExpiry)
	}
	return exp.Time, nil
}
