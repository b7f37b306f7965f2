// Package jwt выпускает и проверяет сессионные JWT магазина.
//
// Токен бывает двух видов: полный (StageFull) и промежуточный (StagePending2FA),
// который выдаётся после пароля, пока пользователь не ввёл код TOTP.
package jwt

import (
	"time"
)

// Maker описывает выпуск и разбор сессионных токенов.
type Maker interface {
	GenerateToken(userID, username, role string) (string, error)
	GeneratePendingToken(userID, username, role string) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl подписывает токены HMAC-ключом.
type MakerImpl struct {
	secretKey  string
	tokenTTL   time.Duration
	pendingTTL time.Duration
}

// DefaultPendingTTL — сколько живёт промежуточный токен второго фактора.
const DefaultPendingTTL = 5 * time.Minute

// NewJWTMaker создаёт MakerImpl с заданным ключом и временем жизни полного токена.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey:  secretKey,
		tokenTTL:   ttl,
		pendingTTL: DefaultPendingTTL,
	}
}
