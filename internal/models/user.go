// Package models содержит доменные структуры магазина: пользователей, каталог,
// заказы, подписки и сообщения уведомлений.
package models

import "time"

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User — учётная запись покупателя или сотрудника.
type User struct {
	UUID         string    `json:"uid"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin сообщает, может ли пользователь согласовывать заказы и управлять подписками.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Profile — расширение пользователя: второй фактор и токен внешнего API.
//
// IsResearcher — кешированный флаг доступа для отображения. Решения о доступе
// по нему не принимаются, источник правды — подписки.
type Profile struct {
	UserUID           string     `json:"user_uid"`
	TOTPSecret        string     `json:"-"`
	TOTPEnabled       bool       `json:"totp_enabled"`
	APIToken          string     `json:"-"`
	APITokenExpiresAt *time.Time `json:"api_token_expires_at,omitempty"`
	IsResearcher      bool       `json:"is_researcher"`
}

// HasValidAPIToken сообщает, есть ли у профиля непросроченный токен внешнего API.
func (p *Profile) HasValidAPIToken(now time.Time) bool {
	if p == nil || p.APIToken == "" || p.APITokenExpiresAt == nil {
		return false
	}
	return p.APITokenExpiresAt.After(now)
}
