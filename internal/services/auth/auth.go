// Package auth отвечает за регистрацию, вход и второй фактор (TOTP) пользователей магазина.
package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/skip2/go-qrcode"

	"github.com/magabrotheeeer/bluewave-shop/internal/bluewave"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/jwt"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/password"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

// UserRepository описывает хранилище пользователей и профилей.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetProfile(ctx context.Context, userUID string) (*models.Profile, error)
	SetTOTPSecret(ctx context.Context, userUID, secret string) error
	EnableTOTP(ctx context.Context, userUID string) error
}

// IdentityAPI регистрирует пользователя во внешнем API.
type IdentityAPI interface {
	Register(ctx context.Context, r bluewave.Registration) error
}

// LoginResult — итог проверки пароля. При TwoFactorRequired Token промежуточный
// и годится только для /2fa/verify.
type LoginResult struct {
	Token             string `json:"token"`
	Role              string `json:"role"`
	TwoFactorRequired bool   `json:"two_factor_required"`
}

// TOTPSetup — данные для подключения приложения-аутентификатора.
type TOTPSetup struct {
	Secret    string `json:"secret"`
	URL       string `json:"otpauth_url"`
	QRCodePNG string `json:"qr_code_png"`
}

// Service реализует регистрацию и вход.
type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker
	api      IdentityAPI
	issuer   string
	log      *slog.Logger
}

// NewService создаёт Service. issuer показывается в приложении-аутентификаторе.
func NewService(log *slog.Logger, users UserRepository, jwtMaker jwt.Maker, api IdentityAPI, issuer string) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
		api:      api,
		issuer:   issuer,
		log:      log,
	}
}

// Register создаёт пользователя с ролью user и пытается зарегистрировать его во внешнем API.
// Сбой внешней регистрации не мешает созданию учётной записи.
func (s *Service) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	const op = "auth.Register"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	uid, err := s.users.CreateUser(ctx, models.User{
		Email:        strings.TrimSpace(email),
		Username:     strings.TrimSpace(username),
		PasswordHash: hashed,
		Role:         models.RoleUser,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if s.api != nil {
		err := s.api.Register(ctx, bluewave.Registration{Email: email, Password: rawPassword})
		switch {
		case errors.Is(err, bluewave.ErrAdminNotConfigured):
			s.log.Debug("external registration skipped", sl.Op(op))
		case err != nil:
			s.log.Warn("external registration failed", sl.Op(op), slog.String("user_uid", uid), sl.Err(err))
		}
	}
	return uid, nil
}

// Login проверяет пароль. Для пользователя с включённым TOTP возвращает промежуточный токен.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*LoginResult, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	profile, err := s.users.GetProfile(ctx, user.UUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if profile.TOTPEnabled {
		token, err := s.jwtMaker.GeneratePendingToken(user.UUID, user.Username, user.Role)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &LoginResult{Token: token, Role: user.Role, TwoFactorRequired: true}, nil
	}

	token, err := s.jwtMaker.GenerateToken(user.UUID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &LoginResult{Token: token, Role: user.Role}, nil
}

// VerifyTOTP проверяет код второго фактора и выпускает полный токен.
func (s *Service) VerifyTOTP(ctx context.Context, userUID, code string) (string, error) {
	const op = "auth.VerifyTOTP"

	profile, err := s.users.GetProfile(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !profile.TOTPEnabled || profile.TOTPSecret == "" {
		return "", fmt.Errorf("%s: totp is not enabled: %w", op, apperr.ErrConflict)
	}
	if !totp.Validate(code, profile.TOTPSecret) {
		return "", fmt.Errorf("%s: %w", op, apperr.ErrInvalidCredentials)
	}

	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	token, err := s.jwtMaker.GenerateToken(user.UUID, user.Username, user.Role)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// SetupTOTP создаёт секрет при первом вызове и переиспользует сохранённый при повторных,
// возвращая QR-код для него. Пока код не подтверждён, второй фактор выключен.
func (s *Service) SetupTOTP(ctx context.Context, userUID string) (*TOTPSetup, error) {
	const op = "auth.SetupTOTP"

	profile, err := s.users.GetProfile(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if profile.TOTPEnabled {
		return nil, fmt.Errorf("%s: totp already enabled: %w", op, apperr.ErrConflict)
	}
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	key, err := s.totpKey(user.Email, profile.TOTPSecret)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if profile.TOTPSecret == "" {
		if err := s.users.SetTOTPSecret(ctx, userUID, key.Secret()); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &TOTPSetup{
		Secret:    key.Secret(),
		URL:       key.URL(),
		QRCodePNG: base64.StdEncoding.EncodeToString(png),
	}, nil
}

// totpKey генерирует новый ключ или собирает его из уже сохранённого секрета.
func (s *Service) totpKey(account, secret string) (*otp.Key, error) {
	if secret == "" {
		return totp.Generate(totp.GenerateOpts{
			Issuer:      s.issuer,
			AccountName: account,
		})
	}

	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", s.issuer)
	v.Set("period", "30")
	v.Set("algorithm", "SHA1")
	v.Set("digits", "6")
	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + s.issuer + ":" + account,
		RawQuery: v.Encode(),
	}
	return otp.NewKeyFromURL(u.String())
}

// ConfirmTOTP включает второй фактор, если код совпал с сохранённым секретом.
func (s *Service) ConfirmTOTP(ctx context.Context, userUID, code string) error {
	const op = "auth.ConfirmTOTP"

	profile, err := s.users.GetProfile(ctx, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if profile.TOTPSecret == "" {
		return fmt.Errorf("%s: totp setup not started: %w", op, apperr.ErrConflict)
	}
	if !totp.Validate(code, profile.TOTPSecret) {
		return fmt.Errorf("%s: %w", op, apperr.ErrInvalidCredentials)
	}
	if err := s.users.EnableTOTP(ctx, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("two-factor authentication enabled", sl.Op(op), slog.String("user_uid", userUID))
	return nil
}
