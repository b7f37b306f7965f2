package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
	"github.com/magabrotheeeer/bluewave-shop/internal/models"
)

// CreateUser сохраняет пользователя вместе с пустым профилем и возвращает его UID.
// Пустой UUID заменяется новым случайным.
// Занятый email или username возвращается как apperr.ErrAlreadyExists.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	uid := user.UUID
	if uid == "" {
		uid = uuid.NewString()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (uid, email, username, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5)`,
		uid, user.Email, user.Username, user.PasswordHash, user.Role)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, apperr.ErrAlreadyExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO profiles (user_uid) VALUES ($1)`, uid); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

const selectUser = `SELECT uid, email, username, password_hash, role, created_at FROM users`

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx, selectUser+` WHERE lower(email) = lower($1)`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx, selectUser+` WHERE uid = $1`, userUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetProfile возвращает профиль пользователя. Отсутствующий профиль создаётся.
func (s *Storage) GetProfile(ctx context.Context, userUID string) (*models.Profile, error) {
	const op = "storage.GetProfile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var (
		p       models.Profile
		expires sql.NullTime
	)
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO profiles (user_uid) VALUES ($1)
		 ON CONFLICT (user_uid) DO UPDATE SET user_uid = EXCLUDED.user_uid
		 RETURNING user_uid, totp_secret, totp_enabled, api_token, api_token_expires_at, is_researcher`,
		userUID).Scan(&p.UserUID, &p.TOTPSecret, &p.TOTPEnabled, &p.APIToken, &expires, &p.IsResearcher)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.APITokenExpiresAt = timePtr(expires)
	return &p, nil
}

// SetTOTPSecret сохраняет новый секрет TOTP. Второй фактор при этом выключается
// до подтверждения кодом.
func (s *Storage) SetTOTPSecret(ctx context.Context, userUID, secret string) error {
	const op = "storage.SetTOTPSecret"
	return s.execProfile(ctx, op,
		`UPDATE profiles SET totp_secret = $2, totp_enabled = false WHERE user_uid = $1`,
		userUID, secret)
}

// EnableTOTP включает второй фактор.
func (s *Storage) EnableTOTP(ctx context.Context, userUID string) error {
	const op = "storage.EnableTOTP"
	return s.execProfile(ctx, op,
		`UPDATE profiles SET totp_enabled = true WHERE user_uid = $1 AND totp_secret <> ''`,
		userUID)
}

// SaveAPIToken сохраняет токен внешнего API вместе со сроком действия.
func (s *Storage) SaveAPIToken(ctx context.Context, userUID, token string, expiresAt time.Time) error {
	const op = "storage.SaveAPIToken"
	return s.execProfile(ctx, op,
		`UPDATE profiles SET api_token = $2, api_token_expires_at = $3 WHERE user_uid = $1`,
		userUID, token, expiresAt)
}

// SetResearcherFlag обновляет кешированный флаг доступа.
func (s *Storage) SetResearcherFlag(ctx context.Context, userUID string, value bool) error {
	const op = "storage.SetResearcherFlag"
	return s.execProfile(ctx, op,
		`UPDATE profiles SET is_researcher = $2 WHERE user_uid = $1`,
		userUID, value)
}

// ListFlaggedUsers возвращает UID пользователей с выставленным флагом доступа.
func (s *Storage) ListFlaggedUsers(ctx context.Context) ([]string, error) {
	const op = "storage.ListFlaggedUsers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT user_uid FROM profiles WHERE is_researcher`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []string
	for rows.Next() {
		var uid string
		if err = rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, uid)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (s *Storage) execProfile(ctx context.Context, op, query string, args ...any) error {
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}
