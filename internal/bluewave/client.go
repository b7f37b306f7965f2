// Package bluewave — клиент внешнего API данных BlueWave: вход, регистрация
// исследователей и чтение наблюдений.
package bluewave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/magabrotheeeer/bluewave-shop/internal/config"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/apperr"
)

// ErrAdminNotConfigured возвращается, если для регистрации не заданы учётные данные администратора.
var ErrAdminNotConfigured = errors.New("admin credentials are not configured")

const maxErrorBody = 512

// APIError — ответ API с кодом ошибки. Message пригоден для показа пользователю.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap относит любую ошибку ответа API к временным сбоям внешнего сервиса.
func (e *APIError) Unwrap() error {
	return apperr.ErrUpstream
}

// Registration — данные нового пользователя внешнего API.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
	Tier     string `json:"tier,omitempty"`
	BuoyID   string `json:"buoy_id,omitempty"`
	DeviceID string `json:"deviceId,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
}

// Client обращается к API BlueWave.
type Client struct {
	cfg        config.BlueWaveAPI
	httpClient *http.Client
}

// NewClient создаёт клиента по настройкам.
func NewClient(cfg config.BlueWaveAPI) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL возвращает адрес API для страницы доступа.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.cfg.BaseURL, "/")
}

// DocsURL возвращает адрес документации API. По умолчанию это /docs на базовом адресе.
func (c *Client) DocsURL() string {
	if c.cfg.DocsURL != "" {
		return c.cfg.DocsURL
	}
	return c.BaseURL() + "/docs"
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL()+path, &buf)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read body: %v", apperr.ErrUpstream, err)
	}
	return resp.StatusCode, data, nil
}

// Login обменивает email и пароль на токен. Отказ в аутентификации возвращается
// как apperr.ErrInvalidCredentials, остальные сбои как apperr.ErrUpstream.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	const op = "bluewave.Login"

	req, err := c.newRequest(ctx, http.MethodPost, c.cfg.LoginEndpoint, "", loginRequest{Email: email, Password: password})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	status, body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if status == http.StatusUnauthorized || (status >= 400 && status < 500 && strings.Contains(string(body), "Invalid credentials")) {
		return "", fmt.Errorf("%s: %w", op, apperr.ErrInvalidCredentials)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%s: %w: status %d: %s", op, apperr.ErrUpstream, status, trimBody(body))
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return "", fmt.Errorf("%s: %w: decode: %v", op, apperr.ErrUpstream, err)
	}
	token := lr.AccessToken
	if token == "" {
		token = lr.Token
	}
	if token == "" {
		return "", fmt.Errorf("%s: %w: token missing in response", op, apperr.ErrUpstream)
	}
	return token, nil
}

// AdminConfigured сообщает, заданы ли учётные данные администратора.
func (c *Client) AdminConfigured() bool {
	return c.cfg.AdminEmail != "" && c.cfg.AdminPassword != ""
}

// Register регистрирует пользователя от имени администратора.
// Ответ «уже существует» считается успехом.
func (c *Client) Register(ctx context.Context, r Registration) error {
	const op = "bluewave.Register"
	if !c.AdminConfigured() {
		return fmt.Errorf("%s: %w", op, ErrAdminNotConfigured)
	}

	adminToken, err := c.Login(ctx, c.cfg.AdminEmail, c.cfg.AdminPassword)
	if errors.Is(err, apperr.ErrInvalidCredentials) {
		return fmt.Errorf("%s: admin login rejected: %w", op, apperr.ErrUpstream)
	}
	if err != nil {
		return fmt.Errorf("%s: admin login: %w", op, err)
	}

	if r.Role == "" {
		r.Role = c.cfg.DefaultRole
	}
	if r.Tier == "" {
		r.Tier = c.cfg.DefaultTier
	}
	if r.BuoyID == "" {
		r.BuoyID = c.cfg.DefaultBuoyID
	}
	if r.DeviceID == "" {
		r.DeviceID = r.BuoyID
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.cfg.RegisterEndpoint, adminToken, r)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	status, body, err := c.do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		return nil
	case (status == http.StatusBadRequest || status == http.StatusConflict) &&
		strings.Contains(strings.ToLower(string(body)), "exists"):
		return nil
	default:
		return fmt.Errorf("%s: %w: status %d: %s", op, apperr.ErrUpstream, status, trimBody(body))
	}
}

// Observations возвращает тело ответа API наблюдений без изменений.
func (c *Client) Observations(ctx context.Context, token string, start, end string) ([]byte, error) {
	const op = "bluewave.Observations"

	q := url.Values{}
	q.Set("start", start)
	q.Set("end", end)
	req, err := c.newRequest(ctx, http.MethodGet, c.cfg.MetricsEndpoint+"?"+q.Encode(), token, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	status, body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch status {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("%s: %w", op, &APIError{
			StatusCode: status,
			Message:    "API error 401: Unauthorized (token missing/expired/invalid)",
		})
	default:
		return nil, fmt.Errorf("%s: %w", op, &APIError{
			StatusCode: status,
			Message:    fmt.Sprintf("API error %d: %s", status, trimBody(body)),
		})
	}
}

func trimBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return s
}
