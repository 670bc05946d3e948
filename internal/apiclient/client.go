// Package apiclient реализует HTTP-клиент бэкенда: логин, текущий пользователь,
// список профилей и статус подписки. Клиент не хранит токен: вызывающий код
// передаёт его явно, а общие заголовки добавляются через перехватчики запросов.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/magabrotheeeer/profile-session/internal/models"
)

const (
	pathLogin        = "/auth/login"
	pathLogout       = "/auth/logout"
	pathMe           = "/users/me"
	pathProfiles     = "/profiles"
	pathSubscription = "/users/me/subscription/status"
)

// Interceptor вызывается для каждого исходящего запроса перед отправкой.
type Interceptor func(req *http.Request) error

// Client клиент REST API бэкенда.
type Client struct {
	apiURL       string
	httpClient   *http.Client
	interceptors []Interceptor
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithInterceptor добавляет перехватчик запросов.
func WithInterceptor(i Interceptor) Option {
	return func(c *Client) {
		if i != nil {
			c.interceptors = append(c.interceptors, i)
		}
	}
}

// NewClient создаёт клиент для бэкенда по адресу apiURL.
func NewClient(apiURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Use добавляет перехватчик уже созданному клиенту.
func (c *Client) Use(i Interceptor) {
	if i != nil {
		c.interceptors = append(c.interceptors, i)
	}
}

// LoginRequest тело POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse ответ POST /auth/login.
type LoginResponse struct {
	Token string `json:"token"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Login отправляет учётные данные и возвращает токен.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	const op = "apiclient.Login"
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, pathLogin, "", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%s: empty token in response", op)
	}
	return resp.Token, nil
}

// Logout сообщает бэкенду о выходе. Ответ не важен.
func (c *Client) Logout(ctx context.Context, token string) error {
	const op = "apiclient.Logout"
	if err := c.do(ctx, http.MethodPost, pathLogout, token, nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Me возвращает пользователя, которому принадлежит токен.
func (c *Client) Me(ctx context.Context, token string) (*models.User, error) {
	const op = "apiclient.Me"
	var user models.User
	if err := c.do(ctx, http.MethodGet, pathMe, token, nil, &user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// Profiles возвращает полный список профилей пользователя.
func (c *Client) Profiles(ctx context.Context, token string) ([]models.Profile, error) {
	const op = "apiclient.Profiles"
	var profiles []models.Profile
	if err := c.do(ctx, http.MethodGet, pathProfiles, token, nil, &profiles); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return profiles, nil
}

// SubscriptionStatus возвращает статус подписки текущего пользователя.
func (c *Client) SubscriptionStatus(ctx context.Context, token string) (models.SubscriptionStatus, error) {
	const op = "apiclient.SubscriptionStatus"
	var sub models.Subscription
	if err := c.do(ctx, http.MethodGet, pathSubscription, token, nil, &sub); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return sub.Status, nil
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, intercept := range c.interceptors {
		if err := intercept(req); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil {
		if eb.Message != "" {
			return eb.Message
		}
		if eb.Error != "" {
			return eb.Error
		}
	}
	return strings.TrimSpace(string(data))
}
