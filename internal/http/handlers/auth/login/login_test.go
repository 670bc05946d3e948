package login

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/profile-session/internal/apiclient"
	"github.com/magabrotheeeer/profile-session/internal/http/middlewarectx"
	"github.com/magabrotheeeer/profile-session/internal/lib/sl"
	"github.com/magabrotheeeer/profile-session/internal/models"
	"github.com/magabrotheeeer/profile-session/internal/session"
	"github.com/magabrotheeeer/profile-session/internal/tokenstore"
)

type APIMock struct {
	mock.Mock
}

func (m *APIMock) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *APIMock) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *APIMock) Me(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *APIMock) Profiles(ctx context.Context, token string) ([]models.Profile, error) {
	args := m.Called(ctx, token)
	profiles, _ := args.Get(0).([]models.Profile)
	return profiles, args.Error(1)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name         string
		requestBody  any
		mockToken    string
		mockErr      error
		meErr        error
		callsAPI     bool
		wantCode     int
		wantStatus   string
		wantError    string
		wantLocation string
		wantToken    string
	}{
		{
			name:         "valid login",
			requestBody:  Request{Email: "user@example.com", Password: "secret"},
			mockToken:    "tok",
			callsAPI:     true,
			wantCode:     http.StatusSeeOther,
			wantStatus:   "OK",
			wantLocation: "/select-profile",
			wantToken:    "tok",
		},
		{
			name:        "invalid json body",
			requestBody: "not a json",
			wantCode:    http.StatusBadRequest,
			wantStatus:  "Error",
			wantError:   "invalid request body",
		},
		{
			name:        "validation error - missing password",
			requestBody: Request{Email: "user@example.com"},
			wantCode:    http.StatusUnprocessableEntity,
			wantStatus:  "Error",
			wantError:   "field Password is a required field",
		},
		{
			name:        "validation error - bad email",
			requestBody: Request{Email: "user", Password: "secret"},
			wantCode:    http.StatusUnprocessableEntity,
			wantStatus:  "Error",
			wantError:   "field Email must be a valid email",
		},
		{
			name:        "rejected by backend",
			requestBody: Request{Email: "user@example.com", Password: "wrong"},
			mockErr:     &apiclient.StatusError{Code: http.StatusUnauthorized, Message: "wrong email or password"},
			callsAPI:    true,
			wantCode:    http.StatusUnauthorized,
			wantStatus:  "Error",
			wantError:   "wrong email or password",
		},
		{
			name:        "issued token fails identity check",
			requestBody: Request{Email: "user@example.com", Password: "secret"},
			mockToken:   "tok",
			meErr:       &apiclient.StatusError{Code: http.StatusUnauthorized},
			callsAPI:    true,
			wantCode:    http.StatusUnauthorized,
			wantStatus:  "Error",
			wantError:   "session could not be verified",
		},
		{
			name:        "backend unreachable",
			requestBody: Request{Email: "user@example.com", Password: "secret"},
			mockErr:     errors.New("connection refused"),
			callsAPI:    true,
			wantCode:    http.StatusBadGateway,
			wantStatus:  "Error",
			wantError:   "backend unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(APIMock)
			store := tokenstore.NewMemoryStore()
			sess := session.New(api, store, session.Routes{Login: "/login", SelectProfile: "/select-profile", DashboardHome: "/dashboard"}, sl.Discard())
			_, err := sess.Load(context.Background())
			require.NoError(t, err)

			if tt.callsAPI {
				req := tt.requestBody.(Request)
				api.On("Login", mock.Anything, req.Email, req.Password).Return(tt.mockToken, tt.mockErr).Once()
				switch {
				case tt.meErr != nil:
					api.On("Me", mock.Anything, tt.mockToken).Return(nil, tt.meErr).Once()
				case tt.mockErr == nil:
					api.On("Me", mock.Anything, tt.mockToken).Return(&models.User{ID: 1, Email: req.Email}, nil).Once()
				}
			}

			var body []byte
			switch v := tt.requestBody.(type) {
			case string:
				body = []byte(v)
			default:
				body, err = json.Marshal(v)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			req = req.WithContext(middlewarectx.ContextWithSession(ctx, sess))
			rec := httptest.NewRecorder()

			New(sl.Discard()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got["status"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				assert.Nil(t, got["error"])
			}

			token, err := store.Token(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
			api.AssertExpectations(t)
		})
	}
}

func TestLoginHandler_NoSession(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader([]byte(`{}`)))

	New(sl.Discard()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPage(t *testing.T) {
	rec := httptest.NewRecorder()
	Page(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"page":"login"`)
}
