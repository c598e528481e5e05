// Package session obtains and renews the listonic service access token.
//
// Two login paths exist. The refresh token path (A) exchanges the persisted listonic refresh token
// and does not involve the identity provider. The identity path (B) exchanges a Google access token.
// Path A is always tried first when a refresh token is known and its failures are never returned,
// only path B failures reach the caller as not ready errors.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/config"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/metrics"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

const (
	// ClientAuthorization is the fixed, non secret client identifier of the listonic mobile app.
	ClientAuthorization string = "Basic bGlzdG9uaWNhbmRyb2lkOmkxZldYd3dYTzZVSVdlemNaeWt4"
	AppVersion          string = "a:8.34.1"
)

// IdentityTokenSource provides a non-expired identity provider access token.
type IdentityTokenSource interface {
	IdentityToken(ctx context.Context) (string, error)
}

type Manager struct {
	baseURL    *url.URL
	culture    string
	region     string
	deviceID   string
	identity   IdentityTokenSource
	store      models.RefreshTokenSetter
	entryID    string
	httpClient *http.Client
	metrics    *metrics.PrometheusMetricsClient

	lock         sync.Mutex
	accessToken  string
	refreshToken string
	// persistedRefreshToken is the last value written successfully to the store
	persistedRefreshToken string
}

type ManagerOption func(*Manager) error

func WithListonicConfig(listonicConfig config.ListonicConfig) ManagerOption {
	return func(m *Manager) error {
		if listonicConfig.BaseURL == nil {
			return fmt.Errorf("the listonic base url is not set")
		}
		m.baseURL = listonicConfig.BaseURL
		m.culture = listonicConfig.CultureOrDefault()
		m.region = listonicConfig.RegionOrDefault()
		m.deviceID = listonicConfig.DeviceIDOrDefault()
		return nil
	}
}

func WithIdentityTokenSource(identity IdentityTokenSource) ManagerOption {
	return func(m *Manager) error {
		m.identity = identity
		return nil
	}
}

// WithRefreshTokenStore sets where a changed listonic refresh token is persisted.
func WithRefreshTokenStore(store models.RefreshTokenSetter, entryID string) ManagerOption {
	return func(m *Manager) error {
		m.store = store
		m.entryID = entryID
		return nil
	}
}

// WithStoredRefreshToken loads the refresh token read from the connection entry at startup.
func WithStoredRefreshToken(refreshToken string) ManagerOption {
	return func(m *Manager) error {
		m.refreshToken = refreshToken
		m.persistedRefreshToken = refreshToken
		return nil
	}
}

func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *Manager) error {
		m.httpClient = client
		return nil
	}
}

func WithMetrics(client *metrics.PrometheusMetricsClient) ManagerOption {
	return func(m *Manager) error {
		m.metrics = client
		return nil
	}
}

func NewManager(options ...ManagerOption) (*Manager, error) {
	m := Manager{}
	for _, opt := range options {
		err := opt(&m)
		if err != nil {
			return &Manager{}, err
		}
	}
	if m.baseURL == nil {
		return &Manager{}, fmt.Errorf("the listonic config is not provided")
	}
	if m.identity == nil {
		return &Manager{}, fmt.Errorf("the identity token source is not initialized")
	}
	if m.store == nil {
		return &Manager{}, fmt.Errorf("the refresh token store is not initialized")
	}
	if m.httpClient == nil {
		m.httpClient = &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	}
	return &m, nil
}

// EnsureValidToken makes sure that an access token is cached. A cached token is trusted as is,
// its expiry is not checked locally.
func (m *Manager) EnsureValidToken(ctx context.Context) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.ensureValidToken(ctx)
}

// ensureValidToken must be called with the lock held.
func (m *Manager) ensureValidToken(ctx context.Context) error {
	if m.accessToken != "" {
		return nil
	}
	if m.refreshToken != "" {
		ok := m.refreshTokenLogin(ctx)
		if ok {
			return nil
		}
	}
	return m.identityLogin(ctx)
}

// Headers returns the headers required by every listonic API call, acquiring a token first if needed.
func (m *Manager) Headers(ctx context.Context) (http.Header, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	err := m.ensureValidToken(ctx)
	if err != nil {
		return http.Header{}, err
	}
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+m.accessToken)
	headers.Set("Culture", m.culture)
	headers.Set("RegionCode", m.region)
	headers.Set("ClientAuthorization", ClientAuthorization)
	headers.Set("Content-Type", "application/json")
	headers.Set("DeviceId", m.deviceID)
	headers.Set("Version", AppVersion)
	return headers, nil
}

// Clear drops the cached access token, the refresh token is kept.
func (m *Manager) Clear() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.accessToken = ""
}

// Invalidate drops the cached access token only if it is still the given one.
func (m *Manager) Invalidate(accessToken string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if accessToken != "" && m.accessToken == accessToken {
		slog.Info("SESSION", "message", "access token rejected by listonic, it will be renewed on the next call")
		m.accessToken = ""
	}
}

func (m *Manager) HasToken() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.accessToken != ""
}

func (m *Manager) HasRefreshToken() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.refreshToken != ""
}

// TokenExpiry reads the exp claim of the cached access token without verifying it.
// It is informational only, listonic tokens are not guaranteed to be JWTs.
func (m *Manager) TokenExpiry() (time.Time, bool) {
	m.lock.Lock()
	token := m.accessToken
	m.lock.Unlock()
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// storeRefreshToken persists the refresh token returned by listonic only if it is different
// from the last persisted one. A failed write is retried on the next exchange.
// Must be called with the lock held.
func (m *Manager) storeRefreshToken(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	m.refreshToken = refreshToken
	if refreshToken == m.persistedRefreshToken {
		return
	}
	err := m.store.SetRefreshToken(ctx, m.entryID, refreshToken)
	if err != nil {
		slog.Error("SESSION", "message", "persisting the listonic refresh token failed", "error", err)
		return
	}
	m.persistedRefreshToken = refreshToken
}
