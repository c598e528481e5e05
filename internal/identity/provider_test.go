package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/bridgeerrors"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/db"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zitadel/oidc/v2/pkg/client/rp"
	"github.com/zitadel/oidc/v2/pkg/oidc"
	"golang.org/x/oauth2"
)

const testEntryID string = "default"

func newTokenServer(t *testing.T, calls *int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "google-refresh", r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "google-access-2", "token_type": "Bearer", "expires_in": 3600}`))
	}))
}

func newTestProvider(t *testing.T, tokenURL string, store *db.RedisAdapter) *Provider {
	oauthConfig := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://accounts.example.org/auth", TokenURL: tokenURL},
		RedirectURL:  "http://localhost:8080/auth/callback",
		Scopes:       []string{"openid", "email", "profile"},
	}
	client, err := rp.NewRelyingPartyOAuth(oauthConfig)
	require.NoError(t, err)
	provider, err := NewProvider(WithRelyingParty(client), WithTokenStore(store), WithEntryID(testEntryID))
	require.NoError(t, err)
	return provider
}

func TestNewProviderValidation(t *testing.T) {
	_, err := NewProvider(WithEntryID(testEntryID))
	assert.ErrorContains(t, err, "token store")
	_, err = NewProvider(WithTokenStore(db.NewMockRedisAdapter()))
	assert.ErrorContains(t, err, "entry ID")
	_, err = NewProvider(WithTokenStore(db.NewMockRedisAdapter()), WithEntryID(testEntryID))
	assert.ErrorContains(t, err, "not initialized")
}

func TestIdentityTokenMissing(t *testing.T) {
	provider := newTestProvider(t, "http://localhost:1/token", db.NewMockRedisAdapter())
	_, err := provider.IdentityToken(context.Background())
	assert.ErrorIs(t, err, bridgeerrors.ErrIdentityTokenUnavailable)
}

func TestIdentityTokenValid(t *testing.T) {
	ctx := context.Background()
	store := db.NewMockRedisAdapter()
	require.NoError(t, store.SetIdentityToken(ctx, testEntryID, models.IdentityToken{
		AccessToken: "google-access",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))
	provider := newTestProvider(t, "http://localhost:1/token", store)

	token, err := provider.IdentityToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "google-access", token)
}

func TestIdentityTokenExpiredWithoutRefreshToken(t *testing.T) {
	ctx := context.Background()
	store := db.NewMockRedisAdapter()
	require.NoError(t, store.SetIdentityToken(ctx, testEntryID, models.IdentityToken{
		AccessToken: "google-access",
		ExpiresAt:   time.Now().Add(-time.Hour),
	}))
	provider := newTestProvider(t, "http://localhost:1/token", store)

	_, err := provider.IdentityToken(ctx)
	assert.ErrorIs(t, err, bridgeerrors.ErrIdentityRefreshUnavailable)
	assert.NotErrorIs(t, err, bridgeerrors.ErrIdentityTokenUnavailable)
}

func TestIdentityTokenRefresh(t *testing.T) {
	ctx := context.Background()
	calls := 0
	server := newTokenServer(t, &calls)
	defer server.Close()
	store := db.NewMockRedisAdapter()
	require.NoError(t, store.SetIdentityToken(ctx, testEntryID, models.IdentityToken{
		AccessToken:  "google-access",
		RefreshToken: "google-refresh",
		ExpiresAt:    time.Now().Add(-time.Hour),
	}))
	provider := newTestProvider(t, server.URL, store)

	token, err := provider.IdentityToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "google-access-2", token)
	assert.Equal(t, 1, calls)

	entry, err := store.GetEntry(ctx, testEntryID)
	require.NoError(t, err)
	assert.Equal(t, "google-access-2", entry.IdentityAccessToken)
	assert.Equal(t, "google-refresh", entry.IdentityRefreshToken)
	assert.True(t, entry.IdentityExpiresAt.After(time.Now()))

	token, err = provider.IdentityToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "google-access-2", token)
	assert.Equal(t, 1, calls)
}

func TestIdentityTokenRefreshFails(t *testing.T) {
	ctx := context.Background()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_grant"}`))
	}))
	defer server.Close()
	store := db.NewMockRedisAdapter()
	require.NoError(t, store.SetIdentityToken(ctx, testEntryID, models.IdentityToken{
		AccessToken:  "google-access",
		RefreshToken: "google-refresh",
		ExpiresAt:    time.Now().Add(-time.Hour),
	}))
	provider := newTestProvider(t, server.URL, store)

	_, err := provider.IdentityToken(ctx)
	assert.ErrorIs(t, err, bridgeerrors.ErrIdentityTokenUnavailable)
}

func TestLoginRequestsOfflineAccess(t *testing.T) {
	provider := newTestProvider(t, "http://localhost:1/token", db.NewMockRedisAdapter())
	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	rec := httptest.NewRecorder()

	provider.LoginHandler()(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.example.org", location.Host)
	query := location.Query()
	assert.Equal(t, "offline", query.Get("access_type"))
	assert.Equal(t, "consent", query.Get("prompt"))
	assert.Equal(t, "client", query.Get("client_id"))
	assert.NotEmpty(t, query.Get("state"))
}

func TestCodeExchangeCallbackPersistsToken(t *testing.T) {
	store := db.NewMockRedisAdapter()
	loggedIn := false
	provider, err := NewProvider(
		WithOAuth2Config(&oauth2.Config{}),
		WithTokenStore(store),
		WithEntryID(testEntryID),
		WithLoginCallback(func(context.Context) { loggedIn = true }),
	)
	require.NoError(t, err)
	tokens := &oidc.Tokens[*oidc.IDTokenClaims]{
		Token: &oauth2.Token{
			AccessToken:  "google-access",
			RefreshToken: "google-refresh",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(time.Hour),
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=xyz", nil)
	rec := httptest.NewRecorder()

	provider.codeExchangeCallback(rec, req, tokens, "xyz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, loggedIn)
	entry, err := store.GetEntry(context.Background(), testEntryID)
	require.NoError(t, err)
	assert.Equal(t, "google-access", entry.IdentityAccessToken)
	assert.Equal(t, "google-refresh", entry.IdentityRefreshToken)
}

func TestCodeExchangeCallbackWithoutToken(t *testing.T) {
	provider, err := NewProvider(
		WithOAuth2Config(&oauth2.Config{}),
		WithTokenStore(db.NewMockRedisAdapter()),
		WithEntryID(testEntryID),
	)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	provider.codeExchangeCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/callback", nil), nil, "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
