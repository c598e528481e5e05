// Package identity handles the upstream identity provider (Google) token used to open listonic sessions.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/config"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/zitadel/oidc/v2/pkg/client/rp"
	httphelper "github.com/zitadel/oidc/v2/pkg/http"
	"github.com/zitadel/oidc/v2/pkg/oidc"
	"golang.org/x/oauth2"
)

type tokenStore interface {
	models.EntryGetter
	models.IdentityTokenSetter
}

// Provider runs the authorization code flow against the identity provider and hands out
// valid identity access tokens, refreshing them when they are expired.
type Provider struct {
	client      rp.RelyingParty
	oauthConfig *oauth2.Config
	entryID     string
	store       tokenStore
	onLogin     func(ctx context.Context)
	lock        sync.Mutex
}

type ProviderOption func(*Provider) error

func WithIdentityConfig(identityConfig config.IdentityConfig) ProviderOption {
	return func(p *Provider) error {
		options := []rp.Option{}
		if !identityConfig.UnsafeNoCookieHandler {
			cookieEncKey := []byte(identityConfig.CookieEncodingKey)
			cookieHashKey := []byte(identityConfig.CookieHashKey)
			if len(cookieEncKey) == 0 {
				cookieEncKey = nil
			}
			cookieHandler := httphelper.NewCookieHandler(cookieHashKey, cookieEncKey)
			options = append(options, rp.WithCookieHandler(cookieHandler), rp.WithPKCE(cookieHandler))
		}
		client, err := rp.NewRelyingPartyOIDC(
			identityConfig.Issuer,
			identityConfig.ClientID,
			string(identityConfig.ClientSecret),
			identityConfig.CallbackURI,
			identityConfig.Scopes,
			options...,
		)
		if err != nil {
			return err
		}
		p.client = client
		return nil
	}
}

// WithRelyingParty sets an already initialized relying party, mostly used in tests.
func WithRelyingParty(client rp.RelyingParty) ProviderOption {
	return func(p *Provider) error {
		p.client = client
		return nil
	}
}

// WithOAuth2Config overrides the oauth2 config used to refresh identity tokens.
func WithOAuth2Config(oauthConfig *oauth2.Config) ProviderOption {
	return func(p *Provider) error {
		p.oauthConfig = oauthConfig
		return nil
	}
}

func WithTokenStore(store tokenStore) ProviderOption {
	return func(p *Provider) error {
		p.store = store
		return nil
	}
}

func WithEntryID(entryID string) ProviderOption {
	return func(p *Provider) error {
		p.entryID = entryID
		return nil
	}
}

// WithLoginCallback registers a function that runs after a successful login.
func WithLoginCallback(onLogin func(ctx context.Context)) ProviderOption {
	return func(p *Provider) error {
		p.onLogin = onLogin
		return nil
	}
}

func NewProvider(options ...ProviderOption) (*Provider, error) {
	p := Provider{}
	for _, opt := range options {
		err := opt(&p)
		if err != nil {
			return &Provider{}, err
		}
	}
	if p.store == nil {
		return &Provider{}, fmt.Errorf("token store not initialized")
	}
	if p.entryID == "" {
		return &Provider{}, fmt.Errorf("connection entry ID not provided")
	}
	if p.oauthConfig == nil && p.client != nil {
		p.oauthConfig = p.client.OAuthConfig()
	}
	if p.oauthConfig == nil {
		return &Provider{}, fmt.Errorf("identity provider client not initialized")
	}
	return &p, nil
}

// LoginHandler redirects to the identity provider authorization page. Offline access and the
// consent prompt are always requested so that the provider issues a refresh token.
func (p *Provider) LoginHandler() http.HandlerFunc {
	stateFunc := func() string {
		state, err := models.ULIDGenerator{}.ID()
		if err != nil {
			slog.Error("IDENTITY", "message", "generating login state failed", "error", err)
		}
		return state
	}
	return rp.AuthURLHandler(
		stateFunc,
		p.client,
		rp.WithURLParam("access_type", "offline"),
		rp.WithPromptURLParam("consent"),
	)
}

// CallbackHandler swaps the authorization code for tokens and persists them in the connection entry.
func (p *Provider) CallbackHandler() http.HandlerFunc {
	return rp.CodeExchangeHandler(p.codeExchangeCallback, p.client)
}

func (p *Provider) codeExchangeCallback(
	w http.ResponseWriter,
	r *http.Request,
	tokens *oidc.Tokens[*oidc.IDTokenClaims],
	state string,
	client rp.RelyingParty,
) {
	if tokens == nil || tokens.Token == nil {
		http.Error(w, "the identity provider did not return a token", http.StatusBadGateway)
		return
	}
	err := p.store.SetIdentityToken(r.Context(), p.entryID, models.NewIdentityToken(tokens.Token))
	if err != nil {
		slog.Error(
			"IDENTITY",
			"message",
			"saving identity token failed",
			"error",
			err,
			"requestID",
			r.Header.Get("X-Request-ID"),
		)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info(
		"IDENTITY",
		"message",
		"login completed",
		"hasRefreshToken",
		tokens.RefreshToken != "",
		"requestID",
		r.Header.Get("X-Request-ID"),
	)
	if p.onLogin != nil {
		p.onLogin(r.Context())
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("login successful, the listonic bridge is now connected"))
}

func (p *Provider) RegisterHandlers(group *echo.Group) {
	group.GET("/login", echo.WrapHandler(p.LoginHandler()))
	group.GET("/callback", echo.WrapHandler(p.CallbackHandler()))
}
