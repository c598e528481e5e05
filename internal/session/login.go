package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/bridgeerrors"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/metrics"
)

const (
	loginPath          string = "/api/loginextended"
	refreshTokenPath   string = "refresh_token"
	identityTokenPath  string = "google"
	maxErrorBodyLength int    = 512
)

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type loginError struct {
	status int
	body   string
}

func (e *loginError) Error() string {
	return fmt.Sprintf("listonic login returned %d: %s", e.status, e.body)
}

// refreshTokenLogin is path A. It returns false on any failure so that path B can take over.
// Must be called with the lock held.
func (m *Manager) refreshTokenLogin(ctx context.Context) bool {
	res, err := m.login(ctx, "provider=refresh_token", "refresh_token="+m.refreshToken)
	if err == nil && res.AccessToken == "" {
		err = fmt.Errorf("the listonic response does not contain an access token")
	}
	if err != nil {
		slog.Warn(
			"SESSION",
			"message",
			"refresh token login failed, falling back to the identity token",
			"error",
			err,
		)
		m.metrics.TokenExchange(refreshTokenPath, metrics.ResultFailure)
		return false
	}
	m.accessToken = res.AccessToken
	m.storeRefreshToken(ctx, res.RefreshToken)
	m.metrics.TokenExchange(refreshTokenPath, metrics.ResultSuccess)
	slog.Debug("SESSION", "message", "logged in with the listonic refresh token")
	return true
}

// identityLogin is path B. Must be called with the lock held.
func (m *Manager) identityLogin(ctx context.Context) error {
	identityToken, err := m.identity.IdentityToken(ctx)
	if err != nil {
		m.metrics.TokenExchange(identityTokenPath, metrics.ResultFailure)
		if errors.Is(err, bridgeerrors.ErrIdentityRefreshUnavailable) {
			return bridgeerrors.NotReady("the identity token cannot be refreshed", err)
		}
		return bridgeerrors.NotReady("the identity token is not available", err)
	}
	res, err := m.login(ctx, "automerge=1&autodestruct=1&provider=google", "token="+identityToken)
	if err != nil {
		m.metrics.TokenExchange(identityTokenPath, metrics.ResultFailure)
		var loginErr *loginError
		if errors.As(err, &loginErr) {
			return &bridgeerrors.NotReadyError{
				Reason: "listonic login failed",
				Status: loginErr.status,
				Body:   loginErr.body,
			}
		}
		return bridgeerrors.NotReady("listonic login failed", err)
	}
	if res.AccessToken == "" {
		m.metrics.TokenExchange(identityTokenPath, metrics.ResultFailure)
		return bridgeerrors.NotReady("the listonic login response does not contain an access token", nil)
	}
	m.accessToken = res.AccessToken
	m.storeRefreshToken(ctx, res.RefreshToken)
	m.metrics.TokenExchange(identityTokenPath, metrics.ResultSuccess)
	slog.Info("SESSION", "message", "logged in with the identity token")
	return nil
}

func (m *Manager) login(ctx context.Context, query string, body string) (loginResponse, error) {
	loginURL := m.baseURL.JoinPath(loginPath)
	loginURL.RawQuery = query
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL.String(), strings.NewReader(body))
	if err != nil {
		return loginResponse{}, err
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("ClientAuthorization", ClientAuthorization)
	req.Header.Set("Culture", m.culture)
	req.Header.Set("RegionCode", m.region)

	res, err := m.httpClient.Do(req)
	if err != nil {
		return loginResponse{}, err
	}
	defer res.Body.Close()
	rawBody, err := io.ReadAll(res.Body)
	if err != nil {
		return loginResponse{}, err
	}
	if res.StatusCode != http.StatusOK {
		return loginResponse{}, &loginError{status: res.StatusCode, body: truncate(string(rawBody))}
	}
	output := loginResponse{}
	err = json.Unmarshal(rawBody, &output)
	if err != nil {
		return loginResponse{}, fmt.Errorf("cannot parse the listonic login response: %w", err)
	}
	return output, nil
}

func truncate(body string) string {
	if len(body) > maxErrorBodyLength {
		return body[:maxErrorBodyLength]
	}
	return body
}
