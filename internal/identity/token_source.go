package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/bridgeerrors"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/models"
)

// IdentityToken returns a non-expired identity access token, refreshing and persisting it when needed.
func (p *Provider) IdentityToken(ctx context.Context) (string, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	entry, err := p.store.GetEntry(ctx, p.entryID)
	if err != nil {
		if errors.Is(err, bridgeerrors.ErrEntryNotFound) {
			return "", bridgeerrors.ErrIdentityTokenUnavailable
		}
		return "", err
	}
	token := entry.IdentityToken().OAuth2()
	if token == nil {
		return "", bridgeerrors.ErrIdentityTokenUnavailable
	}
	if token.Valid() {
		return token.AccessToken, nil
	}
	if token.RefreshToken == "" {
		return "", bridgeerrors.ErrIdentityRefreshUnavailable
	}

	slog.Debug("IDENTITY", "message", "refreshing identity token", "expiredAt", token.Expiry)
	newToken, err := p.oauthConfig.TokenSource(ctx, token).Token()
	if err != nil {
		return "", fmt.Errorf("%w: %s", bridgeerrors.ErrIdentityTokenUnavailable, err.Error())
	}
	err = p.store.SetIdentityToken(ctx, p.entryID, models.NewIdentityToken(newToken))
	if err != nil {
		return "", err
	}
	return newToken.AccessToken, nil
}
