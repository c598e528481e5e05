package models

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// IdentityToken is the persisted form of the identity provider (Google) oauth2 token.
type IdentityToken struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
}

func NewIdentityToken(token *oauth2.Token) IdentityToken {
	if token == nil {
		return IdentityToken{}
	}
	return IdentityToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresAt:    token.Expiry,
	}
}

// OAuth2 converts the identity token back to an oauth2 token, nil when no access token is stored.
func (t IdentityToken) OAuth2() *oauth2.Token {
	if t.AccessToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.ExpiresAt,
	}
}

// ConnectionEntry is the durable per-connection configuration of the bridge.
type ConnectionEntry struct {
	ID                   string
	RefreshToken         string
	IdentityAccessToken  string
	IdentityRefreshToken string
	IdentityTokenType    string
	IdentityExpiresAt    time.Time
	UpdatedAt            time.Time
}

func (e ConnectionEntry) IdentityToken() IdentityToken {
	return IdentityToken{
		AccessToken:  e.IdentityAccessToken,
		RefreshToken: e.IdentityRefreshToken,
		TokenType:    e.IdentityTokenType,
		ExpiresAt:    e.IdentityExpiresAt,
	}
}

func (e ConnectionEntry) WithIdentityToken(token IdentityToken) ConnectionEntry {
	output := e
	output.IdentityAccessToken = token.AccessToken
	output.IdentityRefreshToken = token.RefreshToken
	output.IdentityTokenType = token.TokenType
	output.IdentityExpiresAt = token.ExpiresAt
	return output
}

// String immplements the Stringer interface for printing the entry in logs
func (e ConnectionEntry) String() string {
	return fmt.Sprintf(
		"ConnectionEntry<ID: %s, RefreshToken: %s, IdentityToken: %s, IdentityExpiresAt: %s, UpdatedAt: %s>",
		e.ID,
		redacted(e.RefreshToken),
		redacted(e.IdentityAccessToken),
		e.IdentityExpiresAt,
		e.UpdatedAt,
	)
}

func redacted(value string) string {
	if value == "" {
		return "none"
	}
	return "redacted"
}
