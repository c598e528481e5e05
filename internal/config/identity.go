package config

import (
	"fmt"
	"log/slog"
)

// IdentityConfig configures the upstream OAuth2 identity provider (Google) used to obtain
// the identity token that is exchanged for a listonic session.
type IdentityConfig struct {
	Issuer              string
	ClientID            string
	ClientSecret        RedactedString
	Scopes              []string
	CallbackURI         string
	LoginRoutesBasePath string
	CookieEncodingKey   RedactedString
	CookieHashKey       RedactedString
	// NOTE: UnsafeNoCookieHandler should only be used for testing, in production this has to be false/unset
	// without this there is no CSRF protection on the oauth callback endpoint
	UnsafeNoCookieHandler bool
}

func (c *IdentityConfig) Validate(e RunningEnvironment) error {
	slog.Info("identity configuration info", "config", c)
	if c.Issuer == "" {
		return fmt.Errorf("the identity config is missing the issuer")
	}
	if c.ClientID == "" {
		return fmt.Errorf("the identity config is missing the client ID")
	}
	cookieEncKey := []byte(c.CookieEncodingKey)
	if len(cookieEncKey) > 0 && !(len(cookieEncKey) == 16 || len(cookieEncKey) == 32) {
		return fmt.Errorf(
			"invalid length for oauth2 state cookie encryption key, got %d, but allowed sizes are 16 or 32",
			len(cookieEncKey),
		)
	}
	cookieHashKey := []byte(c.CookieHashKey)
	if len(cookieHashKey) > 0 && len(cookieHashKey) != 32 {
		return fmt.Errorf("invalid length for oauth2 state cookie hash key, got %d, allowed size is 32", len(cookieHashKey))
	}
	if e != Development && c.UnsafeNoCookieHandler {
		return fmt.Errorf("the identity provider cannot be configured without a cookie handler in production")
	}
	return nil
}
