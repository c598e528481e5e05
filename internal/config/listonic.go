package config

import (
	"fmt"
	"net/url"
)

const (
	DefaultCulture  string = "it-IT"
	DefaultRegion   string = "it"
	DefaultDeviceID string = "ha-addon"
)

// ListonicConfig holds the per-connection options sent along with every listonic request.
type ListonicConfig struct {
	BaseURL  *url.URL
	Culture  string
	Region   string
	DeviceID string
}

func (c ListonicConfig) CultureOrDefault() string {
	if c.Culture == "" {
		return DefaultCulture
	}
	return c.Culture
}

func (c ListonicConfig) RegionOrDefault() string {
	if c.Region == "" {
		return DefaultRegion
	}
	return c.Region
}

func (c ListonicConfig) DeviceIDOrDefault() string {
	if c.DeviceID == "" {
		return DefaultDeviceID
	}
	return c.DeviceID
}

func (c *ListonicConfig) Validate() error {
	if c.BaseURL == nil {
		return fmt.Errorf("the listonic config is missing the base url of the listonic API")
	}
	if c.BaseURL.Scheme != "http" && c.BaseURL.Scheme != "https" {
		return fmt.Errorf("the listonic base url has an unsupported scheme %q", c.BaseURL.Scheme)
	}
	return nil
}
