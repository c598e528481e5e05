package config

import "fmt"

type SyncConfig struct {
	IntervalSeconds int
}

func (c *SyncConfig) Validate() error {
	if c.IntervalSeconds <= 0 {
		return fmt.Errorf("sync interval seconds (%d) needs to be greater than 0", c.IntervalSeconds)
	}
	return nil
}

// ConnectionConfig identifies the persisted connection entry holding the tokens of this bridge.
type ConnectionConfig struct {
	EntryID string
}

func (c *ConnectionConfig) Validate() error {
	if c.EntryID == "" {
		return fmt.Errorf("the connection config is missing the entry ID")
	}
	return nil
}
