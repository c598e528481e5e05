package config

type Config struct {
	RunningEnvironment RunningEnvironment
	Server             ServerConfig
	Listonic           ListonicConfig
	Identity           IdentityConfig
	Sync               SyncConfig
	Connection         ConnectionConfig
	Redis              RedisConfig
	Monitoring         MonitoringConfig
}

func (c *Config) Validate() error {
	err := c.Listonic.Validate()
	if err != nil {
		return err
	}
	err = c.Identity.Validate(c.RunningEnvironment)
	if err != nil {
		return err
	}
	err = c.Sync.Validate()
	if err != nil {
		return err
	}
	err = c.Connection.Validate()
	if err != nil {
		return err
	}
	err = c.Redis.Validate(c.RunningEnvironment)
	if err != nil {
		return err
	}
	return nil
}
