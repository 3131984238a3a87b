package dashboard

import "github.com/rigsync/rig-follower/pkg/utils/defaults"

type Config struct {
	Disabled  *bool   `toml:"disabled,omitempty"`
	Addr      *string `toml:"addr,omitempty" validate:"omitempty,hostname_port"`
	AssetsDir *string `toml:"assetsDir,omitempty" validate:"omitempty,dir"`
}

func (c *Config) IsDisabled() bool {
	return defaults.Value(c.Disabled, true)
}

func (c *Config) GetAddr() string {
	return defaults.Value(c.Addr, "127.0.0.1:8000")
}
