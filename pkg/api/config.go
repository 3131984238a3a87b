package api

import "github.com/rigsync/rig-follower/pkg/utils/defaults"

type Config struct {
	Disabled *bool    `toml:"disabled,omitempty"`
	Addr     *string  `toml:"addr,omitempty" validate:"omitempty,hostname_port"`
	AuthKeys []string `toml:"authKeys,omitempty" validate:"omitempty,dive,min=16"`
}

// IsDisabled reports whether the server stays off. It is off unless enabled
// explicitly.
func (c *Config) IsDisabled() bool {
	return defaults.Value(c.Disabled, true)
}

func (c *Config) GetAddr() string {
	return defaults.Value(c.Addr, "127.0.0.1:8002")
}
