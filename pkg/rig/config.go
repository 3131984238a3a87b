package rig

import (
	"context"
	"fmt"
	"time"

	"github.com/rigsync/rig-follower/pkg/utils/defaults"
	"github.com/rigsync/rig-follower/pkg/utils/tomltypes"

	"go.uber.org/zap"
)

type Type string

const (
	TypeOmniRig  Type = "OmniRig"
	TypeRigctld  Type = "Rigctld"
	TypeInMemory Type = "InMemory"
)

type Config struct {
	Type     Type           `toml:"type,omitempty" validate:"omitempty,oneof=OmniRig Rigctld InMemory"`
	ProgID   *string        `toml:"progID,omitempty" validate:"omitempty,min=1"`
	Rigctld  RigctldConfig  `toml:"rigctld,omitempty"`
	InMemory InMemoryConfig `toml:"inMemory,omitempty"`
}

type RigctldConfig struct {
	Addrs   []string            `toml:"addrs,omitempty" validate:"omitempty,dive,hostname_port"`
	Timeout *tomltypes.Duration `toml:"timeout,omitempty"`
	RPS     *float64            `toml:"rps,omitempty" validate:"omitempty,gt=0"`
}

type InMemoryConfig struct {
	Frequencies []int64 `toml:"frequencies,omitempty" validate:"omitempty,dive,gte=0"`
}

func (c *Config) GetType() Type {
	if c.Type == "" {
		return TypeOmniRig
	}
	return c.Type
}

func (c *Config) GetProgID() string {
	return defaults.Value(c.ProgID, "OmniRig.OmniRigX")
}

func (c *RigctldConfig) GetAddrs() []string {
	if len(c.Addrs) == 0 {
		return []string{"127.0.0.1:4532", "127.0.0.1:4534"}
	}
	return c.Addrs
}

func (c *RigctldConfig) GetTimeout() time.Duration {
	return defaults.Value(c.Timeout.Value(), 2*time.Second)
}

// Open acquires the broker selected by config. It does not retry.
func Open(ctx context.Context, logger *zap.Logger, config *Config) (Broker, error) {
	switch config.GetType() {
	case TypeOmniRig:
		return OpenOmniRig(logger, config.GetProgID())

	case TypeRigctld:
		return DialRigctld(ctx, logger, &config.Rigctld)

	case TypeInMemory:
		return NewInMemoryBroker(config.InMemory.Frequencies...), nil
	}
	return nil, fmt.Errorf("invalid rig broker type: %s", config.Type)
}
