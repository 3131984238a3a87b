package follower

import (
	"time"

	"github.com/rigsync/rig-follower/pkg/utils/defaults"
	"github.com/rigsync/rig-follower/pkg/utils/tomltypes"
)

type Config struct {
	PrimaryRig   *int                `toml:"primaryRig,omitempty" validate:"omitempty,min=1"`
	SecondaryRig *int                `toml:"secondaryRig,omitempty" validate:"omitempty,min=1"`
	SyncInterval *tomltypes.Duration `toml:"syncInterval,omitempty"`
	SettleDelay  *tomltypes.Duration `toml:"settleDelay,omitempty"`
}

func (c *Config) GetPrimaryRig() int {
	return defaults.Value(c.PrimaryRig, 1)
}

func (c *Config) GetSecondaryRig() int {
	return defaults.Value(c.SecondaryRig, 2)
}

func (c *Config) GetSyncInterval() time.Duration {
	return defaults.Value(c.SyncInterval.Value(), 100*time.Millisecond)
}

// GetSettleDelay is the pause after acquiring the broker, giving it time to
// reach its rigs before the first read.
func (c *Config) GetSettleDelay() time.Duration {
	return defaults.Value(c.SettleDelay.Value(), 500*time.Millisecond)
}
