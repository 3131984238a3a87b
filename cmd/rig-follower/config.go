package main

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/rigsync/rig-follower/pkg/api"
	"github.com/rigsync/rig-follower/pkg/dashboard"
	"github.com/rigsync/rig-follower/pkg/follower"
	"github.com/rigsync/rig-follower/pkg/rig"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Broker    rig.Config       `toml:"broker"`
	Follower  follower.Config  `toml:"follower"`
	API       api.Config       `toml:"api"`
	Dashboard dashboard.Config `toml:"dashboard"`
}

// NewConfig loads the config file at path. An empty path gives the defaults.
func NewConfig(path string) (*Config, error) {
	var config Config
	if path != "" {
		if _, err := toml.DecodeFile(path, &config); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config.Follower.GetPrimaryRig() == config.Follower.GetSecondaryRig() {
		return nil, fmt.Errorf("invalid config: primary and secondary are both rig %d", config.Follower.GetPrimaryRig())
	}

	return &config, nil
}
