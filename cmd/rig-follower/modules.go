package main

import (
	"context"
	"os"

	"github.com/rigsync/rig-follower/pkg/api"
	"github.com/rigsync/rig-follower/pkg/cmd"
	"github.com/rigsync/rig-follower/pkg/dashboard"
	"github.com/rigsync/rig-follower/pkg/follower"
	"github.com/rigsync/rig-follower/pkg/rig"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func initModules(logger *zap.Logger, config *Config) ([]cmd.Module, error) {
	registry := prometheus.NewPedanticRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())

	open := func(ctx context.Context) (rig.Broker, error) {
		return rig.Open(ctx, logger, &config.Broker)
	}

	var modules []cmd.Module

	sync := follower.NewSynchronizer(logger, &config.Follower, open, os.Stdout, registry, follower.RealClock{})
	modules = append(modules, sync)

	dashboard := dashboard.NewServer(logger, &config.Dashboard, sync)
	modules = append(modules, dashboard)

	api := api.NewServer(logger, &config.API, sync, registry)
	modules = append(modules, api)

	return modules, nil
}
