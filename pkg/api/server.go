package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rigsync/rig-follower/pkg/follower"
	"github.com/rigsync/rig-follower/pkg/utils/channels"
	"github.com/rigsync/rig-follower/pkg/utils/httputil"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type FollowerState interface {
	State() *channels.Broadcaster[*follower.State]
}

type Server struct {
	logger   *zap.Logger
	enabled  bool
	server   *http.Server
	follower FollowerState
}

func NewServer(logger *zap.Logger, config *Config, follower FollowerState, gatherer prometheus.Gatherer) *Server {
	if config.IsDisabled() {
		return &Server{enabled: false}
	}

	logger = logger.Named("api")

	r := mux.NewRouter()
	server := &Server{
		logger:  logger,
		enabled: true,
		server: &http.Server{
			Addr:         config.GetAddr(),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			Handler:      r,
			ErrorLog:     zap.NewStdLog(logger),
		},
		follower: follower,
	}

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(logger.Named("prom")),
	}))

	apiR := mux.NewRouter()
	r.PathPrefix("/api/v1/").Handler(httputil.UseKeyAuth(config.AuthKeys, apiR))

	apiR.HandleFunc("/api/v1/state", server.apiState).Methods("GET")

	return server
}

func (s *Server) Start(ctx context.Context, g *errgroup.Group) error {
	if !s.enabled {
		return nil
	}

	g.Go(func() error {
		go func() {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			s.server.Shutdown(shutdownCtx)
		}()

		s.logger.Info("starting server", zap.String("addr", s.server.Addr))
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api: failed to run server: %w", err)
		}
		return nil
	})
	return nil
}
