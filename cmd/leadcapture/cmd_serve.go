package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/osr-alliance/backend-lead-capture/api"
	"github.com/osr-alliance/backend-lead-capture/auth"
	"github.com/osr-alliance/backend-lead-capture/config"
	"github.com/osr-alliance/backend-lead-capture/gateway"
	"github.com/osr-alliance/backend-lead-capture/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the http api",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	if cfg.InsecurePassword() {
		logrus.Warn("ADMIN_PASSWORD is not set; using the insecure default password")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := openStore(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer c.Close()

	// the db may have changed while we were down
	if err := c.store.ClearCache(ctx); err != nil {
		logrus.WithError(err).Warn("could not clear the lead list cache")
	}

	srv := newServer(cfg, c.store)

	logrus.WithFields(logrus.Fields{
		"addr":          srv.Addr,
		"db_driver":     cfg.Database.Driver,
		"cache":         c.redis != nil,
		"require_token": cfg.Admin.RequireToken,
	}).Info("listening")

	return serve(ctx, srv)
}

// newServer wires the api on top of st
func newServer(cfg *config.Config, st store.Store) *http.Server {
	gate := auth.NewGate(auth.Config{
		Password: cfg.Admin.Password,
		TokenTTL: cfg.Admin.TokenTTL,
	})

	router := mux.NewRouter()
	api.New(&api.Config{
		Gateway:      gateway.New(st),
		Leads:        st,
		Gate:         gate,
		RequireToken: cfg.Admin.RequireToken,
	}).Register(router)

	return &http.Server{
		Handler: router,
		Addr:    cfg.Addr(),
		// enforce timeouts for servers you create
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
}

// serve runs srv until ctx is done, then shuts it down gracefully
func serve(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logrus.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
