package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joenivl/top2000/internal/server"
	"github.com/joenivl/top2000/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Run starts the polling loop and, with --serve or a configured server
// port, the HTTP API alongside it. Blocks until interrupted.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(cmd.String("config"))
	if err != nil {
		return err
	}
	defer db.Close()

	p := r.buildPipeline(db)

	count, err := p.songs.Count()
	if err != nil {
		return fmt.Errorf("failed to inspect catalog: %w", err)
	}
	if count == 0 {
		r.logger.Warn("catalog is empty, run 'top2000 import' first")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	var httpServer *http.Server
	if cmd.Bool("serve") || r.config.Server.Port > 0 {
		httpServer = r.apiServer(p.coordinator)
		go func() {
			r.logger.Info("starting HTTP API", "addr", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErrors <- err
			}
		}()
	}

	poller := tasks.NewPoller(p.coordinator, r.config.Polling.IntervalSeconds, r.logger)

	pollErrors := make(chan error, 1)
	go func() {
		pollErrors <- poller.Run(ctx)
	}()

	select {
	case err = <-pollErrors:
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	case err = <-serverErrors:
		err = fmt.Errorf("server error: %w", err)
		stop()
		<-pollErrors
	}

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			r.logger.Warn("error shutting down server", "error", shutdownErr)
		}
	}

	return err
}

func (r *Runner) apiServer(playback server.NowPlaying) *http.Server {
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(server.NewAPIHandler(playback, r.config.Polling.UpcomingCount, r.logger))

	port := r.config.Server.Port
	if port == 0 {
		port = 8080
	}

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", r.config.Server.Host, port),
		Handler: router,
	}
}
