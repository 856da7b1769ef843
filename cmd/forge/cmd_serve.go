package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kingrea/guild-forge/internal/bridge"
)

const shutdownGrace = 5 * time.Second

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Take orders over websockets",
	Long: `Start the bridge server.

  GET /ws?flow=<id>&requester=<name>  run one order session on a websocket
  GET /feed                           stream confirmed announcements
  GET /orders/{id}                    recently confirmed orders
  GET /health                         liveness`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	settings := bridge.SettingsFromConfig(rt.cfg)
	if host := strings.TrimSpace(serveHost); host != "" {
		settings.Host = host
	}
	if servePort > 0 {
		settings.Port = servePort
	}
	srv, err := bridge.NewServer(settings, rt.flows, rt.catalog,
		bridge.WithLogger(rt.logger.Logger),
		bridge.WithAnnouncer(rt.announcer),
		bridge.WithTier(rt.cfg.Project.Guild.ReferenceTier),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "forge bridge listening on %s\n", srv.BaseURL())
	rt.journal.Info("bridge escuchando en %s", srv.BaseURL())

	feed := srv.Feed().Subscribe()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		feed.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.journal.Error("bridge detenido con error: %v", err)
			return fmt.Errorf("bridge shutdown: %w", err)
		}
		rt.journal.Info("bridge detenido")
		return nil
	})
	g.Go(func() error {
		for post := range feed.Posts {
			rt.logger.Info("announcement published", zap.String("kind", post.Kind), zap.String("id", post.ID))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "forge bridge stopped")
	return nil
}
