package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/driftline/driftline/internal/config"
	"github.com/driftline/driftline/internal/core/observability/log"
	"github.com/driftline/driftline/internal/level"
	"github.com/driftline/driftline/internal/server"
	"github.com/driftline/driftline/internal/session"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	logger := log.New(log.ParseLevel(cfg.LogLevel))

	lvl, err := level.Load(cfg.Level)
	if err != nil {
		logger.Fatal("level load failed", log.Error(err))
	}
	logger.Info("level loaded",
		log.String("name", lvl.Name),
		log.Int("path_tiles", len(lvl.Path)),
		log.Uint64("checksum", lvl.Checksum()),
	)

	sess := session.Start(lvl)
	logger.Info("session started", log.String("session", sess.ID.String()))

	gateway := server.NewGateway(sess, cfg.DeadZone, logger)
	httpServer := &http.Server{Addr: cfg.Listen, Handler: gateway}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		logger.Info("input gateway listening", log.String("addr", cfg.Listen))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	eg.Go(func() error {
		return runTickLoop(ctx, sess, cfg.TickRate, logger)
	})

	if err := eg.Wait(); err != nil {
		logger.Fatal("server error", log.Error(err))
	}
	logger.Info("shutdown complete")
}

// runTickLoop is the simulation collaborator reduced to its read access: it
// samples the control snapshot at the configured rate, the way the kart
// physics would each frame.
func runTickLoop(ctx context.Context, sess *session.Session, rate int, logger log.Log) error {
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s := sess.Controls.Snapshot()
			logger.Debug("tick",
				log.Bool("forward", s.Forward),
				log.Bool("drift", s.Drift),
				log.Float64("steerX", s.SteerX),
				log.Float64("throttleY", s.ThrottleY),
				log.Uint64("version", sess.Controls.Version()),
			)
		}
	}
}
