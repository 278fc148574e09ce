package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/blefrag/internal/auth"
	"github.com/danmuck/blefrag/internal/catalog"
	"github.com/danmuck/blefrag/internal/config"
	"github.com/danmuck/blefrag/internal/gatt"
	"github.com/danmuck/blefrag/internal/logging"
	"github.com/danmuck/blefrag/internal/observability"
	"github.com/danmuck/blefrag/internal/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "cmd/blehostd/config.toml", "TOML config file")
	simulate := flag.Bool("simulate", false, "run the demo read/write exchange and exit")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}
	level, _ := logging.ParseLevel(cfg.LogLevel)
	logger := observability.InitLogger("blehostd", level)
	observability.RegisterMetrics()

	host := gatt.NewHost(cfg.Host, catalog.New(),
		gatt.WithLogger(logger),
		gatt.WithDeliver(func(charID string, payload []byte) {
			logger.Info().Str("char", charID).Str("payload", string(payload)).Msg("payload received")
		}),
	)

	if *simulate {
		if err := runSimulation(host, logger, os.Stdout); err != nil {
			logger.Fatal().Err(err).Msg("simulation failed")
		}
		return
	}

	var adminOpts []server.AdminOption
	if cfg.AdminToken != "" {
		adminOpts = append(adminOpts, server.WithValidator(auth.StaticToken{Token: cfg.AdminToken}))
	}
	if err := run(host, logger, adminOpts...); err != nil {
		logger.Fatal().Err(err).Msg("exited")
	}
}

func loadConfig(path string) (config.HostFile, error) {
	cfg, err := config.LoadHostConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", path).Msg("config not found, using defaults")
		return config.HostFile{Host: gatt.DefaultHostConfig(), LogLevel: "info"}, nil
	}
	return cfg, err
}

func run(host *gatt.Host, logger zerolog.Logger, adminOpts ...server.AdminOption) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return host.RunJanitor(ctx)
	})
	if addr := strings.TrimSpace(host.Config().AdminListenAddr); addr != "" {
		admin := server.NewAdmin(host, logger, adminOpts...)
		eg.Go(func() error {
			return admin.Serve(ctx, addr)
		})
	}

	logger.Info().
		Str("name", host.Config().Name).
		Dur("stream_idle_timeout", host.Config().StreamIdleTimeout).
		Dur("sweep_interval", host.Config().SweepInterval).
		Msg("host ready")

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
