// Command bemserver-acquisition runs the MQTT acquisition engine and its
// HTTP surface from a single JSON configuration file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bemserver/acquisition-engine/internal/acquisition"
	"github.com/bemserver/acquisition-engine/internal/config"
	"github.com/bemserver/acquisition-engine/internal/decoder"
	"github.com/bemserver/acquisition-engine/internal/httpapi"
	"github.com/bemserver/acquisition-engine/internal/logging"
	"github.com/bemserver/acquisition-engine/internal/store"
)

var version = "dev"

func main() {
	var configPath string
	var verbose bool
	var httpAddr string
	var showVersion bool
	flag.StringVar(&configPath, "config", "", "path to the JSON configuration file (required)")
	flag.BoolVar(&verbose, "verbose", false, "override logging.level to DEBUG")
	flag.StringVar(&httpAddr, "listen", ":8080", "HTTP listen address")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		os.Exit(0)
	}
	if configPath == "" {
		fmt.Fprintln(os.Stderr, "missing required -config flag")
		os.Exit(1)
	}

	startTime := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyVerbose(verbose)

	baseLog := logging.New(cfg.Logging)
	log := baseLog.Logger
	log.Info().Str("version", version).Str("config", configPath).Msg("bemserver-acquisition starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go baseLog.RunDailyRotation(ctx)

	st, err := store.Connect(ctx, cfg.DBURL, log.With().Str("component", "store").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to store")
	}
	defer st.Close()

	if err := st.Setup(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema setup failed")
	}

	registry, err := decoder.NewRegistry(decoder.Builtin()...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build decoder registry")
	}

	svc := acquisition.NewService(st, registry, cfg.WorkingDirpath, cfg.MQTTClientID, cfg.WriterBatchSize, cfg.WriterInterval.Duration(), log)
	if err := svc.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("acquisition engine failed to start")
	}

	srv := httpapi.NewServer(httpapi.ServerOptions{
		Addr:            httpAddr,
		Store:           st,
		Stats:           svc,
		MetricsEnabled:  true,
		ResponseTimeout: cfg.DisconnectGrace.Duration(),
		StartTime:       startTime,
		Log:             log.With().Str("component", "http").Logger(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	log.Info().Str("listen", httpAddr).Dur("startup_ms", time.Since(startTime)).Msg("bemserver-acquisition ready")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
	svc.Stop(shutdownCtx)

	log.Info().Msg("bemserver-acquisition stopped")
}
