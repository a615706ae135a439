// Package main is the uciboard server: it hosts the game service over HTTP
// in front of one UCI engine process, with optional SQLite archiving.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"uciboard/cmd/chessd/cli"
	"uciboard/internal/engine"
	apihttp "uciboard/internal/http"
	"uciboard/internal/logx"
	"uciboard/internal/service"
	promstats "uciboard/internal/stats/prometheus"
	"uciboard/internal/storage"
)

const gracefulShutdownTimeout = 5 * time.Second

type serveOptions struct {
	enginePath  string
	engineArgs  []string
	apiHost     string
	apiPort     int
	storagePath string
	pidPath     string
	pidLock     bool
	preset      string
	dev         bool
	logLevel    string
	maxGames    int
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "chessd",
		Short:        "Chess game server backed by a UCI engine",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), cli.NewDBCommand())
	return root
}

func newServeCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.pidLock && opts.pidPath == "" {
				return errors.New("--pid-lock requires --pid")
			}
			return serve(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.enginePath, "engine", engine.DefaultPath, "UCI engine binary")
	f.StringSliceVar(&opts.engineArgs, "engine-arg", nil, "Extra argument for the engine, repeatable")
	f.StringVar(&opts.apiHost, "api-host", "localhost", "API server host")
	f.IntVar(&opts.apiPort, "api-port", 8080, "API server port")
	f.StringVar(&opts.storagePath, "storage-path", "", "SQLite database file (disables persistence if empty)")
	f.StringVar(&opts.pidPath, "pid", "", "Optional path to write PID file")
	f.BoolVar(&opts.pidLock, "pid-lock", false, "Lock PID file to allow only one instance (requires --pid)")
	f.StringVar(&opts.preset, "preset", string(engine.PresetMedium), "Engine strength (easy|medium|hard)")
	f.BoolVar(&opts.dev, "dev", false, "Development mode (relaxed rate limits, WAL journal)")
	f.StringVar(&opts.logLevel, "log-level", "info", "Log level")
	f.IntVar(&opts.maxGames, "max-games", service.DefaultMaxGames, "Maximum concurrent games")
	return cmd
}

func serve(ctx context.Context, opts serveOptions) error {
	log := logx.NewLogger(opts.logLevel)

	if opts.pidPath != "" {
		pf, err := acquirePIDFile(opts.pidPath, opts.pidLock)
		if err != nil {
			log.Error().Err(err).Msg("failed to manage PID file")
			return err
		}
		defer pf.Release()
		log.Info().Str("path", opts.pidPath).Bool("lock", opts.pidLock).Msg("PID file created")
	}

	preset, err := engine.ParsePreset(opts.preset)
	if err != nil {
		return err
	}
	cfg := engine.DefaultConfiguration()
	cfg.ApplyPreset(preset)

	var store *storage.Store
	if opts.storagePath != "" {
		store, err = storage.NewStore(opts.storagePath, opts.dev, log)
		if err != nil {
			log.Error().Err(err).Msg("failed to initialize storage")
			return err
		}
		if err := store.InitDB(); err != nil {
			store.Close()
			log.Error().Err(err).Msg("failed to initialize schema")
			return err
		}
		log.Info().Str("path", opts.storagePath).Msg("persistent storage enabled")
	} else {
		log.Info().Msg("persistent storage disabled (use --storage-path to enable)")
	}

	metrics := promstats.New(nil)
	metrics.Registry().MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	eng := engine.New(engine.Options{
		Path:      opts.enginePath,
		Args:      opts.engineArgs,
		Config:    cfg,
		Logger:    log,
		Collector: metrics,
	})
	if err := eng.Start(ctx); err != nil {
		if store != nil {
			store.Close()
		}
		return fmt.Errorf("engine %q: %w", opts.enginePath, err)
	}

	svc := service.New(service.Options{
		Engine:    eng,
		Store:     store,
		Logger:    log,
		Collector: metrics,
		MaxGames:  opts.maxGames,
	})

	app := apihttp.NewFiberApp(svc, apihttp.Options{
		DevMode: opts.dev,
		Metrics: metrics.Handler(),
		Logger:  log,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(opts.apiHost, strconv.Itoa(opts.apiPort))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", "http://"+addr).
			Str("engine", cfg.Summary()).
			Bool("dev", opts.dev).
			Msg("API server listening")
		return app.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(log, app.ShutdownWithTimeout, svc, eng)
	})

	err = g.Wait()
	log.Info().Msg("server exited")
	return err
}

// shutdown stops accepting requests, then releases the service and engine.
func shutdown(log zerolog.Logger, stopHTTP func(time.Duration) error, svc *service.Service, eng *engine.Client) error {
	log.Info().Msg("shutting down")
	var errs []error
	if err := stopHTTP(gracefulShutdownTimeout); err != nil {
		log.Warn().Err(err).Msg("server forced to shutdown")
		errs = append(errs, err)
	}
	// closes the store after waking long-poll waiters
	if err := svc.Shutdown(gracefulShutdownTimeout); err != nil {
		log.Warn().Err(err).Msg("service shutdown error")
		errs = append(errs, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()
	if err := eng.Stop(ctx); err != nil {
		log.Warn().Err(err).Msg("engine stop error")
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
