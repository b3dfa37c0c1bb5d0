package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/arbor"
	httpAdapter "github.com/aretw0/arbor/internal/adapters/http"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/stopwatch"
	"github.com/aretw0/arbor/pkg/channel"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/timer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// ControlChannel is the channel every served stopwatch subscribes to.
const ControlChannel = "control"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the introspection HTTP server",
	Long: `Spawns ticking stopwatch machines and exposes them over HTTP: list actors, send them
events, publish to the control channel, stream lifecycle events and scrape metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		promReg := prometheus.NewRegistry()
		promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		sys, err := arbor.New(
			arbor.WithLogger(logger),
			arbor.WithMetrics(promReg),
			arbor.WithEventFeed(64),
		)
		if err != nil {
			return err
		}
		if err := spawnServed(sys, cfg); err != nil {
			return errors.Join(err, shutdown(sys))
		}

		srv := &http.Server{
			Addr: cfg.HTTP.Addr,
			Handler: httpAdapter.NewHandler(httpAdapter.Config{
				Registry: sys.Registry(),
				Feed:     sys.Feed(),
				Gatherer: promReg,
				Logger:   logger,
				Version:  arbor.Version,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "Starting Arbor Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			return errors.Join(fmt.Errorf("server error: %w", err), shutdown(sys))

		case <-ctx.Done():
			fmt.Fprintln(cmd.OutOrStdout(), "\nStart shutdown...")

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "err", err)
				}
			}
			if err := shutdown(sys); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Arbor Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on")
}

// spawnServed starts cfg.Stopwatches ticking stopwatches subscribed to the control channel.
func spawnServed(sys *arbor.System, cfg config.Config) error {
	def, err := stopwatch.Definition()
	if err != nil {
		return err
	}
	control, err := sys.Registry().OpenChannel(ControlChannel)
	if err != nil {
		return err
	}

	for i := 1; i <= cfg.Stopwatches; i++ {
		ma, err := arbor.SpawnMachine(sys, fmt.Sprintf("stopwatch-%d", i), def, &stopwatch.Stopwatch{})
		if err != nil {
			return err
		}
		if _, err := control.Subscribe(ma, channel.Unlimited); err != nil {
			return err
		}
		tick, err := timer.NewRecurring(ma, "tick", cfg.Tick, cfg.Tick, domain.Event{ID: stopwatch.Tick})
		if err != nil {
			return err
		}
		if err := sys.Timers().Tell(tick); err != nil {
			return err
		}
	}
	return nil
}
