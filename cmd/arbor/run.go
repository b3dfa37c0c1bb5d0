package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/internal/stopwatch"
	"github.com/aretw0/arbor/pkg/actor"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/timer"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the stopwatch demo",
	Long: `Spawns the configured number of stopwatch machines, drives them with timers
(start, ticks, pause, resume, stop) and prints a summary once every machine is done.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		noBanner, _ := cmd.Flags().GetBool("no-banner")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		if !noBanner {
			tui.PrintBanner(out)
		}
		rows, err := runDemo(ctx, cfg, newLogger(cfg))
		tui.PrintSummary(out, rows)
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Duration("duration", 0, "Time before the stopwatches are stopped")
	runCmd.Flags().Bool("no-banner", false, "Do not print the banner")
}

type runningStopwatch struct {
	actor *actor.MachineActor[*stopwatch.Stopwatch]
	owner *stopwatch.Stopwatch
}

// runDemo runs cfg.Stopwatches machines until they are all done or ctx ends.
func runDemo(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]tui.Row, error) {
	sys, err := arbor.New(arbor.WithLogger(logger), arbor.WithLogHooks())
	if err != nil {
		return nil, err
	}
	def, err := stopwatch.Definition()
	if err != nil {
		return nil, err
	}

	var watches []runningStopwatch
	for i := 1; i <= cfg.Stopwatches; i++ {
		owner := &stopwatch.Stopwatch{}
		ma, err := arbor.SpawnMachine(sys, fmt.Sprintf("stopwatch-%d", i), def, owner, actor.RetireOnFinal())
		if err != nil {
			return nil, errors.Join(err, shutdown(sys))
		}
		if err := schedule(sys.Timers(), ma, cfg, i); err != nil {
			return nil, errors.Join(err, shutdown(sys))
		}
		watches = append(watches, runningStopwatch{actor: ma, owner: owner})
	}
	logger.Info("stopwatches started", "count", len(watches), "duration", cfg.Duration)

	interrupted := false
	for _, w := range watches {
		select {
		case <-w.actor.Done():
		case <-ctx.Done():
			interrupted = true
		}
		if interrupted {
			break
		}
	}

	err = shutdown(sys)

	rows := make([]tui.Row, 0, len(watches))
	for _, w := range watches {
		snap := w.actor.Snapshot()
		row := tui.Row{Name: snap.Name, Active: snap.Active, Alive: snap.Alive, Events: snap.Events}
		// The owner may only be read once the machine loop is over.
		select {
		case <-w.actor.Done():
			row.Detail = fmt.Sprintf("starts=%d ticks=%d pauses=%d", w.owner.Starts, w.owner.Ticks, len(w.owner.Reasons))
		default:
			row.Detail = "interrupted"
		}
		rows = append(rows, row)
	}
	return rows, err
}

// schedule drives one stopwatch with timers. Even stopwatches take a break halfway.
func schedule(timers *timer.Manager, ma actor.Ref, cfg config.Config, i int) error {
	if err := ma.Tell(domain.Event{ID: stopwatch.Start}); err != nil {
		return err
	}
	tick, err := timer.NewRecurring(ma, "tick", cfg.Tick, cfg.Tick, domain.Event{ID: stopwatch.Tick})
	if err != nil {
		return err
	}
	cmds := []timer.Command{tick}
	if i%2 == 0 {
		pause := domain.NewEvent(stopwatch.Pause, map[string]any{"reason": fmt.Sprintf("break %d", i)})
		cmds = append(cmds,
			timer.After(ma, "pause", cfg.Duration/2, pause),
			timer.After(ma, "resume", cfg.Duration*3/4, domain.Event{ID: stopwatch.Resume}),
		)
	}
	cmds = append(cmds, timer.After(ma, "stop", cfg.Duration, domain.Event{ID: stopwatch.Stop}))

	for _, cmd := range cmds {
		if err := timers.Tell(cmd); err != nil {
			return err
		}
	}
	return nil
}

func shutdown(sys *arbor.System) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return sys.Shutdown(ctx)
}
