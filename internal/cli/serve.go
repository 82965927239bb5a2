package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/BitEU/linkchart/pkg/chart"
	"github.com/BitEU/linkchart/pkg/compute"
	"github.com/BitEU/linkchart/pkg/metrics"
	"github.com/BitEU/linkchart/pkg/observability"
	"github.com/BitEU/linkchart/pkg/physics"
	"github.com/BitEU/linkchart/pkg/render"
	"github.com/BitEU/linkchart/pkg/sched"
)

// serveCommand creates the serve command for running a live chart session
// with an observability endpoint.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [chart]",
		Short: "Run a live simulation with stats and Prometheus endpoints",
		Long: `Run a live simulation with stats and Prometheus endpoints.

The serve command loads a chart, runs the force-directed simulation
continuously, and exposes:

  GET /stats    live session stats as JSON (fps, backend, node counts)
  GET /metrics  Prometheus metrics
  GET /healthz  liveness probe

Rendering is paced by the configured frame-rate ceiling; redraw requests
that arrive faster than the ceiling are coalesced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}

// runServe wires the engine, scheduler, and HTTP server together and blocks
// until the context is cancelled.
func (c *CLI) runServe(ctx context.Context, name, addr string) error {
	if addr == "" {
		addr = c.Config.Serve.Addr
	}

	logger := loggerFromContext(ctx)

	st, err := c.newStore(ctx)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close(ctx)

	doc, err := st.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("load chart %s: %w", name, err)
	}
	ch, err := chart.FromDocument(doc)
	if err != nil {
		return fmt.Errorf("restore chart %s: %w", name, err)
	}

	reg := prometheus.NewRegistry()
	agg := sched.NewMetrics()
	metrics.NewCollectors(reg, agg).Install()
	defer observability.Reset()

	backend := compute.Select(logger)
	eng, err := physics.NewEngine(ch, backend, c.Config.Physics, logger)
	if err != nil {
		return fmt.Errorf("initialize simulation: %w", err)
	}

	// Each frame renders the latest snapshot; /stats reads from the same
	// pointer so its counts match what was last drawn.
	var latest atomic.Pointer[physics.Snapshot]
	latest.Store(eng.Snapshot())
	frame := func(ctx context.Context) error {
		snap := eng.Snapshot()
		latest.Store(snap)
		_ = render.RenderSVG(snap, ch)
		return nil
	}
	scheduler := sched.New(frame, c.Config.Render, logger)

	stats := func() sched.MetricsSnapshot {
		snap := latest.Load()
		visible := 0
		for _, v := range snap.Visible {
			if v {
				visible++
			}
		}
		return agg.Snapshot(scheduler, snap.Backend, len(snap.IDs), visible, len(ch.Relationships()))
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.Handler(stats, reg, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("serving", "addr", addr, "chart", name, "backend", backend.Active())
	printInfo("Serving %q on %s", name, addr)
	printDetail("stats:   http://localhost%s/stats", addr)
	printDetail("metrics: http://localhost%s/metrics", addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(ctx) })
	g.Go(func() error { return scheduler.Run(ctx) })
	g.Go(func() error {
		// Ask for a redraw whenever a new tick published. Requests beyond
		// the frame ceiling coalesce in the scheduler.
		ticker := time.NewTicker(time.Second / time.Duration(c.Config.Physics.TickRate))
		defer ticker.Stop()
		var seen uint64
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if snap := eng.Snapshot(); snap.Seq != seen {
					seen = snap.Seq
					scheduler.Request()
				}
			}
		}
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
