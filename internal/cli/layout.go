package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/BitEU/linkchart/pkg/cache"
	"github.com/BitEU/linkchart/pkg/chart"
	"github.com/BitEU/linkchart/pkg/compute"
	"github.com/BitEU/linkchart/pkg/physics"
	"github.com/BitEU/linkchart/pkg/render"
)

// layoutTTL bounds how long a settled layout stays cached.
const layoutTTL = 7 * 24 * time.Hour

// layoutPayload is the cached form of a settled layout.
type layoutPayload struct {
	IDs []string  `json:"ids"`
	X   []float64 `json:"x"`
	Y   []float64 `json:"y"`
}

// layoutCommand creates the layout command for settling chart positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		seed    bool
		ticks   int
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "layout [chart]",
		Short: "Compute a settled layout for a chart",
		Long: `Compute a settled layout for a chart.

The layout command loads a chart from the store and runs the force-directed
simulation until node velocities settle, then writes the positions back to
the stored chart. With --seed, initial positions come from a Graphviz FDP
pass instead of the placement grid, which usually settles faster on charts
with many disconnected clusters.

Settled layouts are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], seed, ticks, noCache)
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "seed initial positions with Graphviz FDP")
	cmd.Flags().IntVar(&ticks, "ticks", defaultSettleTicks, "maximum simulation ticks")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runLayout loads the chart, settles it, and writes positions back.
func (c *CLI) runLayout(ctx context.Context, name string, seed bool, maxTicks int, noCache bool) error {
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

	cc := c.newCache(ctx, noCache)
	defer cc.Close()

	p := c.Config.Physics
	keyer := cache.NewDefaultKeyer()
	key := keyer.LayoutKey(chartContentHash(ch), cache.LayoutKeyOpts{
		Repulsion: p.Repulsion,
		Spring:    p.Spring,
		Damping:   p.Damping,
		DT:        p.DT,
		Cutoff:    p.CutoffRadius,
		CanvasW:   p.CanvasWidth,
		CanvasH:   p.CanvasHeight,
		Seeded:    seed,
	})

	if data, ok, err := cc.Get(ctx, key); err == nil && ok {
		var payload layoutPayload
		if err := json.Unmarshal(data, &payload); err == nil {
			ch.ApplyPositions(payload.IDs, payload.X, payload.Y)
			if err := st.Save(ctx, ch.ToDocument(name)); err != nil {
				return fmt.Errorf("save chart %s: %w", name, err)
			}
			printSuccess("Layout complete")
			printStats(ch.Len(), len(ch.Relationships()), true)
			printNewline()
			printNextStep("Export", "linkchart export "+name)
			return nil
		}
	}

	spinner := newSpinnerWithContext(ctx, "Settling layout...")
	spinner.Start()

	if seed {
		if err := render.SeedPositions(ctx, ch, p.CanvasWidth, p.CanvasHeight); err != nil {
			spinner.StopWithError("Seeding failed")
			return fmt.Errorf("seed positions: %w", err)
		}
	}

	backend := compute.Select(logger)
	eng, err := physics.NewEngine(ch, backend, p, logger)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("initialize simulation: %w", err)
	}

	ran, err := eng.Settle(ctx, maxTicks, settleThreshold)
	if err != nil {
		if spinner.Cancelled() || ctx.Err() != nil {
			spinner.Stop()
			return ctx.Err()
		}
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("settle layout: %w", err)
	}
	spinner.Stop()

	snap := eng.Snapshot()
	ch.ApplyPositions(snap.IDs, snap.X, snap.Y)

	if err := st.Save(ctx, ch.ToDocument(name)); err != nil {
		return fmt.Errorf("save chart %s: %w", name, err)
	}

	if data, err := json.Marshal(layoutPayload{IDs: snap.IDs, X: snap.X, Y: snap.Y}); err == nil {
		if err := cc.Set(ctx, key, data, layoutTTL); err != nil {
			logger.Debug("layout cache write failed", "error", err)
		}
	}

	logger.Debug("layout settled", "chart", name, "ticks", ran, "backend", snap.Backend)

	printSuccess("Layout complete")
	printDetail("%d ticks on the %s backend", ran, snap.Backend)
	printStats(ch.Len(), len(ch.Relationships()), false)
	printNewline()
	printNextStep("Export", "linkchart export "+name)

	return nil
}

// chartContentHash hashes the structure that determines a layout: node
// order and weighted connections. Positions and timestamps are excluded so
// a re-run on the same data hits the cache.
func chartContentHash(ch *chart.Chart) string {
	type edge struct {
		Src    string  `json:"src"`
		Dst    string  `json:"dst"`
		Weight float64 `json:"weight"`
	}
	var content struct {
		IDs   []string `json:"ids"`
		Edges []edge   `json:"edges"`
	}
	content.IDs = ch.Adjacency().IDs()
	for _, rel := range ch.Relationships() {
		content.Edges = append(content.Edges, edge{Src: rel.Src, Dst: rel.Dst, Weight: rel.Weight})
	}
	data, _ := json.Marshal(content)
	return cache.Hash(data)
}
