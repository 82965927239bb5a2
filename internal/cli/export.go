package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/BitEU/linkchart/pkg/cache"
	"github.com/BitEU/linkchart/pkg/chart"
	"github.com/BitEU/linkchart/pkg/compute"
	"github.com/BitEU/linkchart/pkg/export"
	"github.com/BitEU/linkchart/pkg/physics"
	"github.com/BitEU/linkchart/pkg/render"
)

// artifactTTL bounds how long an exported artifact stays cached.
const artifactTTL = 24 * time.Hour

// exportCommand creates the export command for producing chart documents.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		format  string
		output  string
		dpi     int
		title   string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "export [chart]",
		Short: "Export a chart as PDF, PNG, or SVG",
		Long: `Export a chart as PDF, PNG, or SVG.

The export command loads a chart from the store and renders its current
positions to a print-ready document. PDF exports are always landscape and
validated before the output file is replaced, so a failed export never
clobbers a previous good one.

Run 'linkchart layout' first; exporting an unsettled chart draws nodes at
their import grid positions. With no argument, an interactive picker lists
the stored charts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return c.runExport(cmd.Context(), name, format, output, dpi, title, noCache)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "output format: pdf (default), png, svg, dot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <chart>.<format>)")
	cmd.Flags().IntVar(&dpi, "dpi", 0, "output resolution (default from config)")
	cmd.Flags().StringVar(&title, "title", "", "title drawn on the page")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runExport loads the chart and writes the requested artifact.
func (c *CLI) runExport(ctx context.Context, name, format, output string, dpi int, title string, noCache bool) error {
	switch format {
	case "pdf", "png", "svg", "dot":
	default:
		return fmt.Errorf("unknown format %q (want pdf, png, svg, or dot)", format)
	}

	logger := loggerFromContext(ctx)

	st, err := c.newStore(ctx)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close(ctx)

	if name == "" {
		summaries, err := loadSummaries(ctx, st)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			printInfo("No charts stored yet")
			return nil
		}
		if name, err = runChartPicker(summaries); err != nil {
			return err
		}
		if name == "" {
			return nil
		}
	}

	doc, err := st.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("load chart %s: %w", name, err)
	}
	ch, err := chart.FromDocument(doc)
	if err != nil {
		return fmt.Errorf("restore chart %s: %w", name, err)
	}

	if output == "" {
		output = name + "." + format
	}

	if format == "dot" {
		if err := os.WriteFile(output, []byte(render.ToDOT(ch)), 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", output, err)
		}
		printSuccess("Export complete")
		printFile(output)
		return nil
	}

	cc := c.newCache(ctx, noCache)
	defer cc.Close()

	keyer := cache.NewDefaultKeyer()
	key := keyer.ArtifactKey(layoutHash(ch), cache.ArtifactKeyOpts{
		Format: format,
		DPI:    dpi,
		Title:  title,
	})

	if data, ok, err := cc.Get(ctx, key); err == nil && ok {
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", output, err)
		}
		printSuccess("Export complete")
		printFile(output)
		printStats(ch.Len(), len(ch.Relationships()), true)
		return nil
	}

	// A headless snapshot of the stored positions. The scalar backend is
	// plenty: no ticks run here.
	eng, err := physics.NewEngine(ch, compute.NewScalar(), c.Config.Physics, logger)
	if err != nil {
		return fmt.Errorf("snapshot chart: %w", err)
	}
	snap := eng.Snapshot()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Exporting %s...", format))
	spinner.Start()

	exp := export.New(c.Config.Export, logger)
	opts := export.Options{DPI: dpi, Title: title}

	switch format {
	case "pdf":
		err = exp.PDF(ctx, snap, ch, output, opts)
	case "png":
		err = exp.PNG(ctx, snap, ch, output, opts)
	case "svg":
		err = exp.SVG(ctx, snap, ch, output, opts)
	}
	if err != nil {
		if spinner.Cancelled() || ctx.Err() != nil {
			spinner.Stop()
			return ctx.Err()
		}
		spinner.StopWithError("Export failed")
		return fmt.Errorf("export %s: %w", format, err)
	}
	spinner.Stop()

	if data, err := os.ReadFile(output); err == nil {
		if err := cc.Set(ctx, key, data, artifactTTL); err != nil {
			logger.Debug("artifact cache write failed", "error", err)
		}
	}

	printSuccess("Export complete")
	printFile(output)
	printStats(ch.Len(), len(ch.Relationships()), false)

	return nil
}

// layoutHash hashes the chart content plus its current positions. Any move
// or structural change produces a new artifact key.
func layoutHash(ch *chart.Chart) string {
	adj := ch.Adjacency()
	var content struct {
		Content string    `json:"content"`
		X       []float64 `json:"x"`
		Y       []float64 `json:"y"`
	}
	content.Content = chartContentHash(ch)
	for _, id := range adj.IDs() {
		p := ch.Person(id)
		content.X = append(content.X, p.X)
		content.Y = append(content.Y, p.Y)
	}
	data, _ := json.Marshal(content)
	return cache.Hash(data)
}
