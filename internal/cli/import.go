package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BitEU/linkchart/pkg/chart"
	"github.com/BitEU/linkchart/pkg/errors"
)

// importCommand creates the import command for ingesting call-record CSVs.
func (c *CLI) importCommand() *cobra.Command {
	var (
		name  string
		merge bool
	)

	cmd := &cobra.Command{
		Use:   "import [records.csv]",
		Short: "Import call-detail records into a chart",
		Long: `Import call-detail records into a chart.

The import command reads a call-record CSV (target number, call direction,
from or to number, date, start, end) and builds people and weighted
connections from it. Repeated calls between the same pair accumulate into a
single connection. The resulting chart is saved to the chart store.

With --merge, records are added to an existing chart instead of replacing it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), args[0], name, merge)
		},
	}

	cmd.Flags().StringVarP(&name, "chart", "c", "", "chart name (default: input file basename)")
	cmd.Flags().BoolVar(&merge, "merge", false, "merge records into an existing chart")

	return cmd
}

// runImport reads the CSV, merges it into a new or existing chart, and saves.
func (c *CLI) runImport(ctx context.Context, input, name string, merge bool) error {
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}

	st, err := c.newStore(ctx)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close(ctx)

	ch := chart.New()
	if merge {
		doc, err := st.Load(ctx, name)
		if err != nil {
			if !errors.Is(err, errors.ErrCodeChartNotFound) {
				return fmt.Errorf("load chart %s: %w", name, err)
			}
			printWarning("Chart %q not found, creating it", name)
		} else {
			if ch, err = chart.FromDocument(doc); err != nil {
				return fmt.Errorf("restore chart %s: %w", name, err)
			}
		}
	}

	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open records %s: %w", input, err)
	}
	defer f.Close()

	report, err := chart.ImportCSV(ch, f)
	if err != nil {
		return fmt.Errorf("import records: %w", err)
	}

	if err := st.Save(ctx, ch.ToDocument(name)); err != nil {
		return fmt.Errorf("save chart %s: %w", name, err)
	}

	prog.done("records imported")
	logger.Debug("import report",
		"chart", name,
		"records", report.Records,
		"skipped", report.Skipped,
		"new_people", report.NewPeople,
		"new_edges", report.NewEdges,
		"updated_edges", report.UpdatedEdge)

	printSuccess("Imported %d call records into %q", report.Records, name)
	if report.Skipped > 0 {
		printWarning("Skipped %d malformed rows", report.Skipped)
	}
	printStats(ch.Len(), len(ch.Relationships()), false)
	printNewline()
	printNextStep("Compute layout", "linkchart layout "+name)

	return nil
}
