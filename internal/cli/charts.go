package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/BitEU/linkchart/pkg/chart"
	"github.com/BitEU/linkchart/pkg/store"
)

// chartsCommand creates the charts management command.
func (c *CLI) chartsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "charts",
		Short: "Manage stored charts",
	}

	cmd.AddCommand(c.chartsListCommand())
	cmd.AddCommand(c.chartsShowCommand())
	cmd.AddCommand(c.chartsDeleteCommand())

	return cmd
}

// chartsListCommand creates the "charts list" subcommand.
func (c *CLI) chartsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored charts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return fmt.Errorf("initialize store: %w", err)
			}
			defer st.Close(ctx)

			names, err := st.List(ctx)
			if err != nil {
				return fmt.Errorf("list charts: %w", err)
			}
			if len(names) == 0 {
				printInfo("No charts stored yet")
				printNewline()
				printNextStep("Import records", "linkchart import records.csv")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}

// chartsShowCommand creates the "charts show" subcommand. With no argument
// it opens an interactive picker over the stored charts.
func (c *CLI) chartsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [chart]",
		Short: "Show details for a stored chart",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return fmt.Errorf("initialize store: %w", err)
			}
			defer st.Close(ctx)

			name := ""
			if len(args) == 1 {
				name = args[0]
			} else {
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
			return showChart(doc)
		},
	}
}

// chartsDeleteCommand creates the "charts delete" subcommand.
func (c *CLI) chartsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [chart]",
		Short: "Delete a stored chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.newStore(ctx)
			if err != nil {
				return fmt.Errorf("initialize store: %w", err)
			}
			defer st.Close(ctx)

			if err := st.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("delete chart %s: %w", args[0], err)
			}
			printSuccess("Deleted %q", args[0])
			return nil
		},
	}
}

// loadSummaries loads every stored chart's headline numbers for the picker.
func loadSummaries(ctx context.Context, st store.ChartStore) ([]chartSummary, error) {
	names, err := st.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list charts: %w", err)
	}

	summaries := make([]chartSummary, 0, len(names))
	for _, name := range names {
		doc, err := st.Load(ctx, name)
		if err != nil {
			continue
		}
		summaries = append(summaries, chartSummary{
			Name:        name,
			People:      len(doc.People),
			Connections: len(doc.Relationships),
			SavedAt:     doc.SavedAt,
		})
	}
	return summaries, nil
}

// showChart prints one chart's details.
func showChart(doc chart.Document) error {
	printKeyValue("Chart", doc.Name)
	printKeyValue("People", fmt.Sprintf("%d", len(doc.People)))
	printKeyValue("Connections", fmt.Sprintf("%d", len(doc.Relationships)))
	if !doc.SavedAt.IsZero() {
		printKeyValue("Saved", doc.SavedAt.Format("2006-01-02 15:04"))
	}

	if len(doc.Relationships) == 0 {
		return nil
	}

	rels := make([]chart.Relationship, len(doc.Relationships))
	copy(rels, doc.Relationships)
	sort.Slice(rels, func(i, j int) bool { return rels[i].Weight > rels[j].Weight })

	printNewline()
	printDetail("Busiest connections:")
	top := rels
	if len(top) > 5 {
		top = top[:5]
	}
	for _, rel := range top {
		printDetail("%s ↔ %s  (%d calls)", rel.Src, rel.Dst, rel.Count)
	}

	return nil
}
