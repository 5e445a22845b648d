package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
	sio "github.com/liaphilip/women-safety-route-finder/pkg/io"
	"github.com/liaphilip/women-safety-route-finder/pkg/pipeline"
	"github.com/liaphilip/women-safety-route-finder/pkg/routing"
)

type weightsOpts struct {
	data      dataFlags
	query     queryFlags
	edges     []string
	breakdown bool
	jsonOut   bool
	output    string
}

// weightsCommand creates the weights command.
func (c *CLI) weightsCommand() *cobra.Command {
	var opts weightsOpts

	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Show the safety weight of every edge for a mode and time",
		Example: `  saferoute weights -g data/campus.json --mode walking --time night
  saferoute weights -g data/campus.json --edge A-B-1 --breakdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWeights(cmd, opts)
		},
	}

	opts.data.register(cmd)
	opts.query.register(cmd)
	cmd.Flags().StringSliceVar(&opts.edges, "edge", nil, "only show these edge ids")
	cmd.Flags().BoolVar(&opts.breakdown, "breakdown", false, "show per-factor contributions")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the result as JSON")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write JSON result to file")
	c.registerCompletions(cmd, &opts.data)

	return cmd
}

func (c *CLI) runWeights(cmd *cobra.Command, opts weightsOpts) error {
	ctx := cmd.Context()

	runner, err := c.newRunner(ctx, opts.query.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	ds, err := c.loadDataset(ctx, runner, opts.data)
	if err != nil {
		return err
	}
	for _, id := range opts.edges {
		if _, ok := ds.Graph.Edge(id); !ok {
			return errors.NotFound("cli.weights", "edge", id)
		}
	}

	q, err := opts.query.options(c)
	if err != nil {
		return err
	}
	q.Verbose = opts.breakdown
	res, err := runner.Weights(ctx, ds, q)
	if err != nil {
		return err
	}

	if len(opts.edges) > 0 {
		res.Weights = filterKeys(res.Weights, opts.edges)
		res.Edges = filterKeys(res.Edges, opts.edges)
	}

	switch {
	case opts.output != "":
		if err := sio.ExportResultJSON(res, opts.output); err != nil {
			return err
		}
		printFile(c.Out, opts.output)
	case opts.jsonOut:
		return sio.WriteResultJSON(res, c.Out)
	default:
		printWeights(c.Out, ds.Graph, res)
	}
	return nil
}

func filterKeys[V any](m map[string]V, keep []string) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(keep))
	for _, k := range keep {
		if v, ok := m[k]; ok {
			out[k] = v
		}
	}
	return out
}

// printWeights renders the weights as a table in graph edge order.
func printWeights(w io.Writer, g *graph.Graph, res *pipeline.WeightsResult) {
	fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("Safety weights · %s · %s", res.Mode, res.Time)))

	var rows [][]string
	var weights []float64
	for _, e := range g.Edges() {
		wt, ok := res.Weights[e.ID]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			e.ID,
			fmt.Sprintf("%s %s %s", e.U, iconArrow, e.V),
			fmt.Sprintf("%.0f m", e.Distance),
			fmt.Sprintf("%.3f", wt),
		})
		weights = append(weights, wt)
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Edge", "Road", "Length", "Weight").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 && row < len(weights) {
				return riskStyle(weights[row])
			}
			return lipgloss.NewStyle()
		})
	fmt.Fprintln(w, t.Render())

	if len(res.Edges) == 0 {
		return
	}
	ids := make([]string, 0, len(res.Edges))
	for id := range res.Edges {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		rep := res.Edges[id]
		printNewline(w)
		fmt.Fprintln(w, StyleHighlight.Render(id)+" "+formatRisk(rep.Weight))
		printBreakdown(w, rep)
		if d := rep.Diagnostics; len(d.Dropped) > 0 {
			printDetail(w, "ignored: %v", d.Dropped)
		}
	}
}

type aggregateOpts struct {
	data    dataFlags
	query   queryFlags
	jsonOut bool
}

// aggregateCommand creates the aggregate command.
func (c *CLI) aggregateCommand() *cobra.Command {
	var opts aggregateOpts

	cmd := &cobra.Command{
		Use:     "aggregate <node> <node> [node...]",
		Short:   "Total distance and safety of an explicit node sequence",
		Example: `  saferoute aggregate -g data/campus.json A B D --time night`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, opts.query.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			ds, err := c.loadDataset(ctx, runner, opts.data)
			if err != nil {
				return err
			}
			q, err := opts.query.options(c)
			if err != nil {
				return err
			}
			sum, err := runner.Aggregate(ctx, ds, args, q)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return sio.WriteResultJSON(sum, c.Out)
			}
			printSummary(c.Out, ds.Graph, sum)
			return nil
		},
	}

	opts.data.register(cmd)
	opts.query.register(cmd)
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the result as JSON")
	c.registerCompletions(cmd, &opts.data)
	cmd.ValidArgsFunction = c.completeNodes(&opts.data)

	return cmd
}

func printSummary(w io.Writer, g *graph.Graph, sum *routing.Summary) {
	names := make([]string, len(sum.Nodes))
	for i, id := range sum.Nodes {
		names[i] = nodeName(g, id)
	}
	fmt.Fprintln(w, StyleValue.Render(joinNames(names)))
	printKeyValue(w, "Distance", fmt.Sprintf("%.0f m", sum.Distance))
	printKeyValue(w, "Safety", fmt.Sprintf("%s (%s)", formatRisk(sum.Safety), sum.Aggregation))
	for _, s := range sum.Steps {
		printDetail(w, "%s  dist=%.0fm  safety=%.3f", s.EdgeID, s.Distance, s.Weight)
	}
}
