package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
	sio "github.com/liaphilip/women-safety-route-finder/pkg/io"
	"github.com/liaphilip/women-safety-route-finder/pkg/pipeline"
	"github.com/liaphilip/women-safety-route-finder/pkg/routing"
	"github.com/liaphilip/women-safety-route-finder/pkg/safety"
	"github.com/liaphilip/women-safety-route-finder/pkg/source"
)

// queryFlags holds the query flags shared by route, weights and aggregate.
type queryFlags struct {
	mode        string
	time        string
	priorities  []string
	importance  map[string]string
	baseScale   map[string]string
	aggregation string
	noCache     bool
	refresh     bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "travel mode: walking, two_wheeler, car (default from config)")
	cmd.Flags().StringVarP(&f.time, "time", "t", "", "time of day: day, night (default from config)")
	cmd.Flags().StringSliceVar(&f.priorities, "prioritize", nil, "factors that keep full importance; others are damped")
	cmd.Flags().StringToStringVar(&f.importance, "importance", nil, "per-factor importance in [0,1], e.g. crime=1,traffic=0.2")
	cmd.Flags().StringToStringVar(&f.baseScale, "scale", nil, "per-factor base coefficient multiplier, e.g. lighting=1.5")
	cmd.Flags().StringVar(&f.aggregation, "aggregation", "", "route score: sum or per_meter")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when cached")
}

// options converts the flags into pipeline options, filling mode and time
// from the config.
func (f *queryFlags) options(c *CLI) (pipeline.Options, error) {
	q := c.settings().Query
	opts := pipeline.Options{
		Mode:        f.mode,
		Time:        f.time,
		Priorities:  f.priorities,
		Aggregation: routing.Aggregation(f.aggregation),
		Refresh:     f.refresh,
		Logger:      c.Logger,
	}
	if opts.Mode == "" {
		opts.Mode = q.Mode
	}
	if opts.Time == "" {
		opts.Time = q.Time
	}
	var err error
	if opts.Importance, err = parseFloatMap("importance", f.importance); err != nil {
		return opts, err
	}
	if opts.BaseScale, err = parseFloatMap("scale", f.baseScale); err != nil {
		return opts, err
	}
	return opts, nil
}

// routeOpts holds the command-line flags for the route command.
type routeOpts struct {
	data  dataFlags
	query queryFlags

	from        string
	to          string
	basis       string
	k           int
	blend       float64
	distanceCap float64
	avoid       []string
	breakdown   bool
	jsonOut     bool
	output      string
}

// routeCommand creates the route command.
//
// Without --basis it prints the shortest route by distance, the safest
// route, and the top K balanced routes. When --from or --to is missing
// an interactive picker asks for them.
func (c *CLI) routeCommand() *cobra.Command {
	var opts routeOpts

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Find shortest, safest and balanced routes between two nodes",
		Example: `  saferoute route -g data/campus.json --from A --to D --mode walking --time night
  saferoute route -g data/campus.json --from A --to D --basis balanced -k 5 --json
  saferoute route -g data/campus.json          # pick nodes interactively`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoute(cmd, opts)
		},
	}

	opts.data.register(cmd)
	opts.query.register(cmd)
	cmd.Flags().StringVar(&opts.from, "from", "", "start node id")
	cmd.Flags().StringVar(&opts.to, "to", "", "destination node id")
	cmd.Flags().StringVarP(&opts.basis, "basis", "b", "", "cost basis: shortest, safest, balanced (default: all three)")
	cmd.Flags().IntVarP(&opts.k, "k", "k", 0, "number of ranked alternatives (default from config for balanced)")
	cmd.Flags().Float64Var(&opts.blend, "blend", 0, "distance share of the balanced cost, 0 ranks by safety alone (default 1)")
	cmd.Flags().Float64Var(&opts.distanceCap, "distance-cap", 0, "metres at which the balanced distance term saturates (default 2000)")
	cmd.Flags().StringSliceVar(&opts.avoid, "avoid", nil, "node ids the route must not pass through")
	cmd.Flags().BoolVar(&opts.breakdown, "breakdown", false, "show per-factor contributions of each edge")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the result as JSON")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write JSON result to file")
	c.registerCompletions(cmd, &opts.data, "from", "to", "avoid")

	return cmd
}

func (c *CLI) runRoute(cmd *cobra.Command, opts routeOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, opts.query.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	ds, err := c.loadDataset(ctx, runner, opts.data)
	if err != nil {
		return err
	}

	if err := c.pickEndpoints(cmd, ds, &opts); err != nil {
		return err
	}
	if opts.from == "" || opts.to == "" {
		printDetail(c.Out, "No selection made")
		return nil
	}

	q, err := opts.query.options(c)
	if err != nil {
		return err
	}
	q.From, q.To = opts.from, opts.to
	q.Forbidden = opts.avoid
	if cmd.Flags().Changed("blend") {
		q.Blend = &opts.blend
	}
	q.DistanceCap = opts.distanceCap
	q.Verbose = opts.breakdown
	q.K = opts.k
	if opts.basis != "" {
		if q.Basis, err = routing.ParseBasis(opts.basis); err != nil {
			return err
		}
	} else if q.K == 0 {
		q.K = c.settings().Query.K
	}

	prog := newProgress(logger)
	res, err := runner.Execute(ctx, ds, q)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Found routes %s %s %s", q.From, iconArrow, q.To))

	if opts.output != "" {
		if err := sio.ExportResultJSON(res, opts.output); err != nil {
			return err
		}
		printFile(c.Out, opts.output)
		return nil
	}
	if opts.jsonOut {
		return sio.WriteResultJSON(res, c.Out)
	}
	printResult(c.Out, ds.Graph, res)
	return nil
}

// pickEndpoints fills missing endpoints, mode and time interactively. It
// does nothing when both endpoints were given.
func (c *CLI) pickEndpoints(cmd *cobra.Command, ds *source.Dataset, opts *routeOpts) error {
	if opts.from != "" && opts.to != "" {
		return nil
	}
	if ds.Graph.NodeCount() == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cli.route", "graph has no nodes")
	}
	nodes := nodeChoices(ds.Graph)

	steps := []struct {
		title   string
		choices []Choice
		dst     *string
		skip    bool
	}{
		{"Select START", nodes, &opts.from, opts.from != ""},
		{"Select END", nodes, &opts.to, opts.to != ""},
		{"Mode", stringChoices(c.modes()), &opts.query.mode, cmd.Flags().Changed("mode")},
		{"Time", stringChoices(c.times()), &opts.query.time, cmd.Flags().Changed("time")},
	}
	for _, s := range steps {
		if s.skip {
			continue
		}
		v, ok, err := runChoice(s.title, s.choices)
		if err != nil {
			return err
		}
		if !ok {
			opts.from, opts.to = "", ""
			return nil
		}
		*s.dst = v
	}
	return nil
}

func (c *CLI) modes() []string {
	sc, err := c.settings().Safety()
	if err != nil {
		return []string{safety.ModeWalking, safety.ModeTwoWheeler, safety.ModeCar}
	}
	return sc.Modes()
}

func (c *CLI) times() []string {
	sc, err := c.settings().Safety()
	if err != nil {
		return []string{safety.TimeDay, safety.TimeNight}
	}
	return sc.TimeLabels()
}

// =============================================================================
// Result Output
// =============================================================================

// basisTitle names a route set the way the report presents it.
func basisTitle(b routing.Basis, n int) string {
	switch b {
	case routing.BasisDistance:
		return "Shortest (distance only)"
	case routing.BasisSafety:
		return "Safest (safety only)"
	default:
		return fmt.Sprintf("Top-%d Balanced (safety + small distance)", n)
	}
}

// printResult writes the human-readable route report.
func printResult(w io.Writer, g *graph.Graph, res *pipeline.Result) {
	fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("%s %s %s", nodeName(g, res.From), iconArrow, nodeName(g, res.To))))
	printKeyValue(w, "Mode", res.Mode)
	printKeyValue(w, "Time", res.Time)
	printKeyValue(w, "Score", string(res.Aggregation))
	printStats(w, res.Stats.NodeCount, res.Stats.EdgeCount, res.CacheInfo.RoutesHit || res.CacheInfo.WeightsHit)

	for _, set := range res.Sets {
		printNewline(w)
		many := len(set.Routes) > 1 || set.Basis == routing.BasisBlended
		fmt.Fprintln(w, StyleHighlight.Render(basisTitle(set.Basis, len(set.Routes))))
		if len(set.Routes) == 0 {
			printDetail(w, "No path.")
			continue
		}
		for _, r := range set.Routes {
			tag := ""
			if many {
				tag = fmt.Sprintf("Option %d: ", r.Rank)
			}
			printRoute(w, tag, r, res.Edges)
		}
	}
}

func printRoute(w io.Writer, tag string, r pipeline.Route, reports map[string]*safety.EdgeReport) {
	fmt.Fprintln(w, "  "+tag+StyleValue.Render(joinNames(r.Names)))
	printDetail(w, "Distance: %.0f m | edges: %d | cost: %.3f | safety: %.3f",
		r.Distance, r.Hops(), r.Cost, r.Score)
	for _, s := range r.Steps {
		fmt.Fprintf(w, "    %s  %s  safety=%s\n",
			StyleDim.Render(s.EdgeID),
			StyleDim.Render(fmt.Sprintf("dist=%.0fm", s.Distance)),
			formatRisk(s.Weight))
		if rep := reports[s.EdgeID]; rep != nil && rep.Breakdown != nil {
			printBreakdown(w, rep)
		}
	}
}

func printBreakdown(w io.Writer, rep *safety.EdgeReport) {
	var parts []string
	for _, c := range rep.Breakdown.Contributions {
		if c.Value == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %.2f", c.Factor, c.Value))
	}
	if len(parts) > 0 {
		fmt.Fprintln(w, "      "+StyleDim.Render(strings.Join(parts, " · ")))
	}
}

func nodeName(g *graph.Graph, id string) string {
	if n, ok := g.Node(id); ok {
		return n.DisplayName()
	}
	return id
}
