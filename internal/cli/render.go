package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
	"github.com/liaphilip/women-safety-route-finder/pkg/pipeline"
	"github.com/liaphilip/women-safety-route-finder/pkg/render"
	"github.com/liaphilip/women-safety-route-finder/pkg/routing"
	"github.com/liaphilip/women-safety-route-finder/pkg/source"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	data     dataFlags
	query    queryFlags
	from     string
	to       string
	basis    string
	k        int
	detailed bool
	format   string // dot or svg; inferred from output when empty
	output   string
}

// renderCommand creates the render command for road diagrams.
//
// Edges are colored by safety weight. With --from and --to the routes of
// the query are highlighted, one color per route.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the road graph to DOT or SVG, highlighting routes",
		Example: `  saferoute render -g data/campus.json --time night -o campus.svg
  saferoute render -g data/campus.json --from A --to D --detailed -o route.dot`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), opts)
		},
	}

	opts.data.register(cmd)
	opts.query.register(cmd)
	cmd.Flags().StringVar(&opts.from, "from", "", "start node id of routes to highlight")
	cmd.Flags().StringVar(&opts.to, "to", "", "destination node id of routes to highlight")
	cmd.Flags().StringVarP(&opts.basis, "basis", "b", "", "cost basis of highlighted routes (default: all three)")
	cmd.Flags().IntVarP(&opts.k, "k", "k", 0, "number of balanced routes to highlight")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label edges with length and weight")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: dot or svg (default from --output extension, else dot)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	c.registerCompletions(cmd, &opts.data, "from", "to")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts renderOpts) error {
	format, err := resolveFormat(opts.format, opts.output)
	if err != nil {
		return err
	}
	if (opts.from == "") != (opts.to == "") {
		return errors.New(errors.ErrCodeInvalidInput, "cli.render", "--from and --to must be used together")
	}

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
	g, err := runner.WeightedGraph(ctx, ds, q)
	if err != nil {
		return err
	}

	ropts := render.Options{Detailed: opts.detailed}
	if opts.from != "" {
		q.From, q.To, q.K = opts.from, opts.to, opts.k
		q.Basis = routing.Basis(opts.basis)
		ropts.Routes, err = c.highlights(ctx, runner, ds, q)
		if err != nil {
			return err
		}
	}

	dot := render.ToDOT(g, ropts)
	var data []byte
	switch format {
	case formatSVG:
		if data, err = render.RenderSVG(ctx, dot); err != nil {
			return err
		}
	default:
		data = []byte(dot)
	}

	if err := c.writeOutput(opts.output, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return err
	}
	if opts.output != "" && opts.output != "-" {
		printSuccess(c.Out, "Rendered %s", describeGraph(g))
		printFile(c.Out, opts.output)
	}
	return nil
}

// highlights runs the route query and turns every found route into a
// highlight labeled like the text report.
func (c *CLI) highlights(ctx context.Context, runner *pipeline.Runner, ds *source.Dataset, q pipeline.Options) ([]render.Highlight, error) {
	res, err := runner.Execute(ctx, ds, q)
	if err != nil {
		return nil, err
	}
	var out []render.Highlight
	for _, set := range res.Sets {
		for _, r := range set.Routes {
			label := basisTitle(set.Basis, len(set.Routes))
			if len(set.Routes) > 1 {
				label = fmt.Sprintf("%s #%d", label, r.Rank)
			}
			out = append(out, render.Highlight{Label: label, Edges: r.EdgeIDs()})
		}
	}
	return out, nil
}

// resolveFormat picks the output format from the flag or the file
// extension.
func resolveFormat(format, output string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".svg":
			return formatSVG, nil
		default:
			return formatDOT, nil
		}
	}
	switch strings.ToLower(format) {
	case formatDOT, "gv":
		return formatDOT, nil
	case formatSVG:
		return formatSVG, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "cli.render", "unsupported format %q (want dot or svg)", format)
}

func describeGraph(g *graph.Graph) string {
	k := g.WeightKey()
	return fmt.Sprintf("%d nodes, %d edges (%s, %s)", g.NodeCount(), g.EdgeCount(), k.Mode, k.Time)
}
