package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
	sio "github.com/liaphilip/women-safety-route-finder/pkg/io"
)

type nodesOpts struct {
	data    dataFlags
	jsonOut bool
}

type nodeRow struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Degree int    `json:"degree"`
}

// nodesCommand creates the nodes command.
func (c *CLI) nodesCommand() *cobra.Command {
	var opts nodesOpts

	cmd := &cobra.Command{
		Use:     "nodes",
		Short:   "List the nodes of the road graph",
		Example: `  saferoute nodes -g data/campus.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			ds, err := c.loadDataset(ctx, runner, opts.data)
			if err != nil {
				return err
			}
			rows := nodeRows(ds.Graph)
			if opts.jsonOut {
				return sio.WriteResultJSON(rows, c.Out)
			}
			printNodes(c.Out, rows)
			printStats(c.Out, ds.Graph.NodeCount(), ds.Graph.EdgeCount(), false)
			return nil
		},
	}

	opts.data.register(cmd)
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the nodes as JSON")

	return cmd
}

func nodeRows(g *graph.Graph) []nodeRow {
	nodes := g.Nodes()
	rows := make([]nodeRow, len(nodes))
	for i, n := range nodes {
		rows[i] = nodeRow{ID: n.ID, Name: n.Name, Degree: g.Degree(n.ID)}
	}
	return rows
}

func printNodes(w io.Writer, rows []nodeRow) {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = []string{r.ID, r.Name, strconv.Itoa(r.Degree)}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Roads").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 && row < len(rows) && rows[row].Degree == 0 {
				return StyleDim
			}
			return lipgloss.NewStyle()
		})
	fmt.Fprintln(w, t.Render())
}
