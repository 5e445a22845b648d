package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liaphilip/women-safety-route-finder/pkg/cache"
	"github.com/liaphilip/women-safety-route-finder/pkg/config"
	"github.com/liaphilip/women-safety-route-finder/pkg/pipeline"
	"github.com/liaphilip/women-safety-route-finder/pkg/safety"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for saferoute.

Node ids for --from, --to and --avoid are completed from the graph named by
--graph (or the config file).

Bash:
  $ source <(saferoute completion bash)

Zsh:
  $ saferoute completion zsh > "${fpath[1]}/_saferoute"

Fish:
  $ saferoute completion fish > ~/.config/fish/completions/saferoute.fish

PowerShell:
  PS> saferoute completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), c.Out
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(out)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// registerCompletions wires dynamic completion for the query flags of cmd.
func (c *CLI) registerCompletions(cmd *cobra.Command, data *dataFlags, nodeFlags ...string) {
	for _, name := range nodeFlags {
		_ = cmd.RegisterFlagCompletionFunc(name, c.completeNodes(data))
	}
	_ = cmd.RegisterFlagCompletionFunc("mode", c.completeFixed(func(sc safety.Config) []string { return sc.Modes() }))
	_ = cmd.RegisterFlagCompletionFunc("time", c.completeFixed(func(sc safety.Config) []string { return sc.TimeLabels() }))
	_ = cmd.RegisterFlagCompletionFunc("prioritize", cobra.FixedCompletions(factorNames(), cobra.ShellCompDirectiveNoFileComp))
}

type completeFunc = func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective)

// completeNodes lists node ids with their names as descriptions. Completion
// runs without the root pre-run, so the config is loaded here.
func (c *CLI) completeNodes(data *dataFlags) completeFunc {
	return func(cmd *cobra.Command, _ []string, prefix string) ([]string, cobra.ShellCompDirective) {
		c.loadConfigQuietly()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		sc, err := c.settings().Safety()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		runner := pipeline.NewRunner(cache.NewNullCache(), nil, sc, nil)
		ds, err := c.loadDataset(ctx, runner, *data)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		var out []string
		for _, n := range ds.Graph.Nodes() {
			if !strings.HasPrefix(n.ID, prefix) {
				continue
			}
			if n.Name != "" {
				out = append(out, n.ID+"\t"+n.Name)
			} else {
				out = append(out, n.ID)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}

func (c *CLI) completeFixed(list func(safety.Config) []string) completeFunc {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		c.loadConfigQuietly()
		sc, err := c.settings().Safety()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return list(sc), cobra.ShellCompDirectiveNoFileComp
	}
}

func (c *CLI) loadConfigQuietly() {
	if c.cfg != nil {
		return
	}
	if cfg, err := config.Load(c.configPath); err == nil {
		c.cfg = cfg
	}
}

func factorNames() []string {
	out := make([]string, len(safety.Factors))
	for i, f := range safety.Factors {
		out[i] = string(f)
	}
	return out
}
