package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/liaphilip/women-safety-route-finder/pkg/buildinfo"
	"github.com/liaphilip/women-safety-route-finder/pkg/cache"
	"github.com/liaphilip/women-safety-route-finder/pkg/config"
	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/observability"
	"github.com/liaphilip/women-safety-route-finder/pkg/pipeline"
	"github.com/liaphilip/women-safety-route-finder/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "saferoute"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	// Out receives command output. Logs go to the logger's writer.
	Out io.Writer

	configPath string
	verbose    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Saferoute finds safety-aware routes through a road graph",
		Long: `Saferoute weighs every road segment by crime, lighting, CCTV, crowding and
other safety factors for a travel mode and time of day, then reports the
shortest, the safest and the best balanced routes between two places.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.Out)
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/saferoute/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.routeCommand())
	root.AddCommand(c.weightsCommand())
	root.AddCommand(c.aggregateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.nodesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup runs before every command: log level, hooks, .env and config.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	if c.verbose {
		c.SetLogLevel(LogDebug)
		hooks := observability.NewLogHooks(c.Logger)
		observability.SetPipelineHooks(hooks)
		observability.SetCacheHooks(hooks)
		observability.SetServerHooks(hooks)
	}

	if err := config.LoadDotEnv(); err != nil {
		c.Logger.Warn("could not read .env", "error", err)
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	if cfg.Path() != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path())
	}

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// settings returns the loaded configuration, or the defaults when a command
// runs without the root's pre-run (tests).
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// =============================================================================
// Data Source
// =============================================================================

// dataFlags select the dataset, overriding the [data] config table.
type dataFlags struct {
	graph     string
	nodes     string
	edges     string
	overrides string
}

func (f *dataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.graph, "graph", "g", "", "graph JSON file with nodes and edges")
	cmd.Flags().StringVar(&f.nodes, "nodes", "", "nodes JSON file (with --edges)")
	cmd.Flags().StringVar(&f.edges, "edges", "", "edges JSON file (with --nodes)")
	cmd.Flags().StringVar(&f.overrides, "overrides", "", "per-edge overrides JSON file")
}

// openSource builds the dataset source from flags and config. File flags
// replace the configured data location entirely.
func (c *CLI) openSource(ctx context.Context, f dataFlags) (source.Source, error) {
	d := c.settings().Data
	if f.graph != "" || f.nodes != "" || f.edges != "" {
		d.Graph, d.Nodes, d.Edges = f.graph, f.nodes, f.edges
		d.MongoURI = ""
	}
	if f.overrides != "" {
		d.Overrides = f.overrides
	}

	if d.UsesMongo() {
		return source.NewMongoSource(ctx, source.MongoOptions{
			URI:      d.MongoURI,
			Database: d.MongoDatabase,
			Timeout:  d.MongoTimeout,
		})
	}
	if d.Graph == "" && d.Nodes == "" && d.Edges == "" {
		return nil, errors.Configuration("cli.openSource",
			"no graph data: pass --graph (or --nodes and --edges), or set data.graph in the config")
	}
	return source.NewFileSource(source.FileOptions{
		GraphPath:     d.Graph,
		NodesPath:     d.Nodes,
		EdgesPath:     d.Edges,
		OverridesPath: d.Overrides,
	})
}

// loadDataset opens the source and loads it through the runner.
func (c *CLI) loadDataset(ctx context.Context, runner *pipeline.Runner, f dataFlags) (*source.Dataset, error) {
	src, err := c.openSource(ctx, f)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return runner.Load(ctx, src)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	sc, err := c.settings().Safety()
	if err != nil {
		return nil, err
	}
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, sc, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cc := c.settings().Cache
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cc.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{URL: cc.RedisURL, Prefix: cc.RedisPrefix})
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the XDG default.
func (c *CLI) cacheDir() (string, error) {
	if dir := c.settings().Cache.Dir; dir != "" {
		return dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/saferoute/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Flag Helpers
// =============================================================================

// parseFloatMap converts factor=value flag pairs.
func parseFloatMap(flag string, in map[string]string) (map[string]float64, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "cli",
				"--%s %s=%s: not a number", flag, k, v)
		}
		out[k] = f
	}
	return out, nil
}

// writeOutput writes data to path, or to the CLI output when path is
// empty or "-".
func (c *CLI) writeOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(c.Out)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
