// Package config loads saferoute settings from a TOML file and the
// environment.
//
// Settings are resolved in three layers, later layers winning:
//
//  1. built-in defaults ([Default])
//  2. the TOML file given with --config, or
//     $XDG_CONFIG_HOME/saferoute/config.toml when it exists
//  3. SAFEROUTE_* environment variables (a .env file in the working
//     directory is loaded first, see [LoadDotEnv])
//
// A minimal file:
//
//	[data]
//	graph = "data/campus.json"
//	overrides = "data/overrides.json"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[scoring.profiles.walking]
//	crime = { base = 3.0 }
//
//	[scoring.times.night]
//	overall = 1.3
//
// The [scoring] table is merged onto [safety.DefaultConfig]; use
// [Config.Safety] to get the effective scorer configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Defaults.
const (
	DefaultAddr            = ":8080"
	DefaultRedisPrefix     = "saferoute:"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultMongoTimeout    = 10 * time.Second
)

// Config holds every saferoute setting.
type Config struct {
	Data    DataConfig    `toml:"data"`
	Cache   CacheConfig   `toml:"cache"`
	Server  ServerConfig  `toml:"server"`
	Query   QueryConfig   `toml:"query"`
	Scoring ScoringConfig `toml:"scoring"`

	// path is the file the config was read from, empty for defaults only.
	path string
}

// DataConfig selects where the road graph comes from. Either the file
// settings or the Mongo settings are used; Mongo wins when MongoURI is set.
type DataConfig struct {
	Graph     string `toml:"graph"`
	Nodes     string `toml:"nodes"`
	Edges     string `toml:"edges"`
	Overrides string `toml:"overrides"`

	MongoURI      string        `toml:"mongo_uri"`
	MongoDatabase string        `toml:"mongo_database"`
	MongoTimeout  time.Duration `toml:"mongo_timeout"`
}

// UsesMongo reports whether the dataset is read from MongoDB.
func (d DataConfig) UsesMongo() bool { return d.MongoURI != "" }

// CacheConfig selects the weight and route cache.
type CacheConfig struct {
	Backend     string `toml:"backend"` // file, redis or none
	Dir         string `toml:"dir"`     // file backend; empty uses the user cache dir
	RedisURL    string `toml:"redis_url"`
	RedisPrefix string `toml:"redis_prefix"`
}

// ServerConfig configures `saferoute serve`.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// QueryConfig holds the defaults for route queries that omit them.
type QueryConfig struct {
	Mode string `toml:"mode"`
	Time string `toml:"time"`
	K    int    `toml:"k"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Data: DataConfig{MongoTimeout: DefaultMongoTimeout},
		Cache: CacheConfig{
			Backend:     CacheFile,
			RedisPrefix: DefaultRedisPrefix,
		},
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Query: QueryConfig{Mode: "walking", Time: "day", K: 3},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/saferoute/config.toml, falling back
// to the OS user config directory.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(dir, "saferoute", "config.toml")
}

// Load reads the configuration. An explicit path must exist; with an empty
// path the default location is tried and silently skipped when missing.
// Environment overrides are applied last and the result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		err := cfg.decodeFile(path)
		switch {
		case err == nil:
			cfg.path = path
		case !explicit && errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML text onto the defaults without consulting the
// environment. Unknown keys are rejected.
func Parse(data string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func checkUndecoded(md toml.MetaData) error {
	if keys := md.Undecoded(); len(keys) > 0 {
		return fmt.Errorf("unknown config key %q", keys[0].String())
	}
	return nil
}

// Path returns the file the configuration was loaded from, or "".
func (c *Config) Path() string { return c.path }

// Validate checks settings that do not depend on the scorer. Scoring
// tables are checked by [Config.Safety].
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache backend redis requires redis_url")
		}
	default:
		return fmt.Errorf("invalid cache backend %q (want file, redis or none)", c.Cache.Backend)
	}

	d := c.Data
	if d.Graph != "" && (d.Nodes != "" || d.Edges != "") {
		return fmt.Errorf("data: set either graph or nodes and edges, not both")
	}
	if (d.Nodes == "") != (d.Edges == "") {
		return fmt.Errorf("data: nodes and edges must be set together")
	}
	if d.UsesMongo() && d.MongoDatabase == "" {
		return fmt.Errorf("data: mongo_uri requires mongo_database")
	}
	if d.MongoTimeout < 0 {
		return fmt.Errorf("data: invalid mongo_timeout %s", d.MongoTimeout)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server: addr is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server: invalid shutdown_timeout %s", c.Server.ShutdownTimeout)
	}
	if c.Query.K < 1 {
		return fmt.Errorf("query: k must be >= 1, got %d", c.Query.K)
	}
	return nil
}

// HasData reports whether any dataset location is configured.
func (c *Config) HasData() bool {
	d := c.Data
	return d.Graph != "" || d.Nodes != "" || d.UsesMongo()
}

// String returns a one-line summary safe for logs. Connection strings are
// reduced to whether they are set.
func (c *Config) String() string {
	data := c.Data.Graph
	if c.Data.Nodes != "" {
		data = c.Data.Nodes + "+" + c.Data.Edges
	}
	if c.Data.UsesMongo() {
		data = "mongo:" + c.Data.MongoDatabase
	}
	return fmt.Sprintf("Config{Data: %s, Cache: %s, Addr: %s, Mode: %s, Time: %s, K: %d}",
		data, c.Cache.Backend, c.Server.Addr, c.Query.Mode, c.Query.Time, c.Query.K)
}
