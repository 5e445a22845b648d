package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by [Load].
const EnvPrefix = "SAFEROUTE_"

// LoadDotEnv loads .env from the working directory (or the given files)
// into the process environment. Variables already set are not replaced.
// A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// applyEnv overlays SAFEROUTE_* variables:
//
//	SAFEROUTE_GRAPH, SAFEROUTE_NODES, SAFEROUTE_EDGES, SAFEROUTE_OVERRIDES
//	SAFEROUTE_MONGO_URI, SAFEROUTE_MONGO_DATABASE, SAFEROUTE_MONGO_TIMEOUT
//	SAFEROUTE_CACHE, SAFEROUTE_CACHE_DIR, SAFEROUTE_REDIS_URL, SAFEROUTE_REDIS_PREFIX
//	SAFEROUTE_ADDR, SAFEROUTE_SHUTDOWN_TIMEOUT
//	SAFEROUTE_MODE, SAFEROUTE_TIME, SAFEROUTE_K
func (c *Config) applyEnv() {
	c.Data.Graph = getEnv("GRAPH", c.Data.Graph)
	c.Data.Nodes = getEnv("NODES", c.Data.Nodes)
	c.Data.Edges = getEnv("EDGES", c.Data.Edges)
	c.Data.Overrides = getEnv("OVERRIDES", c.Data.Overrides)
	c.Data.MongoURI = getEnv("MONGO_URI", c.Data.MongoURI)
	c.Data.MongoDatabase = getEnv("MONGO_DATABASE", c.Data.MongoDatabase)
	c.Data.MongoTimeout = getEnvDuration("MONGO_TIMEOUT", c.Data.MongoTimeout)

	c.Cache.Backend = strings.ToLower(getEnv("CACHE", c.Cache.Backend))
	c.Cache.Dir = getEnv("CACHE_DIR", c.Cache.Dir)
	c.Cache.RedisURL = getEnv("REDIS_URL", c.Cache.RedisURL)
	c.Cache.RedisPrefix = getEnv("REDIS_PREFIX", c.Cache.RedisPrefix)

	c.Server.Addr = getEnv("ADDR", c.Server.Addr)
	c.Server.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Query.Mode = getEnv("MODE", c.Query.Mode)
	c.Query.Time = getEnv("TIME", c.Query.Time)
	c.Query.K = getEnvInt("K", c.Query.K)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		// bare numbers are seconds
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}
