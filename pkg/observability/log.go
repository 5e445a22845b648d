package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports pipeline, cache and server events as debug-level log
// lines. It implements all three hook interfaces.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks writing to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnLoadStart(_ context.Context, source string) {
	h.logger.Debug("load graph", "source", source)
}

func (h *LogHooks) OnLoadComplete(_ context.Context, source string, nodes, edges int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("load graph failed", "source", source, "err", err)
		return
	}
	h.logger.Debug("loaded graph", "source", source, "nodes", nodes, "edges", edges, "took", d)
}

func (h *LogHooks) OnWeighStart(_ context.Context, mode, tm string, edges int) {
	h.logger.Debug("weigh edges", "mode", mode, "time", tm, "edges", edges)
}

func (h *LogHooks) OnWeighComplete(_ context.Context, mode, tm string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("weigh failed", "mode", mode, "time", tm, "err", err)
		return
	}
	h.logger.Debug("weighed edges", "mode", mode, "time", tm, "took", d)
}

func (h *LogHooks) OnSearchStart(_ context.Context, source, target string, k int) {
	h.logger.Debug("search", "from", source, "to", target, "k", k)
}

func (h *LogHooks) OnSearchComplete(_ context.Context, source, target string, found int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("search failed", "from", source, "to", target, "err", err)
		return
	}
	h.logger.Debug("searched", "from", source, "to", target, "paths", found, "took", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("request", "method", method, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Info("response", "method", method, "path", path, "status", status, "took", d)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ ServerHooks   = (*LogHooks)(nil)
)
