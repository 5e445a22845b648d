package source

import (
	"context"
	"fmt"

	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
	sio "github.com/liaphilip/women-safety-route-finder/pkg/io"
	"github.com/liaphilip/women-safety-route-finder/pkg/safety"
)

// FileOptions selects the files of a [FileSource]. Set either GraphPath or
// both NodesPath and EdgesPath.
type FileOptions struct {
	GraphPath     string
	NodesPath     string
	EdgesPath     string
	OverridesPath string
}

// FileSource reads datasets from JSON files on every Load.
type FileSource struct {
	opts FileOptions
}

// NewFileSource validates opts and returns a file source.
func NewFileSource(opts FileOptions) (*FileSource, error) {
	const op = "source.NewFileSource"
	switch {
	case opts.GraphPath != "" && (opts.NodesPath != "" || opts.EdgesPath != ""):
		return nil, errors.Configuration(op, "set either a graph file or nodes and edges files, not both")
	case opts.GraphPath == "" && (opts.NodesPath == "" || opts.EdgesPath == ""):
		return nil, errors.Configuration(op, "a graph file or both nodes and edges files are required")
	}
	return &FileSource{opts: opts}, nil
}

// Name returns the graph path, or "nodes+edges" paths.
func (s *FileSource) Name() string {
	if s.opts.GraphPath != "" {
		return "file:" + s.opts.GraphPath
	}
	return fmt.Sprintf("file:%s+%s", s.opts.NodesPath, s.opts.EdgesPath)
}

// Load reads the files.
func (s *FileSource) Load(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		g   *graph.Graph
		err error
	)
	if s.opts.GraphPath != "" {
		g, err = sio.ImportGraphJSON(s.opts.GraphPath)
	} else {
		g, err = sio.ImportNodesEdgesJSON(s.opts.NodesPath, s.opts.EdgesPath)
	}
	if err != nil {
		return nil, err
	}

	var ov *safety.Overrides
	if s.opts.OverridesPath != "" {
		if ov, err = sio.ImportOverridesJSON(s.opts.OverridesPath); err != nil {
			return nil, err
		}
	}
	return NewDataset(g, ov), nil
}

// Close does nothing.
func (s *FileSource) Close() error { return nil }

var _ Source = (*FileSource)(nil)
