package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/liaphilip/women-safety-route-finder/pkg/buildinfo"
	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/pipeline"
	"github.com/liaphilip/women-safety-route-finder/pkg/safety"
)

// response is the envelope of every reply.
type response struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *apiError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response{
		Success:   true,
		Data:      data,
		RequestID: requestIDFrom(r.Context()),
	})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response{
		Error:     &apiError{Code: code, Message: msg},
		RequestID: requestIDFrom(r.Context()),
	})
}

// writeErr maps an engine error to its status. Uncoded errors are logged
// and reported without detail.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err,
			"request_id", requestIDFrom(r.Context()))
		writeError(w, r, http.StatusInternalServerError, string(errors.ErrCodeInternal), "internal error")
		return
	}
	writeError(w, r, statusFor(code), string(code), errors.UserMessage(err))
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeConfiguration:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNoPath, errors.ErrCodeBrokenPath:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.New(errors.ErrCodeInvalidInput, "server.decode", "request body exceeds %d bytes", tooLarge.Limit)
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, "server.decode", err, "invalid request body: %v", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
		"nodes":  s.ds.Graph.NodeCount(),
		"edges":  s.ds.Graph.EdgeCount(),
	})
}

type nodeInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Degree int    `json:"degree"`
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	g := s.ds.Graph
	nodes := g.Nodes()
	out := make([]nodeInfo, len(nodes))
	for i, n := range nodes {
		out[i] = nodeInfo{ID: n.ID, Name: n.Name, Degree: g.Degree(n.ID)}
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	cfg := s.runner.Config
	writeJSON(w, r, http.StatusOK, map[string]any{
		"modes":   cfg.Modes(),
		"times":   cfg.TimeLabels(),
		"factors": safety.Factors,
	})
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := decode(w, r, &opts); err != nil {
		s.writeErr(w, r, err)
		return
	}
	opts.Logger = s.logger
	res, err := s.runner.Execute(r.Context(), s.ds, opts)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleWeights(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := decode(w, r, &opts); err != nil {
		s.writeErr(w, r, err)
		return
	}
	opts.Logger = s.logger
	res, err := s.runner.Weights(r.Context(), s.ds, opts)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// aggregateRequest embeds the query options next to the node sequence.
type aggregateRequest struct {
	Nodes []string `json:"nodes"`
	pipeline.Options
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	var req aggregateRequest
	if err := decode(w, r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if len(req.Nodes) < 2 {
		s.writeErr(w, r, errors.New(errors.ErrCodeInvalidInput, "server.aggregate", "nodes needs at least two ids"))
		return
	}
	req.Options.Logger = s.logger
	sum, err := s.runner.Aggregate(r.Context(), s.ds, req.Nodes, req.Options)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sum)
}
