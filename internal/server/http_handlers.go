package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/pprof"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sanonone/terndb/pkg/core"
	"github.com/sanonone/terndb/pkg/path"
)

// registerHTTPHandlers sets up the REST API routes.
func (s *Server) registerHTTPHandlers(mux *http.ServeMux) {
	// Triples
	mux.HandleFunc("POST /triples/actions/assert", s.handleAssert)
	mux.HandleFunc("POST /triples/actions/retract", s.handleRetract)
	mux.HandleFunc("POST /triples/actions/match", s.handleMatch)

	// Queries
	mux.HandleFunc("POST /query/path", s.handlePathQuery)
	mux.HandleFunc("GET /query/top-nodes", s.handleTopNodes)

	// System
	mux.HandleFunc("POST /system/save", s.handleSave)
	mux.HandleFunc("POST /system/aof-rewrite", s.handleAOFRewrite)
	mux.HandleFunc("GET /system/stats", s.handleStats)
	mux.HandleFunc("GET /system/tasks/{id}", s.handleTaskStatus)

	// Observability
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAssert(w http.ResponseWriter, r *http.Request) {
	var req TripleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t, err := req.toTriple()
	if err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, err.Error())
		return
	}

	added, err := s.Engine.Assert(t)
	if err != nil {
		s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, map[string]any{"status": "OK", "added": added})
}

func (s *Server) handleRetract(w http.ResponseWriter, r *http.Request) {
	var req TripleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t, err := req.toTriple()
	if err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, err.Error())
		return
	}

	existed, err := s.Engine.Retract(t)
	if err != nil {
		s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, map[string]any{"status": "OK", "existed": existed})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	pattern := [3]*core.Term{}
	for i, tj := range []*TermJSON{req.Subject, req.Predicate, req.Object} {
		if tj == nil {
			continue
		}
		term, err := tj.toTerm()
		if err != nil {
			s.writeHTTPError(w, http.StatusBadRequest, err.Error())
			return
		}
		pattern[i] = &term
	}

	limit := s.cfg.clampLimit(req.Limit)
	results := make([]TripleJSON, 0, 16)
	for t, err := range s.Engine.Match(pattern[0], pattern[1], pattern[2]) {
		if err != nil {
			s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
			return
		}
		results = append(results, tripleToJSON(t))
		if len(results) >= limit {
			break
		}
	}

	s.writeHTTPResponse(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handlePathQuery(w http.ResponseWriter, r *http.Request) {
	var req PathQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, err := req.Path.toPath()
	if err != nil {
		// Construction failures are client errors: the path spec itself is
		// malformed.
		var invalid *path.InvalidPathError
		if errors.As(err, &invalid) {
			s.writeHTTPError(w, http.StatusUnprocessableEntity, err.Error())
		} else {
			s.writeHTTPError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	var subj, obj *core.Term
	if req.Subject != nil {
		term, err := req.Subject.toTerm()
		if err != nil {
			s.writeHTTPError(w, http.StatusBadRequest, "subject: "+err.Error())
			return
		}
		subj = &term
	}
	if req.Object != nil {
		term, err := req.Object.toTerm()
		if err != nil {
			s.writeHTTPError(w, http.StatusBadRequest, "object: "+err.Error())
			return
		}
		obj = &term
	}

	pairs, err := s.Engine.PathQuery(p, subj, obj, s.cfg.clampLimit(req.Limit))
	if err != nil {
		s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := PathQueryResponse{Path: p.String(), Results: make([]PairJSON, 0, len(pairs))}
	for _, pr := range pairs {
		resp.Results = append(resp.Results, PairJSON{
			Subject: termToJSON(pr.Subject),
			Object:  termToJSON(pr.Object),
		})
	}
	s.writeHTTPResponse(w, http.StatusOK, resp)
}

func (s *Server) handleTopNodes(w http.ResponseWriter, r *http.Request) {
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeHTTPError(w, http.StatusBadRequest, "parameter 'n' must be a positive integer")
			return
		}
		n = parsed
	}

	scores := s.Engine.TopNodes(n)
	resp := TopNodesResponse{Nodes: make([]NodeScoreJSON, 0, len(scores))}
	for _, sc := range scores {
		resp.Nodes = append(resp.Nodes, NodeScoreJSON{Node: termToJSON(sc.Node), Score: sc.Score})
	}
	s.writeHTTPResponse(w, http.StatusOK, resp)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.SaveSnapshot(); err != nil {
		s.writeHTTPError(w, http.StatusInternalServerError, "snapshot failed: "+err.Error())
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, map[string]string{"status": "OK", "message": "snapshot created"})
}

// handleAOFRewrite starts the compaction asynchronously and returns a task
// the client can poll, since a rewrite on a large store can take a while.
func (s *Server) handleAOFRewrite(w http.ResponseWriter, r *http.Request) {
	task := s.taskManager.NewTask()

	go func() {
		task.SetStatus(TaskStatusRunning)
		task.SetProgress("rewriting append-only log")
		if err := s.Engine.RewriteAOF(); err != nil {
			task.SetError(err)
			return
		}
		task.SetStatus(TaskStatusCompleted)
	}()

	s.writeHTTPResponse(w, http.StatusAccepted, task.View())
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	task, found := s.taskManager.GetTask(r.PathValue("id"))
	if !found {
		s.writeHTTPError(w, http.StatusNotFound, "task not found")
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, task.View())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, s.Engine.GetStats())
}

// --- Response helpers ---

func (s *Server) writeHTTPResponse(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeHTTPError(w http.ResponseWriter, statusCode int, message string) {
	s.writeHTTPResponse(w, statusCode, map[string]string{"error": message})
}
