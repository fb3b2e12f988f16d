package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hwseclab/regscan/pkg/buildinfo"
	"github.com/hwseclab/regscan/pkg/errors"
	"github.com/hwseclab/regscan/pkg/pipeline"
	"github.com/hwseclab/regscan/pkg/report"
)

// ScanRequest is the body of POST /api/v1/scan.
type ScanRequest struct {
	// Source is the .bench netlist text.
	Source string `json:"source"`
	// Name labels the design in the stored run. Optional.
	Name string `json:"name,omitempty"`

	MaxLogicDepth  int      `json:"max_logic_depth,omitempty"`
	SharedControls []string `json:"shared_controls,omitempty"`
	Refresh        bool     `json:"refresh,omitempty"`

	// Formats requests rendered artifacts alongside the run. Artifact
	// bytes are base64 in the JSON response.
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
}

// ScanStats summarizes a scan for API clients.
type ScanStats struct {
	Gates      int    `json:"gates"`
	Nets       int    `json:"nets"`
	FlipFlops  int    `json:"flip_flops"`
	Candidates int    `json:"candidates"`
	ParseTime  string `json:"parse_time"`
	ScanTime   string `json:"scan_time"`
}

// ScanResponse is the body of a successful scan.
type ScanResponse struct {
	Run       *report.Run       `json:"run"`
	Stats     ScanStats         `json:"stats"`
	Cached    bool              `json:"cached"`
	Artifacts map[string][]byte `json:"artifacts,omitempty"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxScanBody)

	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if req.Source == "" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "source is required"))
		return
	}

	opts := pipeline.Options{
		Source:         req.Source,
		Name:           req.Name,
		MaxLogicDepth:  req.MaxLogicDepth,
		SharedControls: req.SharedControls,
		Refresh:        req.Refresh,
		Formats:        req.Formats,
		Detailed:       req.Detailed,
		Logger:         s.logger,
	}
	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	run := report.NewRun(result.Netlist, result.NetlistHash, opts.ConfigRecord(), result.Candidates)
	if err := s.store.Save(r.Context(), run); err != nil {
		s.writeError(w, err)
		return
	}

	resp := ScanResponse{
		Run: run,
		Stats: ScanStats{
			Gates:      result.Stats.GateCount,
			Nets:       result.Stats.NetCount,
			FlipFlops:  result.Stats.FlipFlopCount,
			Candidates: result.Stats.CandidateCount,
			ParseTime:  result.Stats.ParseTime.String(),
			ScanTime:   result.Stats.ScanTime.String(),
		},
		Cached: result.CacheInfo.ScanHit,
	}
	if len(req.Formats) > 0 {
		resp.Artifacts = result.Artifacts
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}
	runs, err := s.store.List(r.Context(), r.URL.Query().Get("netlist"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []*report.Run{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}
