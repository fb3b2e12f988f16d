package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/hwseclab/regscan/pkg/errors"
	"github.com/hwseclab/regscan/pkg/pipeline"
	"github.com/hwseclab/regscan/pkg/report"
)

const roundSource = `
INPUT(in1)
OUTPUT(out1)
s1 = DFF(f1)
s2 = DFF(f2)
f1 = XOR(s1, s2)
f2 = XOR(s2, s1)
out1 = BUF(s1)
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(nil, logger)
	return NewServer(runner, report.NewMemoryStore(), logger)
}

func postScan(t *testing.T, srv *Server, req ScanRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/scan", bytes.NewReader(body))
	srv.ServeHTTP(w, r)
	return w
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
}

func TestScanAndRetrieve(t *testing.T) {
	srv := newTestServer(t)

	w := postScan(t, srv, ScanRequest{Source: roundSource, Name: "round2"})
	if w.Code != http.StatusCreated {
		t.Fatalf("scan status = %d, body %s", w.Code, w.Body)
	}
	var resp ScanResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Run == nil || resp.Run.ID == "" {
		t.Fatal("response has no run ID")
	}
	if resp.Run.Netlist != "round2" {
		t.Errorf("run netlist = %q", resp.Run.Netlist)
	}
	if len(resp.Run.Candidates) != 1 || resp.Run.Candidates[0].Size != 2 {
		t.Errorf("unexpected candidates: %+v", resp.Run.Candidates)
	}
	if resp.Stats.FlipFlops != 2 {
		t.Errorf("flip-flop stat = %d, want 2", resp.Stats.FlipFlops)
	}
	if resp.Artifacts != nil {
		t.Error("artifacts returned without requesting formats")
	}

	// The stored run must be retrievable.
	w2 := httptest.NewRecorder()
	srv.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+resp.Run.ID, nil))
	if w2.Code != http.StatusOK {
		t.Fatalf("get run status = %d", w2.Code)
	}
	var run report.Run
	if err := json.Unmarshal(w2.Body.Bytes(), &run); err != nil {
		t.Fatal(err)
	}
	if run.ID != resp.Run.ID {
		t.Errorf("run ID = %q, want %q", run.ID, resp.Run.ID)
	}

	w3 := httptest.NewRecorder()
	srv.ServeHTTP(w3, httptest.NewRequest(http.MethodGet, "/api/v1/runs?netlist=round2", nil))
	if w3.Code != http.StatusOK {
		t.Fatalf("list runs status = %d", w3.Code)
	}
	var runs []*report.Run
	if err := json.Unmarshal(w3.Body.Bytes(), &runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("got %d runs, want 1", len(runs))
	}
}

func TestScanWithArtifacts(t *testing.T) {
	srv := newTestServer(t)

	w := postScan(t, srv, ScanRequest{
		Source:  roundSource,
		Formats: []string{pipeline.FormatDOT},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("scan status = %d, body %s", w.Code, w.Body)
	}
	var resp ScanResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Artifacts[pipeline.FormatDOT]) == 0 {
		t.Error("no dot artifact in response")
	}
	if !bytes.Contains(resp.Artifacts[pipeline.FormatDOT], []byte("digraph")) {
		t.Error("dot artifact is not a digraph")
	}
}

func TestScanErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		req    ScanRequest
		status int
		code   errors.Code
	}{
		{"missing source", ScanRequest{}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad netlist", ScanRequest{Source: "g1 = !!"}, http.StatusBadRequest, errors.ErrCodeInvalidNetlist},
		{"bad format", ScanRequest{Source: roundSource, Formats: []string{"gif"}}, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad control", ScanRequest{Source: roundSource, SharedControls: []string{"nope"}}, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postScan(t, srv, tt.req)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body)
			}
			var resp errorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Code != tt.code {
				t.Errorf("code = %s, want %s", resp.Code, tt.code)
			}
		})
	}
}

func TestGetRunNotFound(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestListRunsBadLimit(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestListRunsEmpty(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := bytes.TrimSpace(w.Body.Bytes()); string(got) != "[]" {
		t.Errorf("body = %s, want []", got)
	}
}
