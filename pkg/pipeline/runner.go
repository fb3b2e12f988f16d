package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hwseclab/regscan/pkg/cache"
	"github.com/hwseclab/regscan/pkg/candidate"
	"github.com/hwseclab/regscan/pkg/errors"
	"github.com/hwseclab/regscan/pkg/netlist"
	"github.com/hwseclab/regscan/pkg/netlist/bench"
	"github.com/hwseclab/regscan/pkg/observability"
	"github.com/hwseclab/regscan/pkg/render"
	"github.com/hwseclab/regscan/pkg/report"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger, so multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger}
}

// Execute runs the complete parse → scan → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Parse
	parseStart := time.Now()
	nl, netlistHash, parseHit, err := r.ParseWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Netlist = nl
	result.NetlistHash = netlistHash
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.GateCount = nl.GateCount()
	result.Stats.NetCount = nl.NetCount()
	result.Stats.FlipFlopCount = len(nl.FlipFlops())
	result.CacheInfo.ParseHit = parseHit

	opts.Logger.Info("parsed netlist",
		"design", nl.Name(),
		"gates", result.Stats.GateCount,
		"flip_flops", result.Stats.FlipFlopCount,
		"cached", parseHit,
		"duration", result.Stats.ParseTime)

	// Stage 2: Scan
	scanStart := time.Now()
	cands, scanHit, err := r.ScanWithCacheInfo(ctx, nl, netlistHash, opts)
	if err != nil {
		return nil, err
	}
	result.Candidates = cands
	result.Records = toRecords(cands)
	result.Stats.ScanTime = time.Since(scanStart)
	result.Stats.CandidateCount = len(cands)
	result.CacheInfo.ScanHit = scanHit

	opts.Logger.Info("scan complete",
		"candidates", len(cands),
		"cached", scanHit,
		"duration", result.Stats.ScanTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, cands, result.Records, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ParseWithCacheInfo reads the netlist source named by the options and
// returns the parsed design together with the content hash of its source,
// reporting whether the parse was served from cache. Cached entries are
// keyed by source content only; gate types are resolved against the live
// library on rebuild, and any mismatch falls back to a fresh parse.
func (r *Runner) ParseWithCacheInfo(ctx context.Context, opts Options) (*netlist.Netlist, string, bool, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, "", false, err
	}
	lib, _, err := opts.ResolveLibrary()
	if err != nil {
		return nil, "", false, err
	}

	var src []byte
	var name string
	if opts.Source != "" {
		src = []byte(opts.Source)
		name = opts.Name
	} else {
		src, err = readNetlistFile(opts.NetlistPath)
		if err != nil {
			return nil, "", false, err
		}
		name = strings.TrimSuffix(filepath.Base(opts.NetlistPath), ".bench")
	}
	contentHash := cache.Hash(src)
	key := cache.NetlistKey(contentHash)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if nl, err := decodeNetlist(data, name, lib); err == nil {
				observability.Cache().OnCacheHit(ctx, key)
				return nl, contentHash, true, nil
			}
			// Stale or undecodable entry, re-parse below.
		}
		observability.Cache().OnCacheMiss(ctx, key)
	}

	nl, err := bench.Parse(bytes.NewReader(src), name, lib)
	if err != nil {
		return nil, "", false, err
	}

	if data, err := encodeNetlist(nl); err == nil {
		if r.Cache.Set(ctx, key, data, cache.TTLNetlist) == nil {
			observability.Cache().OnCacheSet(ctx, key, len(data))
		}
	}
	return nl, contentHash, false, nil
}

// ParseNetlist is a convenience wrapper that discards the cache hit info.
func (r *Runner) ParseNetlist(ctx context.Context, opts Options) (*netlist.Netlist, string, error) {
	nl, hash, _, err := r.ParseWithCacheInfo(ctx, opts)
	return nl, hash, err
}

// ScanWithCacheInfo runs the candidate search with caching and reports
// whether the result came from cache.
func (r *Runner) ScanWithCacheInfo(ctx context.Context, nl *netlist.Netlist, netlistHash string, opts Options) ([]*candidate.RegisterCandidate, bool, error) {
	r.applyLogger(&opts)
	cfg, err := opts.FinderConfig()
	if err != nil {
		return nil, false, err
	}
	_, libHash, err := opts.ResolveLibrary()
	if err != nil {
		return nil, false, err
	}

	rec := opts.ConfigRecord()
	key := cache.ScanKey(netlistHash, cache.ScanKeyOpts{
		MaxLogicDepth:  rec.MaxLogicDepth,
		SharedControls: rec.SharedControls,
		LibraryHash:    libHash,
	})

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if cands, err := candidatesFromRecords(nl, data); err == nil {
				observability.Cache().OnCacheHit(ctx, key)
				return cands, true, nil
			}
			// Undecodable entry, recompute below.
		}
		observability.Cache().OnCacheMiss(ctx, key)
	}

	finder := candidate.NewFinder(cfg, opts.Logger)
	cands, err := finder.Find(ctx, nl)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(toRecords(cands)); err == nil {
		if r.Cache.Set(ctx, key, data, cache.TTLScan) == nil {
			observability.Cache().OnCacheSet(ctx, key, len(data))
		}
	}
	return cands, false, nil
}

// Scan is a convenience wrapper that discards the cache hit info.
func (r *Runner) Scan(ctx context.Context, nl *netlist.Netlist, netlistHash string, opts Options) ([]*candidate.RegisterCandidate, error) {
	cands, _, err := r.ScanWithCacheInfo(ctx, nl, netlistHash, opts)
	return cands, err
}

// RenderWithCacheInfo generates artifacts with caching and reports
// whether all of them came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, cands []*candidate.RegisterCandidate, records []report.CandidateRecord, opts Options) (map[string][]byte, bool, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}

	resultData, err := json.Marshal(records)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize scan result")
	}
	resultHash := cache.Hash(resultData)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		key := cache.ArtifactKey(resultHash, format, opts.Detailed)
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}
	if allCached && len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	rendered, err := r.renderAll(ctx, cands, records, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		key := cache.ArtifactKey(resultHash, format, opts.Detailed)
		_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// renderAll produces every requested format.
func (r *Runner) renderAll(ctx context.Context, cands []*candidate.RegisterCandidate, records []report.CandidateRecord, opts Options) (map[string][]byte, error) {
	out := make(map[string][]byte, len(opts.Formats))
	ropts := render.Options{Detailed: opts.Detailed}
	dot := ""
	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			data, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode candidates")
			}
			out[format] = data
		case FormatDOT:
			if dot == "" {
				dot = render.ToDOT(cands, ropts)
			}
			out[format] = []byte(dot)
		case FormatSVG:
			if dot == "" {
				dot = render.ToDOT(cands, ropts)
			}
			data, err := render.RenderSVG(ctx, dot)
			if err != nil {
				return nil, err
			}
			out[format] = data
		case FormatPNG:
			if dot == "" {
				dot = render.ToDOT(cands, ropts)
			}
			data, err := render.RenderPNG(ctx, dot)
			if err != nil {
				return nil, err
			}
			out[format] = data
		}
	}
	return out, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// toRecords converts candidates to their serializable form.
func toRecords(cands []*candidate.RegisterCandidate) []report.CandidateRecord {
	records := make([]report.CandidateRecord, len(cands))
	for i, c := range cands {
		records[i] = report.NewCandidateRecord(c)
	}
	return records
}

// candidatesFromRecords rebuilds candidates from a cached scan result.
// Fails if any recorded gate name is absent from the netlist, which
// signals a stale entry.
func candidatesFromRecords(nl *netlist.Netlist, data []byte) ([]*candidate.RegisterCandidate, error) {
	var records []report.CandidateRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	cands := make([]*candidate.RegisterCandidate, len(records))
	for i, rec := range records {
		in, err := gatesByName(nl, rec.InputReg)
		if err != nil {
			return nil, err
		}
		if rec.RoundBased {
			cands[i], err = candidate.NewRoundBased(nl, in)
		} else {
			var out []*netlist.Gate
			out, err = gatesByName(nl, rec.OutputReg)
			if err != nil {
				return nil, err
			}
			cands[i], err = candidate.NewPipelined(nl, in, out)
		}
		if err != nil {
			return nil, err
		}
	}
	return cands, nil
}

func gatesByName(nl *netlist.Netlist, names []string) ([]*netlist.Gate, error) {
	gates := make([]*netlist.Gate, len(names))
	for i, name := range names {
		g, ok := nl.GateByName(name)
		if !ok {
			return nil, errors.New(errors.ErrCodeGateNotFound, "gate %s", name)
		}
		gates[i] = g
	}
	return gates, nil
}

// readNetlistFile loads a .bench file, mapping missing files to a
// user-facing error code.
func readNetlistFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read netlist %s", path)
	}
	return data, nil
}
