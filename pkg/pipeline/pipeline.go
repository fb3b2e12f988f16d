// Package pipeline provides the parse → scan → render pipeline for regscan.
//
// Both the CLI and the HTTP API execute candidate searches through this
// package, so caching, validation and defaults behave identically across
// entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: Read a .bench netlist against a gate library
//  2. Scan: Partition flip-flops and search for register candidates
//  3. Render: Generate output in various formats (DOT, SVG, PNG, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, logger)
//	opts := pipeline.Options{
//	    NetlistPath: "designs/aes.bench",
//	    Formats:     []string{"json", "svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hwseclab/regscan/pkg/cache"
	"github.com/hwseclab/regscan/pkg/candidate"
	"github.com/hwseclab/regscan/pkg/errors"
	"github.com/hwseclab/regscan/pkg/gatelib"
	"github.com/hwseclab/regscan/pkg/netlist"
	"github.com/hwseclab/regscan/pkg/report"
)

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Parse options. Exactly one of NetlistPath and Source must be set.
	NetlistPath string `json:"netlist_path,omitempty"`
	Source      string `json:"source,omitempty"` // inline .bench text
	Name        string `json:"name,omitempty"`   // design name for Source input
	LibraryPath string `json:"library_path,omitempty"`

	// Scan options
	MaxLogicDepth  int      `json:"max_logic_depth,omitempty"`
	SharedControls []string `json:"shared_controls,omitempty"`
	Parallelism    int      `json:"parallelism,omitempty"`
	Refresh        bool     `json:"refresh,omitempty"` // bypass the cache

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // gate names in diagram labels

	// Runtime options (not serialized)
	Logger  *log.Logger      `json:"-"`
	Library *gatelib.Library `json:"-"` // overrides LibraryPath

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`

	// libraryHash memoizes the content hash of a library loaded from
	// LibraryPath.
	libraryHash string `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Netlist is the parsed design.
	Netlist *netlist.Netlist

	// NetlistHash is the content hash of the netlist source.
	NetlistHash string

	// Candidates is the search result in canonical order.
	Candidates []*candidate.RegisterCandidate

	// Records is the serializable form of Candidates.
	Records []report.CandidateRecord

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	GateCount      int
	NetCount       int
	FlipFlopCount  int
	CandidateCount int
	ParseTime      time.Duration
	ScanTime       time.Duration
	RenderTime     time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ParseHit  bool // Whether the parsed netlist came from cache
	ScanHit   bool // Whether the search result came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: dot, svg, png, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	if _, err := o.ControlClasses(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForParse checks required fields for parsing.
func (o *Options) ValidateForParse() error {
	if o.NetlistPath == "" && o.Source == "" {
		return errors.New(errors.ErrCodeInvalidInput, "netlist_path or source is required")
	}
	if o.NetlistPath != "" && o.Source != "" {
		return errors.New(errors.ErrCodeInvalidInput, "netlist_path and source are mutually exclusive")
	}
	if o.Source != "" && o.Name == "" {
		o.Name = "netlist"
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
}

// ControlClasses parses SharedControls into pin classes.
func (o *Options) ControlClasses() ([]gatelib.PinClass, error) {
	if len(o.SharedControls) == 0 {
		return nil, nil
	}
	classes := make([]gatelib.PinClass, 0, len(o.SharedControls))
	for _, s := range o.SharedControls {
		c, err := gatelib.ParsePinClass(s)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "shared control %q", s)
		}
		if c != gatelib.PinEnable && c != gatelib.PinReset {
			return nil, errors.New(errors.ErrCodeInvalidConfig,
				"shared control %q: only enable and reset pins can be shared", s)
		}
		classes = append(classes, c)
	}
	return classes, nil
}

// ResolveLibrary returns the gate library for this run together with its
// content hash. A library set directly on the options wins over
// LibraryPath; with neither, the built-in library is used and the hash is
// empty.
func (o *Options) ResolveLibrary() (*gatelib.Library, string, error) {
	if o.Library != nil {
		return o.Library, o.libraryHash, nil
	}
	if o.LibraryPath == "" {
		o.Library = gatelib.Default()
		return o.Library, "", nil
	}
	data, err := os.ReadFile(o.LibraryPath)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeFileNotFound, err, "read library %s", o.LibraryPath)
	}
	lib, err := gatelib.Parse(data)
	if err != nil {
		return nil, "", err
	}
	o.Library = lib
	o.libraryHash = cache.Hash(data)
	return lib, o.libraryHash, nil
}

// FinderConfig builds the search configuration from the options.
func (o *Options) FinderConfig() (candidate.Config, error) {
	controls, err := o.ControlClasses()
	if err != nil {
		return candidate.Config{}, err
	}
	return candidate.Config{
		MaxLogicDepth:  o.MaxLogicDepth,
		SharedControls: controls,
		Parallelism:    o.Parallelism,
	}, nil
}

// ConfigRecord returns the serializable form of the scan configuration,
// with defaults made explicit.
func (o *Options) ConfigRecord() report.ConfigRecord {
	depth := o.MaxLogicDepth
	if depth == 0 {
		depth = candidate.DefaultMaxLogicDepth
	}
	return report.ConfigRecord{
		MaxLogicDepth:  depth,
		SharedControls: o.SharedControls,
	}
}
