// Package render converts candidate-search results to Graphviz diagrams.
//
// Each register candidate becomes a node pair (pipelined) or a single
// self-looping node (round-based), summarizing the register structure of a
// design without drawing every gate. The DOT output can be rendered to
// SVG or PNG with the embedded Graphviz engine.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/hwseclab/regscan/pkg/candidate"
)

// Options configures candidate diagram rendering.
type Options struct {
	// Detailed includes the member gate names in node labels.
	// When false, only the register width is shown.
	Detailed bool
}

// ToDOT converts a candidate list to Graphviz DOT format.
// Candidates are expected in the canonical order produced by the finder;
// node IDs are assigned by position so the output is reproducible.
func ToDOT(cands []*candidate.RegisterCandidate, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph registers {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for i, c := range cands {
		if c.IsRoundBased() {
			id := fmt.Sprintf("reg%d", i)
			fmt.Fprintf(&buf, "  %q [label=%q];\n", id, label(c, c.InputReg(), "round", i, opts))
			fmt.Fprintf(&buf, "  %q -> %q;\n", id, id)
			continue
		}
		in := fmt.Sprintf("reg%d_in", i)
		out := fmt.Sprintf("reg%d_out", i)
		fmt.Fprintf(&buf, "  %q [label=%q];\n", in, label(c, c.InputReg(), "in", i, opts))
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=lightgrey];\n", out, label(c, c.OutputReg(), "out", i, opts))
		fmt.Fprintf(&buf, "  %q -> %q;\n", in, out)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func label(c *candidate.RegisterCandidate, reg candidate.GateSet, role string, idx int, opts Options) string {
	head := fmt.Sprintf("reg %d %s\n%d bit", idx, role, c.Size())
	if !opts.Detailed {
		return head
	}
	names := make([]string, 0, reg.Size())
	for _, g := range reg.Gates() {
		names = append(names, g.Name())
	}
	return head + "\n" + strings.Join(names, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.PNG)
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
