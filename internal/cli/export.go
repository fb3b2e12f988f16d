package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hwseclab/regscan/pkg/pipeline"
)

// newExportCmd creates the export command for rendering candidate diagrams.
func newExportCmd() *cobra.Command {
	var (
		formatsStr  string
		output      string
		libPath     string
		depth       int
		controlsStr string
		gates       bool
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "export <netlist.bench>",
		Short: "Render register candidates as a diagram",
		Long: `Render register candidates as a diagram.

The export command scans the netlist like 'scan' and writes the result
as a Graphviz diagram. Round-based registers appear as self-looping
nodes, pipelined registers as input/output node pairs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			runner := newRunner(logger, noCache)
			defer runner.Close()

			opts := pipeline.Options{
				NetlistPath:    args[0],
				LibraryPath:    libPath,
				MaxLogicDepth:  depth,
				SharedControls: parseControls(controlsStr),
				Formats:        formats,
				Detailed:       gates,
				Logger:         logger,
			}

			prog := newProgress(logger)
			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", args[0]))
			spinner.Start()
			result, err := runner.Execute(ctx, opts)
			if err != nil {
				spinner.StopWithError("Export failed")
				return err
			}
			spinner.Stop()
			prog.done(fmt.Sprintf("Rendered %d candidate(s) as %s",
				len(result.Records), strings.Join(formats, ", ")))

			return writeArtifacts(result.Artifacts, formats, args[0], output, result.CacheInfo.RenderHit)
		},
	}

	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, json (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVar(&libPath, "lib", "", "gate library TOML file (default: built-in library)")
	cmd.Flags().IntVar(&depth, "depth", 0, "max combinational gates between flip-flops (default 3)")
	cmd.Flags().StringVar(&controlsStr, "controls", "", "control pin classes candidates must share: enable, reset (comma-separated)")
	cmd.Flags().BoolVar(&gates, "gates", false, "include member gate names in node labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// writeArtifacts writes each rendered format next to the input file, or
// under the explicit output path.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string, cached bool) error {
	// A single format with an explicit output writes exactly there.
	if output != "" && len(formats) == 1 {
		if err := os.WriteFile(output, artifacts[formats[0]], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		printSuccess("Exported %s", formats[0])
		printFile(output)
		return nil
	}

	base := output
	if base == "" {
		base = strings.TrimSuffix(input, ".bench") + "_registers"
	}

	printSuccess("Exported %s", strings.Join(formats, ", "))
	for _, format := range formats {
		path := base + "." + format
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	if cached {
		printDetail("served from cache")
	}
	return nil
}
