package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hwseclab/regscan/pkg/pipeline"
)

// newScanCmd creates the scan command.
func newScanCmd() *cobra.Command {
	var (
		libPath     string
		depth       int
		controlsStr string
		parallel    int
		jsonOut     bool
		gates       bool
		noCache     bool
		refresh     bool
	)

	cmd := &cobra.Command{
		Use:   "scan <netlist.bench>",
		Short: "Search a netlist for register candidates",
		Long: `Search a netlist for register candidates.

The scan command reads an ISCAS-style .bench netlist, partitions its
flip-flops by clock net (and optionally by shared control nets), and
reports groups that form round-based or pipelined registers.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			runner := newRunner(logger, noCache)
			defer runner.Close()

			opts := pipeline.Options{
				NetlistPath:    args[0],
				LibraryPath:    libPath,
				MaxLogicDepth:  depth,
				SharedControls: parseControls(controlsStr),
				Parallelism:    parallel,
				Refresh:        refresh,
				Formats:        []string{pipeline.FormatJSON},
				Detailed:       gates,
				Logger:         logger,
			}

			prog := newProgress(logger)
			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Scanning %s...", args[0]))
			spinner.Start()
			result, err := runner.Execute(ctx, opts)
			if err != nil {
				spinner.StopWithError("Scan failed")
				return err
			}
			spinner.Stop()
			prog.done(fmt.Sprintf("Scanned %d gates, found %d candidate(s)",
				result.Stats.GateCount, len(result.Records)))

			if jsonOut {
				fmt.Println(string(result.Artifacts[pipeline.FormatJSON]))
				return nil
			}
			printScanReport(result, gates)
			return nil
		},
	}

	cmd.Flags().StringVar(&libPath, "lib", "", "gate library TOML file (default: built-in library)")
	cmd.Flags().IntVar(&depth, "depth", 0, "max combinational gates between flip-flops (default 3)")
	cmd.Flags().StringVar(&controlsStr, "controls", "", "control pin classes candidates must share: enable, reset (comma-separated)")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "max clock groups evaluated concurrently (default GOMAXPROCS)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print candidates as JSON")
	cmd.Flags().BoolVar(&gates, "gates", false, "list member gates per candidate")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if a cached result exists")

	return cmd
}

// printScanReport prints a styled candidate summary.
func printScanReport(result *pipeline.Result, gates bool) {
	fmt.Println(StyleTitle.Render(result.Netlist.Name()))
	printStats(result.Stats.GateCount, result.Stats.FlipFlopCount, result.CacheInfo.ScanHit)

	if len(result.Records) == 0 {
		printWarning("No register candidates found")
		return
	}

	printSuccess("Found %d register candidate(s)", len(result.Records))
	for i, rec := range result.Records {
		kind := "pipelined"
		if rec.RoundBased {
			kind = "round-based"
		}
		printInfo("reg %d: %s %s", i,
			StyleHighlight.Render(fmt.Sprintf("%d bit", rec.Size)),
			StyleDim.Render(kind))
		if !gates {
			continue
		}
		if rec.RoundBased {
			printDetail("state: %s", strings.Join(rec.InputReg, ", "))
		} else {
			printDetail("in:  %s", strings.Join(rec.InputReg, ", "))
			printDetail("out: %s", strings.Join(rec.OutputReg, ", "))
		}
	}
}
