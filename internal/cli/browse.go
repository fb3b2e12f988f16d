package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/hwseclab/regscan/pkg/pipeline"
	"github.com/hwseclab/regscan/pkg/report"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// newBrowseCmd creates the browse command.
func newBrowseCmd() *cobra.Command {
	var (
		libPath     string
		depth       int
		controlsStr string
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "browse <netlist.bench>",
		Short: "Inspect register candidates interactively",
		Args:  cobra.ExactArgs(1),
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
				Formats:        []string{pipeline.FormatJSON},
				Logger:         logger,
			}

			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Scanning %s...", args[0]))
			spinner.Start()
			result, err := runner.Execute(ctx, opts)
			if err != nil {
				spinner.StopWithError("Scan failed")
				return err
			}
			spinner.Stop()

			if len(result.Records) == 0 {
				printWarning("No register candidates found")
				return nil
			}

			model := newBrowseModel(result.Netlist.Name(), result.Records)
			_, err = tea.NewProgram(model, tea.WithContext(ctx)).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&libPath, "lib", "", "gate library TOML file (default: built-in library)")
	cmd.Flags().IntVar(&depth, "depth", 0, "max combinational gates between flip-flops (default 3)")
	cmd.Flags().StringVar(&controlsStr, "controls", "", "control pin classes candidates must share: enable, reset (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// BrowseModel is the bubbletea model for interactive candidate inspection.
type BrowseModel struct {
	Design   string
	Records  []report.CandidateRecord
	Cursor   int
	Expanded map[int]bool
	Height   int
	Offset   int
}

// newBrowseModel creates a browse model over the given candidates.
func newBrowseModel(design string, records []report.CandidateRecord) BrowseModel {
	return BrowseModel{
		Design:   design,
		Records:  records,
		Expanded: make(map[int]bool),
		Height:   15,
	}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Records)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", " ":
			m.Expanded[m.Cursor] = !m.Expanded[m.Cursor]
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Register Candidates · " + m.Design))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ toggle gates  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Records) {
		end = len(m.Records)
	}

	for i := m.Offset; i < end; i++ {
		rec := m.Records[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		kind := "pipelined"
		if rec.RoundBased {
			kind = "round-based"
		}

		line := fmt.Sprintf("%sreg %-3d %4d bit  %s", cursor, i, rec.Size, kind)
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")

		if !m.Expanded[i] {
			continue
		}
		if rec.RoundBased {
			b.WriteString(listDimStyle.Render("    state: " + strings.Join(rec.InputReg, ", ")))
			b.WriteString("\n")
		} else {
			b.WriteString(listDimStyle.Render("    in:  " + strings.Join(rec.InputReg, ", ")))
			b.WriteString("\n")
			b.WriteString(listDimStyle.Render("    out: " + strings.Join(rec.OutputReg, ", ")))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Records))))

	return b.String()
}
