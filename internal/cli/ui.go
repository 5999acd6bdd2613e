package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/mftypes/pkg/errors"
	"github.com/matzehuels/mftypes/pkg/pipeline"
	"github.com/matzehuels/mftypes/pkg/typesync"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// =============================================================================
// File Output
// =============================================================================

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Key-Value Output
// =============================================================================

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Stats Display
// =============================================================================

// printStats prints counts on a single line, skipping zero values.
func printStats(counts ...stat) {
	var parts []string
	for _, c := range counts {
		if c.n == 0 {
			continue
		}
		parts = append(parts, c.style.Render(fmt.Sprintf("%d %s", c.n, c.label)))
	}
	if len(parts) == 0 {
		return
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

// stat is one labeled count for printStats.
type stat struct {
	n     int
	label string
	style lipgloss.Style
}

// =============================================================================
// Run Summary
// =============================================================================

// printResult prints the producer and consumer outcome of a pipeline run.
func printResult(res *pipeline.Result) {
	if res == nil {
		return
	}
	if res.Producer != nil {
		switch {
		case res.ProducerErr != nil:
			printError("Declarations for %s failed: %s", StyleHighlight.Render(res.Producer.OutDir), errors.UserMessage(res.ProducerErr))
		default:
			printSuccess("Emitted %s module(s)", StyleNumber.Render(fmt.Sprint(res.Stats.Modules)))
			printFile(res.Producer.IndexPath)
		}
		for _, w := range res.Warnings() {
			printWarning("%s", errors.UserMessage(w))
		}
	}
	if res.Sync != nil {
		printReport(res.Sync)
	}
}

// printReport prints a table of remotes followed by every failed file.
func printReport(r *typesync.Report) {
	if len(r.Remotes) == 0 {
		printInfo("No remotes configured")
		return
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, 0, len(r.Remotes))
	for _, rr := range r.Remotes {
		status := iconSuccess
		if !rr.OK() {
			status = iconError
		}
		rows = append(rows, []string{
			status,
			rr.Name,
			fmt.Sprint(rr.Installed()),
			fmt.Sprint(rr.Failed()),
			fmt.Sprint(rr.Pruned()),
			rr.Duration.Round(time.Millisecond).String(),
		})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Remote", "Installed", "Failed", "Pruned", "Time").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row < 0 || row >= len(r.Remotes) {
				return lipgloss.NewStyle()
			}
			if col == 0 {
				if r.Remotes[row].OK() {
					return styleIconSuccess
				}
				return styleIconError
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
	fmt.Println(t.Render())

	printStats(
		stat{r.Installed(), "installed", StyleSuccess},
		stat{r.Failed(), "failed", StyleWarning},
		stat{r.Pruned(), "pruned", StyleDim},
	)
	for _, o := range r.Failures() {
		target := o.Entry
		if target == "" {
			target = o.Remote
		}
		printWarning("%s: %s", target, errors.UserMessage(o.Err))
	}
	if r.StateErr != nil {
		printDetail("install state: %s", errors.UserMessage(r.StateErr))
	}
	if errors.Has(r.Err(), errors.ErrCodeTimeout) {
		printNextStep("Some fetches timed out; raise the limit", appName+" sync --timeout 2m")
	}
}

// =============================================================================
// Commands & Next Steps
// =============================================================================

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Utilities
// =============================================================================

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}

// plural formats n with noun, adding "s" unless n is 1.
func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
