package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/cellcluster/pkg/histogram"
	pkgio "github.com/matzehuels/cellcluster/pkg/io"
)

var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorFail   = lipgloss.Color("167")
	colorLabel  = lipgloss.Color("245")
	colorMuted  = lipgloss.Color("240")
	colorValue  = lipgloss.Color("255")
	colorCmd    = lipgloss.Color("75")
)

var (
	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorMuted)
	// StyleValue renders data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorValue)

	styleOK      = lipgloss.NewStyle().Foreground(colorOK)
	styleFail    = lipgloss.NewStyle().Foreground(colorFail)
	styleLabel   = lipgloss.NewStyle().Foreground(colorLabel)
	styleSpinner = lipgloss.NewStyle().Foreground(colorAccent)
	styleCommand = lipgloss.NewStyle().Foreground(colorCmd)
)

func printLine(icon lipgloss.Style, glyph, format string, args ...any) {
	fmt.Println(icon.Render(glyph) + " " + fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) { printLine(styleOK, "✓", format, args...) }
func printError(format string, args ...any)   { printLine(styleFail, "✗", format, args...) }
func printInfo(format string, args ...any)    { printLine(styleLabel, "›", format, args...) }

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render("→") + " " + StyleValue.Render(path))
}

// printKeyValue prints value after a fixed-width label.
func printKeyValue(key, value string) {
	fmt.Println(styleLabel.Width(12).Render(key) + " " + StyleValue.Render(value))
}

func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() { fmt.Println() }

// printStats prints run statistics on a single line.
func printStats(cellCount, seedCount int, cached bool) {
	var parts []string
	if cellCount > 0 {
		parts = append(parts, fmt.Sprintf("%d cells", cellCount))
	}
	parts = append(parts, fmt.Sprintf("%d seeds", seedCount))

	if cached {
		parts = append(parts, styleOK.Render("cached"))
	} else {
		parts = append(parts, styleLabel.Render("fresh"))
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Println(line)
}

// ratioSamples is the number of distances shown in a ratio preview.
const ratioSamples = 10

// ratioRows samples the histograms at evenly spaced distances, always
// including the last bin.
func ratioRows(observed, baseline histogram.Histogram, ratio histogram.Ratio) [][]string {
	n := len(ratio)
	if n == 0 {
		return nil
	}
	step := max(1, (n-1)/ratioSamples)
	var rows [][]string
	for i := step; i < n; i += step {
		rows = append(rows, ratioRow(i, observed, baseline, ratio))
	}
	if (n-1)%step != 0 || n == 1 {
		rows = append(rows, ratioRow(n-1, observed, baseline, ratio))
	}
	return rows
}

func ratioRow(i int, observed, baseline histogram.Histogram, ratio histogram.Ratio) []string {
	r := "-"
	if !ratio.Undefined(i) {
		r = strconv.FormatFloat(ratio[i], 'f', 3, 64)
	}
	return []string{
		pkgio.Header(i),
		strconv.FormatFloat(observed[i], 'f', 1, 64),
		strconv.FormatFloat(baseline[i], 'f', 1, 64),
		r,
	}
}

// newTable returns a table in the CLI's border and header style.
func newTable(headers ...string) *table.Table {
	headerStyle := styleLabel.Bold(true)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})
}

// printRatioTable prints a sampled view of the clustering ratio.
func printRatioTable(observed, baseline histogram.Histogram, ratio histogram.Ratio) {
	t := newTable("Distance", "Observed", "Baseline", "Ratio").
		Rows(ratioRows(observed, baseline, ratio)...)
	fmt.Println(t.Render())
}
