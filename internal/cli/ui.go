package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/mvnboot/pkg/resolve"
)

// Palette (256-color codes).
var (
	colorTeal  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorAmber = lipgloss.Color("220")
	colorWhite = lipgloss.Color("255")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning = lipgloss.NewStyle().Foreground(colorAmber)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorTeal)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleHeader      = lipgloss.NewStyle().Bold(true).Foreground(colorGray).Padding(0, 1)
	styleCell        = lipgloss.NewStyle().Padding(0, 1)
)

const (
	iconWarning = "!"
	iconArrow   = "→"
)

// marker is the coloured glyph that opens a status line.
type marker struct {
	glyph string
	style lipgloss.Style
}

var (
	markSuccess = marker{"✓", lipgloss.NewStyle().Foreground(colorGreen)}
	markWarning = marker{iconWarning, lipgloss.NewStyle().Foreground(colorAmber)}
	markInfo    = marker{"›", lipgloss.NewStyle().Foreground(colorGray)}
)

func (c *CLI) status(m marker, text string) {
	fmt.Fprintln(c.Out, m.style.Render(m.glyph)+" "+text)
}

func (c *CLI) printSuccess(format string, args ...any) {
	c.status(markSuccess, fmt.Sprintf(format, args...))
}

func (c *CLI) printWarning(format string, args ...any) {
	c.status(markWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func (c *CLI) printInfo(format string, args ...any) {
	c.status(markInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func (c *CLI) printDetail(format string, args ...any) {
	fmt.Fprintln(c.Out, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func (c *CLI) printFile(path string) {
	fmt.Fprintln(c.Out, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func (c *CLI) printKeyValue(key, value string) {
	fmt.Fprintln(c.Out, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints counts on one dimmed line, e.g. "42 dependencies · 3 conflicts".
func (c *CLI) printStats(parts ...string) {
	fmt.Fprintln(c.Out, "  "+StyleDim.Render(strings.Join(parts, " · ")))
}

// reportIssues prints the conflicts and unresolved branches of res.
func (c *CLI) reportIssues(res *resolve.Result) {
	for _, cf := range res.Conflicts {
		c.printWarning("%s: kept %s, %s wanted %s", cf.Key, cf.Kept, cf.From, cf.Rejected)
	}
	for _, u := range res.Unresolved {
		c.printWarning("%s unresolved: %s", u.Coordinate, u.Reason)
	}
}

// writeTable prints the dependencies of res as a bordered table.
func writeTable(w io.Writer, res *resolve.Result) error {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("GROUP", "ARTIFACT", "VERSION", "DEPTH", "VIA").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			return styleCell
		})
	for _, d := range res.Dependencies {
		via := ""
		if d.Depth > 0 {
			via = d.Via.String()
		}
		t.Row(d.Group, d.Artifact, d.Version, strconv.Itoa(d.Depth), via)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
