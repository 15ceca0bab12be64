package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/matzehuels/mvnboot/pkg/download"
)

const barWidth = 30

var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorTeal)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// =============================================================================
// DownloadModel - progress of one download batch
// =============================================================================

type (
	eventMsg download.Event
	doneMsg  struct{}
)

// DownloadModel is the bubbletea model rendering a download batch.
type DownloadModel struct {
	Title   string
	Done    int
	Total   int
	Bytes   int64
	Skipped int
	Current string
	quit    bool
}

func NewDownloadModel(title string, total int) DownloadModel {
	return DownloadModel{Title: title, Total: total}
}

func (m DownloadModel) Init() tea.Cmd {
	return nil
}

func (m DownloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		ev := download.Event(msg)
		if ev.Total > 0 {
			m.Total = ev.Total
		}
		switch ev.Kind {
		case download.EventStarted:
			m.Current = path.Base(ev.URL)
		case download.EventFinished:
			m.Bytes += ev.Bytes
			m.Done = ev.Done
		case download.EventExisting:
			m.Done = ev.Done
		case download.EventSkipped:
			m.Skipped++
			m.Done = ev.Done
		}
	case doneMsg:
		m.quit = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m DownloadModel) View() string {
	if m.quit {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString(" ")
	b.WriteString(bar(m.Done, m.Total))
	b.WriteString(StyleDim.Render(fmt.Sprintf(" %d/%d · %s", m.Done, m.Total, humanBytes(m.Bytes))))
	if m.Skipped > 0 {
		b.WriteString(StyleWarning.Render(fmt.Sprintf(" · %d skipped", m.Skipped)))
	}
	if m.Current != "" && m.Done < m.Total {
		b.WriteString("\n  ")
		b.WriteString(StyleDim.Render(m.Current))
	}
	b.WriteString("\n")
	return b.String()
}

func bar(done, total int) string {
	filled := 0
	if total > 0 {
		filled = done * barWidth / total
	}
	filled = min(filled, barWidth)
	return barFullStyle.Render(strings.Repeat("━", filled)) + barEmptyStyle.Render(strings.Repeat("━", barWidth-filled))
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}

// withDownloadProgress runs fn, rendering its progress events with a
// DownloadModel on w when w is a terminal. Elsewhere events go to the debug
// log.
func (c *CLI) withDownloadProgress(ctx context.Context, w io.Writer, title string, total int, fn func(func(download.Event)) error) error {
	if !isTerminal(w) {
		return fn(func(ev download.Event) {
			switch ev.Kind {
			case download.EventFinished:
				c.Logger.Debug("downloaded", "file", path.Base(ev.URL), "bytes", ev.Bytes, "done", ev.Done, "total", ev.Total)
			case download.EventSkipped:
				c.Logger.Warn("skipped", "url", ev.URL, "err", ev.Err)
			}
		})
	}

	p := tea.NewProgram(NewDownloadModel(title, total), tea.WithContext(ctx), tea.WithOutput(w), tea.WithInput(nil))
	errc := make(chan error, 1)
	go func() {
		errc <- fn(func(ev download.Event) { p.Send(eventMsg(ev)) })
		p.Send(doneMsg{})
	}()
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		c.Logger.Debug("progress view stopped", "err", err)
	}
	return <-errc
}
