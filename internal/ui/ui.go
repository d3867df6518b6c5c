// Package ui renders resolution progress and results on a terminal.
package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"snag/internal/media"
)

var (
	accent     = lipgloss.Color("205")
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Faint(true)
	urlStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

type doneMsg struct{}

type spinModel struct {
	spinner     spinner.Model
	label       string
	done        bool
	interrupted bool
}

func newSpinModel(label string) spinModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accent)
	return spinModel{spinner: s, label: label}
}

func (m spinModel) Init() tea.Cmd { return m.spinner.Tick }

func (m spinModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.interrupted = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinModel) View() string {
	if m.done || m.interrupted {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.label)
}

// Spin runs fn while showing a spinner on out. When out is not a terminal
// fn runs without any decoration. Interrupting the spinner cancels fn's context.
func Spin(ctx context.Context, out *os.File, label string, fn func(context.Context) error) error {
	if !IsTerminal(out) {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newSpinModel(label), tea.WithOutput(out), tea.WithContext(ctx))
	errc := make(chan error, 1)
	go func() {
		errc <- fn(ctx)
		p.Send(doneMsg{})
	}()

	final, err := p.Run()
	if m, ok := final.(spinModel); ok && m.interrupted {
		cancel()
	}
	fnErr := <-errc
	if fnErr == nil && err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return fnErr
}

// RenderResponse formats a pipeline response for humans.
func RenderResponse(resp media.Response) string {
	if !resp.Success {
		return RenderError(resp.Code, resp.Error)
	}

	var b strings.Builder
	if info := resp.Info; info != nil {
		b.WriteString(titleStyle.Render(info.Title))
		b.WriteString("\n")
		source := info.PlatformLabel
		if source == "" {
			source = string(info.Platform)
		}
		row(&b, "source", fmt.Sprintf("%s via %s", source, info.Extractor))
		row(&b, "uploader", info.Uploader)
		row(&b, "kind", string(info.Kind))
		if info.Duration > 0 {
			row(&b, "duration", formatDuration(info.Duration))
		}
	}
	if f := resp.SelectedFormat; f != nil {
		row(&b, "format", describeFormat(*f))
	}
	if resp.Degraded {
		b.WriteString(warnStyle.Render("video only: no muxed stream available"))
		b.WriteString("\n")
	}
	b.WriteString(urlStyle.Render(resp.DownloadURL))
	return boxStyle.Render(b.String())
}

// RenderError formats a failure with its code.
func RenderError(code, msg string) string {
	head := errorStyle.Render("✗ " + code)
	return lipgloss.JoinVertical(lipgloss.Left, head, msg)
}

func row(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-9s", label)), value)
}

func describeFormat(f media.Format) string {
	parts := []string{f.Extension}
	if f.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", f.Width, f.Height))
	}
	if f.FileSize != nil {
		parts = append(parts, formatBytes(*f.FileSize))
	}
	if f.FormatID != "" {
		parts = append(parts, "id "+f.FormatID)
	}
	return strings.Join(parts, " · ")
}

func formatDuration(secs float64) string {
	total := int(secs + 0.5)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
