package cli

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/skipai/podrag/internal/service"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// ingestEventMsg carries one episode outcome from the batch run.
type ingestEventMsg service.BatchProgress

// eventsClosedMsg signals the batch run has finished.
type eventsClosedMsg struct{}

// ingestModel is the bubbletea model for batch ingestion progress.
type ingestModel struct {
	events   <-chan service.BatchProgress
	cancel   context.CancelFunc
	progress progress.Model
	theme    Theme

	current  service.BatchProgress
	ingested int
	skipped  int
	failed   int
	quitting bool
	done     bool
}

func newIngestModel(events <-chan service.BatchProgress, cancel context.CancelFunc) ingestModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return ingestModel{
		events:   events,
		cancel:   cancel,
		progress: prog,
		theme:    defaultTheme,
	}
}

// waitForEvent blocks on the next batch event.
func waitForEvent(ch <-chan service.BatchProgress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return ingestEventMsg(p)
	}
}

func (m ingestModel) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.events),
		m.progress.Init(),
	)
}

func (m ingestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// Cancel the run; the event channel closes once the
			// batch loop observes the cancellation.
			m.quitting = true
			m.cancel()
			return m, nil
		}

	case ingestEventMsg:
		m.current = service.BatchProgress(msg)
		switch m.current.Status {
		case "ingested":
			m.ingested++
		case "skipped":
			m.skipped++
		case "no-metadata", "failed":
			m.failed++
		}
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		m.done = true
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m ingestModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m ingestModel) renderContent() string {
	if m.done {
		return ""
	}
	if m.quitting {
		return m.theme.errorStyle().Render("Cancelling...") + "\n"
	}
	if m.current.Total == 0 {
		return "Scanning transcripts...\n"
	}

	pct := float64(m.current.Index) / float64(m.current.Total)
	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.current.Status))
	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d episodes", m.current.Index, m.current.Total)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to cancel")

	return fmt.Sprintf("%s %s %s  %s\n%s\n", status, progressBar, counts, m.current.EpisodeID, hint)
}

// progressSender forwards batch events to the UI channel. The send
// gives up once ctx is cancelled so the batch goroutine cannot block on
// a UI that has already exited.
func progressSender(ctx context.Context, events chan<- service.BatchProgress) func(service.BatchProgress) {
	return func(p service.BatchProgress) {
		select {
		case events <- p:
		case <-ctx.Done():
		}
	}
}

// runIngestWithProgress runs the batch with an interactive progress bar.
func runIngestWithProgress(ctx context.Context, svc *service.IngestService, opts service.BatchOptions) (service.BatchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan service.BatchProgress)
	type outcome struct {
		result service.BatchResult
		err    error
	}
	done := make(chan outcome, 1)

	opts.Progress = progressSender(ctx, events)
	go func() {
		result, err := svc.ProcessAllEpisodes(ctx, cfg.TranscriptsDir, cfg.MetadataPath, opts)
		close(events)
		done <- outcome{result: result, err: err}
	}()

	p := tea.NewProgram(newIngestModel(events, cancel))
	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return service.BatchResult{}, fmt.Errorf("progress UI error: %w", err)
	}

	out := <-done
	return out.result, out.err
}
