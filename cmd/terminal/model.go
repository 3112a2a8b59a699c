package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mallku/firecircle/internal/core"
	"github.com/mallku/firecircle/internal/storage"
)

const asciiLogo = `
╔══════════════════════════════════════════════════════════════╗
║                                                              ║
║   ███████╗██╗██████╗ ███████╗    ██████╗██╗██████╗  ██████╗  ║
║   ██╔════╝██║██╔══██╗██╔════╝   ██╔════╝██║██╔══██╗██╔═══╝   ║
║   █████╗  ██║██████╔╝█████╗     ██║     ██║██████╔╝██║       ║
║   ██╔══╝  ██║██╔══██╗██╔══╝     ██║     ██║██╔══██╗██║       ║
║   ██║     ██║██║  ██║███████╗   ╚██████╗██║██║  ██║╚██████╗  ║
║   ╚═╝     ╚═╝╚═╝  ╚═╝╚══════╝    ╚═════╝╚═╝╚═╝  ╚═╝ ╚═════╝  ║
║                                                              ║
║               MULTI-VOICE REVIEW GOVERNANCE                  ║
║                                                              ║
╚══════════════════════════════════════════════════════════════╝
`

type viewMode int

const (
	viewRuns viewMode = iota
	viewDetail
)

type model struct {
	styles styles

	store   storage.Store
	cleanup func()

	viewport  viewport.Model
	spinner   spinner.Model
	isLoading bool

	mode    viewMode
	runs    []storage.Run
	cursor  int
	reviews []core.ChapterReview
	errText string
	width   int
	height  int
}

func initialModel(theme ThemeName) *model {
	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))

	return &model{
		styles:    GetTheme(theme),
		spinner:   sp,
		isLoading: true,
		mode:      viewRuns,
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(openStoreCmd(), m.spinner.Tick)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	m.viewport, vpCmd = m.viewport.Update(msg)
	m.spinner, spCmd = m.spinner.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			return m, cmd
		}

	case storeReadyMsg:
		m.store = msg.store
		m.cleanup = msg.cleanup
		return m, loadRunsCmd(m.store)

	case runsLoadedMsg:
		m.isLoading = false
		m.errText = ""
		m.runs = msg.runs
		if m.cursor >= len(m.runs) {
			m.cursor = 0
		}
		m.renderContent()
		return m, nil

	case reviewsLoadedMsg:
		m.isLoading = false
		m.errText = ""
		m.reviews = msg.reviews
		m.mode = viewDetail
		m.renderContent()
		return m, nil

	case errorMsg:
		m.isLoading = false
		m.errText = msg.err.Error()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 8
		m.renderContent()
	}

	return m, tea.Batch(vpCmd, spCmd)
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.cleanup != nil {
			m.cleanup()
		}
		return tea.Quit

	case "esc":
		if m.mode == viewDetail {
			m.mode = viewRuns
			m.renderContent()
			return nil
		}
		if m.cleanup != nil {
			m.cleanup()
		}
		return tea.Quit

	case "up", "k":
		if m.mode == viewRuns && m.cursor > 0 {
			m.cursor--
			m.renderContent()
		}
		return nil

	case "down", "j":
		if m.mode == viewRuns && m.cursor < len(m.runs)-1 {
			m.cursor++
			m.renderContent()
		}
		return nil

	case "enter":
		if m.mode == viewRuns && len(m.runs) > 0 {
			m.isLoading = true
			return tea.Batch(m.spinner.Tick, loadReviewsCmd(m.store, m.runs[m.cursor].ID))
		}
		return nil

	case "r":
		if m.store != nil {
			m.isLoading = true
			return tea.Batch(m.spinner.Tick, loadRunsCmd(m.store))
		}
		return nil
	}
	return nil
}

func (m *model) renderContent() {
	switch m.mode {
	case viewDetail:
		m.viewport.SetContent(m.detailView())
	default:
		m.viewport.SetContent(m.runsView())
	}
	m.viewport.GotoTop()
}

func (m *model) runsView() string {
	var b strings.Builder
	b.WriteString(m.styles.ascii.Render(asciiLogo))
	b.WriteString("\n")

	if len(m.runs) == 0 {
		b.WriteString(m.styles.inactive.Render("No stored review runs yet. Run a review first.\n"))
		return b.String()
	}

	b.WriteString(m.styles.success.Render(fmt.Sprintf("REVIEW RUNS (%d)", len(m.runs))))
	b.WriteString("\n\n")

	for i, run := range m.runs {
		cursor := "  "
		line := fmt.Sprintf("%s %s#%d  %s  findings=%d critical=%d  %s",
			consensusGlyph(core.Consensus(run.Consensus)),
			run.RepoFullName, run.PRNumber,
			run.CreatedAt.Format("2006-01-02 15:04"),
			run.TotalComments, run.CriticalIssues,
			shortSHA(run.HeadSHA))
		if i == m.cursor {
			cursor = m.styles.prompt.Render("► ")
			line = m.styles.selected.Render(line)
		}
		b.WriteString(cursor + line + "\n")
	}
	return b.String()
}

func (m *model) detailView() string {
	run := m.runs[m.cursor]
	var b strings.Builder

	b.WriteString(m.styles.success.Render(fmt.Sprintf("%s#%d", run.RepoFullName, run.PRNumber)))
	b.WriteString(m.styles.inactive.Render(fmt.Sprintf("  %s  %s\n\n", shortSHA(run.HeadSHA), run.CreatedAt.Format("2006-01-02 15:04"))))
	b.WriteString(m.styles.prompt.Render(fmt.Sprintf("CONSENSUS: %s %s\n\n", consensusGlyph(core.Consensus(run.Consensus)), strings.ToUpper(run.Consensus))))
	b.WriteString(run.Synthesis)
	b.WriteString("\n")

	for _, r := range m.reviews {
		b.WriteString("\n")
		if r.Completed {
			b.WriteString(m.styles.success.Render(fmt.Sprintf("✓ %s", r.ChapterID)))
		} else {
			b.WriteString(m.styles.error.Render(fmt.Sprintf("✗ %s", r.ChapterID)))
		}
		b.WriteString(m.styles.inactive.Render(fmt.Sprintf("  voice=%s confidence=%.2f\n", r.Voice, r.Confidence)))

		for _, c := range r.Comments {
			loc := c.File
			if c.Line > 0 {
				loc = fmt.Sprintf("%s:%d", c.File, c.Line)
			}
			b.WriteString(fmt.Sprintf("   [%s/%s] %s\n", c.Severity, c.Category, loc))
			b.WriteString(m.styles.inactive.Render("   " + c.Message + "\n"))
		}
	}
	return b.String()
}

func (m *model) View() string {
	if m.isLoading && m.store == nil {
		return fmt.Sprintf("\n  %s CONVENING...\n\n", m.spinner.View())
	}

	var footer string
	switch m.mode {
	case viewDetail:
		footer = "esc: back │ q: quit"
	default:
		footer = "↑/↓: navigate │ enter: open │ r: refresh │ q: quit"
	}

	status := m.styles.inactive.Render(footer)
	if m.errText != "" {
		status = m.styles.error.Render("⚠ " + m.errText)
	}
	if m.isLoading {
		status = m.spinner.View() + " " + m.styles.warning.Render("LOADING...")
	}

	return m.styles.app.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.styles.viewport.Render(m.viewport.View()),
			m.styles.footer.Render(status),
		),
	)
}

func consensusGlyph(c core.Consensus) string {
	switch c {
	case core.ConsensusBlock:
		return "⛔"
	case core.ConsensusRequestChanges:
		return "⚠️"
	default:
		return "✅"
	}
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
