package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"csvedit/internal/app"
	"csvedit/internal/config"
	"csvedit/internal/editor"
	"csvedit/internal/logging"
	"csvedit/internal/ui"
)

// ---------------------------------------------------------------------------
// pickerModel – choose from recently used files
// ---------------------------------------------------------------------------

type pickerModel struct {
	cfg     *config.Config
	session *editor.Session
	cursor  int
	err     string
	done    bool
	width   int
	height  int
}

func newPickerModel(cfg *config.Config, session *editor.Session) pickerModel {
	return pickerModel{cfg: cfg, session: session}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "j":
			if m.cursor < len(m.cfg.Recent)-1 {
				m.cursor++
			}
			return m, nil
		case "n":
			m.done = true
			return m, tea.Quit
		case "d", "x":
			if len(m.cfg.Recent) > 0 {
				m.cfg.Delete(m.cursor)
				if err := m.cfg.Save(); err != nil {
					m.err = err.Error()
				}
				if m.cursor >= len(m.cfg.Recent) && m.cursor > 0 {
					m.cursor--
				}
				if len(m.cfg.Recent) == 0 {
					m.done = true
					return m, tea.Quit
				}
			}
			return m, nil
		case "enter":
			if len(m.cfg.Recent) == 0 {
				return m, nil
			}
			if err := m.session.OpenFile(m.cfg.Recent[m.cursor].Path); err != nil {
				m.err = err.Error()
				return m, nil
			}
			m.done = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m pickerModel) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(ui.ColorAccent).
		Bold(true).
		MarginBottom(1)

	var b strings.Builder

	b.WriteString(titleStyle.Render("csvedit - Recent Files"))
	b.WriteString("\n\n")

	for i, rf := range m.cfg.Recent {
		display := filepath.Base(rf.Path) +
			ui.DimText.Render(fmt.Sprintf("  %s  %s", filepath.Dir(rf.Path), rf.OpenedAt.Format("2006-01-02 15:04")))

		if i == m.cursor {
			b.WriteString(ui.AccentText.Bold(true).Render("  ▸ " + display))
		} else {
			b.WriteString("    " + display)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")

	if m.err != "" {
		b.WriteString(ui.ErrorText.Render("  " + m.err))
		b.WriteString("\n\n")
	}

	b.WriteString(ui.DimText.Render("  Enter to open | n new grid | d forget | q quit"))
	b.WriteString("\n")

	return b.String()
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	logFile, err := logging.OpenFile(settings.Logging.File)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logging.Setup(settings.Logging.Level, settings.Logging.Format, logFile)

	ctx, _ := logging.NewSession(context.Background())
	logger := logging.FromContext(ctx)
	logger.Info("csvedit starting", "settings", settings.String())

	prefs, err := config.Load()
	if err != nil {
		logger.Warn("could not load preferences, using defaults", "error", err)
	}

	session := editor.NewSession(prefs, editor.Theme(prefs.Theme), editor.Options{
		Rows:        settings.Grid.DefaultRows,
		Cols:        settings.Grid.DefaultCols,
		MaxFileSize: settings.Grid.MaxFileSize,
		Logger:      logger,
	})
	ui.ApplyTheme(string(session.Theme()))

	// Phase 1: pick a file
	switch {
	case len(args) > 0:
		if err := session.OpenFile(args[0]); err != nil {
			return err
		}
	case len(prefs.Recent) > 0:
		picker := newPickerModel(prefs, session)
		result, err := tea.NewProgram(picker, tea.WithAltScreen()).Run()
		if err != nil {
			return err
		}
		pm, ok := result.(pickerModel)
		if !ok || !pm.done {
			return nil
		}
	}

	// Phase 2: Main TUI
	appModel := app.NewModel(ctx, session, settings)
	if _, err := tea.NewProgram(appModel, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	logger.Info("csvedit exiting", "unsaved_changes", session.Changes().PendingCount())
	return nil
}
