// Package tui provides a terminal user interface for midi-2-synth
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gumaerc/midi-2-synth/pkg/mapper"
)

// Synthwave color scheme
var (
	neonPink   = lipgloss.Color("#FF2E88")
	neonCyan   = lipgloss.Color("#00F0FF")
	paleViolet = lipgloss.Color("#B39DDB")
	darkGray   = lipgloss.Color("#2A2139")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(neonCyan).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(paleViolet).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(neonPink).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(neonPink).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StatePickMIDI
	StatePickBase
	StatePickInputDir
	StateRunning
	StateResult
)

// Mode is the selected operation
type Mode int

const (
	ModeSplit Mode = iota
	ModeMerge
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	Mode        Mode
}

var menuItems = []MenuItem{
	{Title: "Split", Description: "Split a beatmap into tempo-matched segments from a MIDI reference", Mode: ModeSplit},
	{Title: "Merge", Description: "Merge segment beatmaps back into one continuous beatmap", Mode: ModeMerge},
	{Title: "Exit", Description: "Exit the application"},
}

// Model represents the TUI model
type Model struct {
	state      State
	menuIndex  int
	mode       Mode
	filePicker filepicker.Model
	spinner    spinner.Model
	midiFile   string
	baseFile   string
	inputDir   string
	resultMsg  string
	err        error
	width      int
	height     int
}

// runDoneMsg signals pipeline completion
type runDoneMsg struct {
	result string
	err    error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model
func New() Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".mid", ".midi", ".synth"}
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonPink)

	return Model{
		state:      StateMenu,
		filePicker: fp,
		spinner:    s,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == StatePickMIDI || m.state == StatePickBase || m.state == StatePickInputDir {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			return m.advancePick(path)
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case runDoneMsg:
		m.state = StateResult
		m.resultMsg = msg.result
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

// advancePick stores the selected path and moves to the next picker or
// starts the pipeline.
func (m Model) advancePick(path string) (tea.Model, tea.Cmd) {
	switch m.state {
	case StatePickMIDI:
		m.midiFile = path
		m.state = StatePickBase
		m.filePicker.AllowedTypes = []string{".synth"}
		return m, m.filePicker.Init()
	case StatePickBase:
		m.baseFile = path
		if m.mode == ModeSplit {
			m.state = StateRunning
			return m, tea.Batch(m.spinner.Tick, m.performSplit())
		}
		m.state = StatePickInputDir
		m.filePicker.AllowedTypes = nil
		m.filePicker.DirAllowed = true
		m.filePicker.FileAllowed = false
		return m, m.filePicker.Init()
	case StatePickInputDir:
		m.inputDir = path
		m.state = StateRunning
		return m, tea.Batch(m.spinner.Tick, m.performMerge())
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		if m.menuIndex == len(menuItems)-1 {
			return m, tea.Quit
		}
		m.mode = menuItems[m.menuIndex].Mode
		m.filePicker.DirAllowed = false
		m.filePicker.FileAllowed = true
		if m.mode == ModeSplit {
			m.state = StatePickMIDI
			m.filePicker.AllowedTypes = []string{".mid", ".midi"}
		} else {
			m.state = StatePickBase
			m.filePicker.AllowedTypes = []string{".synth"}
		}
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.midiFile = ""
		m.baseFile = ""
		m.inputDir = ""
		m.resultMsg = ""
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) performSplit() tea.Cmd {
	return func() tea.Msg {
		outputDir := filepath.Join(filepath.Dir(m.baseFile), "segments")
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return runDoneMsg{err: err}
		}

		summary, err := mapper.SplitBeatmap(m.midiFile, m.baseFile, outputDir)
		if err != nil {
			return runDoneMsg{err: err}
		}
		if summary.Failed > 0 {
			return runDoneMsg{err: fmt.Errorf("%d of %d segments failed", summary.Failed, summary.Attempted)}
		}
		return runDoneMsg{result: fmt.Sprintf("%d segments written to %s", summary.Succeeded, outputDir)}
	}
}

func (m Model) performMerge() tea.Cmd {
	return func() tea.Msg {
		outputPath := filepath.Join(m.inputDir, "merged.synth")
		if err := mapper.NewMerger().MergeFolder(m.baseFile, m.inputDir, outputPath); err != nil {
			return runDoneMsg{err: err}
		}
		return runDoneMsg{result: "Merged beatmap written to " + outputPath}
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StatePickMIDI:
		s.WriteString(m.viewPicker("SELECT MIDI FILE"))
	case StatePickBase:
		s.WriteString(m.viewPicker("SELECT BASE BEATMAP"))
	case StatePickInputDir:
		s.WriteString(m.viewPicker("SELECT SEGMENT DIRECTORY"))
	case StateRunning:
		s.WriteString(m.viewRunning())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT OPERATION "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(neonCyan).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewPicker(title string) string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" " + title + " "))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewRunning() string {
	var s strings.Builder

	op := "SPLITTING"
	if m.mode == ModeMerge {
		op = "MERGING"
	}
	s.WriteString(titleStyle.Render(" " + op + " "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Processing %s...\n", m.spinner.View(), filepath.Base(m.baseFile)))
	if m.mode == ModeSplit {
		s.WriteString(statusStyle.Render(fmt.Sprintf("  MIDI reference: %s", filepath.Base(m.midiFile))))
	} else {
		s.WriteString(statusStyle.Render(fmt.Sprintf("  Segments: %s", m.inputDir)))
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Operation failed: %s", m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ " + m.resultMsg))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := `
   __  __ ___ ____ ___    ____     ______   ___   _ _____ _   _
  |  \/  |_ _|  _ \_ _|  |___ \   / ___\ \ / / \ | |_   _| | | |
  | |\/| || || | | | |     __) |  \___ \\ V /|  \| | | | | |_| |
  | |  | || || |_| | |    / __/    ___) || | | |\  | | | |  _  |
  |_|  |_|___|____/___|  |_____|  |____/ |_| |_| \_| |_| |_| |_|
`
	return lipgloss.NewStyle().Foreground(neonPink).Render(logo)
}

// Run starts the TUI application
func Run() error {
	p := tea.NewProgram(New(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
