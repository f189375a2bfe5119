package main

import (
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	refreshInterval = 50 * time.Millisecond
	spectrumBands   = 32
)

type stepMsg int

type tickMsg time.Time

type model struct {
	env      *env
	step     int
	input    string
	output   string
	bands    []float64
	quitting bool
}

var (
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	spectrumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func newModel(env *env) model {
	return model{env: env, step: -1}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input)
			m.input = ""
			if line == "" {
				return m, nil
			}
			if line == "quit" || line == "exit" {
				m.quitting = true
				return m, tea.Quit
			}
			result, err := m.env.eval(line)
			if err != nil {
				result = err.Error()
			}
			m.output = result
		case tea.KeyBackspace:
			if r := []rune(m.input); len(r) > 0 {
				m.input = string(r[:len(r)-1])
			}
		case tea.KeySpace:
			m.input += " "
		case tea.KeyRunes:
			m.input += string(msg.Runes)
		}

	case stepMsg:
		m.step = int(msg)

	case tickMsg:
		if !m.env.engine.Playing() {
			m.step = -1
		}
		if a := m.env.engine.Analyser(); a != nil {
			m.bands = a.Bands(spectrumBands)
		}
		return m, tick()
	}
	return m, nil
}

var barLevels = []rune(" ▁▂▃▄▅▆▇█")

func renderSpectrum(bands []float64) string {
	return spectrumStyle.Render(spectrumBars(bands))
}

// spectrumBars draws one bar per band on a -60dB to -12dB scale.
func spectrumBars(bands []float64) string {
	const lo, hi = -60.0, -12.0
	bars := make([]rune, len(bands))
	for i, m := range bands {
		level := 0
		if m > 0 {
			db := 20 * math.Log10(m)
			level = int(float64(len(barLevels)-1) * (db - lo) / (hi - lo))
			level = max(0, min(len(barLevels)-1, level))
		}
		bars[i] = barLevels[level]
	}
	return string(bars)
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	sections := []string{
		renderProject(m.env.project, m.env.engine, m.step),
		renderSpectrum(m.bands),
		promptStyle.Render("> ") + m.input + "█",
	}
	if m.output != "" {
		sections = append(sections, m.output)
	}
	sections = append(sections, helpStyle.Render("type commands, help for a list, ctrl+c to quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// runTUI shows the live grid until the user quits. The playhead follows the
// engine's step callback.
func runTUI(env *env) error {
	p := tea.NewProgram(newModel(env), tea.WithAltScreen())
	env.engine.SetStepCallback(func(step int) { p.Send(stepMsg(step)) })
	defer env.engine.SetStepCallback(nil)
	_, err := p.Run()
	return err
}
