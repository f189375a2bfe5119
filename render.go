package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mrdg/groovebox/audio"
	"github.com/mrdg/groovebox/dub"
	"github.com/mrdg/groovebox/engine"
	"github.com/mrdg/groovebox/pattern"
	"github.com/mrdg/groovebox/playback"
)

const cellWidth = 4

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	nameStyle     = lipgloss.NewStyle().Width(11).Foreground(lipgloss.Color("4"))
	cellStyle     = lipgloss.NewStyle().Width(cellWidth)
	offStyle      = cellStyle.Foreground(lipgloss.Color("8"))
	numberStyle   = cellStyle.Foreground(lipgloss.Color("5"))
	playheadStyle = lipgloss.NewStyle().Background(lipgloss.Color("238"))
)

// velocityStyle brightens louder steps.
func velocityStyle(v int) lipgloss.Style {
	switch {
	case v >= 127:
		return cellStyle.Foreground(lipgloss.Color("9")).Bold(true)
	case v >= 100:
		return cellStyle.Foreground(lipgloss.Color("15"))
	case v >= 80:
		return cellStyle.Foreground(lipgloss.Color("7"))
	default:
		return cellStyle.Foreground(lipgloss.Color("244"))
	}
}

func renderCell(s pattern.Step, text string, playing bool) string {
	style := offStyle
	if s.Active {
		style = velocityStyle(s.Velocity)
	}
	if playing {
		style = style.Inherit(playheadStyle)
	}
	return style.Render(text)
}

func renderNumbers() string {
	var b strings.Builder
	b.WriteString(nameStyle.Render(""))
	for i := 0; i < pattern.NumSteps; i++ {
		b.WriteString(numberStyle.Render(strconv.Itoa(i + 1)))
	}
	return b.String()
}

func renderDrums(p *pattern.DrumPattern, playStep int) string {
	rows := []string{renderNumbers()}
	for kind := audio.DrumKind(0); kind < audio.NumDrums; kind++ {
		var b strings.Builder
		b.WriteString(nameStyle.Render(kind.String()))
		for i, s := range p.Tracks[kind] {
			text := "·"
			if s.Active {
				text = "■"
			}
			b.WriteString(renderCell(s, text, i == playStep))
		}
		rows = append(rows, b.String())
	}
	return strings.Join(rows, "\n")
}

// renderSynth shows the highest note of every step.
func renderSynth(name string, p *pattern.SynthPattern, playStep int) string {
	var b strings.Builder
	b.WriteString(nameStyle.Render(name))
	for i, s := range p.Steps {
		text := "·"
		if s.Active && len(s.Notes) > 0 {
			text = dub.NoteName(s.Notes[0])
			if len(s.Notes) > 1 {
				text += "+"
			}
		}
		b.WriteString(renderCell(s, text, i == playStep))
	}
	return b.String()
}

func renderStatus(eng *engine.Engine) string {
	state := "stopped"
	if eng.Playing() {
		state = "playing"
	}
	if eng.Recording() {
		state += " ●rec"
	}
	status := fmt.Sprintf("%s  %.0f bpm  swing %.0f  vol %.2f",
		state, eng.BPM(), eng.Swing(), eng.MasterVolume())
	if !eng.SynthsEnabled() {
		status += "  synths off"
	}
	return headerStyle.Render(status)
}

func instrumentTitle(p *pattern.Project, eng *engine.Engine, inst playback.Instrument) string {
	slot := p.CurrentDrum
	if inst != playback.Drums {
		slot = p.CurrentSynth[inst.Part()]
	}
	title := fmt.Sprintf("%s: pattern %d", inst, slot+1)
	state := eng.PlaybackState(inst)
	if state.Mode == playback.SequenceMode {
		title += fmt.Sprintf(", sequence %q", state.Active)
		if state.Cued != "" && state.Cued != state.Active {
			title += fmt.Sprintf(" → %q", state.Cued)
		}
	}
	return title
}

// renderProject draws the current drum and synth patterns. playStep is
// highlighted unless it is negative.
func renderProject(p *pattern.Project, eng *engine.Engine, playStep int) string {
	sections := []string{
		renderStatus(eng),
		headerStyle.Render(instrumentTitle(p, eng, playback.Drums)),
		renderDrums(p.CurrentDrumPattern(), playStep),
	}
	for part, sp := range p.CurrentSynthPatterns() {
		inst := playback.SynthPart(part)
		sections = append(sections,
			headerStyle.Render(instrumentTitle(p, eng, inst)),
			renderSynth(inst.String(), sp, playStep))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
