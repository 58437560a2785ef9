// Package tui is a terminal front end for the lofi sequencer
package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tjweldon/lofi/src/chords"
	"tjweldon/lofi/src/lofi"
	"tjweldon/lofi/src/sequencer"
	"tjweldon/lofi/src/util"
)

var logger = util.Logger{}.Ctx("tui")

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f5c07a")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b5a45"))
	beatStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#a0703a"))
	playheadStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd27f")).Bold(true)
	slotStyle     = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#c9a77c"))
	activeSlot    = slotStyle.Reverse(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e06c5a"))
)

const (
	tempoStep  = 5
	swingStep  = 0.05
	filterStep = 100
	volumeStep = 1
)

// StateMsg carries a playback state from the sequencer's subscription
type StateMsg lofi.PlaybackState

// ListenForState waits for the next playback state
func ListenForState(states <-chan lofi.PlaybackState) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-states
		if !ok {
			return nil
		}
		return StateMsg(s)
	}
}

type Model struct {
	Seq    *lofi.Sequencer
	Chords chords.Library

	states   <-chan lofi.PlaybackState
	cancel   func()
	state    lofi.PlaybackState
	status   string
	quitting bool
}

func NewModel(seq *lofi.Sequencer, lib chords.Library) Model {
	states, cancel := seq.Subscribe()
	return Model{
		Seq:    seq,
		Chords: lib,
		states: states,
		cancel: cancel,
		state:  seq.State(),
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForState(m.states)
}

// report turns a rejected change into the status line
func (m *Model) report(err error) {
	if err != nil {
		logger.Ctx("report").Vol(util.Normal).Log(err)
		m.status = err.Error()
		return
	}
	m.status = ""
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		m.state = lofi.PlaybackState(msg)
		return m, ListenForState(m.states)

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "ctrl+c":
			m.quitting = true
			m.Seq.Stop()
			m.cancel()
			return m, tea.Quit

		case " ", "enter":
			m.Seq.Toggle()
			m.status = ""

		case "+", "=":
			m.report(m.Seq.SetTempo(int(lofi.TempoRange.Clamp(float64(m.Seq.Tempo().BPM + tempoStep)))))
		case "-", "_":
			m.report(m.Seq.SetTempo(int(lofi.TempoRange.Clamp(float64(m.Seq.Tempo().BPM - tempoStep)))))

		case "]":
			m.report(m.Seq.SetSwing(lofi.SwingRange.Clamp(round2(m.Seq.Tempo().Swing + swingStep))))
		case "[":
			m.report(m.Seq.SetSwing(lofi.SwingRange.Clamp(round2(m.Seq.Tempo().Swing - swingStep))))

		case "F":
			m.report(m.Seq.SetFilterCutoff(lofi.FilterRange.Clamp(m.Seq.FilterCutoff() + filterStep)))
		case "f":
			m.report(m.Seq.SetFilterCutoff(lofi.FilterRange.Clamp(m.Seq.FilterCutoff() - filterStep)))

		case "D", "d", "C", "c", "V", "v":
			m.nudgeVolume(key)

		case "1", "2", "3", "4":
			slot := int(key[0] - '1')
			next := m.Chords.Next(m.Seq.Progression()[slot])
			m.report(m.Seq.SetPatternSlot(slot, next))

		case "p":
			m.report(m.Seq.LoadNamedPreset(m.nextPreset()))
		}
	}
	return m, nil
}

func (m *Model) nudgeVolume(key string) {
	track := map[string]lofi.Track{"d": lofi.Drums, "c": lofi.Chords, "v": lofi.Vinyl}[strings.ToLower(key)]
	step := -volumeStep
	if key == strings.ToUpper(key) {
		step = volumeStep
	}
	level := track.Range().Clamp(m.Seq.TrackVolume(track) + float64(step))
	m.report(m.Seq.SetTrackVolume(track, level))
}

// nextPreset is the preset after the loaded one, or the first preset when
// the progression has been edited
func (m Model) nextPreset() string {
	names := m.Seq.Presets().Names()
	if len(names) == 0 {
		return ""
	}
	current := m.Seq.PresetName()
	for i, name := range names {
		if name == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	playState := "STOP"
	if m.state.Running {
		playState = "PLAY"
	}
	tempo := m.Seq.Tempo()
	b.WriteString(titleStyle.Render(fmt.Sprintf("lo-fi  %s  %3dbpm  swing %.2f", playState, tempo.BPM, tempo.Swing)))
	b.WriteString("\n\n")

	// beat indicator, downbeats brighter
	for i := 0; i < sequencer.Steps; i++ {
		switch {
		case i == m.state.Step:
			b.WriteString(playheadStyle.Render("●"))
		case i%4 == 0:
			b.WriteString(beatStyle.Render("•"))
		default:
			b.WriteString(dimStyle.Render("·"))
		}
		b.WriteString(" ")
	}
	b.WriteString("\n\n")

	for i, chord := range m.Seq.Progression() {
		label := fmt.Sprintf("%d %-7s", i+1, chord)
		if i == m.state.Slot {
			b.WriteString(activeSlot.Render(label))
		} else {
			b.WriteString(slotStyle.Render(label))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("preset: " + m.Seq.PresetName()))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("filter %4.0fHz", m.Seq.FilterCutoff()))
	for _, t := range lofi.Tracks {
		b.WriteString(fmt.Sprintf("   %s %3.0fdB", t, m.Seq.TrackVolume(t)))
	}
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(errorStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("space:play/stop  +/-:tempo  [/]:swing  f/F:filter  d/D c/C v/V:volume  1-4:chord  p:preset  q:quit"))
	b.WriteString("\n")
	return b.String()
}
