// SPDX-License-Identifier: MIT
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"beanal/internal/analysis"
	"beanal/internal/log"
	"beanal/internal/transport"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	minBars = 1
	// sensitivityStep multiplies or divides sensitivity per key press.
	sensitivityStep = 1.25
	minSensitivity  = 0.05
	maxSensitivity  = 20
)

// FrameMsg carries one analysis frame into the program.
type FrameMsg struct{ Frame analysis.VisualizerFrame }

// stoppedMsg reports that capture stopped on its own.
type stoppedMsg struct{ err error }

// restartedMsg is the outcome of a restart after stoppedMsg.
type restartedMsg struct{ err error }

// Options configures the visualizer model.
type Options struct {
	Settings *analysis.Settings
	// Perf feeds the stats line; nil hides it.
	Perf *analysis.PerfStats
	// Device is shown in the title bar.
	Device string
	// FPS is the expected frame rate, used to tune the peak springs.
	FPS       float64
	ShowPeaks bool
	ShowStats bool
	// Stopped and Restart let the model recover from a lost device by
	// calling Restart whenever Stopped delivers.
	Stopped <-chan error
	Restart func() error
}

// Model is the bubbletea model drawing the bar graph.
type Model struct {
	opts    Options
	keys    keyMap
	help    help.Model
	springs springField

	width, height int
	bars          int
	frame         analysis.VisualizerFrame
	peaks         []float64
	skipped       uint64
	status        string
	showPeaks     bool
	showStats     bool
}

// NewModel creates a visualizer reading its initial state from opts.Settings.
func NewModel(opts Options) Model {
	m := Model{
		opts:      opts,
		keys:      defaultKeyMap(),
		help:      help.New(),
		springs:   newSpringField(opts.FPS, 8.0, 0.9),
		bars:      opts.Settings.Load().Bars,
		showPeaks: opts.ShowPeaks,
		showStats: opts.ShowStats && opts.Perf != nil,
	}
	m.springs.resize(m.bars)
	m.peaks = make([]float64, m.bars)
	return m
}

// Init waits for the first stop notification, if any.
func (m Model) Init() tea.Cmd {
	return waitStopped(m.opts.Stopped)
}

func waitStopped(ch <-chan error) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return stoppedMsg{err}
	}
}

// Update handles frames, key presses and resize events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width

	case FrameMsg:
		// Frames still in flight from before a bar-count change are dropped.
		if !msg.Frame.Fits(m.bars) {
			m.skipped++
			return m, nil
		}
		m.frame = msg.Frame
		for i, p := range msg.Frame.PeakLevels {
			m.peaks[i] = m.springs.step(i, p)
		}

	case stoppedMsg:
		m.status = fmt.Sprintf("capture stopped: %v", msg.err)
		if m.opts.Restart == nil {
			return m, waitStopped(m.opts.Stopped)
		}
		restart := m.opts.Restart
		return m, func() tea.Msg { return restartedMsg{restart()} }

	case restartedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("restart failed: %v", msg.err)
		} else {
			m.status = "following default device"
		}
		return m, waitStopped(m.opts.Stopped)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.MoreBars):
		m.setBars(min(m.bars*2, analysis.MaxBars))
	case key.Matches(msg, m.keys.FewerBars):
		m.setBars(max(m.bars/2, minBars))
	case key.Matches(msg, m.keys.Louder):
		m.update(func(s *analysis.Snapshot) {
			s.Sensitivity = min(s.Sensitivity*sensitivityStep, maxSensitivity)
		})
	case key.Matches(msg, m.keys.Quieter):
		m.update(func(s *analysis.Snapshot) {
			s.Sensitivity = max(s.Sensitivity/sensitivityStep, minSensitivity)
		})
	case key.Matches(msg, m.keys.Mapping):
		m.update(func(s *analysis.Snapshot) {
			if s.Mapping == analysis.MappingHybrid {
				s.Mapping = analysis.MappingLogarithmic
			} else {
				s.Mapping = analysis.MappingHybrid
			}
		})
	case key.Matches(msg, m.keys.Reduction):
		m.update(func(s *analysis.Snapshot) {
			if s.Reduction == analysis.ReducePeak {
				s.Reduction = analysis.ReduceAverage
			} else {
				s.Reduction = analysis.ReducePeak
			}
		})
	case key.Matches(msg, m.keys.Peaks):
		m.showPeaks = !m.showPeaks
	case key.Matches(msg, m.keys.Stats):
		m.showStats = !m.showStats && m.opts.Perf != nil
		if m.showStats {
			m.opts.Perf.Reset()
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) setBars(n int) {
	if n == m.bars {
		return
	}
	if !m.update(func(s *analysis.Snapshot) { s.Bars = n }) {
		return
	}
	m.bars = n
	m.springs.resize(n)
	peaks := make([]float64, n)
	copy(peaks, m.peaks)
	m.peaks = peaks
	m.frame = analysis.VisualizerFrame{}
}

func (m *Model) update(fn func(*analysis.Snapshot)) bool {
	if _, err := m.opts.Settings.Update(fn); err != nil {
		m.status = err.Error()
		return false
	}
	return true
}

// View renders the title, the bars, an optional stats line and help.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	snap := m.opts.Settings.Load()
	var sb strings.Builder
	title := titleStyle.Render("BeAnal")
	info := infoStyle.Render(fmt.Sprintf(" %s · %d bars · %s · %s · sens %.2f",
		m.opts.Device, snap.Bars, snap.Mapping, snap.Reduction, snap.Sensitivity))
	sb.WriteString(title + info + "\n")

	footer := []string{m.help.View(m.keys)}
	if m.showStats {
		footer = append([]string{statsStyle.Render(statsLine(m.opts.Perf.Snapshot(), m.skipped))}, footer...)
	}
	if m.status != "" {
		footer = append([]string{statusStyle.Render(m.status)}, footer...)
	}

	rows := m.height - 2 - len(footer)
	var peaks []float64
	if m.showPeaks && m.frame.Bars() > 0 {
		peaks = m.peaks
	}
	for i, line := range renderBars(m.frame.BarHeights, peaks, m.width, rows) {
		style := rowStyle(rows-1-i, rows)
		if peaks != nil {
			line = strings.ReplaceAll(line, string(peakRune), peakStyle.Render(string(peakRune)))
		}
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(strings.Join(footer, "\n"))
	return sb.String()
}

func statsLine(p analysis.PerfSnapshot, skipped uint64) string {
	return fmt.Sprintf("frames %d · avg %v · min %v · max %v · rebuilds %d · dropped %d samples, %d frames · skipped %d",
		p.Frames, p.Avg, p.Min, p.Max, p.Rebuilds, p.DroppedSamples, p.DroppedFrames, skipped)
}

// FrameSink forwards frames into a running program.
func FrameSink(p *tea.Program) transport.SendFunc {
	return func(frame analysis.VisualizerFrame) error {
		p.Send(FrameMsg{Frame: frame})
		return nil
	}
}

// Run shows the visualizer in the alternate screen until the user quits or
// ctx is cancelled. Frames are dispatched to the screen and to sinks.
func Run(ctx context.Context, opts Options, frames <-chan analysis.VisualizerFrame, sinks ...transport.Transport) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	all := append([]transport.Transport{FrameSink(p)}, sinks...)

	done := make(chan struct{})
	go func() {
		defer close(done)
		transport.Dispatch(ctx, frames, all...)
	}()

	_, err := p.Run()
	cancel()
	<-done
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	log.New("tui").Debugf("visualizer closed")
	return nil
}
