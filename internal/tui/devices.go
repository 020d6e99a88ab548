package tui

import (
	"fmt"
	"strings"

	"beanal/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ScreenType defines which screen is currently active
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfigScreen
)

// commonSampleRates are offered on the configuration screen.
var commonSampleRates = []float64{44100, 48000, 88200, 96000}

// Selection is the outcome of the device picker.
type Selection struct {
	Device     audio.Device
	SampleRate float64
}

// DeviceListModel lets the user pick a capture device and the sample rate
// to request from it.
type DeviceListModel struct {
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType

	availableSampleRates []float64
	sampleRateIndex      int

	list      func() ([]audio.Device, error)
	chosen    bool
	selection Selection
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

// NewDeviceListModel creates a picker over the devices list returns.
func NewDeviceListModel(list func() ([]audio.Device, error)) DeviceListModel {
	return DeviceListModel{activeScreen: ListScreen, list: list}
}

// Init fetches the device list.
func (m DeviceListModel) Init() tea.Cmd {
	if m.list == nil {
		return nil
	}
	return fetchDevices(m.list)
}

// fetchDevices wraps a device lister as a command.
func fetchDevices(list func() ([]audio.Device, error)) tea.Cmd {
	return func() tea.Msg {
		devices, err := list()
		if err != nil {
			return errMsg{err}
		}
		return devicesMsg{devices}
	}
}

// Update handles input and updates the model
func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refresh()

	case devicesMsg:
		m.devices = msg.devices
		m.selectedIndex = 0
		m.refresh()

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.err != nil || key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))) {
			return m, tea.Quit
		}
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *DeviceListModel) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	up := key.Matches(msg, key.NewBinding(key.WithKeys("up", "k")))
	down := key.Matches(msg, key.NewBinding(key.WithKeys("down", "j")))
	enter := key.Matches(msg, key.NewBinding(key.WithKeys("enter")))

	switch m.activeScreen {
	case ListScreen:
		switch {
		case up && m.selectedIndex > 0:
			m.selectedIndex--
		case down && m.selectedIndex < len(m.devices)-1:
			m.selectedIndex++
		case enter && len(m.devices) > 0:
			m.activeScreen = ConfigScreen
			m.availableSampleRates = sampleRatesFor(m.devices[m.selectedIndex])
			m.sampleRateIndex = 0
		default:
			return nil, up || down || enter
		}

	case ConfigScreen:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
			m.activeScreen = ListScreen
		case up && m.sampleRateIndex > 0:
			m.sampleRateIndex--
		case down && m.sampleRateIndex < len(m.availableSampleRates)-1:
			m.sampleRateIndex++
		case enter:
			m.chosen = true
			m.selection = Selection{
				Device:     m.devices[m.selectedIndex],
				SampleRate: m.availableSampleRates[m.sampleRateIndex],
			}
			return tea.Quit, true
		default:
			return nil, up || down
		}
	}
	m.refresh()
	return nil, true
}

// sampleRatesFor lists the device's own rate first, then the common rates.
// The follow-default entry has no rate of its own; zero means "use the
// device's".
func sampleRatesFor(d audio.Device) []float64 {
	first := d.DefaultSampleRate
	rates := []float64{first}
	for _, r := range commonSampleRates {
		if r != first {
			rates = append(rates, r)
		}
	}
	return rates
}

func (m *DeviceListModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == ListScreen {
		m.viewport.SetContent(m.renderDevices())
	} else {
		m.viewport.SetContent(m.renderDeviceConfig())
	}
}

// View renders the UI
func (m DeviceListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress any key to exit.", m.err)
	}

	var title, help string

	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Capture Devices")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Select • q: Quit")
	} else {
		title = titleStyle.Render("Device Configuration")
		help = infoStyle.Render("↑/↓: Change Value • Enter: Start • Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

// renderDevices formats the device list
func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No capture devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		var deviceInfo string
		if device.IsFollowDefault() {
			deviceInfo = fmt.Sprintf("[ ] %s\n    Tracks the system default input\n", device.Label())
		} else {
			deviceInfo = fmt.Sprintf("[%s] %s\n", device.ID, device.Label())
			deviceInfo += fmt.Sprintf("    Input channels: %d, Default sample rate: %.0f Hz\n",
				device.MaxInputChannels, device.DefaultSampleRate)
		}

		if i == m.selectedIndex {
			deviceInfo = highlightStyle.Render(deviceInfo)
		}
		sb.WriteString(deviceInfo)
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderDeviceConfig formats the device configuration screen
func (m DeviceListModel) renderDeviceConfig() string {
	var sb strings.Builder
	device := m.devices[m.selectedIndex]

	fmt.Fprintf(&sb, "Configure Device: %s\n\n", device.Label())
	sb.WriteString("Sample Rate:\n")
	for i, rate := range m.availableSampleRates {
		marker := " "
		if i == m.sampleRateIndex {
			marker = "▶"
		}
		label := fmt.Sprintf("%.0f Hz", rate)
		if rate == 0 {
			label = "device rate"
		}
		line := fmt.Sprintf("  %s %s\n", marker, label)
		if i == m.sampleRateIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// Selected returns the user's choice, if one was made.
func (m DeviceListModel) Selected() (Selection, bool) {
	return m.selection, m.chosen
}

// PickDevice shows the device picker and returns the selection. ok is
// false if the user quit without choosing.
func PickDevice(list func() ([]audio.Device, error)) (sel Selection, ok bool, err error) {
	p := tea.NewProgram(NewDeviceListModel(list), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Selection{}, false, err
	}
	sel, ok = final.(DeviceListModel).Selected()
	return sel, ok, nil
}
