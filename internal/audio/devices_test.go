package audio

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gordonklaus/portaudio"
)

func mockDevices(t *testing.T, infos []*portaudio.DeviceInfo, def *portaudio.DeviceInfo) {
	t.Helper()
	origDevices, origDefault := paDevicesFunc, paDefaultInputFunc
	t.Cleanup(func() {
		paDevicesFunc, paDefaultInputFunc = origDevices, origDefault
	})
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) { return infos, nil }
	paDefaultInputFunc = func() (*portaudio.DeviceInfo, error) {
		if def == nil {
			return nil, errors.New("no default input")
		}
		return def, nil
	}
}

func testDeviceInfos() []*portaudio.DeviceInfo {
	return []*portaudio.DeviceInfo{
		{Name: "Built-in Microphone", MaxInputChannels: 1, DefaultSampleRate: 48000},
		{Name: "Speakers", MaxOutputChannels: 2, DefaultSampleRate: 48000},
		{Name: "Monitor of Speakers", MaxInputChannels: 2, DefaultSampleRate: 44100},
		{Name: "USB Interface", MaxInputChannels: 8, MaxOutputChannels: 8, DefaultSampleRate: 96000},
	}
}

func TestHostDevices(t *testing.T) {
	infos := testDeviceInfos()
	mockDevices(t, infos, infos[2])

	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices error: %v", err)
	}

	wantIDs := []string{"", "0", "2", "3"}
	if len(devices) != len(wantIDs) {
		t.Fatalf("got %d devices, want %d: %+v", len(devices), len(wantIDs), devices)
	}
	for i, d := range devices {
		if d.ID != wantIDs[i] {
			t.Errorf("device %d ID = %q, want %q", i, d.ID, wantIDs[i])
		}
	}
	if devices[0].Name != FollowDefaultName || !devices[0].IsFollowDefault() {
		t.Errorf("first entry = %+v, want follow-default", devices[0])
	}
	if !devices[2].Default || devices[2].Label() != "Monitor of Speakers (default)" {
		t.Errorf("default device not marked: %+v", devices[2])
	}
	if devices[1].Default {
		t.Error("non-default device marked default")
	}
}

func TestHostDevices_paDevicesError(t *testing.T) {
	mockDevices(t, nil, nil)
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("mock error")
	}

	_, err := HostDevices()
	if err == nil || !strings.Contains(err.Error(), "mock error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestInputDevice(t *testing.T) {
	infos := testDeviceInfos()
	mockDevices(t, infos, infos[0])

	tests := []struct {
		id      string
		want    string
		wantErr bool
	}{
		{"", "Built-in Microphone", false},
		{"  ", "Built-in Microphone", false},
		{"2", "Monitor of Speakers", false},
		{"1", "", true},  // output only
		{"9", "", true},  // out of range
		{"-1", "", true}, // negative index
		{"monitor", "Monitor of Speakers", false},
		{"usb interface", "USB Interface", false},
		{"speakers", "Monitor of Speakers", false}, // output-only exact name is skipped
		{"hdmi", "", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.id), func(t *testing.T) {
			dev, err := InputDevice(tt.id)
			if tt.wantErr {
				if !errors.Is(err, ErrDeviceNotFound) {
					t.Errorf("InputDevice(%q) error = %v, want ErrDeviceNotFound", tt.id, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("InputDevice(%q) error: %v", tt.id, err)
			}
			if dev.Name != tt.want {
				t.Errorf("InputDevice(%q) = %q, want %q", tt.id, dev.Name, tt.want)
			}
		})
	}
}

func TestResolveDevicePrefersExactName(t *testing.T) {
	infos := []*portaudio.DeviceInfo{
		{Name: "Line In 2", MaxInputChannels: 2},
		{Name: "Line In", MaxInputChannels: 2},
	}
	dev, err := resolveDevice("line in", infos)
	if err != nil || dev.Name != "Line In" {
		t.Errorf("resolveDevice = %v, %v; want exact match", dev, err)
	}
}

func TestListDevices(t *testing.T) {
	mockDevices(t, testDeviceInfos(), nil)

	var buf bytes.Buffer
	if err := ListDevices(&buf); err != nil {
		t.Fatalf("ListDevices error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{FollowDefaultName, "[0] Built-in Microphone", "[2] Monitor of Speakers", "Default sample rate: 96000 Hz"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "[1] Speakers") {
		t.Errorf("output-only device listed:\n%s", out)
	}
}

// TestPortAudioDevices talks to the real host and is skipped without one.
func TestPortAudioDevices(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Skipf("PortAudio unavailable: %v", err)
	}
	Terminate()

	devices, err := NewPortAudioSource(PortAudioConfig{}).Devices()
	if err != nil {
		t.Skipf("no devices: %v", err)
	}
	if len(devices) == 0 || !devices[0].IsFollowDefault() {
		t.Errorf("device list must start with the follow-default entry: %+v", devices)
	}
}
