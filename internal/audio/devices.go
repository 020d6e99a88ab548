package audio

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// Swappable for tests.
var (
	paDevicesFunc      = portaudio.Devices
	paDefaultInputFunc = portaudio.DefaultInputDevice
)

// Initialize sets up the PortAudio subsystem.
// This must be called before any audio operations and paired with a Terminate() call.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
// This should be deferred immediately after Initialize().
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// HostDevices lists capture-capable PortAudio devices, preceded by the
// "Follow Default Device" entry. PortAudio must be initialized.
func HostDevices() ([]Device, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	var defName string
	if def, err := paDefaultInputFunc(); err == nil && def != nil {
		defName = def.Name
	}
	return deviceList(infos, defName), nil
}

func deviceList(infos []*portaudio.DeviceInfo, defaultName string) []Device {
	devices := []Device{FollowDefault()}
	for i, info := range infos {
		if info == nil || info.MaxInputChannels < 1 {
			continue
		}
		devices = append(devices, Device{
			ID:                strconv.Itoa(i),
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			Default:           info.Name == defaultName,
		})
	}
	return devices
}

// InputDevice retrieves the PortAudio input device for id. An empty id
// selects the system default input; a number selects that device index; any
// other string is matched case-insensitively against device names, exact
// matches first. PortAudio must be initialized.
func InputDevice(id string) (*portaudio.DeviceInfo, error) {
	if strings.TrimSpace(id) == "" {
		dev, err := paDefaultInputFunc()
		if err != nil {
			return nil, fmt.Errorf("default input device: %w", err)
		}
		return dev, nil
	}
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return resolveDevice(id, infos)
}

func resolveDevice(id string, infos []*portaudio.DeviceInfo) (*portaudio.DeviceInfo, error) {
	id = strings.TrimSpace(id)
	if idx, err := strconv.Atoi(id); err == nil {
		if idx < 0 || idx >= len(infos) || infos[idx] == nil {
			return nil, fmt.Errorf("%w: index %d", ErrDeviceNotFound, idx)
		}
		if infos[idx].MaxInputChannels < 1 {
			return nil, fmt.Errorf("%w: %q has no input channels", ErrDeviceNotFound, infos[idx].Name)
		}
		return infos[idx], nil
	}

	needle := strings.ToLower(id)
	var partial *portaudio.DeviceInfo
	for _, info := range infos {
		if info == nil || info.MaxInputChannels < 1 {
			continue
		}
		name := strings.ToLower(info.Name)
		if name == needle {
			return info, nil
		}
		if partial == nil && strings.Contains(name, needle) {
			partial = info
		}
	}
	if partial == nil {
		return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, id)
	}
	return partial, nil
}

// ListDevices writes a description of every capture device to w.
// For each device, it shows:
// - Device ID and name
// - Channel count
// - Default sample rate
// - Latency ranges
func ListDevices(w io.Writer) error {
	infos, err := paDevicesFunc()
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}

	fmt.Fprintf(w, "\nCapture Devices\n\n")
	fmt.Fprintf(w, "[\"\"] %s\n\n", FollowDefaultName)

	for i, device := range infos {
		if device == nil || device.MaxInputChannels < 1 {
			continue
		}
		fmt.Fprintf(w, "[%d] %s\n", i, device.Name)
		fmt.Fprintf(w, "    Input channels: %d\n", device.MaxInputChannels)
		fmt.Fprintf(w, "    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)
		fmt.Fprintf(w, "    Latency: Low=%.2fms, High=%.2fms\n",
			device.DefaultLowInputLatency.Seconds()*1000,
			device.DefaultHighInputLatency.Seconds()*1000)
		fmt.Fprintln(w)
	}

	return nil
}
