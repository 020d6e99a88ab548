package audio

// FollowDefaultName labels the pseudo-device that tracks the system default.
const FollowDefaultName = "Follow Default Device"

// Device represents a selectable capture device. An empty ID selects the
// system default.
type Device struct {
	ID                string
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool // the host's current default input
}

// FollowDefault returns the entry placed first in every device list.
func FollowDefault() Device {
	return Device{ID: "", Name: FollowDefaultName}
}

// IsFollowDefault reports whether d selects the system default.
func (d Device) IsFollowDefault() bool { return d.ID == "" }

// Label is the display name used in lists and pickers.
func (d Device) Label() string {
	if d.IsFollowDefault() {
		return d.Name
	}
	if d.Default {
		return d.Name + " (default)"
	}
	return d.Name
}
