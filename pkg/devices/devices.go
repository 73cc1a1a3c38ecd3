package devices

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// DeviceKind is the class of an audio output device.
type DeviceKind int

const (
	Earpiece DeviceKind = iota
	Speakerphone
	WiredHeadset
	Bluetooth
)

func (k DeviceKind) String() string {
	switch k {
	case Earpiece:
		return "earpiece"
	case Speakerphone:
		return "speakerphone"
	case WiredHeadset:
		return "wired-headset"
	case Bluetooth:
		return "bluetooth"
	default:
		return "unknown"
	}
}

// Device is a single audio route.
type Device struct {
	ID   string
	Name string
	Kind DeviceKind
}

// ErrUnknownDevice is returned when selecting a device that is not available.
var ErrUnknownDevice = errors.New("unknown audio device")

// Manager is the audio routing capability the client consumes: enumerate the
// available devices, select one and activate/deactivate the routing for the
// duration of a call. Platform integrations provide their own
// implementation; the default one only tracks the selection.
type Manager interface {
	Devices() []Device
	Selected() (Device, bool)
	Select(deviceID string) error
	Activate() error
	Deactivate()
}

type manager struct {
	mutex     sync.Mutex
	available []Device
	selected  *Device
	active    bool
	logger    *logrus.Entry
}

// NewManager creates a manager over a fixed set of available devices.
func NewManager(available []Device) Manager {
	return &manager{
		available: available,
		logger:    logrus.WithField("component", "audio-devices"),
	}
}

func (m *manager) Devices() []Device {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	devices := make([]Device, len(m.available))
	copy(devices, m.available)
	return devices
}

func (m *manager) Selected() (Device, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.selected == nil {
		return Device{}, false
	}
	return *m.selected, true
}

func (m *manager) Select(deviceID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, device := range m.available {
		if device.ID == deviceID {
			device := device
			m.selected = &device
			m.logger.Infof("selected device: %s (%s)", device.Name, device.Kind)
			return nil
		}
	}
	return ErrUnknownDevice
}

func (m *manager) Activate() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.selected == nil {
		// Fall back to the first available route rather than failing the
		// call over audio routing.
		if len(m.available) == 0 {
			return errors.New("no audio devices available")
		}
		device := m.available[0]
		m.selected = &device
	}

	m.active = true
	m.logger.Infof("activated audio routing: %s", m.selected.Name)
	return nil
}

func (m *manager) Deactivate() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.active {
		m.active = false
		m.logger.Info("deactivated audio routing")
	}
}
