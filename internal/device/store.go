package device

import "sync"

// Logger defines the logging interface used by this package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store is the in-memory device table, keyed by device ID. It is owned
// by the Reconciler, which is the only writer; consumers read through
// deep-copying accessors so the arena is never shared mutably.
//
// All public methods are thread-safe.
type Store struct {
	mu      sync.RWMutex
	devices map[string]*Device
}

// NewStore creates an empty device table.
func NewStore() *Store {
	return &Store{
		devices: make(map[string]*Device),
	}
}

// Get retrieves a device by ID.
// The returned device is a deep copy; callers can safely modify it.
func (s *Store) Get(id string) (*Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.devices[id]
	if !ok {
		return nil, false
	}
	return d.DeepCopy(), true
}

// List retrieves all known devices.
// The returned devices are deep copies; callers can safely modify them.
func (s *Store) List() []Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	devices := make([]Device, 0, len(s.devices))
	for _, d := range s.devices {
		devices = append(devices, *d.DeepCopy())
	}
	return devices
}

// ControlValue returns the last observed raw value of a control.
// The second return reports whether the device and control have been
// observed at all.
func (s *Store) ControlValue(deviceID, controlID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.devices[deviceID]
	if !ok {
		return "", false
	}
	c, ok := d.Controls[controlID]
	if !ok {
		return "", false
	}
	return c.Value, true
}

// Len returns the number of devices observed so far.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.devices)
}

// upsert returns the live record for a device, creating it on first
// observation. Callers must hold s.mu for writing.
func (s *Store) upsert(id string) *Device {
	d, ok := s.devices[id]
	if !ok {
		d = &Device{ID: id}
		s.devices[id] = d
	}
	return d
}
