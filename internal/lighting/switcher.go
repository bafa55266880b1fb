package lighting

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/avdeenkov/wirebus/internal/device"
	"github.com/avdeenkov/wirebus/internal/infrastructure/config"
)

// Logger defines the logging interface used by this package.
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

// Publisher publishes a message to the controller bus. Satisfied by the
// MQTT client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// commandQoS is the delivery level for relay commands.
const commandQoS byte = 1

// Switcher translates logical relay commands into per-unit publishes on
// the controller bus.
//
// The relay table is static, loaded from configuration at startup.
// Relay identifiers are 1-based indexes into that table; an out-of-range
// identifier is a programming error (a group was provisioned against a
// table the installation does not have) and panics rather than failing
// at runtime.
type Switcher struct {
	// topics[i] is the command topic of relay i+1.
	topics []string
	pub    Publisher
	logger Logger
}

// NewSwitcher creates a switcher over the installation's relay table.
//
// Parameters:
//   - pub: Transport used for command publishes
//   - relays: Static relay table from configuration, in table order
//
// Example:
//
//	switcher := lighting.NewSwitcher(mqttClient, cfg.Lighting.Relays)
func NewSwitcher(pub Publisher, relays []config.RelayConfig) *Switcher {
	topics := make([]string, len(relays))
	for i, r := range relays {
		topics[i] = device.CommandTopic(r.Device, r.Control)
	}
	return &Switcher{
		topics: topics,
		pub:    pub,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the switcher.
func (s *Switcher) SetLogger(logger Logger) {
	s.logger = logger
}

// RelayCount returns the size of the relay table.
func (s *Switcher) RelayCount() int {
	return len(s.topics)
}

// SwitchRelays publishes the target state to every named relay.
//
// All publishes run concurrently and the call returns only after every
// one has settled; a single stuck relay never blocks or hides the result
// of its siblings. Publishing is at-most-once per invocation: there is
// no internal retry, the caller owns retry policy.
//
// If any publish fails, the returned error wraps ErrSwitchFailed and
// names the failed relays. Each failure is also logged individually.
//
// Parameters:
//   - relayIDs: 1-based indexes into the relay table
//   - state: Target state, published as "1" or "0"
//
// Returns:
//   - error: nil when every relay accepted the command
func (s *Switcher) SwitchRelays(relayIDs []int, state GroupState) error {
	payload := []byte("0")
	if state == GroupStateOn {
		payload = []byte("1")
	}

	// Resolve every topic up front so a bad id fails loudly before any
	// command is on the wire.
	topics := make(map[int]string, len(relayIDs))
	for _, id := range relayIDs {
		topics[id] = s.resolve(id)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var failed []int

	for id, topic := range topics {
		wg.Add(1)
		go func(id int, topic string) {
			defer wg.Done()

			if err := s.pub.Publish(topic, payload, commandQoS, false); err != nil {
				s.logger.Error("relay command failed",
					"relay", id,
					"topic", topic,
					"state", string(state),
					"error", err,
				)
				mu.Lock()
				failed = append(failed, id)
				mu.Unlock()
				return
			}

			s.logger.Debug("relay command published",
				"relay", id,
				"topic", topic,
				"state", string(state),
			)
		}(id, topic)
	}
	wg.Wait()

	if len(failed) > 0 {
		sort.Ints(failed)
		return fmt.Errorf("%w: relays %s", ErrSwitchFailed, joinInts(failed))
	}
	return nil
}

// resolve maps a 1-based relay identifier to its command topic.
// Panics on out-of-range identifiers.
func (s *Switcher) resolve(id int) string {
	if id < 1 || id > len(s.topics) {
		panic(fmt.Sprintf("lighting: relay id %d outside table of %d relays", id, len(s.topics)))
	}
	return s.topics[id-1]
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}
