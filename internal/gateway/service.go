package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/avdeenkov/wirebus/internal/bus"
	"github.com/avdeenkov/wirebus/internal/device"
	"github.com/avdeenkov/wirebus/internal/infrastructure/mqtt"
	"github.com/avdeenkov/wirebus/internal/lighting"
	"github.com/avdeenkov/wirebus/internal/macros"
)

// defaultQoS is the quality of service for everything the service publishes.
const defaultQoS byte = 1

// ErrRelayOutOfRange is returned by AssignRelays for relay ids outside the
// configured relay table.
var ErrRelayOutOfRange = errors.New("gateway: relay id out of range")

// Logger defines the logging interface used by the Service.
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

// MQTTClient is the broker surface the service needs.
// Satisfied by *mqtt.Client; mocked in tests.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

// HistoryWriter records time-series samples of control values and group
// state changes. Satisfied by *influxdb.Client. Optional: when nil, no
// history is written.
type HistoryWriter interface {
	WriteControlValue(deviceID, controlID, value string)
	WriteGroupState(location string, on bool)
}

// Service wires the core together: it subscribes to the controller topic
// tree, feeds decoded facts through the reconciler, emits change events on
// the bus, evaluates lighting macros against the device store, and carries
// operator group commands down to the relays.
//
// Thread Safety: all methods are safe for concurrent use.
type Service struct {
	mqtt       MQTTClient
	bus        *bus.Bus
	reconciler *device.Reconciler
	store      *device.Store
	groups     lighting.Repository
	switcher   *lighting.Switcher
	macros     *macros.Registry // May be nil (optional)
	history    HistoryWriter    // May be nil (optional)

	// Last evaluated on/off state per macro id, for edge detection.
	macroState map[string]bool
	macroMu    sync.Mutex

	subs     []*bus.Subscription
	stopOnce sync.Once

	logger Logger
}

// Options holds dependencies for creating a Service.
type Options struct {
	// MQTTClient is the broker connection. Required.
	MQTTClient MQTTClient

	// Bus is the in-process event bus. Required.
	Bus *bus.Bus

	// Reconciler folds decoded facts into the device store. Required.
	Reconciler *device.Reconciler

	// Groups is the lighting group store. Required.
	Groups lighting.Repository

	// Switcher drives the physical relay table. Required.
	Switcher *lighting.Switcher

	// Macros is the macro registry. Optional: when nil, no macros run.
	Macros *macros.Registry

	// History receives value and group-state samples. Optional.
	History HistoryWriter

	// Logger is an optional structured logger.
	Logger Logger
}

// NewService creates a gateway service. Call Start to begin operation.
func NewService(opts Options) (*Service, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("gateway: MQTT client is required")
	}
	if opts.Bus == nil {
		return nil, fmt.Errorf("gateway: bus is required")
	}
	if opts.Reconciler == nil {
		return nil, fmt.Errorf("gateway: reconciler is required")
	}
	if opts.Groups == nil {
		return nil, fmt.Errorf("gateway: group repository is required")
	}
	if opts.Switcher == nil {
		return nil, fmt.Errorf("gateway: relay switcher is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Service{
		mqtt:       opts.MQTTClient,
		bus:        opts.Bus,
		reconciler: opts.Reconciler,
		store:      opts.Reconciler.Store(),
		groups:     opts.Groups,
		switcher:   opts.Switcher,
		macros:     opts.Macros,
		history:    opts.History,
		macroState: make(map[string]bool),
		logger:     logger,
	}, nil
}

// Start subscribes to the controller topic tree and registers bus handlers.
func (s *Service) Start(ctx context.Context) error {
	// Forward bus publish requests to the broker.
	s.subs = append(s.subs, s.bus.OnPublishMessage(func(event bus.PublishMessage) {
		if err := s.mqtt.Publish(event.Topic, event.Payload, defaultQoS, event.Retained); err != nil {
			s.logger.Error("publish failed", "topic", event.Topic, "error", err)
		}
	}))

	root := device.RootTopic()
	if err := s.mqtt.Subscribe(root, defaultQoS, s.handleMessage); err != nil {
		return fmt.Errorf("gateway: subscribe to %s: %w", root, err)
	}

	s.logger.Info("gateway started",
		"topic", root,
		"relays", s.switcher.RelayCount(),
	)
	return nil
}

// Stop cancels the service's bus subscriptions. Safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		for _, sub := range s.subs {
			sub.Cancel()
		}
		s.logger.Info("gateway stopped")
	})
}

// handleMessage is the MQTT handler for the controller topic tree. Foreign
// and malformed topics are skipped; everything else becomes a fact.
func (s *Service) handleMessage(topic string, payload []byte) error {
	addr, err := device.DecodeTopic(topic)
	if err != nil {
		s.logger.Debug("skipping foreign topic", "topic", topic)
		return nil
	}

	fact := addr.Fact(payload)
	patch, ok := s.reconciler.Apply(fact)
	if !ok {
		return nil
	}

	s.bus.EmitDeviceChanged(bus.DeviceChanged{Patch: patch})
	s.recordHistory(patch)

	if _, isValue := fact.(device.ControlValueFact); isValue {
		s.evaluateMacros(context.Background())
	}
	return nil
}

// recordHistory writes control value updates from a patch to the history
// backend, when one is configured.
func (s *Service) recordHistory(patch *device.Patch) {
	if s.history == nil {
		return
	}
	for controlID, cp := range patch.Controls {
		if cp.Value != nil {
			s.history.WriteControlValue(patch.DeviceID, controlID, *cp.Value)
		}
	}
}

// evaluateMacros runs every lighting macro against the current device store
// and acts on on/off transitions. Commands and notification messages go out
// through the bus so the broker forwarding stays in one place.
func (s *Service) evaluateMacros(ctx context.Context) {
	if s.macros == nil {
		return
	}

	for _, m := range s.macros.ListLightingMacros(ctx) {
		out := macros.Evaluate(m.Settings.Lighting, s.store)
		if len(out.Lightings) == 0 {
			continue
		}
		on := out.Lightings[0].State

		s.macroMu.Lock()
		prev := s.macroState[m.ID]
		if on == prev {
			s.macroMu.Unlock()
			continue
		}
		s.macroState[m.ID] = on
		s.macroMu.Unlock()

		s.logger.Info("macro state changed", "macro", m.Name, "on", on)

		payload := "0"
		if on {
			payload = "1"
		}
		for _, target := range out.Lightings {
			s.bus.EmitPublishMessage(bus.PublishMessage{
				Topic:   device.CommandTopic(target.DeviceID, target.ControlID),
				Payload: []byte(payload),
			})
		}
		for _, msg := range out.Messages {
			s.bus.EmitPublishMessage(bus.PublishMessage{
				Topic:   msg.Topic,
				Payload: []byte(msg.Payload),
			})
		}
	}
}

// CreateGroups creates lighting groups for the given locations.
func (s *Service) CreateGroups(ctx context.Context, locations []string) ([]lighting.Group, error) {
	return s.groups.Create(ctx, locations)
}

// RemoveGroups deletes lighting groups, returning the removed records.
func (s *Service) RemoveGroups(ctx context.Context, locations []string) ([]lighting.Group, error) {
	return s.groups.Remove(ctx, locations)
}

// AssignRelays replaces a group's relay set. Relay ids are checked against
// the configured relay table here so a bad assignment fails at configuration
// time instead of at switch time.
func (s *Service) AssignRelays(ctx context.Context, location string, relays []int) (*lighting.Group, error) {
	for _, id := range relays {
		if id < 1 || id > s.switcher.RelayCount() {
			return nil, fmt.Errorf("%w: %d of %d", ErrRelayOutOfRange, id, s.switcher.RelayCount())
		}
	}
	return s.groups.AssignRelays(ctx, location, relays)
}

// Groups lists all lighting groups.
func (s *Service) Groups(ctx context.Context) ([]lighting.Group, error) {
	return s.groups.List(ctx)
}

// Group retrieves a single lighting group.
func (s *Service) Group(ctx context.Context, location string) (*lighting.Group, error) {
	return s.groups.Get(ctx, location)
}

// Devices returns a snapshot of the reconciled device model.
func (s *Service) Devices() []device.Device {
	return s.store.List()
}

// TurnGroups persists the desired state for the given group locations and
// drives the union of their relays. The store write happens first: if it
// fails nothing is actuated, and a partial actuation failure still leaves
// the persisted intent in place.
func (s *Service) TurnGroups(ctx context.Context, locations []string, state lighting.GroupState) ([]lighting.Group, error) {
	groups, err := s.groups.Turn(ctx, locations, state)
	if err != nil {
		return nil, err
	}

	relays := relayUnion(groups)
	if len(relays) > 0 {
		if err := s.switcher.SwitchRelays(relays, state); err != nil {
			return groups, err
		}
	}

	if s.history != nil {
		for _, g := range groups {
			s.history.WriteGroupState(g.Location, state == lighting.GroupStateOn)
		}
	}

	return groups, nil
}

// relayUnion collects the distinct relay ids across groups, sorted.
func relayUnion(groups []lighting.Group) []int {
	seen := make(map[int]bool)
	var relays []int
	for _, g := range groups {
		for _, id := range g.Relays {
			if !seen[id] {
				seen[id] = true
				relays = append(relays, id)
			}
		}
	}
	sort.Ints(relays)
	return relays
}
