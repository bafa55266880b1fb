package bus

import (
	"sync"

	"github.com/avdeenkov/wirebus/internal/device"
)

// Logger defines the logging interface used by the Bus.
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

// DeviceChanged announces a merged device fact. The payload is the
// changed slice only, never the full device.
type DeviceChanged struct {
	Patch *device.Patch
}

// PublishMessage asks the transport layer to publish a message on the
// controller bus. Consumed by the gateway's MQTT adapter.
type PublishMessage struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// SubscriptionUpdate fans a payload out to external subscription
// channels (the excluded API layer relays these to its clients).
type SubscriptionUpdate struct {
	Channel string
	Payload []byte
}

// Subscription is a handle to a registered handler. Cancel deregisters
// the handler; cancelling twice is a no-op.
type Subscription struct {
	cancel func()
	once   sync.Once
}

// Cancel removes the handler from the bus. Idempotent.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Bus is the process-wide event hub decoupling the reconciler, the
// actuation layer, and downstream consumers.
//
// Dispatch is synchronous and in registration order. Handlers must not
// block; anything slow belongs in the handler's own goroutine. A handler
// that panics is isolated: the panic is logged and the remaining handlers
// of the same emission still run. The bus is volatile; nothing survives a
// process restart.
//
// The event set is closed. Each kind has its own typed register and emit
// methods, so subscriber contracts are checked at compile time instead of
// through a string-keyed registry.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	logger Logger

	deviceChanged []handler[DeviceChanged]
	publish       []handler[PublishMessage]
	subscription  []handler[SubscriptionUpdate]
}

type handler[T any] struct {
	id uint64
	fn func(T)
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{logger: noopLogger{}}
}

// SetLogger sets the logger used to report handler panics.
func (b *Bus) SetLogger(logger Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = logger
}

// OnDeviceChanged registers a handler for device change events.
func (b *Bus) OnDeviceChanged(fn func(DeviceChanged)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.allocID()
	b.deviceChanged = append(b.deviceChanged, handler[DeviceChanged]{id: id, fn: fn})
	return &Subscription{cancel: func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.deviceChanged = remove(b.deviceChanged, id)
	}}
}

// OnPublishMessage registers a handler for outbound publish requests.
func (b *Bus) OnPublishMessage(fn func(PublishMessage)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.allocID()
	b.publish = append(b.publish, handler[PublishMessage]{id: id, fn: fn})
	return &Subscription{cancel: func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.publish = remove(b.publish, id)
	}}
}

// OnSubscriptionUpdate registers a handler for subscription fan-out events.
func (b *Bus) OnSubscriptionUpdate(fn func(SubscriptionUpdate)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.allocID()
	b.subscription = append(b.subscription, handler[SubscriptionUpdate]{id: id, fn: fn})
	return &Subscription{cancel: func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subscription = remove(b.subscription, id)
	}}
}

// EmitDeviceChanged dispatches a device change to every registered
// handler, in registration order.
func (b *Bus) EmitDeviceChanged(event DeviceChanged) {
	dispatch(b, b.snapshotDeviceChanged(), event)
}

// EmitPublishMessage dispatches an outbound publish request.
func (b *Bus) EmitPublishMessage(event PublishMessage) {
	dispatch(b, b.snapshotPublish(), event)
}

// EmitSubscriptionUpdate dispatches a subscription fan-out event.
func (b *Bus) EmitSubscriptionUpdate(event SubscriptionUpdate) {
	dispatch(b, b.snapshotSubscription(), event)
}

func (b *Bus) snapshotDeviceChanged() []handler[DeviceChanged] {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]handler[DeviceChanged](nil), b.deviceChanged...)
}

func (b *Bus) snapshotPublish() []handler[PublishMessage] {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]handler[PublishMessage](nil), b.publish...)
}

func (b *Bus) snapshotSubscription() []handler[SubscriptionUpdate] {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]handler[SubscriptionUpdate](nil), b.subscription...)
}

// dispatch runs handlers outside the bus lock so a handler may register
// or cancel subscriptions without deadlocking. A panicking handler never
// stops its siblings and never reaches the emitter.
func dispatch[T any](b *Bus, handlers []handler[T], event T) {
	for _, h := range handlers {
		invoke(b, h.fn, event)
	}
}

func invoke[T any](b *Bus, fn func(T), event T) {
	defer func() {
		if r := recover(); r != nil {
			b.mu.RLock()
			logger := b.logger
			b.mu.RUnlock()
			logger.Error("event handler panicked", "panic", r)
		}
	}()
	fn(event)
}

// allocID issues a unique handler ID. Callers must hold b.mu.
func (b *Bus) allocID() uint64 {
	b.nextID++
	return b.nextID
}

func remove[T any](handlers []handler[T], id uint64) []handler[T] {
	for i, h := range handlers {
		if h.id == id {
			return append(handlers[:i:i], handlers[i+1:]...)
		}
	}
	return handlers
}
