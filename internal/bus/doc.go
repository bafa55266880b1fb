// Package bus is the in-process event hub connecting the device
// reconciler, the actuation layer, and downstream consumers.
//
// The event set is closed: DeviceChanged, PublishMessage, and
// SubscriptionUpdate, each with a fixed payload type and its own typed
// On/Emit pair. Dispatch is synchronous, in registration order, with
// per-handler panic isolation. The bus offers no durability and no
// back-pressure; handlers must return quickly and the group store owns
// anything that must survive a restart.
//
// # Usage
//
//	hub := bus.New()
//	hub.SetLogger(log)
//
//	sub := hub.OnDeviceChanged(func(e bus.DeviceChanged) {
//	    history.Record(e.Patch)
//	})
//	defer sub.Cancel()
//
//	hub.EmitDeviceChanged(bus.DeviceChanged{Patch: patch})
package bus
