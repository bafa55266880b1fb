// Package gateway is the application service that ties the core together.
//
// # Architecture
//
//	                    ┌──────────────┐
//	 MQTT /devices/# ──▶│  Service     │──▶ Reconciler ──▶ device.Store
//	                    │              │         │
//	 MQTT publish  ◀────│  (bus glue)  │◀── bus.PublishMessage
//	                    └──────┬───────┘
//	                           │ value facts
//	                           ▼
//	                    macros.Evaluate ──▶ target commands + messages
//	                           │
//	 operator ──▶ TurnGroups ──┴─▶ lighting.Repository + lighting.Switcher
//
// The service owns no domain logic of its own: topic decoding lives in
// package device, group persistence in package lighting, macro rules in
// package macros. What it adds is the wiring and the ordering guarantees
// between them (store writes before relay actuation, bus events after
// successful reconciliation).
//
// # Usage
//
//	svc, err := gateway.NewService(gateway.Options{
//	    MQTTClient: mqttClient,
//	    Bus:        eventBus,
//	    Reconciler: reconciler,
//	    Groups:     groupRepo,
//	    Switcher:   switcher,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := svc.Start(ctx); err != nil {
//	    return err
//	}
//	defer svc.Stop()
package gateway
