// Package device reconstructs the controller's device tree from its MQTT
// topic conventions.
//
// The controller publishes partial facts about every device across several
// channel families: device meta, control meta, raw control values, and an
// error channel for each level. Facts arrive out of order, duplicated, and
// incomplete. This package decodes topics into typed facts and folds them
// into a consistent in-memory model.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────────┐
//	│                         Device Model                             │
//	│                                                                  │
//	│  ┌────────────────┐    ┌────────────────┐    ┌────────────────┐  │
//	│  │  Topic Codec   │    │   Reconciler   │    │     Store      │  │
//	│  │   (topic.go)   │───▶│(reconciler.go) │───▶│   (store.go)   │  │
//	│  │                │    │                │    │                │  │
//	│  │ • DecodeTopic  │    │ • Field merge  │    │ • Device arena │  │
//	│  │ • CommandTopic │    │ • Patch events │    │ • Deep copies  │  │
//	│  │ • RootTopic    │    │ • Error chans  │    │ • Thread safety│  │
//	│  └────────────────┘    └────────────────┘    └────────────────┘  │
//	└──────────────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Address: a decoded topic (device ID, channel family, control ID)
//   - Fact: tagged variant of one observed statement (MetaFact,
//     ControlMetaFact, ControlValueFact, and the error channels)
//   - Device / Control: the merged model
//   - Patch / ControlPatch: the changed slice emitted after each merge
//
// # Usage
//
//	store := device.NewStore()
//	rec := device.NewReconciler(store)
//	rec.SetLogger(log)
//
//	addr, err := device.DecodeTopic(msg.Topic())
//	if err != nil {
//	    return // foreign topic, not ours
//	}
//	if patch, ok := rec.Apply(addr.Fact(msg.Payload())); ok {
//	    bus.Emit(patch)
//	}
//
// # Merge Semantics
//
// A device is never discarded once observed. Every merge is field-level:
// a meta fact arriving after a value fact does not erase the value, and
// replaying the same fact is idempotent. Malformed JSON payloads are
// logged and dropped without touching known state.
//
// For every control, the command topic is present exactly when the
// control is writable. New controls default to readonly until control
// meta declares otherwise.
//
// # Thread Safety
//
// The Store is safe for concurrent use. Reads return deep copies, so
// callers never alias the live arena. The Reconciler is the only writer.
package device
