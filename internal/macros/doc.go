// Package macros stores and evaluates automation rules.
//
// A macro maps device facts to desired outputs. The settings and output
// shapes are a closed set keyed by the macro type; LIGHTING is the only
// type today: wall buttons arm the rule, illumination sensors gate it,
// and target controls receive the computed state.
//
// # Key Types
//
//   - Macro: the stored rule with typed Settings and Output
//   - Evaluate: the pure engine turning settings + facts into intent
//   - Repository / SQLiteRepository: persistence
//   - Registry: cached, thread-safe macro management
//
// # Usage
//
//	repo := macros.NewSQLiteRepository(db.DB)
//	registry := macros.NewRegistry(repo)
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//
//	for _, m := range registry.ListLightingMacros(ctx) {
//	    output := macros.Evaluate(m.Settings.Lighting, deviceStore)
//	    // caller actuates via the lighting switcher
//	}
//
// # Purity
//
// Evaluate performs no I/O and holds no state: identical settings and
// facts yield identical output. Actuation is the caller's job; the
// engine returns intent only.
package macros
