// Package lighting owns lighting groups and relay actuation.
//
// A lighting group maps a location key to the set of physical relays
// that light it. Groups are persisted in SQLite by the Repository; the
// Switcher turns logical relay identifiers into concurrent command
// publishes on the controller bus.
//
// # Key Types
//
//   - Group: location → relays → ON/OFF state, with timestamps
//   - Repository / SQLiteRepository: transactional group persistence
//   - Switcher: static relay table plus settle-all batch actuation
//
// # Usage
//
//	repo := lighting.NewSQLiteRepository(db.DB)
//	switcher := lighting.NewSwitcher(mqttClient, cfg.Lighting.Relays)
//
//	groups, err := repo.Create(ctx, []string{"kitchen", "hall"})
//	if err != nil {
//	    return err
//	}
//	if _, err := repo.AssignRelays(ctx, "kitchen", []int{1, 2}); err != nil {
//	    return err
//	}
//	if err := switcher.SwitchRelays([]int{1, 2}, lighting.GroupStateOn); err != nil {
//	    // some relays rejected the command; each one is already logged
//	}
//
// # Consistency
//
// Create is all-or-nothing. Turn reports ErrPartialWrite when it changed
// fewer rows than the locations it named. The single-connection SQLite
// pool serialises writes, so per-group operations apply in observed order.
package lighting
