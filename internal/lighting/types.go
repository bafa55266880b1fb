package lighting

import "time"

// GroupState is the logical on/off state of a lighting group.
type GroupState string

// GroupState constants.
const (
	GroupStateOn  GroupState = "ON"
	GroupStateOff GroupState = "OFF"
)

// Valid reports whether the state is a known value.
func (s GroupState) Valid() bool {
	return s == GroupStateOn || s == GroupStateOff
}

// Group is a named set of relays actuated together as one logical
// switch. The repository exclusively owns the persisted representation;
// callers hold copies and never mutate them in place.
type Group struct {
	// Location is the unique natural key, e.g. "kitchen".
	Location string `json:"location"`

	// Relays is the ordered set of relay identifiers assigned to the
	// group. Relay identifiers index the static relay table (1-based).
	Relays []int `json:"relays"`

	// State is the last commanded logical state.
	State GroupState `json:"state"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeepCopy creates an independent copy of the group.
func (g *Group) DeepCopy() *Group {
	if g == nil {
		return nil
	}
	cpy := *g
	if g.Relays != nil {
		cpy.Relays = make([]int, len(g.Relays))
		copy(cpy.Relays, g.Relays)
	}
	return &cpy
}
