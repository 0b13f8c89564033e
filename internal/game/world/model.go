// Package world holds the game world model: locations, combats, and the
// mutable per-user game state the connection handlers operate on.
package world

// NPC is a non-player character present at a location.
type NPC struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Item is an object lying at a location.
type Item struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Value       int    `json:"value,omitempty" yaml:"value,omitempty"`
}

// Location is a place in the world. Exits map a direction to the destination
// location ID.
type Location struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Exits       map[string]string `json:"exits" yaml:"exits"`
	NPCs        []NPC             `json:"npcs" yaml:"npcs"`
	Items       []Item            `json:"items" yaml:"items"`
}

// Clone returns a deep copy safe to hand outside a lock.
func (l *Location) Clone() *Location {
	out := *l
	if l.Exits != nil {
		out.Exits = make(map[string]string, len(l.Exits))
		for k, v := range l.Exits {
			out.Exits[k] = v
		}
	}
	if l.NPCs != nil {
		out.NPCs = append([]NPC(nil), l.NPCs...)
	}
	if l.Items != nil {
		out.Items = append([]Item(nil), l.Items...)
	}
	return &out
}

// Combat is an active encounter at a location.
type Combat struct {
	ID              string   `json:"id"`
	LocationID      string   `json:"location_id"`
	Round           int      `json:"round"`
	CurrentTurn     string   `json:"current_turn"`
	InitiativeOrder []string `json:"initiative_order"`
}

// Clone returns a deep copy safe to hand outside a lock.
func (c *Combat) Clone() *Combat {
	out := *c
	if c.InitiativeOrder != nil {
		out.InitiativeOrder = append([]string(nil), c.InitiativeOrder...)
	}
	return &out
}
