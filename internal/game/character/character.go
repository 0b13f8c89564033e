// Package character defines the player character model and the class
// defaulting rules applied when creation completes.
package character

// StartLocationID is where every new character begins.
const StartLocationID = "town_square"

// Spell is a known spell with its dice expressions where applicable.
type Spell struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Level       int    `json:"level"`
	Type        string `json:"type"`
	DamageDice  string `json:"damage_dice,omitempty"`
	HealingDice string `json:"healing_dice,omitempty"`
}

// Item is an inventory item.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Value       int    `json:"value,omitempty"`
}

// Character is a player character. A freshly created character has empty
// Name, Race, and Class; those fields fill in during the creation dialogue
// and Finalize applies the class package.
type Character struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Race  string `json:"race"`
	Class string `json:"class_name"`
	Level int    `json:"level"`

	HP    int `json:"hp"`
	MaxHP int `json:"max_hp"`
	AC    int `json:"ac"`

	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`

	KnownSpells []Spell        `json:"known_spells,omitempty"`
	SpellSlots  map[string]int `json:"spell_slots,omitempty"`
	Inventory   []Item         `json:"inventory"`

	CurrentLocationID string `json:"current_location_id"`
	ActiveCombatID    string `json:"active_combat_id,omitempty"`
}

// New creates a blank level-1 character for a user, ready for the creation
// dialogue. All abilities start at 10.
func New(userID string) *Character {
	return &Character{
		ID:                userID,
		Level:             1,
		HP:                10,
		MaxHP:             10,
		AC:                10,
		Strength:          10,
		Dexterity:         10,
		Constitution:      10,
		Intelligence:      10,
		Wisdom:            10,
		Charisma:          10,
		Inventory:         []Item{},
		CurrentLocationID: StartLocationID,
	}
}

// Clone returns a deep copy safe to hand outside a lock.
func (c *Character) Clone() *Character {
	out := *c
	if c.KnownSpells != nil {
		out.KnownSpells = append([]Spell(nil), c.KnownSpells...)
	}
	if c.SpellSlots != nil {
		out.SpellSlots = make(map[string]int, len(c.SpellSlots))
		for k, v := range c.SpellSlots {
			out.SpellSlots[k] = v
		}
	}
	if c.Inventory != nil {
		out.Inventory = append([]Item(nil), c.Inventory...)
	}
	return &out
}

// InCombat reports whether the character has an active combat.
func (c *Character) InCombat() bool {
	return c.ActiveCombatID != ""
}
