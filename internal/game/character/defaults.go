package character

import "strings"

// Stage identifies where a character is in the creation dialogue.
type Stage int

const (
	// StageName means the character still needs a name.
	StageName Stage = iota
	// StageRace means the character still needs a race.
	StageRace
	// StageClass means the character still needs a class.
	StageClass
	// StageComplete means creation has finished.
	StageComplete
)

// CreationStage derives the next missing step from the filled fields. Name,
// race, and class are always asked for in that order.
func CreationStage(c *Character) Stage {
	switch {
	case c.Name == "":
		return StageName
	case c.Race == "":
		return StageRace
	case c.Class == "":
		return StageClass
	default:
		return StageComplete
	}
}

// Finalize applies the class package for c.Class: ability scores, hit
// points, armor class, and for the casting classes their starting spells and
// slots. An unrecognized class keeps the blank-character defaults. The
// character is placed at the start location either way.
func Finalize(c *Character) {
	switch strings.ToLower(c.Class) {
	case "fighter":
		c.Strength = 16
		c.Constitution = 14
		c.Dexterity = 12
		c.Wisdom = 10
		c.Intelligence = 8
		c.Charisma = 10
		c.HP = 12
		c.MaxHP = 12
		c.AC = 16 // chain mail and shield
	case "wizard":
		c.Strength = 8
		c.Constitution = 12
		c.Dexterity = 14
		c.Wisdom = 10
		c.Intelligence = 16
		c.Charisma = 10
		c.HP = 8
		c.MaxHP = 8
		c.AC = 12 // mage armor
		c.KnownSpells = []Spell{
			{
				ID:         "spell_magic_missile",
				Name:       "Magic Missile",
				Level:      1,
				Type:       "damage",
				DamageDice: "3d4+3",
			},
			{
				ID:    "spell_shield",
				Name:  "Shield",
				Level: 1,
				Type:  "defense",
			},
		}
		c.SpellSlots = map[string]int{"1": 2}
	case "rogue":
		c.Strength = 10
		c.Constitution = 12
		c.Dexterity = 16
		c.Wisdom = 10
		c.Intelligence = 14
		c.Charisma = 8
		c.HP = 10
		c.MaxHP = 10
		c.AC = 14 // leather armor
	case "cleric":
		c.Strength = 14
		c.Constitution = 12
		c.Dexterity = 8
		c.Wisdom = 16
		c.Intelligence = 10
		c.Charisma = 10
		c.HP = 10
		c.MaxHP = 10
		c.AC = 18 // chain mail and shield
		c.KnownSpells = []Spell{
			{
				ID:          "spell_cure_wounds",
				Name:        "Cure Wounds",
				Level:       1,
				Type:        "healing",
				HealingDice: "1d8+3",
			},
			{
				ID:         "spell_guiding_bolt",
				Name:       "Guiding Bolt",
				Level:      1,
				Type:       "damage",
				DamageDice: "4d6",
			},
		}
		c.SpellSlots = map[string]int{"1": 2}
	}

	c.CurrentLocationID = StartLocationID
}
