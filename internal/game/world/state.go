package world

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/chronicleweave/weave/internal/game/character"
)

// PlayerView is the game state payload sent to clients.
type PlayerView struct {
	PlayerCharacter *character.Character `json:"player_character"`
	CurrentLocation *Location            `json:"current_location"`
	InCombat        bool                 `json:"in_combat"`
	Combat          *Combat              `json:"combat"`
}

// State is the mutable world state: characters by user, locations, and
// active combats. All access goes through its methods; the mutex makes it
// safe for concurrent connection handlers.
type State struct {
	mu         sync.RWMutex
	characters map[string]*character.Character
	locations  map[string]*Location
	combats    map[string]*Combat
}

// NewState creates a state seeded with the given locations.
func NewState(locations map[string]*Location) *State {
	if locations == nil {
		locations = map[string]*Location{}
	}
	return &State{
		characters: make(map[string]*character.Character),
		locations:  locations,
		combats:    make(map[string]*Combat),
	}
}

// Character returns a copy of the user's character, if one exists.
func (s *State) Character(userID string) (*character.Character, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.characters[userID]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// EnsureCharacter returns a copy of the user's character, creating a blank
// one first if the user has none.
func (s *State) EnsureCharacter(userID string) *character.Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.characters[userID]
	if !ok {
		c = character.New(userID)
		s.characters[userID] = c
	}
	return c.Clone()
}

// SetCharacter stores a copy of c as the user's character.
func (s *State) SetCharacter(userID string, c *character.Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.characters[userID] = c.Clone()
}

// MutateCharacter applies fn to the user's character under the lock.
func (s *State) MutateCharacter(userID string, fn func(*character.Character)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.characters[userID]
	if !ok {
		return false
	}
	fn(c)
	return true
}

// Location returns a copy of the location, if known.
func (s *State) Location(id string) (*Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.locations[id]
	if !ok {
		return nil, false
	}
	return l.Clone(), true
}

// Snapshot builds the client-facing game state for a user: their character,
// current location, and any active combat.
func (s *State) Snapshot(userID string) (PlayerView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.characters[userID]
	if !ok {
		return PlayerView{}, false
	}

	view := PlayerView{
		PlayerCharacter: c.Clone(),
		InCombat:        c.InCombat(),
	}
	if loc, ok := s.locations[c.CurrentLocationID]; ok {
		view.CurrentLocation = loc.Clone()
	} else {
		view.CurrentLocation = &Location{}
	}
	if c.ActiveCombatID != "" {
		if combat, ok := s.combats[c.ActiveCombatID]; ok {
			view.Combat = combat.Clone()
		}
	}
	return view, true
}

// AgentView builds the wider state handed to the agent pipeline: the player
// view plus every known location.
func (s *State) AgentView(userID string) (map[string]any, bool) {
	view, ok := s.Snapshot(userID)
	if !ok {
		return nil, false
	}

	s.mu.RLock()
	locations := make(map[string]*Location, len(s.locations))
	for id, loc := range s.locations {
		locations[id] = loc.Clone()
	}
	s.mu.RUnlock()

	return map[string]any{
		"player_character": view.PlayerCharacter,
		"current_location": view.CurrentLocation,
		"active_combat":    view.Combat,
		"locations":        locations,
	}, true
}

// ApplyUpdate merges an agent-produced state delta into the user's state.
// Partial character and current-location fields overwrite in place; the
// in_combat directive starts, updates, or ends a combat. A combat started
// without an ID gets one derived from the character's location. Unknown keys
// are ignored.
func (s *State) ApplyUpdate(userID string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.characters[userID]
	if !ok {
		return fmt.Errorf("no character for user %q", userID)
	}

	if pc, ok := updates["player_character"].(map[string]any); ok {
		if err := mergeJSON(pc, c); err != nil {
			return fmt.Errorf("applying character update: %w", err)
		}
	}

	if lu, ok := updates["current_location"].(map[string]any); ok {
		if loc, ok := s.locations[c.CurrentLocationID]; ok {
			// The delta must not move the location under a different ID.
			delete(lu, "id")
			if err := mergeJSON(lu, loc); err != nil {
				return fmt.Errorf("applying location update: %w", err)
			}
		}
	}

	if inCombat, ok := updates["in_combat"].(bool); ok {
		if inCombat {
			combatData, _ := updates["combat"].(map[string]any)
			if combatData != nil {
				s.applyCombat(c, combatData)
			}
		} else if c.ActiveCombatID != "" {
			delete(s.combats, c.ActiveCombatID)
			c.ActiveCombatID = ""
		}
	}

	return nil
}

func (s *State) applyCombat(c *character.Character, data map[string]any) {
	combatID, _ := data["id"].(string)
	if combatID == "" {
		combatID = "combat_" + c.CurrentLocationID
		delete(data, "id")
	}

	if combat, ok := s.combats[combatID]; ok {
		mergeJSON(data, combat) //nolint:errcheck
	} else {
		combat = &Combat{
			ID:          combatID,
			LocationID:  c.CurrentLocationID,
			Round:       1,
			CurrentTurn: c.ID,
		}
		mergeJSON(data, combat) //nolint:errcheck
		combat.ID = combatID
		s.combats[combatID] = combat
	}

	c.ActiveCombatID = combatID
}

// mergeJSON overwrites only the fields present in src, leaving the rest of
// dst untouched.
func mergeJSON(src map[string]any, dst any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
