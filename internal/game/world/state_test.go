package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicleweave/weave/internal/game/character"
)

func newTestState() *State {
	return NewState(DefaultWorld())
}

func finalizedFighter(s *State, userID string) {
	c := s.EnsureCharacter(userID)
	c.Name = "Thorn"
	c.Race = "Dwarf"
	c.Class = "Fighter"
	character.Finalize(c)
	s.SetCharacter(userID, c)
}

func TestEnsureCharacterCreatesOnce(t *testing.T) {
	s := newTestState()

	c1 := s.EnsureCharacter("u1")
	c1.Name = "Thorn"
	s.SetCharacter("u1", c1)

	c2 := s.EnsureCharacter("u1")
	assert.Equal(t, "Thorn", c2.Name)
}

func TestCharacterReturnsCopy(t *testing.T) {
	s := newTestState()
	finalizedFighter(s, "u1")

	c, ok := s.Character("u1")
	require.True(t, ok)
	c.HP = 1

	again, ok := s.Character("u1")
	require.True(t, ok)
	assert.Equal(t, 12, again.HP)
}

func TestSnapshotShape(t *testing.T) {
	s := newTestState()
	finalizedFighter(s, "u1")

	view, ok := s.Snapshot("u1")
	require.True(t, ok)

	assert.Equal(t, "Thorn", view.PlayerCharacter.Name)
	assert.Equal(t, "Town Square", view.CurrentLocation.Name)
	assert.False(t, view.InCombat)
	assert.Nil(t, view.Combat)
}

func TestSnapshotUnknownUser(t *testing.T) {
	s := newTestState()
	_, ok := s.Snapshot("nobody")
	assert.False(t, ok)
}

func TestSnapshotUnknownLocationYieldsEmpty(t *testing.T) {
	s := newTestState()
	finalizedFighter(s, "u1")
	s.MutateCharacter("u1", func(c *character.Character) {
		c.CurrentLocationID = "nowhere"
	})

	view, ok := s.Snapshot("u1")
	require.True(t, ok)
	assert.Equal(t, &Location{}, view.CurrentLocation)
}

func TestAgentViewIncludesAllLocations(t *testing.T) {
	s := newTestState()
	finalizedFighter(s, "u1")

	view, ok := s.AgentView("u1")
	require.True(t, ok)

	locations, ok := view["locations"].(map[string]*Location)
	require.True(t, ok)
	assert.Len(t, locations, 5)
	assert.Contains(t, locations, "blacksmith")
}

func TestApplyUpdatePartialCharacter(t *testing.T) {
	s := newTestState()
	finalizedFighter(s, "u1")

	err := s.ApplyUpdate("u1", map[string]any{
		"player_character": map[string]any{"hp": 5},
	})
	require.NoError(t, err)

	c, _ := s.Character("u1")
	assert.Equal(t, 5, c.HP)
	assert.Equal(t, 12, c.MaxHP, "fields absent from the delta stay untouched")
	assert.Equal(t, "Thorn", c.Name)
}

func TestApplyUpdateMovesCharacter(t *testing.T) {
	s := newTestState()
	finalizedFighter(s, "u1")

	err := s.ApplyUpdate("u1", map[string]any{
		"player_character": map[string]any{"current_location_id": "tavern"},
	})
	require.NoError(t, err)

	view, _ := s.Snapshot("u1")
	assert.Equal(t, "The Prancing Pony", view.CurrentLocation.Name)
}

func TestApplyUpdateCurrentLocation(t *testing.T) {
	s := newTestState()
	finalizedFighter(s, "u1")

	err := s.ApplyUpdate("u1", map[string]any{
		"current_location": map[string]any{"description": "The square is on fire."},
	})
	require.NoError(t, err)

	loc, ok := s.Location("town_square")
	require.True(t, ok)
	assert.Equal(t, "The square is on fire.", loc.Description)
	assert.Equal(t, "Town Square", loc.Name)
	assert.Equal(t, "town_square", loc.ID, "a delta cannot change the location's id")
}

func TestApplyUpdateStartsCombatWithFallbackID(t *testing.T) {
	s := newTestState()
	finalizedFighter(s, "u1")

	err := s.ApplyUpdate("u1", map[string]any{
		"in_combat": true,
		"combat": map[string]any{
			"round":            1,
			"initiative_order": []any{"u1", "monster_1"},
		},
	})
	require.NoError(t, err)

	view, _ := s.Snapshot("u1")
	assert.True(t, view.InCombat)
	require.NotNil(t, view.Combat)
	assert.Equal(t, "combat_town_square", view.Combat.ID)
	assert.Equal(t, "town_square", view.Combat.LocationID)
	assert.Equal(t, []string{"u1", "monster_1"}, view.Combat.InitiativeOrder)
}

func TestApplyUpdateContinuesExistingCombat(t *testing.T) {
	s := newTestState()
	finalizedFighter(s, "u1")

	require.NoError(t, s.ApplyUpdate("u1", map[string]any{
		"in_combat": true,
		"combat":    map[string]any{"round": 1},
	}))
	require.NoError(t, s.ApplyUpdate("u1", map[string]any{
		"in_combat": true,
		"combat":    map[string]any{"round": 2, "current_turn": "monster_1"},
	}))

	view, _ := s.Snapshot("u1")
	require.NotNil(t, view.Combat)
	assert.Equal(t, 2, view.Combat.Round)
	assert.Equal(t, "monster_1", view.Combat.CurrentTurn)
}

func TestApplyUpdateEndsCombat(t *testing.T) {
	s := newTestState()
	finalizedFighter(s, "u1")

	require.NoError(t, s.ApplyUpdate("u1", map[string]any{
		"in_combat": true,
		"combat":    map[string]any{"round": 1},
	}))
	require.NoError(t, s.ApplyUpdate("u1", map[string]any{
		"in_combat": false,
	}))

	view, _ := s.Snapshot("u1")
	assert.False(t, view.InCombat)
	assert.Nil(t, view.Combat)
}

func TestApplyUpdateUnknownUser(t *testing.T) {
	s := newTestState()
	err := s.ApplyUpdate("nobody", map[string]any{"in_combat": true})
	assert.Error(t, err)
}

func TestApplyUpdateEmptyDeltaIsNoop(t *testing.T) {
	s := newTestState()
	assert.NoError(t, s.ApplyUpdate("nobody", nil))
}

func TestDefaultWorldLayout(t *testing.T) {
	locations := DefaultWorld()
	assert.Len(t, locations, 5)

	square, ok := locations["town_square"]
	require.True(t, ok)
	assert.Equal(t, "tavern", square.Exits["north"])
	assert.Equal(t, "market", square.Exits["east"])
	assert.Equal(t, "town_gate", square.Exits["south"])
	assert.Equal(t, "blacksmith", square.Exits["west"])

	smith := locations["blacksmith"]
	require.Len(t, smith.Items, 1)
	assert.Equal(t, 15, smith.Items[0].Value)
}

func TestLoadLocationsFromYAML(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "crypt.yaml"), []byte(`
id: crypt
name: Forgotten Crypt
description: Cold air seeps from the cracked stone.
exits:
  up: town_square
npcs:
  - id: ghost
    name: Whispering Ghost
    description: A translucent figure drifting between the pillars.
items: []
`), 0644)
	require.NoError(t, err)

	locations, err := LoadLocations(dir)
	require.NoError(t, err)
	require.Contains(t, locations, "crypt")
	assert.Equal(t, "Forgotten Crypt", locations["crypt"].Name)
	assert.Equal(t, "town_square", locations["crypt"].Exits["up"])
	require.Len(t, locations["crypt"].NPCs, 1)
}

func TestLoadLocationsRejectsMissingID(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: No ID Here\n"), 0644)
	require.NoError(t, err)

	_, err = LoadLocations(dir)
	assert.Error(t, err)
}

func TestLoadLocationsEmptyDir(t *testing.T) {
	_, err := LoadLocations(t.TempDir())
	assert.Error(t, err)
}
