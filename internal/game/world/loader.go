package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadLocations reads every .yaml/.yml file in dir as one Location each,
// keyed by its ID.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns at least one location or a non-nil error.
func LoadLocations(dir string) (map[string]*Location, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading locations dir: %w", err)
	}

	locations := make(map[string]*Location)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading location file %s: %w", path, err)
		}

		var loc Location
		if err := yaml.Unmarshal(raw, &loc); err != nil {
			return nil, fmt.Errorf("parsing location file %s: %w", path, err)
		}
		if loc.ID == "" {
			return nil, fmt.Errorf("location file %s has no id", path)
		}
		if _, exists := locations[loc.ID]; exists {
			return nil, fmt.Errorf("duplicate location id %q in %s", loc.ID, path)
		}
		locations[loc.ID] = &loc
	}

	if len(locations) == 0 {
		return nil, fmt.Errorf("no location files found in %s", dir)
	}
	return locations, nil
}

// DefaultWorld returns the built-in starting town used when no content
// directory is configured.
func DefaultWorld() map[string]*Location {
	return map[string]*Location{
		"town_square": {
			ID:          "town_square",
			Name:        "Town Square",
			Description: "You stand in the center of a bustling town square. Merchants hawk their wares, and townsfolk go about their daily business. The town seems peaceful, but rumors of trouble in the nearby forest have been circulating.",
			Exits: map[string]string{
				"north": "tavern",
				"east":  "market",
				"south": "town_gate",
				"west":  "blacksmith",
			},
			NPCs: []NPC{
				{
					ID:          "mayor",
					Name:        "Mayor Thornton",
					Description: "A portly man with a friendly smile and a well-groomed mustache.",
				},
			},
			Items: []Item{},
		},
		"tavern": {
			ID:          "tavern",
			Name:        "The Prancing Pony",
			Description: "A warm, inviting tavern filled with the sounds of laughter and music. The air is thick with the smell of ale and roasted meat.",
			Exits: map[string]string{
				"south": "town_square",
				"up":    "tavern_rooms",
			},
			NPCs: []NPC{
				{
					ID:          "bartender",
					Name:        "Giles the Bartender",
					Description: "A burly man with a thick beard and a quick laugh.",
				},
				{
					ID:          "bard",
					Name:        "Melody the Bard",
					Description: "A slender elf with a beautiful voice and a mischievous smile.",
				},
			},
			Items: []Item{},
		},
		"market": {
			ID:          "market",
			Name:        "Market District",
			Description: "A bustling market filled with stalls selling everything from fresh produce to exotic trinkets.",
			Exits: map[string]string{
				"west":  "town_square",
				"north": "general_store",
				"east":  "alchemist",
			},
			NPCs: []NPC{
				{
					ID:          "merchant",
					Name:        "Trader Johan",
					Description: "A shrewd-looking man with a keen eye for valuable goods.",
				},
			},
			Items: []Item{},
		},
		"town_gate": {
			ID:          "town_gate",
			Name:        "Town Gate",
			Description: "The main gate leading out of town. Guards stand watch, keeping an eye out for trouble.",
			Exits: map[string]string{
				"north": "town_square",
				"south": "forest_path",
			},
			NPCs: []NPC{
				{
					ID:          "guard",
					Name:        "Guard Captain Harlow",
					Description: "A stern-looking woman with a weathered face and sharp eyes.",
				},
			},
			Items: []Item{},
		},
		"blacksmith": {
			ID:          "blacksmith",
			Name:        "Blacksmith's Forge",
			Description: "The heat from the forge is intense. The rhythmic sound of hammer on anvil fills the air.",
			Exits: map[string]string{
				"east": "town_square",
			},
			NPCs: []NPC{
				{
					ID:          "blacksmith",
					Name:        "Grimhammer the Blacksmith",
					Description: "A dwarf with massive arms and a beard singed from the forge.",
				},
			},
			Items: []Item{
				{
					ID:          "sword",
					Name:        "Steel Sword",
					Description: "A well-crafted steel sword.",
					Value:       15,
				},
			},
		},
	}
}
