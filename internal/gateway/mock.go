package gateway

import (
	"encoding/json"
	"strings"
)

// mockText returns the canned narration used when a provider cannot be
// reached. The line is chosen by keyword so degraded play stays coherent.
func mockText(prompt string) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "attack"):
		return "You swing your sword with precision, striking the goblin for 8 damage."
	case strings.Contains(lower, "cast"):
		return "You channel arcane energy, casting a powerful fireball that deals 15 damage to the enemies."
	case strings.Contains(lower, "move"):
		return "You move cautiously through the dungeon, finding yourself in a new chamber with flickering torches."
	case strings.Contains(lower, "examine"):
		return "You carefully examine your surroundings. The room is dusty with cobwebs in the corners. There's an old chest against the far wall and a wooden door to the north."
	case strings.Contains(lower, "talk"):
		return "The merchant smiles at you. 'Welcome traveler! I have many fine wares for sale. What catches your eye?'"
	default:
		return "The Dungeon Master considers your action carefully..."
	}
}

// mockStructured returns canned structured output. Prompts for the known
// agent stages get a realistic fixed shape; anything else gets typed
// placeholders derived from the schema's properties.
func mockStructured(prompt string, schema Schema) map[string]any {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "intent"):
		action, targetID, targetName := "examine", "location", "room"
		if strings.Contains(lower, "attack") {
			action, targetID, targetName = "attack", "monster_1", "goblin"
		}
		return map[string]any{
			"success":    true,
			"confidence": 0.9,
			"parsed_intent": map[string]any{
				"action":      action,
				"target_id":   targetID,
				"target_name": targetName,
			},
		}
	case strings.Contains(lower, "rule"):
		return map[string]any{
			"success":           true,
			"narrative_summary": "You attack the goblin and hit for 8 damage.",
			"game_state_changes": map[string]any{
				"current_location": map[string]any{
					"monsters": []any{
						map[string]any{"id": "monster_1", "hp": 7, "max_hp": 15},
					},
				},
			},
		}
	case strings.Contains(lower, "narrative"):
		return map[string]any{
			"narrative": "You swing your sword with precision, striking the goblin for 8 damage. The creature howls in pain but remains standing, its red eyes fixed on you with malice.",
		}
	case strings.Contains(lower, "world"):
		return map[string]any{
			"success": true,
			"game_state_changes": map[string]any{
				"locations": map[string]any{
					"loc_2": map[string]any{
						"id":          "loc_2",
						"name":        "Abandoned Library",
						"description": "Dusty bookshelves line the walls of this forgotten library. Ancient tomes and scrolls are scattered across the floor.",
					},
				},
			},
		}
	default:
		return placeholdersFor(schema)
	}
}

// placeholdersFor builds a minimal object matching schema's properties, with
// a zero-ish value per declared type.
func placeholdersFor(schema Schema) map[string]any {
	out := map[string]any{}
	props, _ := schema["properties"].(map[string]any)
	for key, raw := range props {
		prop, _ := raw.(map[string]any)
		switch prop["type"] {
		case "number":
			out[key] = 0.0
		case "integer":
			out[key] = 0
		case "boolean":
			out[key] = false
		case "array":
			out[key] = []any{}
		case "object":
			out[key] = map[string]any{}
		default:
			out[key] = "mock value"
		}
	}
	return out
}

// extractJSON pulls a JSON object out of model output, tolerating fenced
// code blocks around it.
func extractJSON(s string) (map[string]any, error) {
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	} else if t := strings.TrimSpace(s); strings.HasPrefix(t, "```") {
		t = strings.TrimPrefix(t, "```")
		if j := strings.Index(t, "```"); j >= 0 {
			t = t[:j]
		}
		s = t
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// schemaPrompt appends the JSON schema to a prompt for providers without a
// native structured output mode.
func schemaPrompt(prompt string, schema Schema) string {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return prompt
	}
	return prompt + "\n\nRespond with a JSON object that follows this schema:\n" + string(schemaJSON)
}
