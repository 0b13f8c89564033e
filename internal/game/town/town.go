// Package town procedurally generates towns and caches them on disk, one
// JSON file per town.
package town

// Quest is a task offered by a town NPC. NPCID and NPCName are filled in
// when quests are listed town-wide.
type Quest struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Target      string `json:"target"`
	Difficulty  string `json:"difficulty"`
	Description string `json:"description"`
	Reward      int    `json:"reward"`
	Completed   bool   `json:"completed"`
	NPCID       string `json:"npc_id,omitempty"`
	NPCName     string `json:"npc_name,omitempty"`
}

// Building is a structure in a town. NPCs lists the IDs of residents.
type Building struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	NPCs        []string `json:"npcs"`
}

// NPC is a town inhabitant.
type NPC struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	Trait       string  `json:"trait"`
	Description string  `json:"description"`
	BuildingID  string  `json:"building_id,omitempty"`
	Quests      []Quest `json:"quests"`
}

// Rumor is a piece of town gossip. Truth records whether it is actually
// true; KnownBy lists the NPCs spreading it.
type Rumor struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Truth   bool     `json:"truth"`
	KnownBy []string `json:"known_by"`
}

// Meta records how a town was produced.
type Meta struct {
	Generator string `json:"generator"`
	Version   string `json:"version"`
	Seed      int64  `json:"seed"`
}

// Town is a fully generated settlement.
type Town struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Size        string     `json:"size"`
	Population  int        `json:"population"`
	Description string     `json:"description"`
	Buildings   []Building `json:"buildings"`
	NPCs        []NPC      `json:"npcs"`
	Rumors      []Rumor    `json:"rumors"`
	Meta        Meta       `json:"_meta"`
}

// Summary is the short form of a town, without buildings or inhabitants.
type Summary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Size          string `json:"size"`
	Population    int    `json:"population"`
	Description   string `json:"description"`
	BuildingCount int    `json:"building_count"`
	NPCCount      int    `json:"npc_count"`
}

// Summary returns the short form of t.
func (t *Town) Summary() Summary {
	return Summary{
		ID:            t.ID,
		Name:          t.Name,
		Size:          t.Size,
		Population:    t.Population,
		Description:   t.Description,
		BuildingCount: len(t.Buildings),
		NPCCount:      len(t.NPCs),
	}
}

// Building returns the building with the given ID, if present.
func (t *Town) Building(buildingID string) (Building, bool) {
	for _, b := range t.Buildings {
		if b.ID == buildingID {
			return b, true
		}
	}
	return Building{}, false
}

// NPC returns the inhabitant with the given ID, if present.
func (t *Town) NPC(npcID string) (NPC, bool) {
	for _, n := range t.NPCs {
		if n.ID == npcID {
			return n, true
		}
	}
	return NPC{}, false
}

// NPCsInBuilding returns every inhabitant assigned to the building.
func (t *Town) NPCsInBuilding(buildingID string) []NPC {
	var out []NPC
	for _, n := range t.NPCs {
		if n.BuildingID == buildingID {
			out = append(out, n)
		}
	}
	return out
}

// Quests returns every quest in town, annotated with its giver.
func (t *Town) Quests() []Quest {
	var out []Quest
	for _, n := range t.NPCs {
		for _, q := range n.Quests {
			q.NPCID = n.ID
			q.NPCName = n.Name
			out = append(out, q)
		}
	}
	return out
}
