package town

import (
	"fmt"
	"math/rand"
	"strings"

	"go.uber.org/zap"
)

// StartingTownID is the town every new game begins near.
const StartingTownID = "starting_town"

// StartingTownSeed keeps the starting town identical across runs.
const StartingTownSeed = 42

var (
	nameFirsts  = []string{"Green", "River", "Mountain", "Lake", "Forest", "Shadow", "Sun", "Moon", "Star", "Dragon", "Eagle", "Wolf"}
	nameSeconds = []string{"vale", "ford", "haven", "hold", "keep", "cross", "bridge", "port", "wood", "field", "hill", "dale"}

	sizes = []string{"hamlet", "village", "town", "large town", "small city", "city"}

	settingDescriptions = []string{
		"nestled in a peaceful valley",
		"perched on a hillside overlooking fertile plains",
		"situated at a crossroads of major trade routes",
		"built along the banks of a winding river",
		"protected by an ancient stone wall",
		"sprawling across several small islands connected by bridges",
		"hidden within a dense forest",
		"built around a natural spring known for its healing properties",
	}

	buildingTypes = []string{"tavern", "blacksmith", "general store", "temple", "town hall", "guard post", "stable", "inn", "farm", "mill"}

	tavernAdjectives = []string{"Golden", "Silver", "Rusty", "Prancing", "Sleeping", "Laughing", "Drunken", "Jolly"}
	tavernNouns      = []string{"Dragon", "Lion", "Stag", "Pony", "Giant", "Goblin", "Barrel", "Flagon", "Sword", "Shield"}
	shopPrefixes     = []string{"Old", "New", "Fine", "Quality", "Town", "River"}

	buildingDescriptions = []string{
		"a sturdy structure with a thatched roof",
		"a stone building with a wooden door",
		"a two-story building with large windows",
		"a modest structure with a smoking chimney",
		"an old building that has seen better days",
		"a well-maintained building with flower boxes",
	}

	npcRoles  = []string{"innkeeper", "blacksmith", "merchant", "guard", "farmer", "priest", "noble", "beggar", "adventurer"}
	npcTraits = []string{"friendly", "suspicious", "greedy", "helpful", "wise", "foolish", "brave", "cowardly"}

	npcFirstNames = []string{"Aldric", "Bram", "Cora", "Dorn", "Eliza", "Finn", "Greta", "Hilda", "Ivan", "Jora", "Kord", "Lena", "Milo", "Nora", "Oskar", "Petra", "Quentin", "Rosa", "Silas", "Tilda"}
	npcLastNames  = []string{"Smith", "Miller", "Cooper", "Fletcher", "Baker", "Tanner", "Fisher", "Hunter", "Farmer", "Brewer", "Potter", "Weaver", "Carpenter", "Mason"}

	questTypes        = []string{"fetch", "rescue", "escort", "investigate", "deliver"}
	questTargets      = []string{"item", "person", "location", "monster", "information"}
	questDifficulties = []string{"easy", "medium", "hard"}

	rumorSubjects = []string{"hidden treasure", "monster sightings", "strange disappearances", "political intrigue", "magical phenomena", "ancient ruins"}
	rumorPlaces   = []string{"nearby forest", "old mine", "abandoned tower", "beneath the town", "neighboring kingdom", "within the town itself"}
)

// Generator produces towns and serves them through a cache. Generation for
// a given seed is deterministic.
type Generator struct {
	cache  *Cache
	logger *zap.Logger
}

// NewGenerator creates a generator backed by the given cache.
//
// Precondition: cache and logger must be non-nil.
func NewGenerator(cache *Cache, logger *zap.Logger) *Generator {
	return &Generator{cache: cache, logger: logger}
}

// Generate creates the town, stores it in the cache, and returns it. If the
// town already exists in the cache, the cached copy is returned untouched.
// An empty townID gets a random "town_NNNN" ID; a zero seed gets a random
// seed.
func (g *Generator) Generate(townID string, seed int64) (*Town, error) {
	if townID != "" {
		if cached, ok := g.cache.Get(townID); ok {
			g.logger.Debug("town served from cache", zap.String("town", townID))
			return cached, nil
		}
	}

	t := generate(townID, seed)
	if err := g.cache.Put(t); err != nil {
		return nil, fmt.Errorf("caching town %s: %w", t.ID, err)
	}

	g.logger.Info("generated town",
		zap.String("town", t.ID),
		zap.String("name", t.Name),
		zap.Int64("seed", t.Meta.Seed),
		zap.Int("buildings", len(t.Buildings)),
		zap.Int("npcs", len(t.NPCs)),
	)
	return t, nil
}

// GetOrGenerate returns the cached town or generates it when absent.
func (g *Generator) GetOrGenerate(townID string, seed int64) (*Town, error) {
	return g.Generate(townID, seed)
}

// GenerateStartingTown ensures the fixed-seed starting town exists.
func (g *Generator) GenerateStartingTown() (*Town, error) {
	return g.Generate(StartingTownID, StartingTownSeed)
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}

func generate(townID string, seed int64) *Town {
	if seed == 0 {
		seed = rand.Int63n(1000000) + 1
	}
	rng := rand.New(rand.NewSource(seed))

	if townID == "" {
		townID = fmt.Sprintf("town_%d", rng.Intn(9000)+1000)
	}

	name := pick(rng, nameFirsts) + pick(rng, nameSeconds)

	sizeIdx := rng.Intn(len(sizes))
	size := sizes[sizeIdx]
	population := (rng.Intn(151) + 50) * (sizeIdx + 1)
	setting := pick(rng, settingDescriptions)

	buildings := generateBuildings(rng)
	npcs := generateNPCs(rng, townID, buildings)
	rumors := generateRumors(rng, npcs)

	return &Town{
		ID:          townID,
		Name:        name,
		Size:        size,
		Population:  population,
		Description: fmt.Sprintf("%s is a %s %s, with a population of about %d people.", name, size, setting, population),
		Buildings:   buildings,
		NPCs:        npcs,
		Rumors:      rumors,
		Meta: Meta{
			Generator: "procedural",
			Version:   "1.0",
			Seed:      seed,
		},
	}
}

func generateBuildings(rng *rand.Rand) []Building {
	count := rng.Intn(11) + 5
	buildings := make([]Building, 0, count)
	for i := 0; i < count; i++ {
		kind := pick(rng, buildingTypes)

		var name string
		if kind == "tavern" || kind == "inn" {
			name = fmt.Sprintf("The %s %s", pick(rng, tavernAdjectives), pick(rng, tavernNouns))
		} else {
			name = fmt.Sprintf("%s %s", pick(rng, shopPrefixes), titleCase(kind))
		}

		buildings = append(buildings, Building{
			ID:          fmt.Sprintf("building_%d", i+1),
			Name:        name,
			Type:        kind,
			Description: pick(rng, buildingDescriptions),
			NPCs:        []string{},
		})
	}
	return buildings
}

// buildingTypesForRole maps a working role to the building types it can
// occupy.
func buildingTypesForRole(role string) []string {
	switch role {
	case "innkeeper":
		return []string{"tavern", "inn"}
	case "blacksmith":
		return []string{"blacksmith"}
	case "merchant":
		return []string{"general store"}
	case "priest":
		return []string{"temple"}
	default:
		return nil
	}
}

func generateNPCs(rng *rand.Rand, townID string, buildings []Building) []NPC {
	count := rng.Intn(11) + 10
	npcs := make([]NPC, 0, count)

	for i := 0; i < count; i++ {
		npcID := fmt.Sprintf("npc_%d", i+1)
		role := pick(rng, npcRoles)
		trait := pick(rng, npcTraits)
		name := pick(rng, npcFirstNames) + " " + pick(rng, npcLastNames)

		buildingID := ""
		if kinds := buildingTypesForRole(role); kinds != nil {
			var matching []int
			for idx, b := range buildings {
				for _, kind := range kinds {
					if b.Type == kind {
						matching = append(matching, idx)
						break
					}
				}
			}
			if len(matching) > 0 {
				idx := matching[rng.Intn(len(matching))]
				buildingID = buildings[idx].ID
				buildings[idx].NPCs = append(buildings[idx].NPCs, npcID)
			}
		}

		descriptions := []string{
			fmt.Sprintf("a %s %s with a distinctive scar", trait, role),
			fmt.Sprintf("a %s %s known for their loud laugh", trait, role),
			fmt.Sprintf("a %s %s with a mysterious past", trait, role),
			fmt.Sprintf("a %s %s respected by the townsfolk", trait, role),
			fmt.Sprintf("a %s %s new to the town", trait, role),
			fmt.Sprintf("a %s %s from a long line of %ss", trait, role, role),
		}

		npc := NPC{
			ID:          npcID,
			Name:        name,
			Role:        role,
			Trait:       trait,
			Description: pick(rng, descriptions),
			BuildingID:  buildingID,
			Quests:      []Quest{},
		}

		if rng.Float64() < 0.3 {
			difficulty := pick(rng, questDifficulties)
			reward := (rng.Intn(91) + 10) * (indexOf(questDifficulties, difficulty) + 1)
			npc.Quests = append(npc.Quests, Quest{
				ID:          fmt.Sprintf("quest_%s_%d", townID, i+1),
				Type:        pick(rng, questTypes),
				Target:      pick(rng, questTargets),
				Difficulty:  difficulty,
				Description: fmt.Sprintf("A %s quest to %s a %s.", difficulty, pick(rng, questTypes), pick(rng, questTargets)),
				Reward:      reward,
			})
		}

		npcs = append(npcs, npc)
	}
	return npcs
}

func generateRumors(rng *rand.Rand, npcs []NPC) []Rumor {
	count := rng.Intn(5) + 3
	rumors := make([]Rumor, 0, count)

	for i := 0; i < count; i++ {
		knownCount := rng.Intn(min(5, len(npcs))) + 1
		known := make([]string, 0, knownCount)
		for _, idx := range rng.Perm(len(npcs))[:knownCount] {
			known = append(known, npcs[idx].ID)
		}

		rumors = append(rumors, Rumor{
			ID:      fmt.Sprintf("rumor_%d", i+1),
			Text:    fmt.Sprintf("There are whispers of %s in the %s.", pick(rng, rumorSubjects), pick(rng, rumorPlaces)),
			Truth:   rng.Intn(2) == 0,
			KnownBy: known,
		})
	}
	return rumors
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func indexOf(options []string, value string) int {
	for i, o := range options {
		if o == value {
			return i
		}
	}
	return 0
}
