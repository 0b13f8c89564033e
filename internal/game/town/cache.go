package town

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Cache holds generated towns in memory and mirrors them to disk, one JSON
// file per town under its directory.
type Cache struct {
	mu     sync.RWMutex
	dir    string
	towns  map[string]*Town
	logger *zap.Logger
}

// NewCache creates the cache directory if needed and loads every town
// already present in it.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a cache with all previously saved towns loaded, or
// a non-nil error.
func NewCache(dir string, logger *zap.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating town cache dir: %w", err)
	}

	c := &Cache{
		dir:    dir,
		towns:  make(map[string]*Town),
		logger: logger,
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading town cache dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading cached town %s: %w", path, err)
		}
		var t Town
		if err := json.Unmarshal(raw, &t); err != nil {
			logger.Warn("skipping unreadable town file",
				zap.String("path", path),
				zap.Error(err),
			)
			continue
		}
		c.towns[t.ID] = &t
	}

	logger.Info("town cache loaded",
		zap.String("dir", dir),
		zap.Int("towns", len(c.towns)),
	)
	return c, nil
}

// Get returns the cached town, if present.
func (c *Cache) Get(townID string) (*Town, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.towns[townID]
	return t, ok
}

// Put stores the town in memory and writes its JSON file.
func (c *Cache) Put(t *Town) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding town %s: %w", t.ID, err)
	}
	path := filepath.Join(c.dir, t.ID+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing town %s: %w", t.ID, err)
	}

	c.towns[t.ID] = t
	return nil
}

// All returns every cached town, sorted by ID.
func (c *Cache) All() []*Town {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Town, 0, len(c.towns))
	for _, t := range c.towns {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of cached towns.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.towns)
}
