package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/chronicleweave/weave/internal/config"
)

// ErrBackendNotFound is returned when a request names a backend that is not
// registered. It is the only error the gateway surfaces to callers.
var ErrBackendNotFound = errors.New("backend not found")

// Request describes one generation call.
type Request struct {
	// Prompt is the user-visible input. May be empty.
	Prompt string
	// Backend names the backend to use; empty selects the default.
	Backend string
	// System is an optional system prompt.
	System string
	// Params are per-request generation parameters.
	Params Params
	// NoCache bypasses the response cache for this call.
	NoCache bool
}

// Info describes a registered backend.
type Info struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Model string `json:"model"`
}

// Gateway routes generation requests to registered backends and fronts them
// with a response cache and a context store.
type Gateway struct {
	logger         *zap.Logger
	backends       map[string]Backend
	names          []string
	defaultName    string
	cache          *ResponseCache
	contexts       *ContextStore
	requestTimeout time.Duration
}

// New builds a gateway from configuration. creds maps backend name to its
// resolved API key; a missing entry leaves that backend in degraded mode.
// Backends with an unknown type are logged and skipped. A default backend
// that is not registered falls back to the first registered name.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a gateway with at least the configured backends
// whose types were recognized, or an error if none could be registered.
func New(cfg config.GatewayConfig, creds map[string]string, logger *zap.Logger) (*Gateway, error) {
	g := &Gateway{
		logger:         logger,
		backends:       make(map[string]Backend),
		cache:          NewResponseCache(cfg.CacheMaxSize, cfg.CacheTTL),
		contexts:       NewContextStore(),
		requestTimeout: cfg.RequestTimeout,
	}

	for name, bc := range cfg.Backends {
		backend, err := buildBackend(bc, creds[name], logger)
		if err != nil {
			logger.Warn("skipping backend",
				zap.String("backend", name),
				zap.Error(err),
			)
			continue
		}
		g.backends[name] = backend
		g.names = append(g.names, name)
	}
	if len(g.backends) == 0 {
		return nil, fmt.Errorf("no usable backends configured")
	}
	sort.Strings(g.names)

	g.defaultName = cfg.DefaultBackend
	if _, ok := g.backends[g.defaultName]; !ok {
		fallback := g.names[0]
		logger.Warn("default backend not registered, falling back",
			zap.String("configured", g.defaultName),
			zap.String("fallback", fallback),
		)
		g.defaultName = fallback
	}

	logger.Info("gateway initialized",
		zap.Strings("backends", g.names),
		zap.String("default_backend", g.defaultName),
		zap.Int("cache_max_size", cfg.CacheMaxSize),
		zap.Duration("cache_ttl", cfg.CacheTTL),
	)
	return g, nil
}

func buildBackend(bc config.BackendConfig, apiKey string, logger *zap.Logger) (Backend, error) {
	switch bc.Type {
	case "anthropic":
		return NewAnthropicBackend(apiKey, bc.Model, logger), nil
	case "openai":
		return NewOpenAIBackend(apiKey, bc.Model, logger), nil
	case "gemini":
		return NewGeminiBackend(apiKey, bc.Model, logger), nil
	case "local":
		return NewLocalBackend(bc.Model, logger), nil
	default:
		return nil, fmt.Errorf("unknown backend type %q", bc.Type)
	}
}

func (g *Gateway) resolve(name string) (string, Backend, error) {
	if name == "" {
		name = g.defaultName
	}
	b, ok := g.backends[name]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q (available: %v)", ErrBackendNotFound, name, g.names)
	}
	return name, b, nil
}

// cacheKey derives a stable key from the backend name, prompt, parameters,
// and result kind. Parameter order does not matter: JSON encoding of a map
// sorts its keys. The kind tag keeps text and structured results for the
// same prompt from colliding.
func cacheKey(backend, prompt string, params Params, kind string) string {
	paramsJSON, _ := json.Marshal(params)
	h := sha256.New()
	h.Write([]byte(backend))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	h.Write([]byte{0})
	h.Write(paramsJSON)
	h.Write([]byte{0})
	h.Write([]byte(kind))
	return hex.EncodeToString(h.Sum(nil))
}

func (g *Gateway) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.requestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.requestTimeout)
}

// Generate produces a text completion through the named (or default)
// backend. Identical requests within the cache TTL are served from cache.
//
// Postcondition: The only possible error is ErrBackendNotFound; provider
// failures yield a Result with Source == SourceDegraded.
func (g *Gateway) Generate(ctx context.Context, req Request) (Result, error) {
	name, backend, err := g.resolve(req.Backend)
	if err != nil {
		return Result{}, err
	}

	key := cacheKey(name, req.Prompt, req.Params, "text")
	if !req.NoCache {
		if cached, ok := g.cache.Get(key); ok {
			g.logger.Debug("cache hit", zap.String("key", key[:8]))
			return cached.(Result), nil
		}
	}

	callCtx, cancel := g.callCtx(ctx)
	defer cancel()
	res := backend.Generate(callCtx, req.Prompt, req.Params, req.System)

	if !req.NoCache {
		g.cache.Set(key, res)
	}
	return res, nil
}

// GenerateStructured produces a JSON object through the named (or default)
// backend. Structured results are cached under a separate key from text
// results for the same prompt.
//
// Postcondition: The only possible error is ErrBackendNotFound.
func (g *Gateway) GenerateStructured(ctx context.Context, req Request, schema Schema) (StructuredResult, error) {
	name, backend, err := g.resolve(req.Backend)
	if err != nil {
		return StructuredResult{}, err
	}

	key := cacheKey(name, req.Prompt, req.Params, "json")
	if !req.NoCache {
		if cached, ok := g.cache.Get(key); ok {
			g.logger.Debug("cache hit", zap.String("key", key[:8]))
			return cached.(StructuredResult), nil
		}
	}

	callCtx, cancel := g.callCtx(ctx)
	defer cancel()
	res := backend.GenerateStructured(callCtx, req.Prompt, schema, req.Params, req.System)

	if !req.NoCache {
		g.cache.Set(key, res)
	}
	return res, nil
}

// StoreContext saves conversation context under id for later calls.
func (g *Gateway) StoreContext(id string, data map[string]any) {
	g.contexts.Store(id, data)
}

// GetContext returns the context stored under id, regardless of age.
func (g *Gateway) GetContext(id string) (map[string]any, bool) {
	return g.contexts.Get(id)
}

// ClearOldContexts removes contexts stored longer than maxAge ago.
func (g *Gateway) ClearOldContexts(maxAge time.Duration) {
	if removed := g.contexts.ClearOld(maxAge); removed > 0 {
		g.logger.Info("cleared old contexts", zap.Int("removed", removed))
	}
}

// AvailableBackends returns the registered backend names in sorted order.
func (g *Gateway) AvailableBackends() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// DefaultBackend returns the name of the backend used when a request names
// none.
func (g *Gateway) DefaultBackend() string {
	return g.defaultName
}

// BackendInfo describes the named (or default) backend.
func (g *Gateway) BackendInfo(name string) (Info, error) {
	resolved, backend, err := g.resolve(name)
	if err != nil {
		return Info{}, err
	}
	return Info{Name: resolved, Kind: backend.Kind(), Model: backend.Model()}, nil
}

// ClearCache empties the response cache.
func (g *Gateway) ClearCache() {
	g.cache.Clear()
	g.logger.Info("response cache cleared")
}
