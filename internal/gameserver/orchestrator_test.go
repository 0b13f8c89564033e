package gameserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chronicleweave/weave/internal/config"
	"github.com/chronicleweave/weave/internal/game/world"
	"github.com/chronicleweave/weave/internal/gateway"
)

// newDegradedGateway builds a gateway whose only backend is the local one, so
// every call runs on canned output without network access.
func newDegradedGateway(t *testing.T) *gateway.Gateway {
	t.Helper()
	cfg := config.GatewayConfig{
		Backends: map[string]config.BackendConfig{
			"local": {Type: "local"},
		},
		DefaultBackend: "local",
		CacheMaxSize:   100,
		CacheTTL:       time.Hour,
		ContextMaxAge:  24 * time.Hour,
		RequestTimeout: time.Second,
	}
	gw, err := gateway.New(cfg, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	return gw
}

func agentState(t *testing.T) map[string]any {
	t.Helper()
	state := world.NewState(world.DefaultWorld())
	state.SetCharacter("u1", finalizedCharacter("u1", "Mira"))
	view, ok := state.AgentView("u1")
	require.True(t, ok)
	return view
}

func TestAgentChainRunsWithoutCredentials(t *testing.T) {
	gw := newDegradedGateway(t)
	o := NewAgentOrchestrator(gw, zaptest.NewLogger(t))

	outcome, err := o.Process(context.Background(), "u1", "I attack the goblin", agentState(t))
	require.NoError(t, err)

	assert.Equal(t, "You swing your sword with precision, striking the goblin for 8 damage.", outcome.Message)
	assert.Equal(t, FrameNarrative, outcome.ResponseType)
	require.NotNil(t, outcome.StateUpdate)
	assert.Contains(t, outcome.StateUpdate, "current_location")
}

func TestAgentChainStoresContext(t *testing.T) {
	gw := newDegradedGateway(t)
	o := NewAgentOrchestrator(gw, zaptest.NewLogger(t))

	_, err := o.Process(context.Background(), "u1", "I attack the goblin", agentState(t))
	require.NoError(t, err)

	data, ok := gw.GetContext("u1")
	require.True(t, ok)
	assert.Equal(t, "I attack the goblin", data["input"])
	assert.Equal(t, "You attack the goblin and hit for 8 damage.", data["summary"])
}

func TestAgentChainAlwaysProducesAMessage(t *testing.T) {
	gw := newDegradedGateway(t)
	o := NewAgentOrchestrator(gw, zaptest.NewLogger(t))

	outcome, err := o.Process(context.Background(), "u1", "hum a quiet tune", agentState(t))
	require.NoError(t, err)
	assert.NotEmpty(t, outcome.Message)
}

func TestHandlerWithAgentChainEndToEnd(t *testing.T) {
	gw := newDegradedGateway(t)
	state := world.NewState(world.DefaultWorld())
	state.SetCharacter("u1", finalizedCharacter("u1", "Mira"))
	registry := NewRegistry(zaptest.NewLogger(t))
	h := NewHandler(state, registry, NewAgentOrchestrator(gw, zaptest.NewLogger(t)), zaptest.NewLogger(t))

	conn := newFakeConn("c1", `{"type":"message","data":{"text":"I attack the goblin"}}`)
	h.Run(context.Background(), "u1", conn)

	frames := conn.sent()
	require.Len(t, frames, 5)
	assert.Equal(t, FrameConnectionStatus, frames[0].Type)
	assert.Equal(t, FrameSystemMessage, frames[1].Type)
	assert.Equal(t, FrameGameState, frames[2].Type)
	require.Equal(t, FrameNarrative, frames[3].Type)
	assert.Equal(t, "You swing your sword with precision, striking the goblin for 8 damage.", frames[3].Data.(textPayload).Text)
	assert.Equal(t, FrameGameState, frames[4].Type)
}
