package gameserver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chronicleweave/weave/internal/game/character"
	"github.com/chronicleweave/weave/internal/game/world"
)

type stubOrchestrator struct {
	outcome   Outcome
	err       error
	calls     int
	lastInput string
}

func (s *stubOrchestrator) Process(_ context.Context, _ string, input string, _ map[string]any) (Outcome, error) {
	s.calls++
	s.lastInput = input
	return s.outcome, s.err
}

func newTestHandler(t *testing.T, orch Orchestrator) (*Handler, *world.State, *Registry) {
	t.Helper()
	state := world.NewState(world.DefaultWorld())
	registry := NewRegistry(zaptest.NewLogger(t))
	return NewHandler(state, registry, orch, zaptest.NewLogger(t)), state, registry
}

func finalizedCharacter(userID, name string) *character.Character {
	c := character.New(userID)
	c.Name = name
	c.Race = "Elf"
	c.Class = "Wizard"
	character.Finalize(c)
	return c
}

func systemText(t *testing.T, f Frame) string {
	t.Helper()
	require.Equal(t, FrameSystemMessage, f.Type)
	payload, ok := f.Data.(textPayload)
	require.True(t, ok)
	return payload.Text
}

func TestRunCreationDialogue(t *testing.T) {
	h, state, registry := newTestHandler(t, &stubOrchestrator{})
	conn := newFakeConn("c1", "Thorn", "Dwarf", "Fighter")

	h.Run(context.Background(), "u1", conn)

	frames := conn.sent()
	require.Len(t, frames, 7)

	assert.Equal(t, FrameConnectionStatus, frames[0].Type)
	assert.Equal(t, "Welcome to Chronicle Weave! You are about to embark on an adventure. What is your character's name?", systemText(t, frames[1]))
	assert.Equal(t, "Welcome, Thorn! What race are you? (Human, Elf, Dwarf, Halfling)", systemText(t, frames[2]))
	assert.Equal(t, "A Dwarf, excellent! What class are you? (Fighter, Wizard, Rogue, Cleric)", systemText(t, frames[3]))
	assert.Equal(t, "Character creation complete! You are Thorn, a Dwarf Fighter. Your adventure begins in the town of Eigengrau.", systemText(t, frames[4]))
	assert.Equal(t, FrameGameState, frames[5].Type)

	require.Equal(t, FrameNarrative, frames[6].Type)
	narrative := frames[6].Data.(textPayload).Text
	assert.Contains(t, narrative, "You find yourself in Town Square.")

	c, ok := state.Character("u1")
	require.True(t, ok)
	assert.Equal(t, "Thorn", c.Name)
	assert.Equal(t, "Fighter", c.Class)
	assert.Equal(t, 16, c.Strength)
	assert.Equal(t, 12, c.HP)
	assert.Equal(t, 16, c.AC)
	assert.Equal(t, "town_square", c.CurrentLocationID)

	assert.Empty(t, registry.Users(), "channel must be detached after the connection drops")
	assert.Equal(t, 1, conn.closes)
}

func TestRunWelcomesReturningCharacter(t *testing.T) {
	h, state, _ := newTestHandler(t, &stubOrchestrator{})
	state.SetCharacter("u1", finalizedCharacter("u1", "Mira"))

	conn := newFakeConn("c1")
	h.Run(context.Background(), "u1", conn)

	frames := conn.sent()
	require.Len(t, frames, 3)
	assert.Equal(t, FrameConnectionStatus, frames[0].Type)
	assert.Equal(t, "Welcome back, Mira! Your adventure continues.", systemText(t, frames[1]))
	assert.Equal(t, FrameGameState, frames[2].Type)
}

func TestHandleGameInputAppliesUpdateAndResponds(t *testing.T) {
	orch := &stubOrchestrator{outcome: Outcome{
		Message:      "You look around the square.",
		ResponseType: FrameNarrative,
		StateUpdate:  map[string]any{"player_character": map[string]any{"hp": 5}},
	}}
	h, state, registry := newTestHandler(t, orch)
	state.SetCharacter("u1", finalizedCharacter("u1", "Mira"))

	conn := newFakeConn("c1")
	registry.Attach("u1", conn)
	h.handleMessage(context.Background(), "u1", `{"type":"message","data":{"text":"look around"}}`, conn)

	assert.Equal(t, 1, orch.calls)
	assert.Equal(t, "look around", orch.lastInput)

	c, ok := state.Character("u1")
	require.True(t, ok)
	assert.Equal(t, 5, c.HP)
	assert.Equal(t, 8, c.MaxHP, "fields absent from the delta stay untouched")

	frames := conn.sent()
	require.Len(t, frames, 2)
	assert.Equal(t, FrameNarrative, frames[0].Type)
	assert.Equal(t, "You look around the square.", frames[0].Data.(textPayload).Text)
	assert.Equal(t, FrameGameState, frames[1].Type)
}

func TestBroadcastSurvivesDeadChannel(t *testing.T) {
	orch := &stubOrchestrator{outcome: Outcome{Message: "Something happens."}}
	h, state, registry := newTestHandler(t, orch)
	state.SetCharacter("u1", finalizedCharacter("u1", "Mira"))

	a, b, c := newFakeConn("a"), newFakeConn("b"), newFakeConn("c")
	registry.Attach("u1", a)
	registry.Attach("u1", b)
	registry.Attach("u1", c)
	b.failSend = true

	h.handleMessage(context.Background(), "u1", "open the door", a)

	// The acting channel got the narrative plus the broadcast state.
	framesA := a.sent()
	require.Len(t, framesA, 2)
	assert.Equal(t, FrameNarrative, framesA[0].Type)
	assert.Equal(t, FrameGameState, framesA[1].Type)

	// The dead channel was detached and closed; the last one still got the
	// state frame.
	assert.Equal(t, 1, b.closes)
	framesC := c.sent()
	require.Len(t, framesC, 1)
	assert.Equal(t, FrameGameState, framesC[0].Type)

	remaining := registry.Channels("u1")
	require.Len(t, remaining, 2)
	assert.Equal(t, "a", remaining[0].ID())
	assert.Equal(t, "c", remaining[1].ID())
}

func TestHandleMessageReportsErrorsWithoutClosing(t *testing.T) {
	orch := &stubOrchestrator{err: errors.New("model exploded")}
	h, state, _ := newTestHandler(t, orch)
	state.SetCharacter("u1", finalizedCharacter("u1", "Mira"))

	conn := newFakeConn("c1")
	h.handleMessage(context.Background(), "u1", "do something", conn)

	frames := conn.sent()
	require.Len(t, frames, 1)
	assert.Equal(t, "Error processing your message: model exploded", systemText(t, frames[0]))
	assert.Zero(t, conn.closes)
}

func TestHandleMessageIgnoresUnknownFrameTypes(t *testing.T) {
	orch := &stubOrchestrator{}
	h, state, _ := newTestHandler(t, orch)
	state.SetCharacter("u1", finalizedCharacter("u1", "Mira"))

	conn := newFakeConn("c1")
	h.handleMessage(context.Background(), "u1", `{"type":"ping","data":{}}`, conn)

	assert.Zero(t, orch.calls)
	assert.Empty(t, conn.sent())
}

func TestHandleMessagePlainTextDuringCreation(t *testing.T) {
	h, state, _ := newTestHandler(t, &stubOrchestrator{})
	conn := newFakeConn("c1")

	// Clients that do not speak the frame protocol still get to play.
	state.EnsureCharacter("u1")
	h.handleMessage(context.Background(), "u1", "Thorn", conn)

	c, ok := state.Character("u1")
	require.True(t, ok)
	assert.Equal(t, "Thorn", c.Name)
}

func TestOutcomeWithoutResponseTypeDefaultsToNarrative(t *testing.T) {
	orch := &stubOrchestrator{outcome: Outcome{Message: "A thing occurs."}}
	h, state, registry := newTestHandler(t, orch)
	state.SetCharacter("u1", finalizedCharacter("u1", "Mira"))

	conn := newFakeConn("c1")
	registry.Attach("u1", conn)
	h.handleMessage(context.Background(), "u1", "wave", conn)

	frames := conn.sent()
	require.NotEmpty(t, frames)
	assert.Equal(t, FrameNarrative, frames[0].Type)
}
