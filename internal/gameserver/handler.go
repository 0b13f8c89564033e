package gameserver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chronicleweave/weave/internal/game/character"
	"github.com/chronicleweave/weave/internal/game/world"
)

// Conn is a channel the handler can also read player input from. The
// websocket transport satisfies it; tests use in-memory fakes.
type Conn interface {
	Channel
	ReadText() (string, error)
}

// Handler owns the lifecycle of one player connection: greeting, the
// character creation dialogue, and the main play loop. Messages on a
// connection are processed strictly one at a time; concurrency exists only
// across connections.
type Handler struct {
	state        *world.State
	registry     *Registry
	orchestrator Orchestrator
	logger       *zap.Logger
}

// NewHandler creates a connection handler.
//
// Precondition: all arguments must be non-nil.
func NewHandler(state *world.State, registry *Registry, orchestrator Orchestrator, logger *zap.Logger) *Handler {
	return &Handler{
		state:        state,
		registry:     registry,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Run serves one connection until it drops. The channel is attached to the
// registry for the duration and detached exactly once on any exit path.
// Errors while handling a single message are reported to the player and
// never terminate the connection.
func (h *Handler) Run(ctx context.Context, userID string, conn Conn) {
	h.logger.Info("connection opened",
		zap.String("user", userID),
		zap.String("channel", conn.ID()),
	)

	h.registry.Attach(userID, conn)
	defer func() {
		h.registry.Detach(userID, conn)
		conn.Close()
		h.logger.Info("connection closed",
			zap.String("user", userID),
			zap.String("channel", conn.ID()),
		)
	}()

	if err := conn.Send(connectionStatusFrame("connected", "Connected to the game server!")); err != nil {
		return
	}

	if err := h.greet(userID, conn); err != nil {
		return
	}

	for {
		raw, err := conn.ReadText()
		if err != nil {
			return
		}
		h.handleMessage(ctx, userID, raw, conn)
	}
}

// greet welcomes a returning character or opens the creation dialogue.
func (h *Handler) greet(userID string, conn Conn) error {
	c, ok := h.state.Character(userID)
	if ok && c.Name != "" {
		if err := conn.Send(systemMessageFrame(fmt.Sprintf("Welcome back, %s! Your adventure continues.", c.Name))); err != nil {
			return err
		}
		return h.sendState(userID, conn)
	}

	h.state.EnsureCharacter(userID)
	return conn.Send(systemMessageFrame("Welcome to Chronicle Weave! You are about to embark on an adventure. What is your character's name?"))
}

func (h *Handler) handleMessage(ctx context.Context, userID, raw string, conn Conn) {
	input, ok := parseInbound(raw)
	if !ok {
		return
	}

	c := h.state.EnsureCharacter(userID)

	var err error
	if character.CreationStage(c) != character.StageComplete {
		err = h.handleCreation(userID, input, conn)
	} else {
		err = h.handleGameInput(ctx, userID, input, conn)
	}
	if err != nil {
		h.logger.Error("failed to process message",
			zap.String("user", userID),
			zap.Error(err),
		)
		// Best effort; a dead channel is reaped by the read loop.
		conn.Send(systemMessageFrame(fmt.Sprintf("Error processing your message: %v", err))) //nolint:errcheck
	}
}

// handleCreation advances the name, race, class dialogue by one step.
func (h *Handler) handleCreation(userID, input string, conn Conn) error {
	c := h.state.EnsureCharacter(userID)

	switch character.CreationStage(c) {
	case character.StageName:
		c.Name = input
		h.state.SetCharacter(userID, c)
		return conn.Send(systemMessageFrame(fmt.Sprintf(
			"Welcome, %s! What race are you? (Human, Elf, Dwarf, Halfling)", c.Name)))

	case character.StageRace:
		c.Race = input
		h.state.SetCharacter(userID, c)
		return conn.Send(systemMessageFrame(fmt.Sprintf(
			"A %s, excellent! What class are you? (Fighter, Wizard, Rogue, Cleric)", c.Race)))

	case character.StageClass:
		c.Class = input
		character.Finalize(c)
		h.state.SetCharacter(userID, c)

		if err := conn.Send(systemMessageFrame(fmt.Sprintf(
			"Character creation complete! You are %s, a %s %s. Your adventure begins in the town of Eigengrau.",
			c.Name, c.Race, c.Class))); err != nil {
			return err
		}
		if err := h.sendState(userID, conn); err != nil {
			return err
		}
		if loc, ok := h.state.Location(c.CurrentLocationID); ok {
			return conn.Send(narrativeFrame(fmt.Sprintf(
				"You find yourself in %s.\n\n%s", loc.Name, loc.Description)))
		}
		return nil
	}
	return nil
}

// handleGameInput runs one player action through the orchestrator, applies
// the resulting delta, answers the acting channel, and broadcasts the new
// game state to every channel the user holds.
func (h *Handler) handleGameInput(ctx context.Context, userID, input string, conn Conn) error {
	state, ok := h.state.AgentView(userID)
	if !ok {
		return fmt.Errorf("no game state for user %q", userID)
	}

	outcome, err := h.orchestrator.Process(ctx, userID, input, state)
	if err != nil {
		return err
	}

	if outcome.StateUpdate != nil {
		if err := h.state.ApplyUpdate(userID, outcome.StateUpdate); err != nil {
			return err
		}
	}

	if outcome.Message != "" {
		frameType := outcome.ResponseType
		if frameType == "" {
			frameType = FrameNarrative
		}
		if err := conn.Send(Frame{Type: frameType, Data: textPayload{Text: outcome.Message}}); err != nil {
			return err
		}
	}

	h.broadcastState(userID)
	return nil
}

func (h *Handler) sendState(userID string, conn Conn) error {
	view, ok := h.state.Snapshot(userID)
	if !ok {
		return nil
	}
	return conn.Send(gameStateFrame(view))
}

// broadcastState sends the user's game state to every channel they hold, in
// attach order. A channel that fails mid-broadcast is detached and closed;
// the remaining channels still receive the frame.
func (h *Handler) broadcastState(userID string) {
	view, ok := h.state.Snapshot(userID)
	if !ok {
		return
	}
	frame := gameStateFrame(view)

	for _, ch := range h.registry.Channels(userID) {
		if err := ch.Send(frame); err != nil {
			h.logger.Warn("dropping dead channel during broadcast",
				zap.String("user", userID),
				zap.String("channel", ch.ID()),
				zap.Error(err),
			)
			h.registry.Detach(userID, ch)
			ch.Close()
		}
	}
}
