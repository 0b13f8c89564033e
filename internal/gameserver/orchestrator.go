package gameserver

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/chronicleweave/weave/internal/gateway"
)

// Outcome is what one processed player action produces: a message for the
// player, the frame kind to send it as, and a state delta to apply.
type Outcome struct {
	Message      string
	ResponseType string
	StateUpdate  map[string]any
}

// Orchestrator turns player input plus the current game state into an
// Outcome.
type Orchestrator interface {
	Process(ctx context.Context, userID, input string, state map[string]any) (Outcome, error)
}

var intentSchema = gateway.Schema{
	"type": "object",
	"properties": map[string]any{
		"success":    map[string]any{"type": "boolean"},
		"confidence": map[string]any{"type": "number"},
		"parsed_intent": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"action":      map[string]any{"type": "string"},
				"target_id":   map[string]any{"type": "string"},
				"target_name": map[string]any{"type": "string"},
			},
		},
	},
}

var ruleSchema = gateway.Schema{
	"type": "object",
	"properties": map[string]any{
		"success":            map[string]any{"type": "boolean"},
		"narrative_summary":  map[string]any{"type": "string"},
		"game_state_changes": map[string]any{"type": "object"},
	},
}

// AgentOrchestrator runs the three-stage agent chain through the model
// gateway: parse the player's intent, resolve it against the rules, then
// narrate the outcome. Each stage works on degraded gateway output too, so
// the game stays playable with no credentials at all.
type AgentOrchestrator struct {
	gw     *gateway.Gateway
	logger *zap.Logger
}

// NewAgentOrchestrator creates an orchestrator over the given gateway.
//
// Precondition: gw and logger must be non-nil.
func NewAgentOrchestrator(gw *gateway.Gateway, logger *zap.Logger) *AgentOrchestrator {
	return &AgentOrchestrator{gw: gw, logger: logger}
}

// Process runs the agent chain for one player action.
//
// Postcondition: On success the Outcome always has a non-empty Message.
func (o *AgentOrchestrator) Process(ctx context.Context, userID, input string, state map[string]any) (Outcome, error) {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return Outcome{}, fmt.Errorf("encoding game state: %w", err)
	}

	intentPrompt := fmt.Sprintf(
		"Parse the player's intent from their input.\n\nPlayer input: %s\n\nGame state:\n%s",
		input, stateJSON,
	)
	intent, err := o.gw.GenerateStructured(ctx, gateway.Request{Prompt: intentPrompt}, intentSchema)
	if err != nil {
		return Outcome{}, fmt.Errorf("intent stage: %w", err)
	}

	parsed, _ := intent.Data["parsed_intent"].(map[string]any)
	action, _ := parsed["action"].(string)
	targetID, _ := parsed["target_id"].(string)
	targetName, _ := parsed["target_name"].(string)

	rulePrompt := fmt.Sprintf(
		"Apply the game rules to resolve this action.\n\nPlayer input: %s\nAction: %s\nTarget: %s (%s)\n\nGame state:\n%s",
		input, action, targetName, targetID, stateJSON,
	)
	rule, err := o.gw.GenerateStructured(ctx, gateway.Request{Prompt: rulePrompt}, ruleSchema)
	if err != nil {
		return Outcome{}, fmt.Errorf("rule stage: %w", err)
	}

	summary, _ := rule.Data["narrative_summary"].(string)
	narrativePrompt := fmt.Sprintf(
		"Write vivid second-person narrative for this outcome.\n\nPlayer action: %s\n\nOutcome summary: %s",
		input, summary,
	)
	narrative, err := o.gw.Generate(ctx, gateway.Request{Prompt: narrativePrompt})
	if err != nil {
		return Outcome{}, fmt.Errorf("narrative stage: %w", err)
	}

	o.gw.StoreContext(userID, map[string]any{
		"input":   input,
		"summary": summary,
	})

	o.logger.Debug("agent chain complete",
		zap.String("user", userID),
		zap.String("intent_source", string(intent.Source)),
		zap.String("rule_source", string(rule.Source)),
		zap.String("narrative_source", string(narrative.Source)),
	)

	stateUpdate, _ := rule.Data["game_state_changes"].(map[string]any)
	return Outcome{
		Message:      narrative.Text,
		ResponseType: FrameNarrative,
		StateUpdate:  stateUpdate,
	}, nil
}
