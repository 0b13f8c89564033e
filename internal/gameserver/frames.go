// Package gameserver implements the multiplayer session layer: the per-user
// channel registry, the websocket transport, the connection handler with its
// character creation dialogue, and the agent orchestrator that turns player
// input into narration and state changes.
package gameserver

import (
	"encoding/json"

	"github.com/chronicleweave/weave/internal/game/world"
)

// Outbound frame kinds.
const (
	FrameConnectionStatus = "connection_status"
	FrameSystemMessage    = "system_message"
	FrameNarrative        = "narrative"
	FrameGameState        = "game_state"
)

// inboundMessage is the only inbound frame kind that carries player input.
const inboundMessage = "message"

// Frame is the wire envelope in both directions.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type textPayload struct {
	Text string `json:"text"`
}

func connectionStatusFrame(status, message string) Frame {
	return Frame{
		Type: FrameConnectionStatus,
		Data: map[string]string{"status": status, "message": message},
	}
}

func systemMessageFrame(text string) Frame {
	return Frame{Type: FrameSystemMessage, Data: textPayload{Text: text}}
}

func narrativeFrame(text string) Frame {
	return Frame{Type: FrameNarrative, Data: textPayload{Text: text}}
}

func gameStateFrame(view world.PlayerView) Frame {
	return Frame{Type: FrameGameState, Data: view}
}

// parseInbound extracts the player input from a raw inbound message. A well
// formed {"type":"message","data":{"text":...}} frame yields its text; any
// payload that is not valid JSON is treated as plain text input. Valid JSON
// of any other frame type carries no input and is ignored.
func parseInbound(raw string) (string, bool) {
	var frame struct {
		Type string      `json:"type"`
		Data textPayload `json:"data"`
	}
	if err := json.Unmarshal([]byte(raw), &frame); err != nil {
		return raw, true
	}
	if frame.Type == inboundMessage {
		return frame.Data.Text, true
	}
	return "", false
}
