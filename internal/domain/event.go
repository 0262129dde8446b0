package domain

import (
	"encoding/json"
	"fmt"
)

// Event names carried in the "event" field of websocket frames and relay
// envelopes.
const (
	// Client -> server, fanned out through the relay.
	EventJoinRoom         = "join-room"
	EventUpdateState      = "update-state"
	EventChangeBackground = "change-background"
	EventStartRecording   = "start-recording"
	EventStartPhoto       = "start-photo"
	EventAssignHost       = "assign-host"
	EventLeaveRoom        = "leave-room"

	// Peer signaling, delivered to data.target.
	EventSDPOffer     = "sdp-offer"
	EventSDPAnswer    = "sdp-answer"
	EventICECandidate = "ice-candidate"

	// Relay-only wrapper for signaling frames whose target lives on
	// another process.
	EventSignal = "signal"

	// Server -> client.
	EventUserJoined        = "user-joined"
	EventStateUpdated      = "state-updated"
	EventBackgroundChanged = "background-changed"
	EventCountdownStart    = "countdown-start"
	EventHostChanged       = "host-changed"
	EventUserLeft          = "user-left"
	EventRoomExpired       = "room-expired"
	EventCanvasSync        = "canvas-sync"
)

// IsSignalingEvent reports whether the event is a peer-to-peer signaling
// payload that is forwarded verbatim to a target client.
func IsSignalingEvent(event string) bool {
	switch event {
	case EventSDPOffer, EventSDPAnswer, EventICECandidate:
		return true
	}
	return false
}

// Envelope is the {event, data} frame used both on the websocket and on the
// relay channels.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// EncodeEnvelope serializes data under the given event name.
func EncodeEnvelope(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s data: %w", event, err)
	}
	out, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", event, err)
	}
	return out, nil
}
