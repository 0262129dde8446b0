package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"clov-canvas/internal/domain"
)

var (
	// ErrMalformedEnvelope means the envelope or its data could not be
	// decoded or lacks a required field.
	ErrMalformedEnvelope = errors.New("relay: malformed envelope")
	// ErrUnknownEvent means the event name is not part of the relay protocol.
	ErrUnknownEvent = errors.New("relay: unknown event")
	// ErrSubscriptionClosed is returned by the listeners when the Redis
	// subscription ends while they are still supposed to run.
	ErrSubscriptionClosed = errors.New("relay: subscription channel closed")
)

const defaultRecordingSeconds = 30

// Handler has one method per event variant.
type Handler interface {
	OnJoinRoom(ctx context.Context, e JoinRoom) error
	OnUpdateState(ctx context.Context, e UpdateState) error
	OnChangeBackground(ctx context.Context, e ChangeBackground) error
	OnStartRecording(ctx context.Context, e StartRecording) error
	OnStartPhoto(ctx context.Context, e StartPhoto) error
	OnAssignHost(ctx context.Context, e AssignHost) error
	OnLeaveRoom(ctx context.Context, e LeaveRoom) error
	OnSignal(ctx context.Context, e Signal) error
}

// Event is a decoded relay envelope. The variant set is closed: each variant
// dispatches to its own Handler method, so a Handler has to cover all of them.
type Event interface {
	Name() string
	Room() string
	dispatch(ctx context.Context, h Handler) error
}

// Dispatch routes e to the matching Handler method.
func Dispatch(ctx context.Context, h Handler, e Event) error {
	return e.dispatch(ctx, h)
}

// JoinRoom announces a participant that has just joined.
type JoinRoom struct {
	RoomCode string
	ClientID string
}

func (e JoinRoom) Name() string { return domain.EventJoinRoom }
func (e JoinRoom) Room() string { return e.RoomCode }
func (e JoinRoom) dispatch(ctx context.Context, h Handler) error {
	return h.OnJoinRoom(ctx, e)
}

// UpdateState carries one participant's new canvas state.
type UpdateState struct {
	RoomCode string
	ClientID string
	State    domain.CanvasState
}

func (e UpdateState) Name() string { return domain.EventUpdateState }
func (e UpdateState) Room() string { return e.RoomCode }
func (e UpdateState) dispatch(ctx context.Context, h Handler) error {
	return h.OnUpdateState(ctx, e)
}

// ChangeBackground selects a catalog background or, with
// domain.CustomBackgroundID, the room's uploaded one.
type ChangeBackground struct {
	RoomCode     string
	ClientID     string
	BackgroundID int64
}

func (e ChangeBackground) Name() string { return domain.EventChangeBackground }
func (e ChangeBackground) Room() string { return e.RoomCode }
func (e ChangeBackground) dispatch(ctx context.Context, h Handler) error {
	return h.OnChangeBackground(ctx, e)
}

// StartRecording asks every client to start a video countdown.
type StartRecording struct {
	RoomCode string
	ClientID string
	Duration int
}

func (e StartRecording) Name() string { return domain.EventStartRecording }
func (e StartRecording) Room() string { return e.RoomCode }
func (e StartRecording) dispatch(ctx context.Context, h Handler) error {
	return h.OnStartRecording(ctx, e)
}

// StartPhoto asks every client to start a photo countdown.
type StartPhoto struct {
	RoomCode string
	ClientID string
}

func (e StartPhoto) Name() string { return domain.EventStartPhoto }
func (e StartPhoto) Room() string { return e.RoomCode }
func (e StartPhoto) dispatch(ctx context.Context, h Handler) error {
	return h.OnStartPhoto(ctx, e)
}

// AssignHost announces a host transfer that has already been applied.
type AssignHost struct {
	RoomCode string
	From     string
	To       string
}

func (e AssignHost) Name() string { return domain.EventAssignHost }
func (e AssignHost) Room() string { return e.RoomCode }
func (e AssignHost) dispatch(ctx context.Context, h Handler) error {
	return h.OnAssignHost(ctx, e)
}

// LeaveRoom announces a departure. Nickname and IsHost are filled by the
// publisher when it resolved them before deleting the participant; nil
// means the subscriber resolves them from the State Store.
type LeaveRoom struct {
	RoomCode string
	ClientID string
	Nickname *string
	IsHost   *bool
}

func (e LeaveRoom) Name() string { return domain.EventLeaveRoom }
func (e LeaveRoom) Room() string { return e.RoomCode }
func (e LeaveRoom) dispatch(ctx context.Context, h Handler) error {
	return h.OnLeaveRoom(ctx, e)
}

// Signal carries a peer signaling frame whose target was not connected to
// the publishing process.
type Signal struct {
	RoomCode string
	Target   string
	Frame    json.RawMessage // the original {event, data} frame, verbatim
}

func (e Signal) Name() string { return domain.EventSignal }
func (e Signal) Room() string { return e.RoomCode }
func (e Signal) dispatch(ctx context.Context, h Handler) error {
	return h.OnSignal(ctx, e)
}

// --- wire format ---

type statePayload struct {
	X        *int     `json:"x"`
	Y        *int     `json:"y"`
	Scale    *float64 `json:"scale"`
	Opacity  *float64 `json:"opacity"`
	Mode     *int     `json:"mode"`
	Filter   *string  `json:"filter"`
	Rotation *int     `json:"rotation"`
	IsMicOn  *bool    `json:"isMicOn"`
	Overlay  *string  `json:"overlay"`
}

func (s *statePayload) toDomain() (domain.CanvasState, error) {
	if s.X == nil || s.Y == nil || s.Scale == nil || s.Opacity == nil {
		return domain.CanvasState{}, fmt.Errorf("%w: state requires x, y, scale and opacity", ErrMalformedEnvelope)
	}
	state := domain.CanvasState{
		X:       *s.X,
		Y:       *s.Y,
		Scale:   *s.Scale,
		Opacity: *s.Opacity,
		Mode:    s.Mode,
		Filter:  s.Filter,
		Overlay: s.Overlay,
	}
	if s.Rotation != nil {
		state.Rotation = domain.NormalizeRotation(*s.Rotation)
	}
	if s.IsMicOn != nil {
		state.IsMicOn = *s.IsMicOn
	}
	return state, nil
}

// payload is the union of every data field used by the relay protocol.
type payload struct {
	RoomCode     string          `json:"roomCode"`
	ClientID     string          `json:"clientId"`
	State        *statePayload   `json:"state,omitempty"`
	BackgroundID *int64          `json:"backgroundId,omitempty"`
	Duration     *int            `json:"duration,omitempty"`
	From         string          `json:"from,omitempty"`
	To           string          `json:"to,omitempty"`
	Nickname     *string         `json:"nickname,omitempty"`
	IsHost       *bool           `json:"isHost,omitempty"`
	Target       string          `json:"target,omitempty"`
	Frame        json.RawMessage `json:"frame,omitempty"`
}

// Decode parses a relay message into its event variant.
func Decode(raw []byte) (Event, error) {
	var env domain.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return DecodeEnvelope(env)
}

// DecodeEnvelope converts an already split envelope into its event variant.
func DecodeEnvelope(env domain.Envelope) (Event, error) {
	switch env.Event {
	case domain.EventJoinRoom, domain.EventUpdateState, domain.EventChangeBackground,
		domain.EventStartRecording, domain.EventStartPhoto, domain.EventAssignHost,
		domain.EventLeaveRoom, domain.EventSignal:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}

	var p payload
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("%w: %s has no data", ErrMalformedEnvelope, env.Event)
	}
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s data: %v", ErrMalformedEnvelope, env.Event, err)
	}
	if p.RoomCode == "" {
		return nil, fmt.Errorf("%w: %s without roomCode", ErrMalformedEnvelope, env.Event)
	}

	requireClient := func() error {
		if p.ClientID == "" {
			return fmt.Errorf("%w: %s without clientId", ErrMalformedEnvelope, env.Event)
		}
		return nil
	}

	switch env.Event {
	case domain.EventJoinRoom:
		if err := requireClient(); err != nil {
			return nil, err
		}
		return JoinRoom{RoomCode: p.RoomCode, ClientID: p.ClientID}, nil

	case domain.EventUpdateState:
		if err := requireClient(); err != nil {
			return nil, err
		}
		if p.State == nil {
			return nil, fmt.Errorf("%w: update-state without state", ErrMalformedEnvelope)
		}
		state, err := p.State.toDomain()
		if err != nil {
			return nil, err
		}
		return UpdateState{RoomCode: p.RoomCode, ClientID: p.ClientID, State: state}, nil

	case domain.EventChangeBackground:
		if err := requireClient(); err != nil {
			return nil, err
		}
		if p.BackgroundID == nil {
			return nil, fmt.Errorf("%w: change-background without backgroundId", ErrMalformedEnvelope)
		}
		return ChangeBackground{RoomCode: p.RoomCode, ClientID: p.ClientID, BackgroundID: *p.BackgroundID}, nil

	case domain.EventStartRecording:
		if err := requireClient(); err != nil {
			return nil, err
		}
		duration := defaultRecordingSeconds
		if p.Duration != nil && *p.Duration > 0 {
			duration = *p.Duration
		}
		return StartRecording{RoomCode: p.RoomCode, ClientID: p.ClientID, Duration: duration}, nil

	case domain.EventStartPhoto:
		if err := requireClient(); err != nil {
			return nil, err
		}
		return StartPhoto{RoomCode: p.RoomCode, ClientID: p.ClientID}, nil

	case domain.EventAssignHost:
		if p.From == "" || p.To == "" {
			return nil, fmt.Errorf("%w: assign-host requires from and to", ErrMalformedEnvelope)
		}
		return AssignHost{RoomCode: p.RoomCode, From: p.From, To: p.To}, nil

	case domain.EventLeaveRoom:
		if err := requireClient(); err != nil {
			return nil, err
		}
		return LeaveRoom{RoomCode: p.RoomCode, ClientID: p.ClientID, Nickname: p.Nickname, IsHost: p.IsHost}, nil

	default: // domain.EventSignal
		if p.Target == "" || len(p.Frame) == 0 {
			return nil, fmt.Errorf("%w: signal requires target and frame", ErrMalformedEnvelope)
		}
		return Signal{RoomCode: p.RoomCode, Target: p.Target, Frame: p.Frame}, nil
	}
}

// Encode serializes an event variant back into a relay envelope.
func Encode(e Event) ([]byte, error) {
	p := payload{RoomCode: e.Room()}
	switch v := e.(type) {
	case JoinRoom:
		p.ClientID = v.ClientID
	case UpdateState:
		p.ClientID = v.ClientID
		s := v.State
		p.State = &statePayload{
			X: &s.X, Y: &s.Y, Scale: &s.Scale, Opacity: &s.Opacity,
			Mode: s.Mode, Filter: s.Filter, Rotation: &s.Rotation, IsMicOn: &s.IsMicOn, Overlay: s.Overlay,
		}
	case ChangeBackground:
		p.ClientID = v.ClientID
		p.BackgroundID = &v.BackgroundID
	case StartRecording:
		p.ClientID = v.ClientID
		p.Duration = &v.Duration
	case StartPhoto:
		p.ClientID = v.ClientID
	case AssignHost:
		p.From, p.To = v.From, v.To
	case LeaveRoom:
		p.ClientID = v.ClientID
		p.Nickname, p.IsHost = v.Nickname, v.IsHost
	case Signal:
		p.Target = v.Target
		p.Frame = v.Frame
	default:
		return nil, fmt.Errorf("relay: cannot encode event %T", e)
	}
	return domain.EncodeEnvelope(e.Name(), p)
}
