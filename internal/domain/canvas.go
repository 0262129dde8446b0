package domain

// CanvasState is one participant's placement on the shared canvas. It is
// stored as JSON under the participant's clientId in the room's state map.
type CanvasState struct {
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Scale    float64 `json:"scale"`
	Opacity  float64 `json:"opacity"`
	Mode     *int    `json:"mode,omitempty"`
	Filter   *string `json:"filter,omitempty"`
	Rotation int     `json:"rotation"`
	IsMicOn  bool    `json:"isMicOn"`
	Overlay  *string `json:"overlay,omitempty"`
}

// InitialCanvasState is the placement given to a participant on create/join.
func InitialCanvasState() CanvasState {
	return CanvasState{X: 200, Y: 100, Scale: 1.0, Opacity: 1.0}
}

// Normalize clamps rotation into [0, 360).
func (s CanvasState) Normalize() CanvasState {
	s.Rotation = NormalizeRotation(s.Rotation)
	return s
}

// NormalizeRotation maps any angle in degrees into [0, 360).
func NormalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}

// ParticipantCanvas is one entry of a canvas-sync payload. Optional fields
// are serialized as null rather than omitted so that every entry has the
// same shape.
type ParticipantCanvas struct {
	ClientID string  `json:"clientId"`
	Nickname string  `json:"nickname"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Scale    float64 `json:"scale"`
	Opacity  float64 `json:"opacity"`
	IsHost   bool    `json:"isHost"`
	Mode     *int    `json:"mode"`
	Filter   *string `json:"filter"`
	Rotation int     `json:"rotation"`
	IsMicOn  bool    `json:"isMicOn"`
	Overlay  *string `json:"overlay"`
}

// NewParticipantCanvas merges a stored state with identity fields.
func NewParticipantCanvas(clientID, nickname string, isHost bool, s CanvasState) ParticipantCanvas {
	return ParticipantCanvas{
		ClientID: clientID,
		Nickname: nickname,
		X:        s.X,
		Y:        s.Y,
		Scale:    s.Scale,
		Opacity:  s.Opacity,
		IsHost:   isHost,
		Mode:     s.Mode,
		Filter:   s.Filter,
		Rotation: s.Rotation,
		IsMicOn:  s.IsMicOn,
		Overlay:  s.Overlay,
	}
}

// State strips the identity fields again.
func (p ParticipantCanvas) State() CanvasState {
	return CanvasState{
		X:        p.X,
		Y:        p.Y,
		Scale:    p.Scale,
		Opacity:  p.Opacity,
		Mode:     p.Mode,
		Filter:   p.Filter,
		Rotation: p.Rotation,
		IsMicOn:  p.IsMicOn,
		Overlay:  p.Overlay,
	}
}

// FullCanvasState is the complete view of a room, sent as canvas-sync.
type FullCanvasState struct {
	RoomCode     string                `json:"roomCode"`
	Background   *BackgroundDescriptor `json:"background"`
	Participants []ParticipantCanvas   `json:"participants"`
}

// Participant returns the entry for clientID, if present.
func (f *FullCanvasState) Participant(clientID string) (ParticipantCanvas, bool) {
	for _, p := range f.Participants {
		if p.ClientID == clientID {
			return p, true
		}
	}
	return ParticipantCanvas{}, false
}
