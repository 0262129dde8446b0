package service

import "clov-canvas/internal/domain"

// Outbound websocket payloads.

type participantRef struct {
	ClientID string `json:"clientId"`
	Nickname string `json:"nickname"`
}

type leaverRef struct {
	ClientID string `json:"clientId"`
	Nickname string `json:"nickname"`
	IsHost   bool   `json:"isHost"`
}

type userJoinedData struct {
	RoomCode     string            `json:"roomCode"`
	NewComer     participantRef    `json:"newComer"`
	Participants map[string]string `json:"participants"`
}

type stateUpdatedData struct {
	ClientID string             `json:"clientId"`
	Nickname string             `json:"nickname"`
	IsHost   bool               `json:"isHost"`
	State    domain.CanvasState `json:"state"`
}

type backgroundChangedData struct {
	RoomCode   string                      `json:"roomCode"`
	Background domain.BackgroundDescriptor `json:"background"`
}

type countdownData struct {
	RoomCode  string `json:"roomCode"`
	StartedAt string `json:"startedAt"`
	Duration  int    `json:"duration"`
	Type      string `json:"type"`
}

type hostChangedData struct {
	RoomCode     string         `json:"roomCode"`
	NewHost      participantRef `json:"newHost"`
	PreviousHost participantRef `json:"previousHost"`
}

type userLeftData struct {
	RoomCode     string            `json:"roomCode"`
	LastLeaver   leaverRef         `json:"lastLeaver"`
	Participants map[string]string `json:"participants"`
}

type roomExpiredData struct {
	RoomCode string `json:"roomCode"`
}

// Countdown kinds.
const (
	CountdownVideo = "video"
	CountdownPhoto = "photo"

	recordingBufferSeconds = 3
	photoCountdownSeconds  = 3
)
