package service

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"sort"

	"clov-canvas/internal/domain"
)

type digestInput struct {
	Background   *domain.BackgroundDescriptor `json:"background"`
	Participants []domain.ParticipantCanvas  `json:"participants"`
}

// Digest fingerprints a room snapshot. Participant order does not matter
// and the input is not modified.
func Digest(state *domain.FullCanvasState) (string, error) {
	if state == nil {
		state = &domain.FullCanvasState{}
	}
	participants := make([]domain.ParticipantCanvas, len(state.Participants))
	copy(participants, state.Participants)
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].ClientID < participants[j].ClientID
	})

	raw, err := json.Marshal(digestInput{Background: state.Background, Participants: participants})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}
