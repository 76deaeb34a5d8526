package ws

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/usecase/wizard"
)

// События генерации превью.
const (
	EventTryOnProgress = "tryon.progress"
	EventTryOnFinished = "tryon.finished"
)

type progressPayload struct {
	SessionID uuid.UUID             `json:"session_id"`
	Attempt   int                   `json:"attempt"`
	Status    valueobject.JobStatus `json:"status"`
}

type finishedPayload struct {
	SessionID uuid.UUID      `json:"session_id"`
	Preview   wizard.Preview `json:"preview"`
}

// PreviewNotifier отправляет ход генерации превью в WebSocket владельца сессии.
type PreviewNotifier struct {
	hub *Hub
}

func NewPreviewNotifier(hub *Hub) *PreviewNotifier {
	return &PreviewNotifier{hub: hub}
}

func (n *PreviewNotifier) PreviewProgress(userID, sessionID uuid.UUID, attempt int, status valueobject.JobStatus) {
	n.emit(userID, EventTryOnProgress, progressPayload{SessionID: sessionID, Attempt: attempt, Status: status})
}

func (n *PreviewNotifier) PreviewFinished(userID, sessionID uuid.UUID, preview wizard.Preview) {
	n.emit(userID, EventTryOnFinished, finishedPayload{SessionID: sessionID, Preview: preview})
}

func (n *PreviewNotifier) emit(userID uuid.UUID, event string, data any) {
	if err := n.hub.BroadcastToUser(userID, event, data); err != nil {
		logger.Log.WithField("event", event).WithError(err).Warn("ws: событие не отправлено")
	}
}
