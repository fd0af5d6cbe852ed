package ai_services

import (
	"context"
	"fmt"
	"time"

	"syncboard/database"
	"syncboard/models"
	"syncboard/utilities"
)

// HistoryLogger grava cada interação com a IA na coleção aiRequestHistory.
type HistoryLogger struct {
	store database.AIHistoryStore
	now   func() time.Time
}

func NewHistoryLogger(store database.AIHistoryStore) *HistoryLogger {
	return &HistoryLogger{store: store, now: time.Now}
}

// LogAIInteraction registra uma interação. Falhas são apenas logadas e não
// interrompem o fluxo principal.
func (l *HistoryLogger) LogAIInteraction(
	ctx context.Context,
	userEmail string, // quem fez a requisição
	serviceType string, // ex: "improve_title"
	model string,
	frontendPayload interface{}, // o que o frontend enviou
	prompt string, // o que foi enviado ao modelo
	response string,
	aiCallError error,
) {
	if l == nil || l.store == nil {
		return
	}

	entry := models.AIRequestHistoryEntry{
		UserEmail:     userEmail,
		AIServiceType: serviceType,
		Model:         model,
		Timestamp:     l.now().UTC(),
		Request:       frontendPayload,
		Prompt:        prompt,
		Response:      response,
	}
	if aiCallError != nil {
		entry.AIError = aiCallError.Error()
	}

	if err := l.store.AddAIRequest(ctx, &entry); err != nil {
		utilities.LogError(err, fmt.Sprintf("LogAIInteraction: Falha ao salvar histórico de IA para %s", userEmail))
		return
	}
	utilities.LogDebug("LogAIInteraction: Histórico de IA salvo (%s, %s)", serviceType, userEmail)
}
