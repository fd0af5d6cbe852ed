package services

import (
	"context"
	"errors"
	"fmt"

	"syncboard/database"
	"syncboard/models"
	"syncboard/utilities"
)

type NotificationService struct {
	notifications database.NotificationStore
}

func NewNotificationService(notifications database.NotificationStore) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// List retorna as notificações do usuário, mais recentes primeiro
func (s *NotificationService) List(ctx context.Context, login string) ([]models.Notification, error) {
	list, err := s.notifications.ListNotifications(ctx, models.UserID(login))
	if err != nil {
		return nil, fmt.Errorf("erro ao listar notificações de %s: %w", login, err)
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list, nil
}

// MarkRead marca a notificação como lida. Id desconhecido ou de outro usuário não é erro.
func (s *NotificationService) MarkRead(ctx context.Context, id, login string) error {
	if id == "" {
		return newError(ErrValidation, "ID da notificação é obrigatório.")
	}
	n, err := s.notifications.GetNotification(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		utilities.LogDebug("Notificação %s não encontrada; nada a marcar", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("erro ao buscar notificação %s: %w", id, err)
	}
	if models.UserID(n.TargetUserEmail) != models.UserID(login) {
		utilities.LogWarn("Usuário %s tentou marcar a notificação %s de outra pessoa", login, id)
		return nil
	}
	if n.IsRead {
		return nil
	}
	n.IsRead = true
	if err := s.notifications.PutNotification(ctx, n); err != nil {
		return fmt.Errorf("erro ao marcar notificação %s: %w", id, err)
	}
	return nil
}
