package board

import (
	"context"
	"fmt"
	"slices"

	"syncboard/models"
	"syncboard/utilities"
)

// Move arrasta a tarefa para a coluna toStatus na posição informada. A mudança é
// aplicada no cache antes da confirmação do servidor; se a gravação falhar o cache
// volta ao último estado conhecido.
func (s *Store) Move(ctx context.Context, id, toStatus string, position int) error {
	if !slices.Contains(KanbanStatuses, toStatus) {
		return fmt.Errorf("coluna inválida: %s", toStatus)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("tarefa %s não está no quadro", id)
	}

	snapshot := make([]*models.Task, len(s.tasks))
	for i, t := range s.tasks {
		snapshot[i] = t.Clone()
	}

	moved := s.tasks[idx]
	fromStatus := moved.Status

	// ids de cada coluna na ordem visível, sem a tarefa movida
	layout := make(map[string][]string, len(KanbanStatuses))
	for _, col := range s.columnsLocked() {
		for _, t := range col.Tasks {
			if t.ID != id {
				layout[col.Status] = append(layout[col.Status], t.ID)
			}
		}
	}
	target := layout[toStatus]
	position = max(0, min(position, len(target)))
	layout[toStatus] = slices.Insert(target, position, id)
	moved.Status = toStatus

	// nova ordem de todos os itens visíveis, pela posição na coluna
	var payload []models.OrderUpdate
	for _, status := range KanbanStatuses {
		for i, taskID := range layout[status] {
			if j := s.indexLocked(taskID); j >= 0 {
				s.tasks[j].Order = float64(i)
			}
			payload = append(payload, models.OrderUpdate{ID: taskID, Order: float64(i)})
		}
	}
	s.mu.Unlock()
	s.changed()

	if err := s.persistMove(ctx, id, fromStatus, toStatus, payload); err != nil {
		utilities.LogError(err, "Erro ao salvar posição")
		s.mu.Lock()
		if !s.closed {
			s.tasks = snapshot
		}
		s.mu.Unlock()
		s.changed()
		return fmt.Errorf("erro ao salvar posição: %w", err)
	}
	return nil
}

func (s *Store) persistMove(ctx context.Context, id, fromStatus, toStatus string, payload []models.OrderUpdate) error {
	if fromStatus != toStatus {
		if _, err := s.api.UpdateTask(ctx, id, map[string]interface{}{"status": toStatus}); err != nil {
			return err
		}
	}
	return s.api.Reorder(ctx, payload)
}
