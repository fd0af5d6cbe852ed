package services

import (
	"context"
	"errors"
	"time"

	"syncboard/database"
	"syncboard/models"
	"syncboard/utilities"
)

// Signal adiciona todos os responsáveis atuais em pendingAlerts (sem repetir) e avisa o chat.
func (s *TaskService) Signal(ctx context.Context, id string, actor Actor) (*models.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	names := task.ResponsibleNames()
	if len(names) == 0 {
		return nil, newError(ErrValidation, "Esta tarefa não tem responsáveis para sinalizar.")
	}

	seen := make(map[string]bool, len(task.PendingAlerts)+len(names))
	alerts := make([]string, 0, len(task.PendingAlerts)+len(names))
	for _, n := range append(append([]string(nil), task.PendingAlerts...), names...) {
		if !seen[n] {
			seen[n] = true
			alerts = append(alerts, n)
		}
	}
	task.PendingAlerts = alerts

	replaced, err := s.replace(ctx, task, database.AnyVersion)
	if err != nil {
		return nil, err
	}

	s.chat.TaskSignaled(actor.Login, replaced, names)
	s.events.Publish(models.EventTaskUpdated, replaced)
	return replaced, nil
}

// DismissAlert remove o alerta do usuário. O nome é resolvido pelo perfil na whitelist,
// depois pelo claim "name" e por último pelo login (erro ao ler o perfil usa o login direto).
// Se remover pelo nome não achar nada, tenta pelo login. Não achar nada não é erro: a tarefa volta sem alteração.
func (s *TaskService) DismissAlert(ctx context.Context, id string, actor Actor) (*models.Task, error) {
	name := s.resolveAlertName(ctx, actor)

	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(task.PendingAlerts) == 0 {
		return task, nil
	}

	remaining := without(task.PendingAlerts, name)
	if len(remaining) == len(task.PendingAlerts) && name != actor.Login {
		utilities.LogDebug("Remoção por nome falhou. Tentando remover pelo login: %s", actor.Login)
		remaining = without(task.PendingAlerts, actor.Login)
	}
	if len(remaining) == len(task.PendingAlerts) {
		utilities.LogWarn("O usuário %q (ou login) não estava na lista de alertas da tarefa %s: %v", name, id, task.PendingAlerts)
		return task, nil
	}
	task.PendingAlerts = remaining

	replaced, err := s.replace(ctx, task, database.AnyVersion)
	if err != nil {
		return nil, err
	}
	s.events.Publish(models.EventTaskUpdated, replaced)
	return replaced, nil
}

func (s *TaskService) resolveAlertName(ctx context.Context, actor Actor) string {
	if actor.Login != "" {
		profile, err := s.users.GetUser(ctx, models.UserID(actor.Login))
		switch {
		case err == nil && profile.Name != "":
			return profile.Name
		case err != nil && !errors.Is(err, database.ErrNotFound):
			utilities.LogWarn("Erro ao buscar perfil de %s: %v. Seguindo com o login.", actor.Login, err)
			return actor.Login
		}
	}
	if actor.Name != "" {
		return actor.Name
	}
	return actor.Login
}

func without(list []string, name string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != name {
			out = append(out, v)
		}
	}
	return out
}

// OverdueTasks lista as tarefas ativas com prazo vencido
func (s *TaskService) OverdueTasks(ctx context.Context) ([]*models.Task, error) {
	tasks, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var overdue []*models.Task
	for _, t := range tasks {
		if t.IsOverdue(now) {
			overdue = append(overdue, t)
		}
	}
	return overdue, nil
}

// SendOverdueDigest posta no chat o resumo das tarefas atrasadas; sem atrasos, nada é enviado.
func (s *TaskService) SendOverdueDigest(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	overdue, err := s.OverdueTasks(ctx)
	if err != nil {
		return err
	}
	if len(overdue) == 0 {
		utilities.LogInfo("Resumo de atrasos: nenhuma tarefa atrasada")
		return nil
	}
	utilities.LogInfo("Resumo de atrasos: %d tarefas atrasadas", len(overdue))
	s.chat.OverdueDigest(overdue)
	return nil
}
