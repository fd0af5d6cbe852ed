package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"syncboard/database"
	"syncboard/models"
	"syncboard/utilities"
)

// Source indica por onde a tarefa foi criada
type Source int

const (
	SourceAPI Source = iota
	SourceChatBot
)

const (
	msgTaskNotFound    = "Tarefa não encontrada."
	msgCommentNotFound = "Comentário não encontrado."
)

// campos que o cliente não pode sobrescrever no update
var immutableTaskKeys = map[string]bool{
	"id":        true,
	"numericId": true,
	"createdAt": true,
	"createdBy": true,
	"history":   true,
	"version":   true,
}

// taskKeys são as chaves aceitas em um update; qualquer outra é recusada
var taskKeys = map[string]bool{
	"id": true, "numericId": true, "title": true, "description": true,
	"responsible": true, "azureLink": true, "project": true, "projectColor": true,
	"priority": true, "status": true, "order": true, "dueDate": true,
	"attachments": true, "comments": true, "history": true, "pendingAlerts": true,
	"createdAt": true, "createdBy": true, "version": true,
}

// CreateInput é o corpo de POST /tasks. Responsible nil significa campo ausente.
type CreateInput struct {
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Responsible  []models.Person     `json:"responsible"`
	AzureLink    string              `json:"azureLink"`
	Project      string              `json:"project"`
	ProjectColor string              `json:"projectColor"`
	Priority     string              `json:"priority"`
	DueDate      *string             `json:"dueDate"`
	Attachments  []models.Attachment `json:"attachments"`
}

// CommentRef identifica o comentário a excluir: pelo id ou, em comentários antigos, pela posição.
type CommentRef struct {
	CommentID string `json:"commentId"`
	Index     *int   `json:"index"`
}

// TaskService concentra o ciclo de vida das tarefas: cada operação lê o documento,
// altera, grava e então avisa os clientes e o chat.
type TaskService struct {
	tasks         database.TaskStore
	users         database.UserStore
	notifications database.NotificationStore
	ids           *IDAllocator
	events        Publisher
	chat          ChatNotifier
	now           func() time.Time
}

func NewTaskService(store database.Store, events Publisher, chat ChatNotifier) *TaskService {
	if events == nil {
		events = nopPublisher{}
	}
	if chat == nil {
		chat = nopChat{}
	}
	return &TaskService{
		tasks:         store,
		users:         store,
		notifications: store,
		ids:           NewIDAllocator(store),
		events:        events,
		chat:          chat,
		now:           time.Now,
	}
}

// IDs expõe o alocador (usado pelo provision-counter)
func (s *TaskService) IDs() *IDAllocator { return s.ids }

func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	t, err := s.tasks.GetTask(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, newError(ErrNotFound, msgTaskNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao ler tarefa %s: %w", id, err)
	}
	return t, nil
}

// ListActive retorna tudo que não está concluído
func (s *TaskService) ListActive(ctx context.Context) ([]*models.Task, error) {
	return s.tasks.ListTasks(ctx, database.TaskQuery{ExcludeStatus: models.StatusDone})
}

// ListArchived retorna as tarefas concluídas
func (s *TaskService) ListArchived(ctx context.Context) ([]*models.Task, error) {
	return s.tasks.ListTasks(ctx, database.TaskQuery{Status: models.StatusDone})
}

// Projects lista os nomes de projeto distintos de todas as tarefas, incluindo as concluídas.
func (s *TaskService) Projects(ctx context.Context) ([]string, error) {
	tasks, err := s.tasks.ListTasks(ctx, database.TaskQuery{})
	if err != nil {
		return nil, fmt.Errorf("erro ao listar projetos: %w", err)
	}
	seen := map[string]bool{}
	var projects []string
	for _, t := range tasks {
		if t.Project == "" || seen[t.Project] {
			continue
		}
		seen[t.Project] = true
		projects = append(projects, t.Project)
	}
	sort.Strings(projects)
	return projects, nil
}

func (s *TaskService) Create(ctx context.Context, in CreateInput, actor Actor, source Source) (*models.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" || (source == SourceAPI && in.Responsible == nil) {
		return nil, newError(ErrValidation, "Título, Descrição e Responsável são obrigatórios.")
	}

	ident, err := s.ids.Next(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := &models.Task{
		ID:           ident.Display,
		NumericID:    ident.Numeric,
		Title:        in.Title,
		Description:  in.Description,
		Responsible:  in.Responsible,
		AzureLink:    in.AzureLink,
		Project:      in.Project,
		ProjectColor: in.ProjectColor,
		Priority:     in.Priority,
		Status:       models.StatusTodo,
		Order:        -float64(now.UnixMilli()),
		DueDate:      in.DueDate,
		Attachments:  in.Attachments,
		History:      []models.HistoryEntry{{Status: models.StatusTodo, Timestamp: models.Timestamp(now)}},
		CreatedAt:    models.Timestamp(now),
		CreatedBy:    actor.Login,
	}
	if task.Responsible == nil {
		task.Responsible = []models.Person{}
	}
	if task.Attachments == nil {
		task.Attachments = []models.Attachment{}
	}
	if task.ProjectColor == "" {
		task.ProjectColor = models.DefaultProjectColor
	}
	if task.Priority == "" {
		task.Priority = models.DefaultPriority
	}
	if task.DueDate != nil && *task.DueDate == "" {
		task.DueDate = nil
	}

	if err := s.tasks.CreateTask(ctx, task); err != nil {
		if errors.Is(err, database.ErrAlreadyExists) {
			return nil, newError(ErrConflict, fmt.Sprintf("Já existe uma tarefa com o id %s.", task.ID))
		}
		return nil, fmt.Errorf("erro ao salvar tarefa: %w", err)
	}
	utilities.LogInfo("Tarefa criada com sucesso: %s (%s)", task.ID, task.Title)

	if source == SourceAPI {
		s.chat.TaskCreated(actor.Login, task)
	}
	s.events.Publish(models.EventTaskCreated, task)
	return task, nil
}

// Update mescla o payload parcial sobre o documento atual (chaves do payload vencem).
// Um campo "version" no payload ativa a checagem de concorrência otimista.
func (s *TaskService) Update(ctx context.Context, id string, payload map[string]json.RawMessage, actor Actor) (*models.Task, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := existing.Status

	for k := range payload {
		if !taskKeys[k] {
			return nil, newError(ErrValidation, fmt.Sprintf("Campo desconhecido: %s.", k))
		}
	}

	ifVersion := database.AnyVersion
	if raw, ok := payload["version"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &ifVersion); err != nil || ifVersion < 0 {
			return nil, newError(ErrValidation, "Versão inválida.")
		}
	}

	newStatus := ""
	if raw, ok := payload["status"]; ok {
		if err := json.Unmarshal(raw, &newStatus); err != nil || !models.IsValidStatus(newStatus) {
			return nil, newError(ErrValidation, "Status inválido.")
		}
	}

	if raw, ok := payload["attachments"]; ok && !isJSONArray(raw) {
		payload["attachments"] = json.RawMessage("[]")
	}

	merged, err := mergeTask(existing, payload)
	if err != nil {
		return nil, newError(ErrValidation, "Dados da tarefa inválidos.")
	}

	now := models.Timestamp(s.now())
	if hasEditKeys(payload) {
		merged.History = append(merged.History, models.HistoryEntry{Status: models.StatusEdited, Timestamp: now})
	} else if newStatus != "" && newStatus != oldStatus {
		merged.History = append(merged.History, models.HistoryEntry{Status: newStatus, Timestamp: now})
	}

	replaced, err := s.replace(ctx, merged, ifVersion)
	if err != nil {
		return nil, err
	}

	utilities.LogDebug("Tarefa %s atualizada por %s (versão %d)", id, actor.Login, replaced.Version)

	if newStatus != "" && newStatus != oldStatus {
		s.chat.StatusChanged(replaced, newStatus)
	}
	s.events.Publish(models.EventTaskUpdated, replaced)
	return replaced, nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	err := s.tasks.DeleteTask(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return newError(ErrNotFound, msgTaskNotFound)
	}
	if err != nil {
		return fmt.Errorf("erro ao excluir tarefa %s: %w", id, err)
	}
	utilities.LogInfo("Tarefa %s excluída", id)
	s.events.Publish(models.EventTaskDeleted, id)
	return nil
}

// AddComment grava o comentário e cria notificações in-app para cada @Nome mencionado.
// Menções não vão para o chat; o comentário em si vai.
func (s *TaskService) AddComment(ctx context.Context, id, text string, actor Actor) (*models.Task, error) {
	if strings.TrimSpace(text) == "" {
		return nil, newError(ErrValidation, "O texto do comentário é obrigatório.")
	}
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		ID:        newID(),
		Text:      text,
		Author:    actor.DisplayName(),
		UserID:    actor.UserID,
		Timestamp: models.Timestamp(s.now()),
	}
	task.Comments = append(task.Comments, comment)

	replaced, err := s.replace(ctx, task, database.AnyVersion)
	if err != nil {
		return nil, err
	}

	s.notifyMentions(ctx, replaced, text, actor)
	s.chat.CommentAdded(actor.DisplayName(), replaced, comment)
	s.events.Publish(models.EventTaskUpdated, replaced)
	return replaced, nil
}

func (s *TaskService) notifyMentions(ctx context.Context, task *models.Task, text string, actor Actor) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		utilities.LogError(err, "Erro ao buscar usuários para menções")
		return
	}
	for _, u := range users {
		if u.Name == "" || u.Email == "" || !strings.Contains(text, "@"+u.Name) {
			continue
		}
		n := &models.Notification{
			ID:              newID(),
			TargetUserEmail: u.Email,
			Type:            models.NotificationMention,
			TaskID:          task.ID,
			TaskTitle:       task.Title,
			Message:         fmt.Sprintf("Você foi mencionado por %s", actor.DisplayName()),
			CommentPreview:  text,
			IsRead:          false,
			CreatedAt:       models.Timestamp(s.now()),
		}
		if err := s.notifications.CreateNotification(ctx, n); err != nil {
			utilities.LogError(err, fmt.Sprintf("Erro ao criar notificação de menção para %s", u.Email))
		}
	}
}

func (s *TaskService) DeleteComment(ctx context.Context, id string, ref CommentRef) (*models.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	idx := -1
	switch {
	case ref.CommentID != "":
		for i, c := range task.Comments {
			if c.ID == ref.CommentID {
				idx = i
				break
			}
		}
	case ref.Index != nil:
		idx = *ref.Index
	}
	if idx < 0 || idx >= len(task.Comments) {
		return nil, newError(ErrValidation, msgCommentNotFound)
	}
	task.Comments = append(task.Comments[:idx], task.Comments[idx+1:]...)

	replaced, err := s.replace(ctx, task, database.AnyVersion)
	if err != nil {
		return nil, err
	}
	s.events.Publish(models.EventTaskUpdated, replaced)
	return replaced, nil
}

// Reorder grava apenas o campo order, em lotes sequenciais, e avisa os clientes para recarregar.
func (s *TaskService) Reorder(ctx context.Context, items []models.OrderUpdate) error {
	patches := make([]database.FieldPatch, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			return newError(ErrValidation, "Todos os itens precisam de id.")
		}
		patches = append(patches, database.FieldPatch{ID: it.ID, Field: "order", Value: it.Order})
	}
	utilities.LogInfo("A atualizar a ordem de %d tarefas", len(patches))
	if err := s.tasks.PatchTasks(ctx, patches); err != nil {
		return fmt.Errorf("erro ao atualizar a ordem das tarefas: %w", err)
	}
	s.events.Publish(models.EventTasksReordered)
	return nil
}

// UpdateProjectColor troca a cor de todas as tarefas do projeto
func (s *TaskService) UpdateProjectColor(ctx context.Context, project, color string) error {
	if project == "" || color == "" {
		return newError(ErrValidation, "Nome do projeto e nova cor são obrigatórios.")
	}
	tasks, err := s.tasks.ListTasks(ctx, database.TaskQuery{Project: project})
	if err != nil {
		return fmt.Errorf("erro ao buscar tarefas do projeto %s: %w", project, err)
	}
	patches := make([]database.FieldPatch, 0, len(tasks))
	for _, t := range tasks {
		patches = append(patches, database.FieldPatch{ID: t.ID, Field: "projectColor", Value: color})
	}
	if err := s.tasks.PatchTasks(ctx, patches); err != nil {
		return fmt.Errorf("erro ao atualizar a cor do projeto %s: %w", project, err)
	}
	utilities.LogInfo("Cor do projeto '%s' atualizada para '%s' em %d tarefas", project, color, len(patches))
	s.events.Publish(models.EventTasksReordered)
	return nil
}

func (s *TaskService) replace(ctx context.Context, task *models.Task, ifVersion int64) (*models.Task, error) {
	replaced, err := s.tasks.ReplaceTask(ctx, task, ifVersion)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return nil, newError(ErrNotFound, msgTaskNotFound)
	case errors.Is(err, database.ErrConflict):
		return nil, newError(ErrConflict, "A tarefa foi alterada por outra pessoa. Recarregue e tente novamente.")
	case err != nil:
		return nil, fmt.Errorf("erro ao gravar tarefa %s: %w", task.ID, err)
	}
	return replaced, nil
}

// mergeTask aplica o payload sobre o JSON do documento atual, ignorando campos imutáveis
func mergeTask(existing *models.Task, payload map[string]json.RawMessage) (*models.Task, error) {
	raw, err := json.Marshal(existing)
	if err != nil {
		return nil, err
	}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for k, v := range payload {
		if immutableTaskKeys[k] {
			continue
		}
		doc[k] = v
	}
	raw, err = json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var merged models.Task
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	merged.ID = existing.ID
	merged.Version = existing.Version
	return &merged, nil
}

// hasEditKeys indica se o payload traz algo além de status (version não conta)
func hasEditKeys(payload map[string]json.RawMessage) bool {
	for k := range payload {
		if k != "status" && k != "version" {
			return true
		}
	}
	return false
}

func isJSONArray(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return strings.HasPrefix(s, "[")
}
