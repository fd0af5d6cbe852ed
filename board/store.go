// Package board mantém o cache local do quadro: aplica os eventos do servidor,
// filtra e ordena as visões e reconcilia o drag-and-drop de forma otimista.
package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"syncboard/models"
	"syncboard/utilities"
)

// ErrClosed é retornado por operações em um Store já encerrado
var ErrClosed = errors.New("board: store encerrado")

// API é o subconjunto do servidor que o Store consome
type API interface {
	ListActive(ctx context.Context) ([]*models.Task, error)
	UpdateTask(ctx context.Context, id string, payload map[string]interface{}) (*models.Task, error)
	Reorder(ctx context.Context, items []models.OrderUpdate) error
}

// Colunas do Kanban; done fica só na visão de arquivadas.
var KanbanStatuses = []string{models.StatusTodo, models.StatusStopped, models.StatusInProgress, models.StatusHomologation}

type SortKey string

const (
	SortCreatedAt SortKey = "createdAt"
	SortDueDate   SortKey = "dueDate"
	SortTitle     SortKey = "title"
	SortStatus    SortKey = "status"
	SortOrder     SortKey = "order"
)

type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

const (
	ViewKanban = "kanban"
	ViewList   = "list"
)

// ViewState é o estado de UI: visão atual, filtros, busca e ordenação.
// Project e Responsible vazios significam "todos".
type ViewState struct {
	View        string
	Project     string
	Responsible string
	Search      string
	SortBy      SortKey
	SortDir     SortDirection
}

func defaultViewState() ViewState {
	return ViewState{View: ViewKanban, SortBy: SortCreatedAt, SortDir: Desc}
}

// Column é uma coluna do Kanban já filtrada e ordenada por order
type Column struct {
	Status string
	Label  string
	Tasks  []*models.Task
}

// Store guarda as tarefas ativas. Criado por NewStore, preenchido por Load e
// encerrado por Close; é passado explicitamente para os renderizadores.
type Store struct {
	mu       sync.Mutex
	api      API
	tasks    []*models.Task
	state    ViewState
	closed   bool
	onChange func()
}

func NewStore(api API) *Store {
	return &Store{api: api, state: defaultViewState()}
}

// OnChange registra o callback chamado após cada mudança no cache
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Load busca todas as tarefas ativas e substitui o cache.
func (s *Store) Load(ctx context.Context) error {
	tasks, err := s.api.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("erro ao carregar tarefas: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.tasks = tasks
	s.mu.Unlock()

	s.changed()
	return nil
}

// Close descarta o cache; o Store não aceita mais eventos.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.tasks = nil
	s.onChange = nil
	s.mu.Unlock()
}

func (s *Store) changed() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Apply aplica um evento do canal de tempo real ao cache.
func (s *Store) Apply(ctx context.Context, target string, args []json.RawMessage) error {
	if target == models.EventTasksReordered {
		// o evento não traz delta: busca a lista inteira
		return s.Load(ctx)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	err := s.applyLocked(target, args)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.changed()
	return nil
}

func (s *Store) applyLocked(target string, args []json.RawMessage) error {
	if len(args) == 0 {
		return fmt.Errorf("evento %s sem argumentos", target)
	}

	switch target {
	case models.EventTaskCreated:
		var task models.Task
		if err := json.Unmarshal(args[0], &task); err != nil {
			return fmt.Errorf("taskCreated inválido: %w", err)
		}
		s.tasks = append(s.tasks, &task)

	case models.EventTaskUpdated:
		var task models.Task
		if err := json.Unmarshal(args[0], &task); err != nil {
			return fmt.Errorf("taskUpdated inválido: %w", err)
		}
		// sem inserção implícita: id desconhecido é ignorado
		if i := s.indexLocked(task.ID); i >= 0 {
			s.tasks[i] = &task
		}

	case models.EventTaskDeleted:
		var id string
		if err := json.Unmarshal(args[0], &id); err != nil {
			return fmt.Errorf("taskDeleted inválido: %w", err)
		}
		kept := make([]*models.Task, 0, len(s.tasks))
		for _, t := range s.tasks {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		s.tasks = kept

	default:
		utilities.LogDebug("Evento desconhecido ignorado: %s", target)
	}
	return nil
}

func (s *Store) indexLocked(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Tasks devolve cópias de todas as tarefas do cache
func (s *Store) Tasks() []*models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (s *Store) Task(id string) (*models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return nil, false
}

func (s *Store) State() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) SetView(view string) {
	s.mu.Lock()
	s.state.View = view
	s.mu.Unlock()
}

// SetFilters troca os filtros de projeto, responsável e busca
func (s *Store) SetFilters(project, responsible, search string) {
	s.mu.Lock()
	s.state.Project = project
	s.state.Responsible = responsible
	s.state.Search = search
	s.mu.Unlock()
}

// ToggleSort inverte a direção quando a chave já é a atual. Em uma chave nova,
// título e status começam ascendentes e as datas descendentes.
func (s *Store) ToggleSort(key SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.SortBy == key {
		if s.state.SortDir == Asc {
			s.state.SortDir = Desc
		} else {
			s.state.SortDir = Asc
		}
		return
	}
	s.state.SortBy = key
	if key == SortTitle || key == SortStatus {
		s.state.SortDir = Asc
	} else {
		s.state.SortDir = Desc
	}
}

// visibleLocked aplica os filtros e descarta as tarefas concluídas.
func (s *Store) visibleLocked() []*models.Task {
	project := strings.ToLower(strings.TrimSpace(s.state.Project))
	responsible := strings.ToLower(strings.TrimSpace(s.state.Responsible))
	query := strings.ToLower(s.state.Search)

	var out []*models.Task
	for _, t := range s.tasks {
		if t.Status == models.StatusDone {
			continue
		}
		if project != "" && strings.ToLower(strings.TrimSpace(t.Project)) != project {
			continue
		}
		if responsible != "" && !hasResponsible(t, responsible) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(t.Title), query) && !strings.Contains(strings.ToLower(t.ID), query) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func hasResponsible(t *models.Task, name string) bool {
	for _, n := range t.ResponsibleNames() {
		if strings.ToLower(strings.TrimSpace(n)) == name {
			return true
		}
	}
	return false
}

// Columns monta as colunas do Kanban com as tarefas visíveis ordenadas por order.
func (s *Store) Columns() []Column {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.columnsLocked()
}

func (s *Store) columnsLocked() []Column {
	visible := s.visibleLocked()
	cols := make([]Column, 0, len(KanbanStatuses))
	for _, status := range KanbanStatuses {
		col := Column{Status: status, Label: models.StatusLabel(status)}
		for _, t := range visible {
			if t.Status == status {
				col.Tasks = append(col.Tasks, t.Clone())
			}
		}
		sort.SliceStable(col.Tasks, func(i, j int) bool { return col.Tasks[i].Order < col.Tasks[j].Order })
		cols = append(cols, col)
	}
	return cols
}

// List devolve as tarefas visíveis na ordenação escolhida.
func (s *Store) List() []*models.Task {
	s.mu.Lock()
	visible := s.visibleLocked()
	by, dir := s.state.SortBy, s.state.SortDir
	out := make([]*models.Task, len(visible))
	for i, t := range visible {
		out[i] = t.Clone()
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		c := compareTasks(out[i], out[j], by)
		if dir == Asc {
			return c < 0
		}
		return c > 0
	})
	return out
}

// sem prazo vai para o fim na ordenação ascendente
var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

func compareTasks(a, b *models.Task, by SortKey) int {
	switch by {
	case SortCreatedAt:
		return compareTime(parseTime(a.CreatedAt), parseTime(b.CreatedAt))
	case SortDueDate:
		return compareTime(dueOrFar(a), dueOrFar(b))
	case SortTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortStatus:
		return strings.Compare(strings.ToLower(a.Status), strings.ToLower(b.Status))
	default:
		switch {
		case a.Order < b.Order:
			return -1
		case a.Order > b.Order:
			return 1
		}
		return 0
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func dueOrFar(t *models.Task) time.Time {
	if t.DueDate == nil {
		return farFuture
	}
	if due, ok := models.ParseDueDate(*t.DueDate); ok {
		return due
	}
	return farFuture
}

// Projects lista os projetos distintos do cache, ordenados
func (s *Store) Projects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, t := range s.tasks {
		if t.Project != "" && !seen[t.Project] {
			seen[t.Project] = true
			out = append(out, t.Project)
		}
	}
	sort.Strings(out)
	return out
}
