package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"syncboard/models"
)

// MemoryStore guarda os documentos em memória. Usado nos testes e em DOCUMENT_STORE=memory.
type MemoryStore struct {
	mu            sync.Mutex
	tasks         map[string]*models.Task
	counters      map[string]int64
	users         map[string]models.User
	notifications map[string]models.Notification
	aiHistory     []models.AIRequestHistoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:         make(map[string]*models.Task),
		counters:      make(map[string]int64),
		users:         make(map[string]models.User),
		notifications: make(map[string]models.Notification),
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

func (s *MemoryStore) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; ok {
		return ErrAlreadyExists
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

func (s *MemoryStore) ReplaceTask(ctx context.Context, task *models.Task, ifVersion int64) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.tasks[task.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if ifVersion >= 0 && current.Version != ifVersion {
		return nil, ErrConflict
	}
	stored := task.Clone()
	stored.Version = current.Version + 1
	s.tasks[task.ID] = stored
	return stored.Clone(), nil
}

func (s *MemoryStore) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *MemoryStore) ListTasks(ctx context.Context, q TaskQuery) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if q.Matches(t) {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) PatchTasks(ctx context.Context, patches []FieldPatch) error {
	for _, chunk := range Chunk(patches, MaxPatchBatch) {
		if err := s.applyChunk(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) applyChunk(chunk []FieldPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range chunk {
		t, ok := s.tasks[p.ID]
		if !ok {
			continue
		}
		patched, err := setField(t, p.Field, p.Value)
		if err != nil {
			return fmt.Errorf("patch %s.%s: %w", p.ID, p.Field, err)
		}
		patched.Version = t.Version + 1
		s.tasks[p.ID] = patched
	}
	return nil
}

// setField troca um campo de primeiro nível passando pelo JSON do documento
func setField(t *models.Task, field string, value interface{}) (*models.Task, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	doc[field] = value
	raw, err = json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out models.Task
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemoryStore) IncrementCounter(ctx context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.counters[id]
	if !ok {
		return 0, ErrNotFound
	}
	v++
	s.counters[id] = v
	return v, nil
}

func (s *MemoryStore) ProvisionCounter(ctx context.Context, id string, value int64, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.counters[id]; ok && !force {
		return ErrAlreadyExists
	}
	s.counters[id] = value
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return ErrAlreadyExists
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) PutUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[n.ID]; ok {
		return ErrAlreadyExists
	}
	s.notifications[n.ID] = *n
	return nil
}

func (s *MemoryStore) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &n, nil
}

func (s *MemoryStore) PutNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[n.ID] = *n
	return nil
}

func (s *MemoryStore) ListNotifications(ctx context.Context, email string) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.TargetUserEmail == email {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (s *MemoryStore) AddAIRequest(ctx context.Context, entry *models.AIRequestHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aiHistory = append(s.aiHistory, *entry)
	return nil
}

// AIRequests retorna o histórico de IA gravado (usado nos testes)
func (s *MemoryStore) AIRequests() []models.AIRequestHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AIRequestHistoryEntry(nil), s.aiHistory...)
}
