package database

import (
	"context"
	"errors"

	"syncboard/models"
)

// Nomes das coleções (ou "containers") do banco de documentos
const (
	CollectionTasks         = "tasks"
	CollectionCounters      = "counters"
	CollectionUsers         = "users"
	CollectionNotifications = "notifications"
	CollectionAIHistory     = "aiRequestHistory"
)

var (
	ErrNotFound      = errors.New("documento não encontrado")
	ErrAlreadyExists = errors.New("documento já existe")
	ErrConflict      = errors.New("versão do documento divergente")
)

// AnyVersion desliga a checagem de versão em ReplaceTask (last-write-wins).
const AnyVersion int64 = -1

// MaxPatchBatch é o limite de operações por lote em PatchTasks
const MaxPatchBatch = 100

// TaskQuery filtra ListTasks; campos vazios não filtram.
type TaskQuery struct {
	Status        string
	ExcludeStatus string
	Project       string
}

// Matches aplica o filtro a uma tarefa já carregada
func (q TaskQuery) Matches(t *models.Task) bool {
	if q.Status != "" && t.Status != q.Status {
		return false
	}
	if q.ExcludeStatus != "" && t.Status == q.ExcludeStatus {
		return false
	}
	if q.Project != "" && t.Project != q.Project {
		return false
	}
	return true
}

// FieldPatch altera um único campo de primeiro nível de uma tarefa
type FieldPatch struct {
	ID    string
	Field string
	Value interface{}
}

type TaskStore interface {
	GetTask(ctx context.Context, id string) (*models.Task, error)
	// CreateTask falha com ErrAlreadyExists se o id já estiver em uso
	CreateTask(ctx context.Context, task *models.Task) error
	// ReplaceTask grava o documento inteiro e incrementa Version. Com ifVersion >= 0 a
	// gravação só acontece se a versão armazenada for igual (senão ErrConflict).
	ReplaceTask(ctx context.Context, task *models.Task, ifVersion int64) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, q TaskQuery) ([]*models.Task, error)
	// PatchTasks aplica os patches em lotes de até MaxPatchBatch, um lote após o outro.
	// Ids inexistentes são ignorados.
	PatchTasks(ctx context.Context, patches []FieldPatch) error
}

type CounterStore interface {
	// IncrementCounter soma 1 atomicamente e retorna o novo valor; ErrNotFound se o contador não existe
	IncrementCounter(ctx context.Context, id string) (int64, error)
	// ProvisionCounter cria o contador; ErrAlreadyExists se já existir e force for falso
	ProvisionCounter(ctx context.Context, id string, value int64, force bool) error
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	PutUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id string) (*models.Notification, error)
	PutNotification(ctx context.Context, n *models.Notification) error
	// ListNotifications retorna as notificações do usuário, mais recentes primeiro
	ListNotifications(ctx context.Context, email string) ([]models.Notification, error)
}

type AIHistoryStore interface {
	AddAIRequest(ctx context.Context, entry *models.AIRequestHistoryEntry) error
}

// Store reúne todas as coleções usadas pelo servidor.
type Store interface {
	TaskStore
	CounterStore
	UserStore
	NotificationStore
	AIHistoryStore
	Close() error
}

// Chunk divide os patches em lotes de no máximo size itens
func Chunk(patches []FieldPatch, size int) [][]FieldPatch {
	if size <= 0 {
		size = MaxPatchBatch
	}
	var out [][]FieldPatch
	for len(patches) > 0 {
		n := min(size, len(patches))
		out = append(out, patches[:n])
		patches = patches[n:]
	}
	return out
}
