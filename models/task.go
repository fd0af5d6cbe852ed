package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status possíveis de uma tarefa no quadro
const (
	StatusTodo         = "todo"
	StatusStopped      = "stopped"
	StatusInProgress   = "inprogress"
	StatusHomologation = "homologation"
	StatusDone         = "done"

	// StatusEdited marca no histórico uma edição que não foi troca de status
	StatusEdited = "edited"
)

const (
	DefaultProjectColor = "#526D82"
	DefaultPriority     = "Média"
	DefaultProject      = "Geral"

	// CounterID é o id do documento que guarda o contador de tarefas
	CounterID = "taskCounter"
)

// Statuses na ordem das colunas do quadro
var Statuses = []string{StatusTodo, StatusStopped, StatusInProgress, StatusHomologation, StatusDone}

var statusLabels = map[string]string{
	StatusTodo:         "Fila",
	StatusStopped:      "Parado",
	StatusInProgress:   "Andamento",
	StatusHomologation: "Homologação",
	StatusDone:         "Concluída",
}

// StatusLabel retorna o rótulo exibido para um status; status desconhecido volta como veio.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// IsValidStatus indica se o status pertence ao fluxo do quadro
func IsValidStatus(status string) bool {
	_, ok := statusLabels[status]
	return ok
}

// FormatTaskID monta o id legível a partir do valor do contador
func FormatTaskID(n int64) string {
	return fmt.Sprintf("TC-%03d", n)
}

// Person é um responsável pela tarefa. Aceita tanto o objeto completo quanto apenas o nome.
type Person struct {
	Name    string `json:"name" firestore:"name"`
	Email   string `json:"email,omitempty" firestore:"email,omitempty"`
	Picture string `json:"picture,omitempty" firestore:"picture,omitempty"`
}

func (p *Person) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*p = Person{Name: name}
		return nil
	}
	type plain Person
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("responsável inválido: %w", err)
	}
	*p = Person(v)
	return nil
}

// Attachment referencia um arquivo enviado ao blob storage.
type Attachment struct {
	URL         string `json:"url" firestore:"url"`
	Name        string `json:"name,omitempty" firestore:"name,omitempty"`
	ContentType string `json:"contentType,omitempty" firestore:"contentType,omitempty"`
}

// UnmarshalJSON também aceita a referência crua (apenas a URL) de anexos antigos
func (a *Attachment) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var url string
		if err := json.Unmarshal(data, &url); err != nil {
			return err
		}
		*a = Attachment{URL: url, Name: url[strings.LastIndex(url, "/")+1:]}
		return nil
	}
	type plain Attachment
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Attachment(v)
	return nil
}

type Comment struct {
	ID        string `json:"id,omitempty" firestore:"id,omitempty"`
	Text      string `json:"text" firestore:"text"`
	Author    string `json:"author" firestore:"author"`
	UserID    string `json:"userId,omitempty" firestore:"userId,omitempty"`
	Timestamp string `json:"timestamp" firestore:"timestamp"`
}

type HistoryEntry struct {
	Status    string `json:"status" firestore:"status"`
	Timestamp string `json:"timestamp" firestore:"timestamp"`
}

// Task é o documento principal do quadro; o id do documento é o próprio ID.
type Task struct {
	ID            string         `json:"id" firestore:"id"`
	NumericID     int64          `json:"numericId,omitempty" firestore:"numericId,omitempty"`
	Title         string         `json:"title" firestore:"title"`
	Description   string         `json:"description" firestore:"description"`
	Responsible   []Person       `json:"responsible" firestore:"responsible"`
	AzureLink     string         `json:"azureLink" firestore:"azureLink"`
	Project       string         `json:"project" firestore:"project"`
	ProjectColor  string         `json:"projectColor" firestore:"projectColor"`
	Priority      string         `json:"priority" firestore:"priority"`
	Status        string         `json:"status" firestore:"status"`
	Order         float64        `json:"order" firestore:"order"`
	DueDate       *string        `json:"dueDate" firestore:"dueDate"`
	Attachments   []Attachment   `json:"attachments" firestore:"attachments"`
	Comments      []Comment      `json:"comments,omitempty" firestore:"comments,omitempty"`
	History       []HistoryEntry `json:"history" firestore:"history"`
	PendingAlerts []string       `json:"pendingAlerts,omitempty" firestore:"pendingAlerts,omitempty"`
	CreatedAt     string         `json:"createdAt" firestore:"createdAt"`
	CreatedBy     string         `json:"createdBy" firestore:"createdBy"`
	Version       int64          `json:"version" firestore:"version"`
}

// ResponsibleNames retorna os nomes dos responsáveis na ordem em que aparecem
func (t *Task) ResponsibleNames() []string {
	names := make([]string, 0, len(t.Responsible))
	for _, p := range t.Responsible {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	return names
}

// IsOverdue indica se o prazo já passou (antes de hoje em UTC) para uma tarefa em andamento.
// Tarefas na fila ou concluídas nunca ficam atrasadas.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || *t.DueDate == "" {
		return false
	}
	switch t.Status {
	case StatusStopped, StatusInProgress, StatusHomologation:
	default:
		return false
	}
	due, ok := ParseDueDate(*t.DueDate)
	if !ok {
		return false
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return due.Before(today)
}

// ParseDueDate interpreta a data de entrega em formato ISO, com ou sem horário.
func ParseDueDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d.UTC(), true
		}
	}
	return time.Time{}, false
}

// Clone faz uma cópia profunda da tarefa
func (t *Task) Clone() *Task {
	c := *t
	c.Responsible = append([]Person(nil), t.Responsible...)
	c.Attachments = append([]Attachment(nil), t.Attachments...)
	c.Comments = append([]Comment(nil), t.Comments...)
	c.History = append([]HistoryEntry(nil), t.History...)
	c.PendingAlerts = append([]string(nil), t.PendingAlerts...)
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if c.Responsible == nil {
		c.Responsible = []Person{}
	}
	if c.Attachments == nil {
		c.Attachments = []Attachment{}
	}
	return &c
}

// OrderUpdate é um item do corpo de POST /tasks/reorder
type OrderUpdate struct {
	ID    string  `json:"id"`
	Order float64 `json:"order"`
}

// Timestamp formata o instante como as datas gravadas nos documentos
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
