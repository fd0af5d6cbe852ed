package models

// Eventos enviados aos clientes conectados
const (
	EventTaskCreated    = "taskCreated"
	EventTaskUpdated    = "taskUpdated"
	EventTaskDeleted    = "taskDeleted"
	EventTasksReordered = "tasksReordered"
)

// Message é o frame JSON trafegado no canal de tempo real.
type Message struct {
	Target    string        `json:"target"`
	Arguments []interface{} `json:"arguments"`
}
