package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"syncboard/models"
	"syncboard/services"
)

// GetTasksHandler lista as tarefas ativas (status diferente de done)
func (h *Handlers) GetTasksHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListActive(r.Context())
	if err != nil {
		writeServiceError(w, err, "Erro ao listar tarefas")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handlers) GetArchivedTasksHandler(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListArchived(r.Context())
	if err != nil {
		writeServiceError(w, err, "Erro ao listar tarefas arquivadas")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handlers) GetTaskHandler(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err, "Erro ao buscar tarefa")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// CreateTaskHandler cria uma tarefa com o próximo id TC-NNN
func (h *Handlers) CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	var in services.CreateInput
	if !decodeBody(w, r, &in) {
		return
	}

	task, err := h.tasks.Create(r.Context(), in, actorFrom(r), services.SourceAPI)
	if err != nil {
		writeServiceError(w, err, "Erro ao criar tarefa")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// UpdateTaskHandler aplica um update parcial; "version" no corpo ativa a checagem de conflito.
func (h *Handlers) UpdateTaskHandler(w http.ResponseWriter, r *http.Request) {
	var payload map[string]json.RawMessage
	if !decodeBody(w, r, &payload) {
		return
	}

	task, err := h.tasks.Update(r.Context(), mux.Vars(r)["id"], payload, actorFrom(r))
	if err != nil {
		writeServiceError(w, err, "Erro ao atualizar tarefa")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handlers) DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err, "Erro ao excluir tarefa")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AddCommentHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	task, err := h.tasks.AddComment(r.Context(), mux.Vars(r)["id"], body.Text, actorFrom(r))
	if err != nil {
		writeServiceError(w, err, "Erro ao adicionar comentário")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handlers) DeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	var ref services.CommentRef
	if !decodeBody(w, r, &ref) {
		return
	}

	task, err := h.tasks.DeleteComment(r.Context(), mux.Vars(r)["id"], ref)
	if err != nil {
		writeServiceError(w, err, "Erro ao excluir comentário")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handlers) ReorderTasksHandler(w http.ResponseWriter, r *http.Request) {
	var items []models.OrderUpdate
	if !decodeBody(w, r, &items) {
		return
	}

	if err := h.tasks.Reorder(r.Context(), items); err != nil {
		writeServiceError(w, err, "Erro ao reordenar tarefas")
		return
	}
	writeMessage(w, http.StatusOK, "Ordem atualizada.")
}

func (h *Handlers) SignalTaskHandler(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.Signal(r.Context(), mux.Vars(r)["id"], actorFrom(r))
	if err != nil {
		writeServiceError(w, err, "Erro ao sinalizar tarefa")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handlers) DismissAlertHandler(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.DismissAlert(r.Context(), mux.Vars(r)["id"], actorFrom(r))
	if err != nil {
		writeServiceError(w, err, "Erro ao dispensar alerta")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// UpdateProjectColorHandler troca a cor de todas as tarefas de um projeto
func (h *Handlers) UpdateProjectColorHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProjectName string `json:"projectName"`
		NewColor    string `json:"newColor"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := h.tasks.UpdateProjectColor(r.Context(), body.ProjectName, body.NewColor); err != nil {
		writeServiceError(w, err, "Erro ao atualizar cor do projeto")
		return
	}
	writeMessage(w, http.StatusOK, "Cor do projeto atualizada.")
}
