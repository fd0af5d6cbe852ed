package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"syncboard/flows"
	"syncboard/services"
	"syncboard/utilities"
)

// Deps reúne os serviços usados pelas rotas. Realtime e Interactions são opcionais.
type Deps struct {
	Tasks         *services.TaskService
	Users         *services.UserService
	Notifications *services.NotificationService
	Attachments   *services.AttachmentService
	Titles        *flows.TitleFlow
	Verifier      TokenVerifier
	Realtime      http.Handler
	Interactions  http.Handler
}

type Handlers struct {
	tasks         *services.TaskService
	users         *services.UserService
	notifications *services.NotificationService
	attachments   *services.AttachmentService
	titles        *flows.TitleFlow
	verifier      TokenVerifier
	realtime      http.Handler
	interactions  http.Handler
}

func New(d Deps) *Handlers {
	if d.Titles == nil {
		d.Titles = flows.NewTitleFlow(nil, nil)
	}
	return &Handlers{
		tasks:         d.Tasks,
		users:         d.Users,
		notifications: d.Notifications,
		attachments:   d.Attachments,
		titles:        d.Titles,
		verifier:      d.Verifier,
		realtime:      d.Realtime,
		interactions:  d.Interactions,
	}
}

// Register configura todas as rotas da API no router.
func (h *Handlers) Register(r *mux.Router) {
	// Rotas públicas
	r.HandleFunc("/roles", h.GetRolesHandler).Methods("POST")
	if h.interactions != nil {
		r.Handle("/discord/interactions", h.interactions).Methods("POST")
	}

	// Rotas protegidas
	api := r.NewRoute().Subrouter()
	api.Use(h.AuthMiddleware)

	// archived e reorder antes de {id}
	api.HandleFunc("/tasks", h.GetTasksHandler).Methods("GET")
	api.HandleFunc("/tasks", h.CreateTaskHandler).Methods("POST")
	api.HandleFunc("/tasks/archived", h.GetArchivedTasksHandler).Methods("GET")
	api.HandleFunc("/tasks/reorder", h.ReorderTasksHandler).Methods("POST")
	api.HandleFunc("/tasks/{id}", h.GetTaskHandler).Methods("GET")
	api.HandleFunc("/tasks/{id}", h.UpdateTaskHandler).Methods("PUT")
	api.HandleFunc("/tasks/{id}", h.DeleteTaskHandler).Methods("DELETE")
	api.HandleFunc("/tasks/{id}/comments", h.AddCommentHandler).Methods("POST")
	api.HandleFunc("/tasks/{id}/comments", h.DeleteCommentHandler).Methods("DELETE")
	api.HandleFunc("/tasks/{id}/signal", h.SignalTaskHandler).Methods("POST")
	api.HandleFunc("/tasks/{id}/dismiss-alert", h.DismissAlertHandler).Methods("POST")
	api.HandleFunc("/projects/color", h.UpdateProjectColorHandler).Methods("POST")

	api.HandleFunc("/users", h.GetUsersHandler).Methods("GET")
	api.HandleFunc("/users", h.AddUserHandler).Methods("POST")
	api.HandleFunc("/users/photo", h.UpdatePhotoHandler).Methods("POST")
	api.HandleFunc("/users/{id}", h.DeleteUserHandler).Methods("DELETE")

	api.HandleFunc("/notifications", h.GetNotificationsHandler).Methods("GET")
	api.HandleFunc("/notifications/read", h.MarkNotificationReadHandler).Methods("POST")

	api.HandleFunc("/attachments", h.UploadAttachmentHandler).Methods("POST")
	api.HandleFunc("/attachments/{name}", h.DeleteAttachmentHandler).Methods("DELETE")

	api.HandleFunc("/ai/improve-title", h.ImproveTitleHandler).Methods("POST")

	if h.realtime != nil {
		api.Handle("/realtime", h.realtime).Methods("GET")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utilities.LogError(err, "Erro ao codificar resposta JSON")
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeServiceError traduz os erros dos serviços em status HTTP.
func writeServiceError(w http.ResponseWriter, err error, logContext string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		http.Error(w, services.UserMessage(err), http.StatusNotFound)
	case errors.Is(err, services.ErrValidation):
		http.Error(w, services.UserMessage(err), http.StatusBadRequest)
	case errors.Is(err, services.ErrForbidden):
		http.Error(w, services.UserMessage(err), http.StatusForbidden)
	case errors.Is(err, services.ErrConflict):
		http.Error(w, services.UserMessage(err), http.StatusConflict)
	case errors.Is(err, services.ErrUnavailable):
		http.Error(w, services.UserMessage(err), http.StatusInternalServerError)
	default:
		utilities.LogError(err, logContext)
		http.Error(w, "Erro interno.", http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Corpo da requisição inválido.", http.StatusBadRequest)
		return false
	}
	return true
}
