package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"syncboard/models"
	"syncboard/services"
)

func (h *Handlers) GetUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "Erro ao listar usuários")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// AddUserHandler inclui um e-mail na whitelist (somente admin)
func (h *Handlers) AddUserHandler(w http.ResponseWriter, r *http.Request) {
	var in services.AddUserInput
	if !decodeBody(w, r, &in) {
		return
	}

	user, err := h.users.Add(r.Context(), in, PrincipalFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err, "Erro ao adicionar usuário")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handlers) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), mux.Vars(r)["id"], PrincipalFrom(r.Context())); err != nil {
		writeServiceError(w, err, "Erro ao remover usuário")
		return
	}
	writeMessage(w, http.StatusOK, "Usuário removido.")
}

func (h *Handlers) UpdatePhotoHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PictureURL string `json:"pictureUrl"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	changed, err := h.users.UpdatePhoto(r.Context(), PrincipalFrom(r.Context()).UserDetails, body.PictureURL)
	if err != nil {
		writeServiceError(w, err, "Erro ao atualizar foto")
		return
	}
	if !changed {
		writeMessage(w, http.StatusOK, "Foto já está atualizada.")
		return
	}
	writeMessage(w, http.StatusOK, "Foto atualizada.")
}

// GetRolesHandler é chamado pela plataforma de hospedagem com o principal no corpo.
func (h *Handlers) GetRolesHandler(w http.ResponseWriter, r *http.Request) {
	var principal models.Principal
	if !decodeBody(w, r, &principal) {
		return
	}

	resp, err := h.users.ResolveRoles(r.Context(), &principal)
	if err != nil {
		writeServiceError(w, err, "Erro ao resolver roles")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.notifications.List(r.Context(), PrincipalFrom(r.Context()).UserDetails)
	if err != nil {
		writeServiceError(w, err, "Erro ao listar notificações")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), body.ID, PrincipalFrom(r.Context()).UserDetails); err != nil {
		writeServiceError(w, err, "Erro ao marcar notificação como lida")
		return
	}
	writeMessage(w, http.StatusOK, "Notificação lida.")
}
