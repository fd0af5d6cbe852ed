package handlers

import (
	"net/http"

	"syncboard/models"
)

// ImproveTitleHandler reescreve o título de uma tarefa para uma linguagem de negócio.
func (h *Handlers) ImproveTitleHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ImproveTitleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.titles.ImproveTitle(r.Context(), req, PrincipalFrom(r.Context()).Email())
	if err != nil {
		writeServiceError(w, err, "Erro ao melhorar título")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
