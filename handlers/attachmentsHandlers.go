package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"syncboard/services"
	"syncboard/utilities"
)

const maxUploadMemory = 32 << 20

// UploadAttachmentHandler recebe um multipart com o campo "file" e devolve {url, name, contentType}.
func (h *Handlers) UploadAttachmentHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, "Formato multipart inválido.", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Nenhum arquivo enviado.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	attachment, err := h.attachments.Upload(r.Context(), header.Filename, contentType, file)
	if err != nil {
		if services.UserMessage(err) != "" {
			writeServiceError(w, err, "Erro ao processar o arquivo")
			return
		}
		utilities.LogError(err, "Erro ao processar o arquivo "+header.Filename)
		http.Error(w, "Erro ao processar o arquivo.", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, attachment)
}

// DeleteAttachmentHandler é idempotente: blob inexistente também responde 200.
func (h *Handlers) DeleteAttachmentHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.attachments.Delete(r.Context(), mux.Vars(r)["name"]); err != nil {
		utilities.LogError(err, "Erro ao eliminar o anexo")
		http.Error(w, "Erro ao eliminar o anexo.", http.StatusInternalServerError)
		return
	}
	writeMessage(w, http.StatusOK, "Anexo eliminado.")
}
