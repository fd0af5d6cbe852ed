package models

import "time"

// AIServiceImproveTitle identifica no histórico as reescritas de título
const AIServiceImproveTitle = "improve_title"

// AIRequestHistoryEntry representa um registro de requisição à IA na coleção aiRequestHistory.
type AIRequestHistoryEntry struct {
	ID            string    `json:"id" firestore:"id"`
	UserEmail     string    `json:"user_email" firestore:"user_email"`             // quem fez a requisição
	AIServiceType string    `json:"ai_service_type" firestore:"ai_service_type"`   // ex: "improve_title"
	Model         string    `json:"model" firestore:"model"`                       // modelo Gemini usado
	Timestamp     time.Time `json:"timestamp" firestore:"timestamp"`               // o SDK converte para Timestamp do Firestore
	Request       any       `json:"request" firestore:"request"`                   // payload que o frontend enviou
	Prompt        string    `json:"prompt" firestore:"prompt"`                     // prompt enviado ao modelo
	Response      string    `json:"response,omitempty" firestore:"response,omitempty"`
	AIError       string    `json:"ai_error,omitempty" firestore:"ai_error,omitempty"` // mensagem de erro, se a chamada falhou
}

// Para reescrita de título
type ImproveTitleRequest struct {
	CurrentTitle    string `json:"currentTitle"`
	UserInstruction string `json:"userInstruction"`
}

type ImproveTitleResponse struct {
	Title string `json:"title"`
}
