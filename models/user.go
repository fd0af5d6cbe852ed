package models

import "strings"

// PlaceholderUserName é o usuário fictício usado para tarefas ainda sem dono
const PlaceholderUserName = "DEFINIR"

// User é um membro da whitelist; o id é o e-mail em minúsculas.
type User struct {
	ID      string `json:"id,omitempty" firestore:"id"`
	Email   string `json:"email" firestore:"email"`
	Name    string `json:"name" firestore:"name"`
	Picture string `json:"picture" firestore:"picture"`
	IsAdmin bool   `json:"isAdmin" firestore:"isAdmin"`
}

// UserID normaliza um e-mail para a chave da coleção de usuários
func UserID(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AsPerson converte o usuário na referência usada em Task.Responsible
func (u User) AsPerson() Person {
	return Person{Name: u.Name, Email: u.Email, Picture: u.Picture}
}

// Notification é um aviso in-app (por enquanto só menções em comentários).
type Notification struct {
	ID              string `json:"id" firestore:"id"`
	TargetUserEmail string `json:"targetUserEmail" firestore:"targetUserEmail"`
	Type            string `json:"type" firestore:"type"`
	TaskID          string `json:"taskId" firestore:"taskId"`
	TaskTitle       string `json:"taskTitle" firestore:"taskTitle"`
	Message         string `json:"message" firestore:"message"`
	CommentPreview  string `json:"commentPreview" firestore:"commentPreview"`
	IsRead          bool   `json:"isRead" firestore:"isRead"`
	CreatedAt       string `json:"createdAt" firestore:"createdAt"`
}

const NotificationMention = "mention"
