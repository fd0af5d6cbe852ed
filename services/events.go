package services

import (
	"syncboard/models"
)

// Publisher envia eventos aos clientes conectados (best effort, sem replay).
type Publisher interface {
	Publish(event string, args ...interface{})
}

// ChatNotifier posta mensagens no canal do time. As implementações não bloqueiam
// e nunca devolvem erro ao chamador.
type ChatNotifier interface {
	TaskCreated(actor string, task *models.Task)
	StatusChanged(task *models.Task, status string)
	CommentAdded(actor string, task *models.Task, comment models.Comment)
	TaskSignaled(actor string, task *models.Task, names []string)
	OverdueDigest(tasks []*models.Task)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, ...interface{}) {}

type nopChat struct{}

func (nopChat) TaskCreated(string, *models.Task) {}
func (nopChat) StatusChanged(*models.Task, string) {}
func (nopChat) CommentAdded(string, *models.Task, models.Comment) {}
func (nopChat) TaskSignaled(string, *models.Task, []string) {}
func (nopChat) OverdueDigest([]*models.Task) {}

// Actor é quem executa a operação
type Actor struct {
	Login  string // userDetails do principal (normalmente o e-mail)
	UserID string
	Name   string // claim "name", quando existir
}

func ActorFromPrincipal(p *models.Principal) Actor {
	if p == nil {
		return Actor{}
	}
	return Actor{Login: p.UserDetails, UserID: p.UserID, Name: p.Claim("name")}
}

// DisplayName prefere o nome do claim e cai para o login
func (a Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Login
}
