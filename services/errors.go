package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("não encontrado")
	ErrValidation  = errors.New("requisição inválida")
	ErrForbidden   = errors.New("acesso negado")
	ErrConflict    = errors.New("conflito")
	ErrUnavailable = errors.New("recurso não configurado")
)

// UserError carrega a mensagem que deve chegar ao cliente, mantendo o tipo do erro para errors.Is.
type UserError struct {
	Kind    error
	Message string
}

func (e *UserError) Error() string { return fmt.Sprintf("%v: %s", e.Kind, e.Message) }
func (e *UserError) Unwrap() error { return e.Kind }

func newError(kind error, msg string) error {
	return &UserError{Kind: kind, Message: msg}
}

// UserMessage extrai a mensagem para o cliente; vazio se o erro não tiver uma.
func UserMessage(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return ""
}
