package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"syncboard/models"
	"syncboard/services"
	"syncboard/utilities"
)

// PrincipalHeader é o header em que a plataforma de hospedagem injeta a identidade
const PrincipalHeader = "x-ms-client-principal"

// TokenVerifier valida um ID token recebido como "Authorization: Bearer"
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*models.Principal, error)
}

type principalKey struct{}

var errNoCredentials = errors.New("credenciais ausentes")

// PrincipalFrom recupera o principal colocado no contexto pelo AuthMiddleware
func PrincipalFrom(ctx context.Context) *models.Principal {
	p, _ := ctx.Value(principalKey{}).(*models.Principal)
	return p
}

func actorFrom(r *http.Request) services.Actor {
	return services.ActorFromPrincipal(PrincipalFrom(r.Context()))
}

// authenticate lê o principal do header da plataforma ou, na falta dele, valida o Bearer token.
func (h *Handlers) authenticate(r *http.Request) (*models.Principal, error) {
	if header := r.Header.Get(PrincipalHeader); header != "" {
		return models.DecodePrincipal(header)
	}

	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, errNoCredentials
	}
	if h.verifier == nil {
		return nil, errors.New("validação de token não configurada")
	}
	return h.verifier.VerifyIDToken(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
}

// AuthMiddleware exige um principal com a role da aplicação. As roles sempre vêm
// da whitelist, nunca do header enviado pelo cliente.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := h.authenticate(r)
		if err != nil {
			if !errors.Is(err, errNoCredentials) {
				utilities.LogWarn("Autenticação falhou para %s %s: %v", r.Method, r.URL.Path, err)
			}
			http.Error(w, "Não autorizado", http.StatusUnauthorized)
			return
		}
		if principal.Email() == "" {
			http.Error(w, "Não autorizado", http.StatusUnauthorized)
			return
		}
		if principal.UserDetails == "" {
			principal.UserDetails = principal.Email()
		}

		if err := h.users.Authorize(r.Context(), principal); err != nil {
			utilities.LogError(err, "Erro ao resolver roles do usuário")
			http.Error(w, "Erro interno.", http.StatusInternalServerError)
			return
		}
		if !principal.HasRole(h.users.AppRole()) {
			utilities.LogInfo("Usuário %s sem acesso à aplicação", principal.UserDetails)
			http.Error(w, "Acesso negado.", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
