package models

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"
)

const (
	RoleAuthenticated = "authenticated"
	RoleAdmin         = "admin"

	claimEmailAddress = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
)

type Claim struct {
	Typ string `json:"typ"`
	Val string `json:"val"`
}

// Principal é a identidade injetada pela plataforma de hospedagem no header x-ms-client-principal.
type Principal struct {
	IdentityProvider string   `json:"identityProvider,omitempty"`
	UserID           string   `json:"userId,omitempty"`
	UserDetails      string   `json:"userDetails"`
	UserRoles        []string `json:"userRoles"`
	Claims           []Claim  `json:"claims,omitempty"`
}

// DecodePrincipal decodifica o header base64 com o JSON do principal
func DecodePrincipal(header string) (*Principal, error) {
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, fmt.Errorf("principal com base64 inválido: %w", err)
	}
	var p Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("principal com JSON inválido: %w", err)
	}
	return &p, nil
}

// Encode gera o valor do header para o principal (usado pelo cliente e nos testes)
func (p *Principal) Encode() string {
	raw, _ := json.Marshal(p)
	return base64.StdEncoding.EncodeToString(raw)
}

func (p *Principal) HasRole(role string) bool {
	return p != nil && slices.Contains(p.UserRoles, role)
}

// Claim retorna o valor do primeiro claim do tipo informado
func (p *Principal) Claim(typ string) string {
	if p == nil {
		return ""
	}
	for _, c := range p.Claims {
		if c.Typ == typ {
			return c.Val
		}
	}
	return ""
}

// Email resolve o e-mail pelo userDetails, depois pelos claims de e-mail.
func (p *Principal) Email() string {
	if p == nil {
		return ""
	}
	if p.UserDetails != "" {
		return p.UserDetails
	}
	if v := p.Claim(claimEmailAddress); v != "" {
		return v
	}
	return p.Claim("email")
}
