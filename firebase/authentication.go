package firebase

import (
	"context"
	"fmt"

	"syncboard/models"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
)

// TokenVerifier valida ID tokens do Firebase enviados como "Authorization: Bearer".
type TokenVerifier struct {
	client *auth.Client
}

func NewTokenVerifier(ctx context.Context, app *firebase.App) (*TokenVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao obter cliente de Auth: %w", err)
	}
	return &TokenVerifier{client: client}, nil
}

// VerifyIDToken valida o token e monta o principal equivalente ao do header da plataforma.
// Os papéis ficam só com "authenticated"; o restante é resolvido pela whitelist.
func (v *TokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*models.Principal, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("erro ao verificar token: %w", err)
	}
	return PrincipalFromToken(token), nil
}

func PrincipalFromToken(token *auth.Token) *models.Principal {
	email, _ := token.Claims["email"].(string)
	p := &models.Principal{
		IdentityProvider: "firebase",
		UserID:           token.UID,
		UserDetails:      email,
		UserRoles:        []string{models.RoleAuthenticated},
	}
	for _, typ := range []string{"name", "picture", "email"} {
		if val, ok := token.Claims[typ].(string); ok && val != "" {
			p.Claims = append(p.Claims, models.Claim{Typ: typ, Val: val})
		}
	}
	return p
}
