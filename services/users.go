package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"syncboard/database"
	"syncboard/models"
	"syncboard/utilities"
)

// RolesResponse é a resposta do endpoint de roles consumido pela plataforma de hospedagem
type RolesResponse struct {
	Roles  []string          `json:"roles"`
	Claims map[string]string `json:"claims,omitempty"`
}

// AddUserInput é o corpo de POST /users
type AddUserInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// UserService gerencia a whitelist de usuários e a resolução de roles.
type UserService struct {
	users   database.UserStore
	appRole string
}

func NewUserService(users database.UserStore, appRole string) *UserService {
	return &UserService{users: users, appRole: appRole}
}

// AppRole é a role que libera o acesso ao quadro
func (s *UserService) AppRole() string { return s.appRole }

// List devolve a whitelist incluindo o usuário fictício DEFINIR
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar usuários: %w", err)
	}
	for _, u := range users {
		if u.Name == models.PlaceholderUserName {
			return users, nil
		}
	}
	return append(users, models.User{Name: models.PlaceholderUserName}), nil
}

// Members devolve só os usuários gravados, sem o placeholder
func (s *UserService) Members(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar usuários: %w", err)
	}
	return users, nil
}

func (s *UserService) Add(ctx context.Context, in AddUserInput, caller *models.Principal) (*models.User, error) {
	if !caller.HasRole(models.RoleAdmin) {
		return nil, newError(ErrForbidden, "Acesso negado. Apenas administradores podem adicionar utilizadores.")
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || strings.TrimSpace(in.Email) == "" {
		return nil, newError(ErrValidation, "Nome e e-mail são obrigatórios.")
	}

	id := models.UserID(in.Email)
	user := &models.User{ID: id, Email: id, Name: in.Name, Picture: "", IsAdmin: in.IsAdmin}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrAlreadyExists) {
			return nil, newError(ErrConflict, "Este utilizador já existe.")
		}
		return nil, fmt.Errorf("erro ao adicionar utilizador %s: %w", id, err)
	}
	utilities.LogInfo("Utilizador %s adicionado por %s", id, caller.UserDetails)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id string, caller *models.Principal) error {
	if !caller.HasRole(models.RoleAdmin) {
		return newError(ErrForbidden, "Acesso negado. Apenas administradores podem gerir utilizadores.")
	}
	id = models.UserID(id)
	if id == models.UserID(caller.UserDetails) {
		return newError(ErrValidation, "Não pode eliminar a sua própria conta.")
	}
	err := s.users.DeleteUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return newError(ErrNotFound, "Utilizador não encontrado.")
	}
	if err != nil {
		return fmt.Errorf("erro ao eliminar utilizador %s: %w", id, err)
	}
	utilities.LogInfo("Utilizador %s eliminado por %s", id, caller.UserDetails)
	return nil
}

// UpdatePhoto troca a foto do próprio usuário. Retorna changed=false quando a URL já era a mesma.
func (s *UserService) UpdatePhoto(ctx context.Context, login, pictureURL string) (changed bool, err error) {
	if strings.TrimSpace(pictureURL) == "" {
		return false, newError(ErrValidation, "URL da foto não fornecida.")
	}
	user, err := s.users.GetUser(ctx, models.UserID(login))
	if errors.Is(err, database.ErrNotFound) {
		return false, newError(ErrNotFound, "Usuário não encontrado no banco.")
	}
	if err != nil {
		return false, fmt.Errorf("erro ao buscar usuário %s: %w", login, err)
	}
	if user.Picture == pictureURL {
		return false, nil
	}
	user.Picture = pictureURL
	if err := s.users.PutUser(ctx, user); err != nil {
		return false, fmt.Errorf("erro ao atualizar foto de %s: %w", login, err)
	}
	return true, nil
}

// ResolveRoles decide as roles de um principal com base na whitelist. Usuários
// desconhecidos recebem só authenticated. Nome e foto do perfil são atualizados a
// partir dos claims, sem falhar a resolução em caso de erro.
func (s *UserService) ResolveRoles(ctx context.Context, p *models.Principal) (*RolesResponse, error) {
	anonymous := &RolesResponse{Roles: []string{models.RoleAuthenticated}}

	email := models.UserID(p.Email())
	if email == "" {
		utilities.LogWarn("Principal sem e-mail; retornando apenas authenticated")
		return anonymous, nil
	}

	user, err := s.users.GetUser(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		utilities.LogInfo("Usuário %s não está na whitelist", email)
		return anonymous, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar usuário %s: %w", email, err)
	}

	roles := []string{models.RoleAuthenticated, s.appRole}
	if user.IsAdmin {
		roles = append(roles, models.RoleAdmin)
	}

	name, picture := p.Claim("name"), p.Claim("picture")
	if (name != "" && name != user.Name) || (picture != "" && picture != user.Picture) {
		if name != "" {
			user.Name = name
		}
		if picture != "" {
			user.Picture = picture
		}
		if err := s.users.PutUser(ctx, user); err != nil {
			utilities.LogError(err, fmt.Sprintf("Erro ao atualizar perfil de %s", email))
		}
	}

	return &RolesResponse{
		Roles:  roles,
		Claims: map[string]string{"name": user.Name, "picture": user.Picture},
	}, nil
}

// Authorize substitui as roles do principal pelas resolvidas na whitelist. Roles
// declaradas pelo cliente no header não valem, exceto authenticated.
func (s *UserService) Authorize(ctx context.Context, p *models.Principal) error {
	resolved, err := s.ResolveRoles(ctx, p)
	if err != nil {
		return err
	}
	p.UserRoles = append([]string(nil), resolved.Roles...)
	return nil
}
