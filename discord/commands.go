package discord

import (
	"fmt"

	"syncboard/utilities"

	"github.com/bwmarrin/discordgo"
)

// Nomes dos comandos e opções
const (
	CommandPing          = "ping"
	CommandAlmostReady   = "taquasepronto"
	CommandWaitingForYou = "estamossoporti"
	CommandNewTask       = "novatarefa"

	OptionUser        = "usuario"
	OptionTitle       = "titulo"
	OptionDescription = "descricao"
	OptionResponsible = "responsavel"
	OptionProject     = "projeto"
)

// Commands é o catálogo de slash commands registrado na aplicação
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        CommandPing,
			Description: "Verifica se o bot está a responder.",
		},
		{
			Name:        CommandAlmostReady,
			Description: "Envia uma mensagem de cobrança sobre prazos.",
		},
		{
			Name:        CommandWaitingForYou,
			Description: "Avisa alguém que a reunião está à espera dele.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        OptionUser,
					Description: "Quem é que está atrasado?",
					Required:    true,
				},
			},
		},
		{
			Name:        CommandNewTask,
			Description: "Cria uma nova tarefa no quadro SyncBoard.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        OptionTitle,
					Description: "O título da nova tarefa.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        OptionDescription,
					Description: "A descrição detalhada da tarefa.",
					Required:    true,
				},
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         OptionResponsible,
					Description:  "A quem a tarefa deve ser atribuída (comece a digitar para ver as opções).",
					Required:     true,
					Autocomplete: true,
				},
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         OptionProject,
					Description:  "O projeto ao qual a tarefa pertence (comece a digitar para ver as opções).",
					Required:     false,
					Autocomplete: true,
				},
			},
		},
	}
}

// CommandRegistrar é a parte da sessão do discordgo usada no registro
type CommandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// NewSession abre uma sessão REST com o token do bot
func NewSession(botToken string) (*discordgo.Session, error) {
	if botToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN não configurado")
	}
	return discordgo.New("Bot " + botToken)
}

// RegisterCommands sobrescreve os comandos da aplicação. guildID vazio registra globalmente.
func RegisterCommands(s CommandRegistrar, appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	if appID == "" {
		return nil, fmt.Errorf("DISCORD_APP_ID não configurado")
	}
	registered, err := s.ApplicationCommandBulkOverwrite(appID, guildID, Commands())
	if err != nil {
		return nil, fmt.Errorf("erro ao registar os comandos: %w", err)
	}
	scope := "globalmente"
	if guildID != "" {
		scope = "no servidor " + guildID
	}
	utilities.LogInfo("%d comandos registados %s", len(registered), scope)
	return registered, nil
}
