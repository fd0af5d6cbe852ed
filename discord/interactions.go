package discord

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"syncboard/models"
	"syncboard/services"
	"syncboard/utilities"

	"github.com/bwmarrin/discordgo"
)

const (
	maxChoices   = 25
	maxBodyBytes = 1 << 20

	colorNewTask = 0x526D82

	msgCommandFailed  = "❌ Ocorreu um erro ao processar o seu comando."
	msgUnknownCommand = "Comando desconhecido."
)

type nudge struct {
	text string
	gif  string
}

var waitingNudges = []nudge{
	{"Estamos só por ti <@%s>! Faz 84 anos que a gente tá aqui...", "https://media.giphy.com/media/FoH28ucxZFJZu/giphy.gif"},
	{"Estamos só por ti <@%s>! Tu tá vindo de jegue ou a internet é discada?", "https://tenor.com/view/mr-bean-mrbean-bean-mr-bean-holiday-mr-bean-holiday-movie-gif-3228235746377647455"},
	{"Cadê o alecrim dourado? Estamos só por ti <@%s>!", "https://tenor.com/view/where-you-at-gif-21177622"},
	{"Estamos só por ti <@%s>... Minha juventude tá indo embora.", "https://tenor.com/view/skeleton-forever-waiting-deep-thoughts-gif-19415492"},
	{"Olha, <@%s>, estamos só por ti.", "https://tenor.com/view/gjirlfriend-gif-14457952604098199169"},
	{"Estamos só por ti <@%s>! Tá escondido onde?", "https://tenor.com/view/teletubbies-laa-laa-looking-around-where-are-you-search-gif-15574368096023879998"},
}

// TaskCreator cria tarefas e lista os projetos existentes
type TaskCreator interface {
	Create(ctx context.Context, in services.CreateInput, actor services.Actor, source services.Source) (*models.Task, error)
	Projects(ctx context.Context) ([]string, error)
}

// MemberLister lista os usuários da whitelist
type MemberLister interface {
	Members(ctx context.Context) ([]models.User, error)
}

// InteractionHandler atende o endpoint de interações do Discord.
type InteractionHandler struct {
	publicKey ed25519.PublicKey
	tasks     TaskCreator
	users     MemberLister
	pick      func(n int) int
	now       func() time.Time
}

// NewInteractionHandler recebe a chave pública em hex. Chave vazia ou inválida faz
// o endpoint responder 500 para tudo que não for PING.
func NewInteractionHandler(publicKeyHex string, tasks TaskCreator, users MemberLister) *InteractionHandler {
	h := &InteractionHandler{tasks: tasks, users: users, pick: rand.IntN, now: time.Now}
	publicKeyHex = strings.TrimSpace(publicKeyHex)
	if publicKeyHex == "" {
		return h
	}
	key, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(key) != ed25519.PublicKeySize {
		utilities.LogError(err, "DISCORD_PUBLIC_KEY inválida")
		return h
	}
	h.publicKey = key
	return h
}

func (h *InteractionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(raw) == 0 {
		http.Error(w, "Empty body", http.StatusBadRequest)
		return
	}

	var probe struct {
		Type discordgo.InteractionType `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		utilities.LogError(err, "Erro ao decodificar interação")
		http.Error(w, "Bad JSON", http.StatusBadRequest)
		return
	}

	// o PING de registro do endpoint é respondido antes da checagem de assinatura
	if probe.Type == discordgo.InteractionPing {
		utilities.LogInfo("PING do Discord recebido")
		writeResponse(w, &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong})
		return
	}

	if h.publicKey == nil {
		utilities.LogError(nil, "DISCORD_PUBLIC_KEY não configurada")
		http.Error(w, "Erro interno: Chave não configurada", http.StatusInternalServerError)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if !discordgo.VerifyInteraction(r, h.publicKey) {
		utilities.LogWarn("Assinatura inválida em interação de %s", r.RemoteAddr)
		http.Error(w, "Assinatura inválida", http.StatusUnauthorized)
		return
	}

	var interaction discordgo.Interaction
	if err := json.Unmarshal(raw, &interaction); err != nil {
		utilities.LogError(err, "Erro ao decodificar interação")
		http.Error(w, "Bad JSON", http.StatusBadRequest)
		return
	}

	switch interaction.Type {
	case discordgo.InteractionApplicationCommandAutocomplete:
		writeResponse(w, h.autocomplete(r.Context(), &interaction))
	case discordgo.InteractionApplicationCommand:
		writeResponse(w, h.command(r.Context(), &interaction))
	default:
		http.Error(w, "Tipo de interação não suportado", http.StatusBadRequest)
	}
}

func writeResponse(w http.ResponseWriter, resp *discordgo.InteractionResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		utilities.LogError(err, "Erro ao codificar resposta da interação")
	}
}

func message(content string, embeds ...*discordgo.MessageEmbed) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Embeds: embeds},
	}
}

func (h *InteractionHandler) command(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	data := i.ApplicationCommandData()
	utilities.LogDebug("Comando /%s recebido", data.Name)

	switch data.Name {
	case CommandPing:
		return message("Pong! A ligação está perfeita.")
	case CommandAlmostReady:
		return message("Tu disse que precisava de mais 2 horas pra terminar e depois de dois dias tu diz que ta quase pronto?????????????")
	case CommandWaitingForYou:
		target := optionString(data.Options, OptionUser)
		if target == "" {
			return message(msgCommandFailed)
		}
		n := waitingNudges[h.pick(len(waitingNudges))]
		return message(fmt.Sprintf(n.text, target) + "\n" + n.gif)
	case CommandNewTask:
		resp, err := h.createTask(ctx, i, data.Options)
		if err != nil {
			utilities.LogError(err, "Erro ao executar o comando novatarefa")
			return message(msgCommandFailed)
		}
		return resp
	default:
		return message(msgUnknownCommand)
	}
}

func (h *InteractionHandler) createTask(ctx context.Context, i *discordgo.Interaction, opts []*discordgo.ApplicationCommandInteractionDataOption) (*discordgo.InteractionResponse, error) {
	title := optionString(opts, OptionTitle)
	description := optionString(opts, OptionDescription)
	responsibleName := optionString(opts, OptionResponsible)
	project := optionString(opts, OptionProject)
	if project == "" {
		project = models.DefaultProject
	}

	users, err := h.users.Members(ctx)
	if err != nil {
		return nil, err
	}
	var responsible *models.User
	for idx := range users {
		if users[idx].Name == responsibleName {
			responsible = &users[idx]
			break
		}
	}
	if responsible == nil {
		return message(fmt.Sprintf("❌ Não foi possível encontrar o responsável \"%s\" no quadro de tarefas. Por favor, selecione um utilizador da lista.", responsibleName)), nil
	}

	username := interactionUsername(i)
	task, err := h.tasks.Create(ctx, services.CreateInput{
		Title:       title,
		Description: description,
		Responsible: []models.Person{responsible.AsPerson()},
		Project:     project,
	}, services.Actor{Login: username, Name: username}, services.SourceChatBot)
	if err != nil {
		return nil, err
	}
	utilities.LogInfo("Tarefa %s criada pelo Discord por %s", task.ID, username)

	return message(fmt.Sprintf("✅ Tarefa **%s** criada com sucesso!", task.ID), &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("[%s] %s", task.ID, task.Title),
		Description: task.Description,
		Color:       colorNewTask,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Projeto", Value: task.Project, Inline: true},
			{Name: "Responsável", Value: responsible.Name, Inline: true},
			{Name: "Prioridade", Value: task.Priority, Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Criado por: " + username},
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}), nil
}

func (h *InteractionHandler) autocomplete(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	data := i.ApplicationCommandData()
	choices := []*discordgo.ApplicationCommandOptionChoice{}

	var focused *discordgo.ApplicationCommandInteractionDataOption
	for _, opt := range data.Options {
		if opt.Focused {
			focused = opt
			break
		}
	}

	if focused != nil {
		query := strings.ToLower(fmt.Sprint(focused.Value))
		switch focused.Name {
		case OptionProject:
			projects, err := h.tasks.Projects(ctx)
			if err != nil {
				utilities.LogError(err, "Erro no autocomplete de projetos")
				break
			}
			for _, p := range projects {
				if strings.HasPrefix(strings.ToLower(p), query) {
					choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: p, Value: p})
				}
			}
		case OptionResponsible:
			users, err := h.users.Members(ctx)
			if err != nil {
				utilities.LogError(err, "Erro no autocomplete de responsáveis")
				break
			}
			for _, u := range users {
				if u.Name != models.PlaceholderUserName && strings.Contains(strings.ToLower(u.Name), query) {
					choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: u.Name, Value: u.Name})
				}
			}
		}
	}
	if len(choices) > maxChoices {
		choices = choices[:maxChoices]
	}

	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	}
}

// optionString lê o valor da opção como texto; opções de usuário trazem o id.
func optionString(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range opts {
		if opt.Name != name || opt.Value == nil {
			continue
		}
		if s, ok := opt.Value.(string); ok {
			return strings.TrimSpace(s)
		}
		return fmt.Sprint(opt.Value)
	}
	return ""
}

func interactionUsername(i *discordgo.Interaction) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.Username
	case i.User != nil:
		return i.User.Username
	default:
		return "discord"
	}
}
