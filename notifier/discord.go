package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"syncboard/models"
	"syncboard/services"
	"syncboard/utilities"

	"github.com/bwmarrin/discordgo"
)

const (
	botUsername   = "SyncBoard"
	alertUsername = "SyncBoard - Alerta"
	botAvatarURL  = "https://i.imgur.com/AoaA8WI.png"

	colorComment = 0x9DB2BF
	colorAlert   = 0xEF4444
	colorDigest  = 0xF59E0B

	maxEmbedDescription = 4000
)

var (
	_ services.ChatNotifier = (*DiscordWebhook)(nil)
	_ services.ChatNotifier = Nop{}
)

// Nop descarta as mensagens; usado quando DISCORD_WEBHOOK_URL não está configurada.
type Nop struct{}

func (Nop) TaskCreated(string, *models.Task) {}
func (Nop) StatusChanged(*models.Task, string) {}
func (Nop) CommentAdded(string, *models.Task, models.Comment) {}
func (Nop) TaskSignaled(string, *models.Task, []string) {}
func (Nop) OverdueDigest([]*models.Task) {}

// NewChatNotifier devolve o webhook do Discord, ou Nop se a URL estiver vazia.
func NewChatNotifier(webhookURL string) services.ChatNotifier {
	if strings.TrimSpace(webhookURL) == "" {
		utilities.LogInfo("DISCORD_WEBHOOK_URL não configurada; avisos no chat desativados")
		return Nop{}
	}
	return NewDiscordWebhook(webhookURL, nil)
}

// DiscordWebhook posta mensagens no canal do time. Os envios são assíncronos e
// falhas só aparecem no log.
type DiscordWebhook struct {
	url    string
	client *http.Client
	wg     sync.WaitGroup
	now    func() time.Time
}

func NewDiscordWebhook(webhookURL string, client *http.Client) *DiscordWebhook {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &DiscordWebhook{url: webhookURL, client: client, now: time.Now}
}

func (d *DiscordWebhook) TaskCreated(actor string, task *models.Task) {
	d.post(&discordgo.WebhookParams{
		Username:  botUsername,
		AvatarURL: botAvatarURL,
		Content:   fmt.Sprintf("**📝 Nova Tarefa Criada por %s**", actor),
		Embeds: []*discordgo.MessageEmbed{{
			Title:       fmt.Sprintf("[%s] %s", task.ID, task.Title),
			Description: task.Description,
			Color:       parseColor(task.ProjectColor),
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Projeto", Value: orNA(task.Project), Inline: true},
				{Name: "Responsáveis", Value: orNA(strings.Join(task.ResponsibleNames(), ", ")), Inline: true},
				{Name: "Prioridade", Value: orNA(task.Priority), Inline: true},
			},
		}},
	})
}

func (d *DiscordWebhook) StatusChanged(task *models.Task, status string) {
	d.post(&discordgo.WebhookParams{
		Username:  botUsername,
		AvatarURL: botAvatarURL,
		Content:   fmt.Sprintf("**🔄 Tarefa [%s] atualizada para -> %s**", task.ID, models.StatusLabel(status)),
	})
}

func (d *DiscordWebhook) CommentAdded(actor string, task *models.Task, comment models.Comment) {
	d.post(&discordgo.WebhookParams{
		Username:  botUsername,
		AvatarURL: botAvatarURL,
		Content:   fmt.Sprintf("**💬 Novo Comentário de %s na Tarefa [%s]**", actor, task.ID),
		Embeds: []*discordgo.MessageEmbed{{
			Description: comment.Text,
			Color:       colorComment,
		}},
	})
}

func (d *DiscordWebhook) TaskSignaled(actor string, task *models.Task, names []string) {
	d.post(&discordgo.WebhookParams{
		Username:  alertUsername,
		AvatarURL: botAvatarURL,
		Content:   "**🚨 Atenção!**",
		Embeds: []*discordgo.MessageEmbed{{
			Title:       fmt.Sprintf("Tarefa [%s] - %s", task.ID, task.Title),
			Description: fmt.Sprintf("O usuário **%s** sinalizou esta tarefa e está a solicitando uma atenção especial dos responsáveis.", actor),
			Color:       colorAlert,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Responsáveis Sinalizados", Value: orNA(strings.Join(names, ", ")), Inline: false},
				{Name: "Projeto", Value: orNA(task.Project), Inline: true},
			},
			Timestamp: d.now().UTC().Format(time.RFC3339),
		}},
	})
}

func (d *DiscordWebhook) OverdueDigest(tasks []*models.Task) {
	var b strings.Builder
	for _, t := range tasks {
		line := fmt.Sprintf("• **[%s]** %s (%s)", t.ID, t.Title, models.StatusLabel(t.Status))
		if t.DueDate != nil {
			if due, ok := models.ParseDueDate(*t.DueDate); ok {
				line += " - vencida em " + due.Format("02/01/2006")
			}
		}
		if names := t.ResponsibleNames(); len(names) > 0 {
			line += " · " + strings.Join(names, ", ")
		}
		if b.Len()+len(line)+1 > maxEmbedDescription {
			b.WriteString("…")
			break
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	d.post(&discordgo.WebhookParams{
		Username:  alertUsername,
		AvatarURL: botAvatarURL,
		Content:   fmt.Sprintf("**⏰ %d tarefas atrasadas**", len(tasks)),
		Embeds: []*discordgo.MessageEmbed{{
			Description: strings.TrimSpace(b.String()),
			Color:       colorDigest,
			Timestamp:   d.now().UTC().Format(time.RFC3339),
		}},
	})
}

func (d *DiscordWebhook) post(params *discordgo.WebhookParams) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.Send(ctx, params); err != nil {
			utilities.LogError(err, "Falha ao enviar notificação para o Discord")
		}
	}()
}

// Wait bloqueia até os envios pendentes terminarem
func (d *DiscordWebhook) Wait() {
	d.wg.Wait()
}

// Send executa o webhook de forma síncrona
func (d *DiscordWebhook) Send(ctx context.Context, params *discordgo.WebhookParams) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("erro ao serializar mensagem: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("erro ao chamar o webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook respondeu %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func parseColor(hex string) int {
	v, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil || hex == "" {
		v, _ = strconv.ParseInt(strings.TrimPrefix(models.DefaultProjectColor, "#"), 16, 32)
	}
	return int(v)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
