package flows

import (
	"context"
	"fmt"
	"strings"

	"syncboard/ai_services"
	"syncboard/models"
	"syncboard/services"
	"syncboard/utilities"
)

const defaultTitleInstruction = "Torne menos técnico e mais focado no valor de negócio."

const improveTitlePrompt = `Atue como um Product Manager experiente.
Tarefa: Reescreva o título de uma tarefa de desenvolvimento de software para torná-lo claro para pessoas não técnicas (stakeholders, clientes, business).

Título Atual: "%s"
Instrução Adicional do Usuário: %s

Regras:
1. Responda APENAS com o novo título. Sem aspas, sem explicações.
2. Não fuja deste propósito.
3. Mantenha curto (máximo 10-12 palavras).
4. Use Português do Brasil.`

// TitleFlow reescreve títulos de tarefas com a IA e registra cada chamada no histórico.
type TitleFlow struct {
	generator ai_services.TextGenerator
	history   *ai_services.HistoryLogger
}

// NewTitleFlow aceita generator nil: o fluxo responde que a IA não está configurada.
func NewTitleFlow(generator ai_services.TextGenerator, history *ai_services.HistoryLogger) *TitleFlow {
	return &TitleFlow{generator: generator, history: history}
}

// BuildImproveTitlePrompt monta o prompt; instrução vazia usa o padrão.
func BuildImproveTitlePrompt(currentTitle, instruction string) string {
	if strings.TrimSpace(instruction) == "" {
		instruction = defaultTitleInstruction
	}
	return fmt.Sprintf(improveTitlePrompt, currentTitle, instruction)
}

func (f *TitleFlow) ImproveTitle(ctx context.Context, req models.ImproveTitleRequest, userEmail string) (*models.ImproveTitleResponse, error) {
	if f.generator == nil {
		return nil, &services.UserError{Kind: services.ErrUnavailable, Message: "API Key da IA não configurada."}
	}
	if strings.TrimSpace(req.CurrentTitle) == "" {
		return nil, &services.UserError{Kind: services.ErrValidation, Message: "Título é obrigatório."}
	}

	prompt := BuildImproveTitlePrompt(req.CurrentTitle, req.UserInstruction)
	text, err := f.generator.Generate(ctx, prompt)
	f.history.LogAIInteraction(ctx, userEmail, models.AIServiceImproveTitle, f.generator.Model(), req, prompt, text, err)
	if err != nil {
		utilities.LogError(err, "Erro na IA ao reescrever título")
		return nil, &services.UserError{Kind: services.ErrUnavailable, Message: "Erro ao processar com a IA."}
	}

	title := strings.Trim(strings.TrimSpace(text), `"`)
	return &models.ImproveTitleResponse{Title: title}, nil
}
