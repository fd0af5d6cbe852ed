package ai_services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"syncboard/utilities"

	"google.golang.org/genai"
)

const aiAPITimeout = 30 * time.Second

// DefaultModel é usado quando GEMINI_MODEL não está configurado
const DefaultModel = "gemini-2.5-flash"

// TextGenerator gera texto a partir de um prompt
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// GeminiClient chama a API do Gemini através do SDK oficial.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient cria o cliente com a API key; model vazio usa DefaultModel.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY não configurada")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("erro ao criar cliente Gemini: %w", err)
	}
	utilities.LogInfo("Cliente Gemini inicializado (modelo %s)", model)
	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) Model() string { return g.model }

// Generate envia o prompt e devolve o texto da primeira resposta
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, aiAPITimeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("erro ao comunicar com o Gemini: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("o Gemini retornou uma resposta vazia")
	}
	return text, nil
}
