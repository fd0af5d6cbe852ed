package flows

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"syncboard/ai_services"
	"syncboard/database"
	"syncboard/models"
	"syncboard/services"
	"syncboard/utilities"
)

func init() {
	utilities.SetOutput(io.Discard)
}

type fakeGenerator struct {
	generate func(ctx context.Context, prompt string) (string, error)
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return f.generate(ctx, prompt)
}

func (f *fakeGenerator) Model() string { return "fake-model" }

func TestImproveTitle(t *testing.T) {
	store := database.NewMemoryStore()
	var gotPrompt string
	gen := &fakeGenerator{generate: func(_ context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "  Login mais rápido para clientes \n", nil
	}}
	flow := NewTitleFlow(gen, ai_services.NewHistoryLogger(store))

	resp, err := flow.ImproveTitle(context.Background(), models.ImproveTitleRequest{CurrentTitle: "Refatorar auth JWT"}, "ana@example.com")
	if err != nil {
		t.Fatalf("improve: %v", err)
	}
	if resp.Title != "Login mais rápido para clientes" {
		t.Fatalf("título inesperado: %q", resp.Title)
	}
	if !strings.Contains(gotPrompt, `Título Atual: "Refatorar auth JWT"`) || !strings.Contains(gotPrompt, defaultTitleInstruction) {
		t.Fatalf("prompt inesperado: %s", gotPrompt)
	}

	history := store.AIRequests()
	if len(history) != 1 {
		t.Fatalf("esperado 1 registro no histórico, veio %d", len(history))
	}
	if h := history[0]; h.UserEmail != "ana@example.com" || h.AIServiceType != models.AIServiceImproveTitle || h.Model != "fake-model" || h.AIError != "" {
		t.Fatalf("histórico inesperado: %+v", h)
	}
}

func TestImproveTitleErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewTitleFlow(nil, nil).ImproveTitle(ctx, models.ImproveTitleRequest{CurrentTitle: "x"}, "")
	if !errors.Is(err, services.ErrUnavailable) || services.UserMessage(err) != "API Key da IA não configurada." {
		t.Fatalf("sem IA esperado ErrUnavailable, veio %v", err)
	}

	gen := &fakeGenerator{generate: func(context.Context, string) (string, error) { return "", errors.New("quota") }}
	store := database.NewMemoryStore()
	flow := NewTitleFlow(gen, ai_services.NewHistoryLogger(store))

	if _, err := flow.ImproveTitle(ctx, models.ImproveTitleRequest{CurrentTitle: "  "}, ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("título vazio deve ser ErrValidation, veio %v", err)
	}
	_, err = flow.ImproveTitle(ctx, models.ImproveTitleRequest{CurrentTitle: "x", UserInstruction: "mais curto"}, "bia@example.com")
	if services.UserMessage(err) != "Erro ao processar com a IA." {
		t.Fatalf("erro da IA inesperado: %v", err)
	}
	if h := store.AIRequests(); len(h) != 1 || h[0].AIError != "quota" || !strings.Contains(h[0].Prompt, "mais curto") {
		t.Fatalf("falha deve ser registrada no histórico: %+v", h)
	}
}
