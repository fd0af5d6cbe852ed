package firebase

import (
	"context"
	"fmt"

	"syncboard/utilities"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// Options identifica o projeto Firebase e o bucket de anexos
type Options struct {
	CredentialsPath string
	ProjectID       string
	StorageBucket   string
}

// InitializeFirebase cria o app do Firebase. Sem CredentialsPath usa as credenciais padrão do ambiente.
func InitializeFirebase(ctx context.Context, opts Options) (*firebase.App, error) {
	cfg := &firebase.Config{
		ProjectID:     opts.ProjectID,
		StorageBucket: opts.StorageBucket,
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, cfg, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("erro ao inicializar Firebase: %w", err)
	}

	utilities.LogInfo("Firebase inicializado com sucesso (projeto %q)", opts.ProjectID)
	return app, nil
}
