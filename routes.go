package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	firebasesdk "firebase.google.com/go/v4"
	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"syncboard/ai_services"
	"syncboard/config"
	"syncboard/database"
	"syncboard/discord"
	"syncboard/firebase"
	"syncboard/flows"
	"syncboard/handlers"
	"syncboard/notifier"
	"syncboard/services"
	"syncboard/utilities"
)

// newFirebaseApps inicializa o app do Firebase só na primeira vez que alguém precisar dele.
func newFirebaseApps(ctx context.Context, cfg config.Config) func() (*firebasesdk.App, error) {
	bucket := ""
	if cfg.BlobStore != "memory" {
		bucket = cfg.BlobStore
	}
	return sync.OnceValues(func() (*firebasesdk.App, error) {
		return firebase.InitializeFirebase(ctx, firebase.Options{
			CredentialsPath: cfg.FirebaseCredentialsPath,
			ProjectID:       cfg.FirebaseProjectID,
			StorageBucket:   bucket,
		})
	})
}

// openStore escolhe o banco de documentos pela opção DOCUMENT_STORE.
func openStore(ctx context.Context, cfg config.Config, app func() (*firebasesdk.App, error)) (database.Store, func(), error) {
	var store database.Store
	switch {
	case cfg.DocumentStore == "" || cfg.DocumentStore == "memory":
		utilities.LogWarn("Usando banco em memória: os dados serão perdidos ao reiniciar")
		store = database.NewMemoryStore()
	case cfg.DocumentStore == "firestore":
		fbApp, err := app()
		if err != nil {
			return nil, nil, err
		}
		fs, err := firebase.NewFirestoreStore(ctx, fbApp)
		if err != nil {
			return nil, nil, err
		}
		store = fs
	case strings.HasPrefix(cfg.DocumentStore, "postgres://"), strings.HasPrefix(cfg.DocumentStore, "postgresql://"):
		pg, err := database.NewPostgresStore(ctx, cfg.DocumentStore)
		if err != nil {
			return nil, nil, err
		}
		store = pg
	default:
		return nil, nil, fmt.Errorf("DOCUMENT_STORE desconhecido: %q", cfg.DocumentStore)
	}

	return store, func() {
		if err := store.Close(); err != nil {
			utilities.LogError(err, "Erro ao fechar o banco")
		}
	}, nil
}

// openBlobs devolve nil (anexos desabilitados) quando BLOB_STORE está vazio.
func openBlobs(ctx context.Context, cfg config.Config, app func() (*firebasesdk.App, error)) (database.BlobStore, *database.MemoryBlobStore, error) {
	switch cfg.BlobStore {
	case "":
		utilities.LogWarn("BLOB_STORE não definido: anexos desabilitados")
		return nil, nil, nil
	case "memory":
		mem := database.NewMemoryBlobStore("http://localhost:" + cfg.ServerPort + "/blobs")
		return mem, mem, nil
	default:
		fbApp, err := app()
		if err != nil {
			return nil, nil, err
		}
		blobs, err := firebase.NewStorageBlobStore(ctx, fbApp, cfg.BlobStore)
		if err != nil {
			return nil, nil, err
		}
		return blobs, nil, nil
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}

// Serve monta todas as dependências, registra as rotas e atende até ctx ser cancelado.
func Serve(ctx context.Context, cfg config.Config) error {
	app := newFirebaseApps(ctx, cfg)

	store, closeStore, err := openStore(ctx, cfg, app)
	if err != nil {
		return fmt.Errorf("erro ao conectar ao banco de dados: %w", err)
	}
	defer closeStore()

	blobs, memBlobs, err := openBlobs(ctx, cfg, app)
	if err != nil {
		return fmt.Errorf("erro ao configurar o armazenamento de anexos: %w", err)
	}

	hub := notifier.NewHub(originChecker(cfg.AllowedOrigins))
	defer hub.Close()
	chat := notifier.NewChatNotifier(cfg.DiscordWebhookURL)
	if cfg.DiscordWebhookURL == "" {
		utilities.LogInfo("DISCORD_WEBHOOK_URL não definida: mensagens no chat desabilitadas")
	}

	tasks := services.NewTaskService(store, hub, chat)
	users := services.NewUserService(store, cfg.AppRole)

	var generator ai_services.TextGenerator
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai_services.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return err
		}
		generator = gemini
	} else {
		utilities.LogWarn("GEMINI_API_KEY não definida: melhoria de títulos desabilitada")
	}

	var verifier handlers.TokenVerifier
	if cfg.FirebaseProjectID != "" || cfg.DocumentStore == "firestore" {
		if fbApp, err := app(); err != nil {
			utilities.LogError(err, "Firebase indisponível; Bearer tokens serão recusados")
		} else if v, err := firebase.NewTokenVerifier(ctx, fbApp); err != nil {
			utilities.LogError(err, "Erro ao criar o verificador de tokens")
		} else {
			verifier = v
		}
	}

	h := handlers.New(handlers.Deps{
		Tasks:         tasks,
		Users:         users,
		Notifications: services.NewNotificationService(store),
		Attachments:   services.NewAttachmentService(blobs),
		Titles:        flows.NewTitleFlow(generator, ai_services.NewHistoryLogger(store)),
		Verifier:      verifier,
		Realtime:      hub,
		Interactions:  discord.NewInteractionHandler(cfg.DiscordPublicKey, tasks, users),
	})

	if cfg.OverdueDigestTime != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return fmt.Errorf("TIMEZONE inválido %q: %w", cfg.Timezone, err)
		}
		scheduler := services.NewSchedulerService(loc)
		if err := scheduler.ScheduleOverdueDigest(cfg.OverdueDigestTime, tasks); err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
		utilities.LogInfo("Resumo de tarefas atrasadas agendado para %s (%s)", cfg.OverdueDigestTime, cfg.Timezone)
	}

	r := mux.NewRouter()

	// Aplicar o middleware de logging global em todas as rotas
	r.Use(handlers.LoggingMiddleware)

	if memBlobs != nil {
		r.HandleFunc("/blobs/{name}", func(w http.ResponseWriter, r *http.Request) {
			data, contentType, ok := memBlobs.Get(mux.Vars(r)["name"])
			if !ok {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", contentType)
			w.Write(data)
		}).Methods("GET")
	}
	h.Register(r)

	// Configuração do CORS
	headers := gorillahandlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization", handlers.PrincipalHeader})
	methods := gorillahandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
		utilities.LogInfo("CORS_ALLOWED_ORIGINS não definida, permitindo todas as origens ('*'). Defina para maior segurança em produção.")
	}
	origins := gorillahandlers.AllowedOrigins(allowedOrigins)
	utilities.LogInfo("Configurando CORS com origens permitidas: %v", allowedOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           gorillahandlers.CORS(headers, methods, origins)(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utilities.LogInfo("Servidor iniciado na porta %s", cfg.ServerPort)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	utilities.LogInfo("Encerrando o servidor...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("erro ao encerrar o servidor: %w", err)
	}
	if w, ok := chat.(*notifier.DiscordWebhook); ok {
		w.Wait()
	}
	return nil
}
