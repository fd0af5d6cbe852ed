package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config reúne todas as opções reconhecidas pelo servidor e pela CLI.
type Config struct {
	ServerPort     string   `yaml:"server_port"`
	AllowedOrigins []string `yaml:"cors_allowed_origins"`

	// DocumentStore: "memory", "firestore" ou uma URL postgres://
	DocumentStore           string `yaml:"document_store"`
	FirebaseCredentialsPath string `yaml:"firebase_credentials_path"`
	FirebaseProjectID       string `yaml:"firebase_project_id"`
	// BlobStore: nome do bucket do Firebase Storage ou "memory"
	BlobStore string `yaml:"blob_store"`

	DiscordWebhookURL string `yaml:"discord_webhook_url"`
	DiscordPublicKey  string `yaml:"discord_public_key"`
	DiscordAppID      string `yaml:"discord_app_id"`
	DiscordBotToken   string `yaml:"discord_bot_token"`
	DiscordGuildID    string `yaml:"discord_guild_id"`

	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`

	LogLevel string `yaml:"log_level"`
	LogColor bool   `yaml:"log_color"`

	OverdueDigestTime string `yaml:"overdue_digest_time"`
	Timezone          string `yaml:"timezone"`

	AppRole string `yaml:"app_role"`
}

// Default retorna a configuração usada quando nada foi definido.
func Default() Config {
	return Config{
		ServerPort:    "8080",
		DocumentStore: "memory",
		BlobStore:     "memory",
		GeminiModel:   "gemini-2.5-flash",
		LogLevel:      "INFO",
		LogColor:      true,
		Timezone:      "UTC",
		AppRole:       "travelcash_user",
	}
}

// Load carrega .env (se existir), depois o YAML indicado em path ou SYNCBOARD_CONFIG,
// e por fim aplica as variáveis de ambiente, que têm prioridade.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("erro ao carregar o arquivo .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("SYNCBOARD_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("erro ao ler configuração %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("erro ao interpretar configuração %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if cfg.DocumentStore == "memory" && os.Getenv("DOCUMENT_STORE") == "" && cfg.FirebaseProjectID != "" {
		cfg.DocumentStore = "firestore"
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("SERVER_PORT", &c.ServerPort)
	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		c.AllowedOrigins = splitList(v)
	}
	str("DOCUMENT_STORE", &c.DocumentStore)
	str("FIREBASE_CREDENTIALS_PATH", &c.FirebaseCredentialsPath)
	str("FIREBASE_PROJECT_ID", &c.FirebaseProjectID)
	str("BLOB_STORE", &c.BlobStore)
	str("DISCORD_WEBHOOK_URL", &c.DiscordWebhookURL)
	str("DISCORD_PUBLIC_KEY", &c.DiscordPublicKey)
	str("DISCORD_APP_ID", &c.DiscordAppID)
	str("DISCORD_BOT_TOKEN", &c.DiscordBotToken)
	str("DISCORD_GUILD_ID", &c.DiscordGuildID)
	str("GEMINI_API_KEY", &c.GeminiAPIKey)
	str("GEMINI_MODEL", &c.GeminiModel)
	str("LOG_LEVEL", &c.LogLevel)
	if v, ok := lookup("LOG_COLOR"); ok && v != "" {
		c.LogColor = !strings.EqualFold(v, "false") && v != "0"
	}
	str("OVERDUE_DIGEST_TIME", &c.OverdueDigestTime)
	str("TIMEZONE", &c.Timezone)
	str("APP_ROLE", &c.AppRole)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
