package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"syncboard/board"
	"syncboard/config"
	"syncboard/discord"
	"syncboard/models"
	"syncboard/services"
	"syncboard/utilities"
)

var (
	configPath string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "syncboard",
	Short: "SyncBoard - quadro Kanban compartilhado com atualização em tempo real",
	Long: `SyncBoard serve a API do quadro de tarefas, o canal de tempo real e o bot do Discord.

Rode 'syncboard serve' para subir o servidor.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		utilities.InitLogger(utilities.ParseLevel(cfg.LogLevel), cfg.LogColor)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Sobe o servidor HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return Serve(ctx, cfg)
	},
}

var registerCommandsCmd = &cobra.Command{
	Use:   "register-commands",
	Short: "Registra os slash commands do bot no Discord",
	Long: `Sobrescreve os comandos da aplicação usando DISCORD_APP_ID e DISCORD_BOT_TOKEN.
Com DISCORD_GUILD_ID os comandos são registrados só no servidor indicado.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DiscordAppID == "" || cfg.DiscordBotToken == "" {
			return errors.New("DISCORD_APP_ID e DISCORD_BOT_TOKEN são obrigatórios")
		}
		session, err := discord.NewSession(cfg.DiscordBotToken)
		if err != nil {
			return err
		}
		registered, err := discord.RegisterCommands(session, cfg.DiscordAppID, cfg.DiscordGuildID)
		if err != nil {
			return err
		}
		for _, c := range registered {
			fmt.Printf("✅ /%s registrado\n", c.Name)
		}
		return nil
	},
}

var provisionCounterCmd = &cobra.Command{
	Use:   "provision-counter",
	Short: "Cria o documento taskCounter antes da primeira tarefa",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		start, _ := cmd.Flags().GetInt64("start")

		ctx := cmd.Context()
		store, closeStore, err := openStore(ctx, cfg, newFirebaseApps(ctx, cfg))
		if err != nil {
			return err
		}
		defer closeStore()

		tasks := services.NewTaskService(store, nil, nil)
		if err := tasks.IDs().Provision(ctx, start, force); err != nil {
			if msg := services.UserMessage(err); msg != "" {
				return errors.New(msg)
			}
			return err
		}
		fmt.Printf("Contador %s provisionado com valor %d. Próxima tarefa: %s\n",
			models.CounterID, start, models.FormatTaskID(start+1))
		return nil
	},
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Cliente de terminal do quadro",
}

var boardWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Mostra o quadro e redesenha a cada evento do servidor",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client, err := boardClient(cmd)
		if err != nil {
			return err
		}
		store := board.NewStore(client)
		defer store.Close()
		applyBoardFlags(cmd, store)

		width, _ := cmd.Flags().GetInt("width")
		store.OnChange(func() { fmt.Print("\033[H\033[2J" + renderBoard(store, width) + "\n") })

		sub := board.NewSubscriber(client.RealtimeURL(), client.AuthHeader())
		sub.OnConnect = func(ctx context.Context) {
			if err := store.Load(ctx); err != nil {
				utilities.LogError(err, "Erro ao recarregar o quadro")
			}
		}
		err = sub.Run(ctx, func(ctx context.Context, f board.Frame) error {
			return store.Apply(ctx, f.Target, f.Arguments)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

var boardMoveCmd = &cobra.Command{
	Use:   "move <id> <status>",
	Short: "Move uma tarefa para outra coluna (todo, stopped, inprogress, homologation)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := boardClient(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		store := board.NewStore(client)
		defer store.Close()
		applyBoardFlags(cmd, store)
		if err := store.Load(ctx); err != nil {
			return err
		}

		position, _ := cmd.Flags().GetInt("position")
		if err := store.Move(ctx, args[0], args[1], position); err != nil {
			return err
		}
		width, _ := cmd.Flags().GetInt("width")
		fmt.Println(renderBoard(store, width))
		return nil
	},
}

func boardClient(cmd *cobra.Command) (*board.Client, error) {
	server, _ := cmd.Flags().GetString("server")
	client := board.NewClient(server)

	if token, _ := cmd.Flags().GetString("token"); token != "" {
		client.Token = token
		return client, nil
	}
	if raw, _ := cmd.Flags().GetString("principal"); raw != "" {
		p, err := models.DecodePrincipal(raw)
		if err != nil {
			var plain models.Principal
			if jsonErr := json.Unmarshal([]byte(raw), &plain); jsonErr != nil {
				return nil, fmt.Errorf("principal inválido: %w", err)
			}
			p = &plain
		}
		client.Principal = p
		return client, nil
	}
	if email, _ := cmd.Flags().GetString("as"); email != "" {
		client.Principal = &models.Principal{UserDetails: email, UserRoles: []string{models.RoleAuthenticated}}
		return client, nil
	}
	return nil, errors.New("informe --token, --principal ou --as")
}

func applyBoardFlags(cmd *cobra.Command, store *board.Store) {
	project, _ := cmd.Flags().GetString("project")
	responsible, _ := cmd.Flags().GetString("responsible")
	search, _ := cmd.Flags().GetString("search")
	store.SetFilters(project, responsible, search)

	if view, _ := cmd.Flags().GetString("view"); view != "" {
		store.SetView(view)
	}
	if sortBy, _ := cmd.Flags().GetString("sort"); sortBy != "" {
		store.ToggleSort(board.SortKey(sortBy))
	}
}

func renderBoard(store *board.Store, width int) string {
	if store.State().View == board.ViewList {
		return board.RenderList(store, time.Now())
	}
	return board.RenderKanban(store, width, time.Now())
}

// Execute roda o comando raiz
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "arquivo YAML de configuração (padrão: $SYNCBOARD_CONFIG)")

	provisionCounterCmd.Flags().Bool("force", false, "sobrescreve um contador existente")
	provisionCounterCmd.Flags().Int64("start", 0, "valor inicial do contador")

	boardCmd.PersistentFlags().String("server", "http://localhost:8080", "URL da API")
	boardCmd.PersistentFlags().String("token", "", "ID token do Firebase (Authorization: Bearer)")
	boardCmd.PersistentFlags().String("principal", "", "principal em base64 ou JSON (header x-ms-client-principal)")
	boardCmd.PersistentFlags().String("as", "", "e-mail usado para montar um principal simples")
	boardCmd.PersistentFlags().String("project", "", "filtra por projeto")
	boardCmd.PersistentFlags().String("responsible", "", "filtra por responsável")
	boardCmd.PersistentFlags().String("search", "", "busca por título ou id")
	boardCmd.PersistentFlags().String("view", board.ViewKanban, "kanban ou list")
	boardCmd.PersistentFlags().String("sort", "", "ordenação da lista: createdAt, dueDate, title, status")
	boardCmd.PersistentFlags().Int("width", 160, "largura do terminal")
	boardMoveCmd.Flags().Int("position", 0, "posição na coluna de destino")

	boardCmd.AddCommand(boardWatchCmd)
	boardCmd.AddCommand(boardMoveCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(registerCommandsCmd)
	rootCmd.AddCommand(provisionCounterCmd)
	rootCmd.AddCommand(boardCmd)
}
