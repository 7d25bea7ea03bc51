package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/laptop-support/internal/config"
	"github.com/zhouzirui/laptop-support/internal/logging"
	"github.com/zhouzirui/laptop-support/internal/model/chat"
	chatservice "github.com/zhouzirui/laptop-support/internal/service/chat"
	"github.com/zhouzirui/laptop-support/internal/service/support"
	"github.com/zhouzirui/laptop-support/internal/tui"
)

var (
	// Global flags
	baseURL     string
	contextFlag string
	verbose     bool
	logFile     string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "support-chat",
	Short: "Chat with the laptop support endpoint",
	Long: `support-chat sends questions, tagged with a support context, to the
laptop support endpoint and shows the conversation.

Run without arguments to start the interactive chat view.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		if !cmd.Flags().Changed("base-url") {
			if env := os.Getenv("SUPPORT_BASE_URL"); env != "" {
				baseURL = env
			}
		}

		cfg := config.LogConfig{Level: "warn", File: logFile}
		if verbose {
			cfg.Level = "debug"
		}
		// the interactive view owns the terminal, so it only logs to a file
		if cmd == cmd.Root() && logFile == "" {
			logger = zap.NewNop()
			return nil
		}

		var err error
		logger, err = logging.New(cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := newSession()
		if err != nil {
			return err
		}
		return runInteractiveChat(session)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", config.DefaultSupportBaseURL, "support endpoint base URL (env SUPPORT_BASE_URL)")
	rootCmd.PersistentFlags().StringVarP(&contextFlag, "context", "c", string(chat.DefaultContext), "initial context: product_inquiry, technical or billing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file")

	rootCmd.AddCommand(askCmd, contextsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newSession builds a session against the configured endpoint with the
// requested context preselected.
func newSession() (*chatservice.Session, error) {
	selected, err := chat.ParseContext(contextFlag)
	if err != nil {
		return nil, err
	}

	client, err := support.NewClient(baseURL, support.WithLogger(logger.Named("support")))
	if err != nil {
		return nil, err
	}

	session := chatservice.NewSession(client, chatservice.WithLogger(logger.Named("session")))
	if err := session.SelectContext(selected); err != nil {
		return nil, err
	}
	return session, nil
}

func runInteractiveChat(session *chatservice.Session) error {
	model, closeModel := tui.NewModel(session)
	defer closeModel()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat view: %w", err)
	}
	return nil
}
