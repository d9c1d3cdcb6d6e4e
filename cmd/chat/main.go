// File: cmd/chat/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"humaine-chatbot/internal/client"
	"humaine-chatbot/internal/config"
	"humaine-chatbot/internal/dialogue"
	"humaine-chatbot/internal/infra/logging"
	"humaine-chatbot/internal/tui"
)

type options struct {
	configPath string
	baseURL    string
	apiKey     string
	userID     string
	logFile    string
	inactivity time.Duration
	dev        bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var o options
	root := &cobra.Command{
		Use:           "chat",
		Short:         "Terminal client for the personalization chatbot",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), o)
		},
	}
	f := root.PersistentFlags()
	f.StringVar(&o.configPath, "config", "config.yaml", "path to YAML config file")
	f.StringVar(&o.baseURL, "url", "", "backend base URL (overrides client.base_url)")
	f.StringVar(&o.apiKey, "api-key", "", "backend API key (overrides HUMANE_API_KEY)")
	f.BoolVar(&o.dev, "dev", false, "use the development API key when none is set")
	root.Flags().StringVar(&o.userID, "user", "", "user id to chat as (default: a new random id)")
	root.Flags().StringVar(&o.logFile, "log-file", "chat.log", "where client logs go; the terminal belongs to the UI")
	root.Flags().DurationVar(&o.inactivity, "inactivity", 0, "end the session after this long unfocused and idle")

	root.AddCommand(newHealthCmd(&o))
	return root
}

func newHealthCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Print the backend health report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(*o)
			if err != nil {
				return err
			}
			cli := client.New(cfg.Client.BaseURL, cfg.Auth.APIKey, client.WithTimeout(cfg.Client.Timeout))
			hs, err := cli.Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status: %s\nversion: %s\nai: %s\nactive conversations: %d\n",
				hs.Status, hs.Version, hs.OpenAI.Status, hs.ActiveConversations)
			return nil
		},
	}
}

// load reads the shared config file and applies command-line overrides.
func load(o options) (*config.Config, error) {
	if o.apiKey != "" {
		// The key is validated while loading.
		if err := os.Setenv("HUMANE_API_KEY", o.apiKey); err != nil {
			return nil, err
		}
	}
	cfg, err := config.LoadConfig(o.configPath, o.dev)
	if err != nil {
		return nil, err
	}
	if o.baseURL != "" {
		cfg.Client.BaseURL = o.baseURL
	}
	if o.userID != "" {
		cfg.Client.UserID = o.userID
	}
	if cfg.Client.UserID == "" {
		cfg.Client.UserID = "user_" + uuid.NewString()[:8]
	}
	if o.inactivity > 0 {
		cfg.Client.InactivityLimit = o.inactivity
	}
	return cfg, nil
}

func runChat(ctx context.Context, o options) error {
	cfg, err := load(o)
	if err != nil {
		return err
	}

	logger := zerolog.Nop()
	if o.logFile != "" {
		lf, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer lf.Close()
		logger = *logging.NewTo(lf, cfg.Log, cfg.Runtime.Dev)
	}

	cli := client.New(cfg.Client.BaseURL, cfg.Auth.APIKey,
		client.WithTimeout(cfg.Client.Timeout), client.WithLogger(&logger))
	mgr := dialogue.NewManager(cli, dialogue.Config{
		UserID:            cfg.Client.UserID,
		InactivityTimeout: cfg.Client.InactivityLimit,
		CallTimeout:       cfg.Client.Timeout,
		Logger:            &logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = mgr.Run(ctx)
	}()

	p := tea.NewProgram(tui.New(mgr), tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))
	_, err = p.Run()
	interrupted := ctx.Err() != nil

	// Run waits for the final session report before returning.
	cancel()
	<-done
	if err != nil && !interrupted {
		return err
	}
	return nil
}
