package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sozercan/idea-mapper/internal/analyzer"
	"github.com/sozercan/idea-mapper/internal/config"
	"github.com/sozercan/idea-mapper/internal/llm"
	"github.com/sozercan/idea-mapper/internal/prompt"
)

type commandContext struct {
	configFile string
	envFiles   []string
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "idea-mapper",
		Short:         "Break text into ideas, relationships and analogies with an LLM",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(ctx.configFile, ctx.envFiles...)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			slog.SetDefault(newLogger(cfg.Log))
			ctx.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFile, "config", "c", "", "Configuration file path (toml, yaml or json)")
	rootCmd.PersistentFlags().StringSliceVar(&ctx.envFiles, "env-file", nil, "Dotenv files to load (default .env)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newAnalyzeCommand(ctx))

	return rootCmd
}

// buildAnalyzer wires prompt, provider and requester from configuration.
func (c *commandContext) buildAnalyzer() (*analyzer.Analyzer, error) {
	systemPrompt, err := prompt.Load(c.cfg.Prompt.File, c.cfg.Prompt.Required)
	if err != nil {
		return nil, err
	}

	provider, err := llm.NewOpenAI(&c.cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	slog.Info("LLM provider ready", "provider", c.cfg.LLM.Provider, "model", provider.Model())

	requester := llm.NewRequester(provider, systemPrompt,
		llm.WithMaxAttempts(c.cfg.Retry.MaxAttempts),
		llm.WithInitialWait(c.cfg.Retry.InitialWait),
		llm.WithAttemptTimeout(c.cfg.LLM.AttemptTimeout),
	)
	return analyzer.New(requester), nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
