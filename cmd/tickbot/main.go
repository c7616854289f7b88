// Package main is the entry point for the tickbot CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/coopco/tickbot/internal/agent"
	"github.com/coopco/tickbot/internal/config"
	"github.com/coopco/tickbot/internal/gateway"
	"github.com/coopco/tickbot/internal/notify"
	"github.com/coopco/tickbot/internal/providers"
	"github.com/coopco/tickbot/internal/schedule"
	"github.com/coopco/tickbot/internal/task"
	"github.com/coopco/tickbot/internal/tools"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tickbot",
		Short:         "A self-rescheduling background agent runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.AddCommand(versionCmd(), serveCmd(), runCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("tickbot %s\n", version)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the entrypoint gateway and the local schedule dispatcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := buildApp(cfg)
			if err != nil {
				return err
			}

			if err := app.store.Load(); err != nil {
				return err
			}
			app.store.SetOnFire(func(fireCtx context.Context, def *schedule.Definition) {
				dispatchFiredSchedule(fireCtx, app.orch, def)
			})
			if err := app.store.Start(ctx); err != nil {
				return err
			}
			defer app.store.Stop()

			gw := gateway.New(app.orch, fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port))
			return gw.Run(ctx)
		},
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the agent once with the given input and print the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			input, _ := cmd.Flags().GetString("input")
			if input == "" {
				input = "Say hello and show current_time."
			}

			app, err := buildApp(cfg)
			if err != nil {
				return err
			}
			if err := app.store.Load(); err != nil {
				return err
			}

			result, err := app.agent.Invoke(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Println(result)
			return nil
		},
	}
	cmd.Flags().StringP("input", "i", "", "Instruction for the agent")
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// app holds the wired components shared by serve and run.
type app struct {
	store *schedule.LocalStore
	agent *agent.Agent
	orch  *task.Orchestrator
}

func buildApp(cfg *config.Config) (*app, error) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	provider, err := providers.New(cfg.Provider.Name, cfg.Provider.APIKey, cfg.Provider.BaseURL, cfg.Agent.Model)
	if err != nil {
		return nil, err
	}

	pollInterval, err := time.ParseDuration(cfg.Scheduler.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler pollInterval: %w", err)
	}
	store := schedule.NewLocalStore(cfg.Scheduler.StorePath, pollInterval, nil)

	mutator := schedule.NewMutator(schedule.MutatorConfig{
		Store: store,
		Name:  cfg.Scheduler.Name,
		Group: cfg.Scheduler.Group,
	})

	registry := tools.NewRegistry()
	registry.Register(tools.NewHTTPGetTool())
	registry.Register(tools.NewCurrentTimeTool())
	registry.Register(tools.NewSleepTool())
	registry.Register(tools.NewUpdateScheduleTool(mutator))

	systemPrompt := ""
	if cfg.Agent.SystemPromptFile != "" {
		data, err := os.ReadFile(cfg.Agent.SystemPromptFile)
		if err != nil {
			return nil, fmt.Errorf("read system prompt: %w", err)
		}
		systemPrompt = string(data)
	}

	eng := agent.New(agent.Config{
		Provider:      provider,
		Tools:         registry,
		Model:         cfg.Agent.Model,
		MaxTokens:     cfg.Agent.MaxTokens,
		Temperature:   cfg.Agent.Temperature,
		MaxIterations: cfg.Agent.MaxToolIterations,
		SystemPrompt:  systemPrompt,
	})

	dispatcher := notify.NewDispatcher(buildPublishers(cfg)...)
	orch := task.NewOrchestrator(eng, dispatcher)

	return &app{store: store, agent: eng, orch: orch}, nil
}

func buildPublishers(cfg *config.Config) []notify.Publisher {
	var pubs []notify.Publisher

	if cfg.Notify.Telegram.Token != "" {
		p, err := notify.NewTelegramPublisher(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.ChatID)
		if err != nil {
			slog.Warn("notify: telegram publisher disabled", "error", err)
		} else {
			pubs = append(pubs, p)
		}
	}
	if cfg.Notify.Slack.BotToken != "" {
		pubs = append(pubs, notify.NewSlackPublisher(cfg.Notify.Slack.BotToken, cfg.Notify.Slack.Channel))
	}
	if cfg.Notify.Discord.Token != "" {
		p, err := notify.NewDiscordPublisher(cfg.Notify.Discord.Token, cfg.Notify.Discord.ChannelID)
		if err != nil {
			slog.Warn("notify: discord publisher disabled", "error", err)
		} else {
			pubs = append(pubs, p)
		}
	}
	if cfg.Notify.Webhook.URL != "" {
		pubs = append(pubs, notify.NewWebhookPublisher(cfg.Notify.Webhook.URL))
	}
	return pubs
}

// dispatchFiredSchedule unwraps a due schedule's target payload and
// starts the job it describes, closing the self-rescheduling loop.
func dispatchFiredSchedule(ctx context.Context, orch *task.Orchestrator, def *schedule.Definition) {
	inner := gjson.Get(def.Target.Input, "Payload").String()
	if inner == "" {
		slog.Warn("schedule: fired definition has no payload", "schedule", def.Identity())
		return
	}
	if gjson.Get(inner, "action").String() != "start" {
		slog.Info("schedule: fired payload is not a start action, ignoring", "schedule", def.Identity())
		return
	}

	job := task.Job{
		ID:           gjson.Get(inner, "job_id").String(),
		Input:        gjson.Get(inner, "input").String(),
		DelaySeconds: int(gjson.Get(inner, "seconds").Int()),
	}
	if job.ID == "" {
		job.ID = "scheduled"
	}
	handle := orch.Start(ctx, job)
	slog.Info("schedule: dispatched fired job", "job", job.ID, "handle", handle)
}
