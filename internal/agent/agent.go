// Package agent runs one reasoning pass: a single Invoke call that loops
// between the LLM provider and tool execution until a final answer.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/coopco/tickbot/internal/providers"
	"github.com/coopco/tickbot/internal/tools"
)

// DefaultSystemPrompt describes the self-rescheduling contract: before
// finishing, the agent must call update_next_schedule so that a next run
// is always on the books.
const DefaultSystemPrompt = `You are a pragmatic research agent that runs on a schedule.

## Core Behaviors
- Think step by step.
- Use tools when helpful (http_get, current_time, sleep_seconds, update_next_schedule).
- Keep outputs concise unless asked.

## Autonomous Scheduling
Before completing your task, you MUST call update_next_schedule with:
- next_execution: when this agent should run again (e.g. '+5m', '+1h')
- next_input: the instruction your future self should receive
`

// Agent is the reasoning engine behind one background job.
type Agent struct {
	provider     providers.Provider
	tools        *tools.Registry
	model        string
	maxTokens    int
	temperature  float64
	maxIter      int
	systemPrompt string
}

// Config holds all dependencies and settings for an Agent.
type Config struct {
	Provider      providers.Provider
	Tools         *tools.Registry
	Model         string
	MaxTokens     int
	Temperature   float64
	MaxIterations int
	SystemPrompt  string
}

func New(cfg Config) *Agent {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 40
	}
	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	return &Agent{
		provider:     cfg.Provider,
		tools:        cfg.Tools,
		model:        cfg.Model,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		maxIter:      maxIter,
		systemPrompt: prompt,
	}
}

// Invoke runs the full LLM + tool loop for a single input and returns
// the final text response. One call per job; retries are the caller's
// decision (and nobody retries here).
func (a *Agent) Invoke(ctx context.Context, input string) (string, error) {
	messages := []providers.Message{{Role: "user", Content: input}}
	toolDefs := registryToProviderTools(a.tools.Definitions())

	for i := 0; i < a.maxIter; i++ {
		resp, err := a.provider.Chat(ctx, providers.ChatRequest{
			Model:        a.model,
			Messages:     messages,
			Tools:        toolDefs,
			MaxTokens:    a.maxTokens,
			Temperature:  a.temperature,
			SystemPrompt: a.systemPrompt,
		})
		if err != nil {
			return "", fmt.Errorf("provider chat error: %w", err)
		}

		messages = append(messages, providers.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		for _, tc := range resp.ToolCalls {
			slog.Debug("agent: executing tool", "name", tc.Name, "id", tc.ID)
			result := a.tools.Execute(ctx, tc.Name, json.RawMessage(tc.Arguments))
			messages = append(messages, providers.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	// Exceeded maxIter — return whatever the last assistant content was.
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "assistant" && messages[i].Content != "" {
			return messages[i].Content, nil
		}
	}
	return "", fmt.Errorf("max iterations (%d) reached without a final response", a.maxIter)
}

// registryToProviderTools converts tool registry definitions to provider tool format.
func registryToProviderTools(defs []tools.ToolDefinition) []providers.ToolDef {
	result := make([]providers.ToolDef, len(defs))
	for i, d := range defs {
		result[i] = providers.ToolDef{
			Type: d.Type,
			Function: providers.FunctionDef{
				Name:        d.Function.Name,
				Description: d.Function.Description,
				Parameters:  d.Function.Parameters,
			},
		}
	}
	return result
}
