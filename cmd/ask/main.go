package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"browsegpt/internal/application/port/output"
	"browsegpt/internal/di"
	"browsegpt/internal/domain/entity"
	"browsegpt/internal/infrastructure/env"
	"browsegpt/internal/infrastructure/userinteraction"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup, including the log
// flush, happens before exiting.
func run() int {
	envService := env.NewEnvService()

	cfg, err := env.LoadConfig(envService)
	if err != nil {
		log.Printf("configuration error: %v", err)
		return 1
	}
	// Terminal output belongs to the conversation.
	cfg.LogLevel = envService.GetWithDefault("ASK_LOG_LEVEL", "error")
	cfg.LogFormat = "console"

	container, err := di.NewContainer(cfg)
	if err != nil {
		log.Printf("initialization error: %v", err)
		return 1
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := userinteraction.NewConsoleUserInteraction()

	question := strings.TrimSpace(strings.Join(os.Args[1:], " "))
	if question == "" {
		question, err = console.AskQuestion(ctx, "What do you want to know?")
		if err != nil {
			log.Printf("input error: %v", err)
			return 1
		}
	}

	history := []entity.Message{{Role: entity.RoleUser, Content: question}}
	for {
		history, err = runTurn(ctx, container, console, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nturn failed: %v\n", err)
			return 1
		}

		pending := pendingCalls(history)
		if len(pending) == 0 {
			fmt.Println()
			return 0
		}
		for _, call := range pending {
			answer, err := console.AskQuestion(ctx, confirmationMessage(call))
			if err != nil {
				log.Printf("input error: %v", err)
				return 1
			}
			content, _ := json.Marshal(answer)
			history = append(history, entity.Message{
				Role:       entity.RoleTool,
				Content:    string(content),
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
	}
}

// runTurn runs the controller once, rendering events as they arrive, and
// returns the conversation including the new assistant and tool messages.
func runTurn(ctx context.Context, c *di.Container, console output.UserInteractionPort, history []entity.Message) ([]entity.Message, error) {
	events := make(chan entity.StreamEvent, 32)
	done := make(chan struct{})

	go func() {
		defer close(done)
		step := 0
		for ev := range events {
			switch ev.Type {
			case entity.EventStepStart:
				step++
				console.ShowStep(ctx, step, c.Config.MaxSteps)
			case entity.EventTextDelta:
				console.ShowText(ctx, ev.Text)
			case entity.EventToolCall:
				console.ShowToolStart(ctx, ev.ToolCall.Name, ev.ToolCall.Arguments)
			case entity.EventToolResult:
				console.ShowToolResult(ctx, ev.ToolCall.Name, ev.Result, ev.Err != nil)
			}
		}
	}()

	result, err := c.Chat.Run(ctx, history, events)
	close(events)
	<-done
	if err != nil {
		return nil, err
	}
	if result.BudgetExceeded {
		fmt.Printf("\n(stopped after %d steps)\n", result.Steps)
	}
	return result.Messages, nil
}

// pendingCalls returns the tool calls of the last assistant message that
// have no tool message yet.
func pendingCalls(history []entity.Message) []entity.ToolCall {
	answered := make(map[string]bool)
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		switch msg.Role {
		case entity.RoleTool:
			answered[msg.ToolCallID] = true
		case entity.RoleAssistant:
			var pending []entity.ToolCall
			for _, call := range msg.ToolCalls {
				if !answered[call.ID] {
					pending = append(pending, call)
				}
			}
			return pending
		default:
			return nil
		}
	}
	return nil
}

func confirmationMessage(call entity.ToolCall) string {
	var args struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil || args.Message == "" {
		return fmt.Sprintf("Allow %s?", call.Name)
	}
	return args.Message
}
