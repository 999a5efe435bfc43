package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/promptfall/promptfall/internal"
)

const (
	defaultModel     = "gpt-3.5-turbo"
	draftMaxTokens   = 150
	draftTemperature = 0.8

	// AI-sourced challenges get a fixed mid-range time limit since the
	// model cannot be trusted to size one.
	challengeTimeLimit = 35
)

const (
	draftSystemPrompt = "You are participating in a creative prompt game. The challenge is: %s. Write a creative, engaging response in 2-3 sentences."

	challengeSystemPrompt = "You are hosting a creative prompt party game. Produce one short, playful writing challenge that players can answer in 2-3 sentences. Reply with the challenge text only."
)

// Generator produces AI draft responses and, optionally, AI-sourced
// challenges. Rooms play fine without it; callers fall back to canned
// content when it is absent, errors, or runs long.
type Generator struct {
	client *openai.Client
	model  string
}

func NewGenerator(apiKey string) *Generator {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Generator{
		client: &client,
		model:  defaultModel,
	}
}

// Draft writes a response suggestion for the given challenge.
func (g *Generator) Draft(ctx context.Context, challengeText string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(draftSystemPrompt, challengeText)),
			openai.UserMessage(challengeText),
		},
		MaxCompletionTokens: openai.Int(draftMaxTokens),
		Temperature:         openai.Float(draftTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("draft completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty completion")
	}
	return text, nil
}

// Next asks the model for a fresh challenge. Satisfies the game's
// challenge source interface.
func (g *Generator) Next(ctx context.Context, roundNumber int) (internal.Challenge, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(challengeSystemPrompt),
			openai.UserMessage(fmt.Sprintf("Write challenge #%d.", roundNumber)),
		},
		MaxCompletionTokens: openai.Int(draftMaxTokens),
		Temperature:         openai.Float(draftTemperature),
	})
	if err != nil {
		return internal.Challenge{}, fmt.Errorf("challenge completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return internal.Challenge{}, fmt.Errorf("no completion choices returned")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return internal.Challenge{}, fmt.Errorf("empty completion")
	}
	return internal.Challenge{
		Text:        text,
		Category:    "AI",
		TimeLimit:   challengeTimeLimit,
		RoundNumber: roundNumber,
	}, nil
}
