// Package llm turns pull request changes into a validated analysis using a
// language model.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/sevigo/goframe/llms"
)

// Generator produces a completion for a system instruction and a prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, system, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, system, prompt string) (string, error) {
	return f(ctx, system, prompt)
}

type modelGenerator struct {
	model llms.Model
}

// NewModelGenerator adapts a goframe model (ollama, gemini). These models take
// a single prompt, so the system instruction is prepended.
func NewModelGenerator(model llms.Model) Generator {
	return &modelGenerator{model: model}
}

func (g *modelGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	if system != "" {
		prompt = system + "\n\n" + prompt
	}
	return g.model.Call(ctx, prompt)
}

const openAIMaxCompletionTokens = 8192

type openAIGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator returns a Generator backed by the chat completions API
// in JSON mode. An empty baseURL uses the public endpoint.
func NewOpenAIGenerator(apiKey, model, baseURL string) Generator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openAIGenerator{client: openai.NewClient(opts...), model: model}
}

func (g *openAIGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		MaxCompletionTokens: openai.Int(openAIMaxCompletionTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
