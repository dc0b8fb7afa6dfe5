package llm

import (
	"context"

	"github.com/openai/openai-go"
)

type Provider interface {
	// Analyze sends a prompt, optionally with one image, and returns a structured response
	Analyze(ctx context.Context, req Request, opts ...Option) (*Response, error)
}

// Request is a single-turn vision prompt.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	// ImageURL may be an https URL or a data: URI
	ImageURL string
}

type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

type Option func(*Options)

type Options struct {
	Model       string
	MaxTokens   int64
	Temperature float64
	Tools       []openai.ChatCompletionToolParam
}

func WithTools(tools ...openai.ChatCompletionToolParam) Option {
	return func(o *Options) {
		o.Tools = tools
	}
}

func WithMaxTokens(n int64) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// FunctionResponse represents the structured response from a function call
type FunctionResponse struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Response carries either plain content or a function call
type Response struct {
	Content      string
	FunctionCall *FunctionResponse
	Usage        Usage
}
