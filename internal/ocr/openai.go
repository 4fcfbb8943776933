package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	EngineNameOpenAI    = "openai"
	openAIDefaultModel  = "gpt-4o-mini"
	openAIDefaultPrompt = "Transcribe all visible text in this screenshot exactly as shown. " +
		"Preserve numbers, dates and times verbatim. Reply with the raw text only."
)

// OpenAIConfig holds configuration for the OpenAI vision engine.
type OpenAIConfig struct {
	APIKey     string
	Model      string        // default "gpt-4o-mini"
	Prompt     string        // transcription instruction
	BaseURL    string        // optional (tests, proxies)
	Timeout    time.Duration // HTTP timeout, default 120s
	MaxRetries int           // SDK transport retries, default 2
	HTTPClient *http.Client  // optional (tests)
}

// OpenAIEngine recognizes text by sending the image to an OpenAI-compatible
// vision model. Useful where Tesseract's trained data is missing for a
// language or the screenshots are too noisy for it.
type OpenAIEngine struct {
	model  string
	prompt string
	client openai.Client
}

// NewOpenAIEngine creates an OpenAI vision engine.
func NewOpenAIEngine(cfg OpenAIConfig) *OpenAIEngine {
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.Prompt == "" {
		cfg.Prompt = openAIDefaultPrompt
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIEngine{
		model:  cfg.Model,
		prompt: cfg.Prompt,
		client: openai.NewClient(opts...),
	}
}

// Name returns the engine identifier.
func (e *OpenAIEngine) Name() string { return EngineNameOpenAI }

// Recognize sends the image as a data URL and returns the model's transcript.
// The language identifier is passed as a hint inside the prompt; vision
// models are not restricted to one script the way Tesseract is.
func (e *OpenAIEngine) Recognize(ctx context.Context, in Input) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s",
		http.DetectContentType(in.Image),
		base64.StdEncoding.EncodeToString(in.Image))

	prompt := e.prompt
	if in.Language != "" {
		prompt = fmt.Sprintf("%s The text language is %q.", prompt, in.Language)
	}

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
	})
	if err != nil {
		return "", fmt.Errorf("vision completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
