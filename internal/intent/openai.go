// Package intent provides intent classification for user utterances.
//
// This file implements the model-backed classifier using the OpenAI API.
package intent

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/promibe/poshbot/internal/models"
)

const classifierSystemPrompt = `You classify a single chat message from a prospective student into exactly one intent id:
0 = greetings
1 = enrollment (wants to enroll or register for a course)
2 = pricing (asks about course prices or fees)
3 = tracking (wants to track or confirm registered courses)
4 = fallback (anything else)
Reply with the single digit only.`

// OpenAIClassifier classifies utterances with a chat completion model.
type OpenAIClassifier struct {
	client openai.Client
	model  openai.ChatModel
}

// Option configures an OpenAIClassifier.
type Option func(*OpenAIClassifier)

// WithModel overrides the chat model used for classification.
func WithModel(model openai.ChatModel) Option {
	return func(c *OpenAIClassifier) {
		c.model = model
	}
}

// NewOpenAIClassifier creates a model-backed classifier with the given API
// key.
func NewOpenAIClassifier(apiKey string, opts ...Option) (*OpenAIClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	c := &OpenAIClassifier{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModelGPT4oMini,
	}
	for _, opt := range opts {
		opt(c)
	}
	slog.Debug("Created OpenAI intent classifier", "model", c.model)
	return c, nil
}

// Classify sends the utterance to the model and parses the returned intent
// id. Transport errors are returned to the caller; a response that is not a
// known intent id degrades to the fallback intent rather than failing the
// turn.
func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (int, error) {
	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(classifierSystemPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		slog.Error("OpenAIClassifier request failed", "error", err)
		return 0, fmt.Errorf("intent classification request: %w", err)
	}
	if len(completion.Choices) == 0 {
		slog.Warn("OpenAIClassifier returned no choices, using fallback")
		return models.IntentFallback, nil
	}

	reply := strings.TrimSpace(completion.Choices[0].Message.Content)
	id, err := strconv.Atoi(reply)
	if err != nil || id < models.IntentGreetings || id > models.IntentFallback {
		slog.Warn("OpenAIClassifier unparseable intent id, using fallback", "reply", reply)
		return models.IntentFallback, nil
	}

	slog.Debug("OpenAIClassifier classified", "intent", models.IntentLabel(id))
	return id, nil
}
