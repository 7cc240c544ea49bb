package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/outputparser"
	"github.com/tmc/langchaingo/prompts"
)

const systemTemplate = `You are an intent classification model for an employee timesheet (EM) assistant.
Classify the user query into exactly one of these labels:
{{.labels}}

- check_pending: the user wants to know which EM dates are still pending.
- fill_pending: the user wants to fill in or submit EM entries.

{{.format_instructions}}`

// labelOutput is the structured answer the model is asked for.
type labelOutput struct {
	Intent string `json:"intent" describe:"exactly one of the labels above"`
}

var labelParser = mustDefined(labelOutput{})

func mustDefined[T any](source T) outputparser.Defined[T] {
	p, err := outputparser.NewDefined(source)
	if err != nil {
		panic(err)
	}
	return p
}

// LLM classifies queries with a chat model.
type LLM struct {
	model  llms.Model
	prompt prompts.PromptTemplate
}

// NewLLM wraps model as a Classifier.
func NewLLM(model llms.Model) *LLM {
	return &LLM{
		model: model,
		prompt: prompts.PromptTemplate{
			Template:       systemTemplate,
			InputVariables: []string{"labels", "format_instructions"},
			TemplateFormat: prompts.TemplateFormatGoTemplate,
		},
	}
}

// OpenAIConfig points the classifier at any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

// NewOpenAI builds an LLM classifier backed by an OpenAI-compatible API.
func NewOpenAI(cfg OpenAIConfig) (*LLM, error) {
	opts := []openai.Option{openai.WithToken(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return NewLLM(model), nil
}

func (c *LLM) Classify(ctx context.Context, query string) (Intent, error) {
	labels := make([]string, len(Intents))
	for i, intent := range Intents {
		labels[i] = string(intent)
	}
	system, err := c.prompt.Format(map[string]any{
		"labels":              strings.Join(labels, ", "),
		"format_instructions": labelParser.GetFormatInstructions(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}

	resp, err := c.model.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, system),
			llms.TextParts(llms.ChatMessageTypeHuman, query),
		},
		llms.WithTemperature(0),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty model response", ErrUnrecognizedLabel)
	}
	return ParseLabel(resp.Choices[0].Content)
}

// ParseLabel reads a model answer given as the structured JSON output (fenced
// or not) or as a bare label.
func ParseLabel(answer string) (Intent, error) {
	text := strings.TrimSpace(answer)
	if out, err := labelParser.Parse(fenced(text)); err == nil && out.Intent != "" {
		text = out.Intent
	}

	intent := Intent(strings.ToLower(strings.Trim(text, "\"' \n\t.")))
	if !intent.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedLabel, answer)
	}
	return intent, nil
}

// fenced wraps text in the ```json fence the output parser expects.
func fenced(text string) string {
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return "```json\n" + strings.TrimSpace(text) + "\n```"
}
