package prompt

import (
	"context"
	"errors"
	"strings"

	"productshot/internal/domain"
	"productshot/internal/infra"
	"productshot/internal/jsonutil"
	"productshot/internal/providers/openai"
)

const (
	defaultPlannerModel  = "gpt-4o-mini"
	defaultDescribeModel = "gpt-4.1"
	plannerTemperature   = 0.7
)

type chatCompleter interface {
	ChatCompletion(ctx context.Context, req openai.ChatRequest) (string, error)
}

type responder interface {
	CreateResponse(ctx context.Context, req openai.ResponseRequest) (*openai.Response, error)
}

type OpenAIOptions struct {
	Model  string
	Logger *infra.Logger
}

// OpenAIPlanner plans prompts with one chat-completions call. It never
// retries; the caller treats any error as fatal for the run.
type OpenAIPlanner struct {
	client chatCompleter
	model  string
	logger infra.Logger
}

func NewOpenAIPlanner(client chatCompleter, opts OpenAIOptions) *OpenAIPlanner {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultPlannerModel
	}
	return &OpenAIPlanner{client: client, model: model, logger: infra.OrNop(opts.Logger)}
}

func (o *OpenAIPlanner) Plan(ctx context.Context, ref domain.ImageReference, k int, description string) ([]domain.EnhancementPrompt, error) {
	if k <= 0 {
		return nil, domain.Planning("", domain.ErrNoPrompts)
	}
	o.logger.Info().Int("requested", k).Str("model", o.model).Msg("planner: generating prompts")
	text, err := o.client.ChatCompletion(ctx, openai.ChatRequest{
		Model:       o.model,
		Temperature: plannerTemperature,
		Messages: []openai.ChatMessage{
			{Role: "system", Content: plannerSystemMessage},
			{Role: "user", Content: []openai.ChatContentPart{
				openai.TextPart(buildPlannerText(k, description)),
				openai.ImagePart(ref.Canonical()),
			}},
		},
	})
	if err != nil {
		return nil, domain.Planning("planner request failed", err)
	}
	obj, err := jsonutil.ExtractObject(text)
	if err != nil {
		return nil, domain.Planning("", err)
	}
	prompts := selectPrompts(obj, k)
	if len(prompts) == 0 {
		return nil, domain.Planning("", domain.ErrNoPrompts)
	}
	if len(prompts) < k {
		o.logger.Warn().Int("requested", k).Int("planned", len(prompts)).Msg("planner: fewer prompts than requested")
	}
	return prompts, nil
}

// OpenAIDescriber describes the reference through the Responses API.
type OpenAIDescriber struct {
	client responder
	model  string
	logger infra.Logger
}

func NewOpenAIDescriber(client responder, opts OpenAIOptions) *OpenAIDescriber {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultDescribeModel
	}
	return &OpenAIDescriber{client: client, model: model, logger: infra.OrNop(opts.Logger)}
}

func (d *OpenAIDescriber) Describe(ctx context.Context, ref domain.ImageReference) (string, error) {
	resp, err := d.client.CreateResponse(ctx, openai.ResponseRequest{
		Model: d.model,
		Input: openai.UserInput(describeText, ref.Canonical()),
	})
	if err != nil {
		return "", domain.Planning("describe request failed", err)
	}
	text := resp.OutputText()
	if text == "" {
		return "", domain.Planning("describe request failed", errors.New("empty description"))
	}
	d.logger.Debug().Int("chars", len(text)).Msg("describer: description received")
	return text, nil
}

var (
	_ Planner   = (*OpenAIPlanner)(nil)
	_ Describer = (*OpenAIDescriber)(nil)
)
