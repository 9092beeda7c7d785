package llmimpl

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vuongnp/tiktok-insight-service/internal/llm"
	"github.com/vuongnp/tiktok-insight-service/pkg/config"
	"github.com/vuongnp/tiktok-insight-service/pkg/logger"
	"go.uber.org/fx"
	"google.golang.org/genai"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

// GeminiClient is a thin wrapper around the official genai client that
// requests JSON output conforming to the findings schema.
type GeminiClient struct {
	cli          *genai.Client
	defaultModel string
	logger       logger.Logger
}

func New(opts Opts) (*GeminiClient, error) {
	if opts.Config.Analysis.GeminiAPIKey == "" {
		return nil, fmt.Errorf("Gemini API key is not configured")
	}

	cli, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  opts.Config.Analysis.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create genai client: %w", err)
	}

	return &GeminiClient{
		cli:          cli,
		defaultModel: opts.Config.Analysis.DefaultModel,
		logger:       opts.Logger,
	}, nil
}

var _ llm.Client = (*GeminiClient)(nil)

// findingsSchema constrains the model's answer to a list of candidate
// findings with closed enums for sentiment and purchase intent.
var findingsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"findings": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"quote":           {Type: genai.TypeString},
					"sentiment":       {Type: genai.TypeString, Enum: []string{"positive", "negative", "neutral"}},
					"theme":           {Type: genai.TypeString},
					"purchase_intent": {Type: genai.TypeString, Enum: []string{"high", "medium", "low", "none"}},
					"confidence":      {Type: genai.TypeNumber},
				},
				Required: []string{"quote", "sentiment", "theme", "purchase_intent", "confidence"},
			},
		},
	},
	Required: []string{"findings"},
}

type findingsEnvelope struct {
	Findings []llm.CandidateFinding `json:"findings"`
}

func (g *GeminiClient) ExtractFindings(ctx context.Context, req llm.Request) ([]llm.CandidateFinding, error) {
	model := req.Model
	if model == "" {
		model = g.defaultModel
	}

	temperature := float32(0.1)
	resp, err := g.cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: req.UserPrompt}}}},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: req.SystemPrompt}}},
			ResponseMIMEType:  "application/json",
			ResponseSchema:    findingsSchema,
			Temperature:       &temperature,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("generate content with %s: %w", model, err)
	}
	if len(resp.Candidates) == 0 ||
		resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, llm.ErrEmptyResponse
	}

	text := resp.Candidates[0].Content.Parts[0].Text

	var envelope findingsEnvelope
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		g.logger.Warn("Model returned non-conforming JSON", "model", model, "error", err)
		return nil, fmt.Errorf("%w: %v", llm.ErrSchemaMismatch, err)
	}

	return envelope.Findings, nil
}
