package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/identity-crisis/pkg/chat"
	"google.golang.org/genai"
)

// GenAIService implements LLMService on the Google Gen AI SDK. Each player
// brings a credential, so an SDK client is built for every call and the key
// is not held once the call returns. The HTTP client, and its connection
// pool, is shared.
type GenAIService struct {
	baseURL    string
	modelName  string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ LLMService = (*GenAIService)(nil)

// NewGenAIService creates a new SDK-backed service. An empty baseURL uses the
// SDK default endpoint.
func NewGenAIService(baseURL, modelName string, logger *slog.Logger) *GenAIService {
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	return &GenAIService{
		baseURL:   baseURL,
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// client builds an SDK client for apiKey. For the Gemini API backend this
// does no network I/O.
func (g *GenAIService) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.httpClient,
	}
	if g.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}

	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return c, nil
}

// genaiContents maps turns onto SDK contents, dropping system turns.
func genaiContents(turns []chat.Turn) []*genai.Content {
	turns = chat.WithoutSystem(turns)
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		var role genai.Role = genai.RoleUser
		if t.Role == chat.ChatRoleAgent {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}
	return contents
}

func genaiConfig(req *chat.GenerateRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Options.Temperature)),
		TopP:            genai.Ptr(float32(req.Options.TopP)),
		TopK:            genai.Ptr(float32(req.Options.TopK)),
		MaxOutputTokens: int32(req.Options.MaxOutputTokens),
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	return cfg
}

// Generate makes one GenerateContent call through the SDK.
func (g *GenAIService) Generate(ctx context.Context, apiKey string, req *chat.GenerateRequest) (string, error) {
	if err := requireAPIKey(apiKey); err != nil {
		return "", err
	}

	c, err := g.client(ctx, apiKey)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := c.Models.GenerateContent(ctx, g.modelName, genaiContents(req.Turns), genaiConfig(req))
	if err != nil {
		return "", &APIError{Message: err.Error(), Err: err}
	}

	g.logger.Debug("GenAI response received",
		"model", g.modelName,
		"duration_ms", time.Since(start).Milliseconds())

	if resp == nil || len(resp.Candidates) == 0 ||
		resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 ||
		resp.Candidates[0].Content.Parts[0] == nil ||
		resp.Candidates[0].Content.Parts[0].Text == "" {
		return "", &APIError{StatusCode: http.StatusOK, Message: msgInvalidResponse}
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}
