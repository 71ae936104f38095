package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jwebster45206/identity-crisis/pkg/chat"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel   = "gemini-1.5-flash"

	geminiRoleModel = "model"
)

// GeminiService implements LLMService with plain REST calls to generateContent
type GeminiService struct {
	baseURL    string
	modelName  string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ LLMService = (*GeminiService)(nil)

type GeminiPart struct {
	Text string `json:"text"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// GeminiRequest represents the request body for models.generateContent
type GeminiRequest struct {
	Contents          []GeminiContent        `json:"contents"`
	SystemInstruction *GeminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  GeminiGenerationConfig `json:"generationConfig"`
}

// GeminiResponse represents the response body for models.generateContent
type GeminiResponse struct {
	Candidates []struct {
		Content      GeminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewGeminiService creates a new Gemini REST client
func NewGeminiService(baseURL, modelName string, logger *slog.Logger) *GeminiService {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	return &GeminiService{
		baseURL:   strings.TrimRight(baseURL, "/"),
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (g *GeminiService) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.modelName)
}

// NewGeminiRequest converts a provider-neutral request into the wire body.
// System turns are dropped and assistant turns are sent as "model".
func NewGeminiRequest(req *chat.GenerateRequest) GeminiRequest {
	turns := chat.WithoutSystem(req.Turns)
	body := GeminiRequest{
		Contents: make([]GeminiContent, 0, len(turns)),
		GenerationConfig: GeminiGenerationConfig{
			Temperature:     req.Options.Temperature,
			TopP:            req.Options.TopP,
			TopK:            req.Options.TopK,
			MaxOutputTokens: req.Options.MaxOutputTokens,
		},
	}
	for _, t := range turns {
		role := t.Role
		if role == chat.ChatRoleAgent {
			role = geminiRoleModel
		}
		body.Contents = append(body.Contents, GeminiContent{
			Role:  role,
			Parts: []GeminiPart{{Text: t.Content}},
		})
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &GeminiContent{
			Parts: []GeminiPart{{Text: req.SystemInstruction}},
		}
	}
	return body
}

// Generate makes one generateContent call. There are no retries.
func (g *GeminiService) Generate(ctx context.Context, apiKey string, req *chat.GenerateRequest) (string, error) {
	if err := requireAPIKey(apiKey); err != nil {
		return "", err
	}

	reqBody, err := json.Marshal(NewGeminiRequest(req))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", apiKey)

	start := time.Now()
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	g.logger.Debug("Gemini response received",
		"model", g.modelName,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	var geminiResp GeminiResponse
	parseErr := json.Unmarshal(body, &geminiResp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		if parseErr == nil && geminiResp.Error != nil && geminiResp.Error.Message != "" {
			msg = geminiResp.Error.Message
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if parseErr != nil {
		return "", &APIError{StatusCode: resp.StatusCode, Message: msgInvalidResponse, Err: parseErr}
	}
	if len(geminiResp.Candidates) == 0 ||
		len(geminiResp.Candidates[0].Content.Parts) == 0 ||
		geminiResp.Candidates[0].Content.Parts[0].Text == "" {
		return "", &APIError{StatusCode: resp.StatusCode, Message: msgInvalidResponse}
	}

	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}
