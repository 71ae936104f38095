package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jwebster45206/identity-crisis/pkg/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func sampleRequest() *chat.GenerateRequest {
	return &chat.GenerateRequest{
		SystemInstruction: "You are Gemini.",
		Turns: []chat.Turn{
			{Role: chat.ChatRoleAgent, Content: "Hello! I'm ChatGPT."},
			{Role: chat.ChatRoleSystem, Content: "never sent"},
			{Role: chat.ChatRoleUser, Content: "Who made you?"},
		},
		Options: chat.DefaultGenerationOptions,
	}
}

func TestNewGeminiService_Defaults(t *testing.T) {
	service := NewGeminiService("", "", testLogger())

	assert.Equal(t, DefaultGeminiBaseURL, service.baseURL)
	assert.Equal(t, DefaultGeminiModel, service.modelName)
	require.NotNil(t, service.httpClient)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent", service.endpoint())
}

func TestNewGeminiRequest(t *testing.T) {
	body := NewGeminiRequest(sampleRequest())

	require.Len(t, body.Contents, 2)
	assert.Equal(t, "model", body.Contents[0].Role)
	assert.Equal(t, "user", body.Contents[1].Role)
	assert.Equal(t, "Who made you?", body.Contents[1].Parts[0].Text)

	require.NotNil(t, body.SystemInstruction)
	assert.Equal(t, "You are Gemini.", body.SystemInstruction.Parts[0].Text)
	assert.Equal(t, 0.7, body.GenerationConfig.Temperature)
	assert.Equal(t, 0.95, body.GenerationConfig.TopP)
	assert.Equal(t, 40, body.GenerationConfig.TopK)
	assert.Equal(t, 1024, body.GenerationConfig.MaxOutputTokens)
}

func TestNewGeminiRequest_ZeroTemperatureIsSent(t *testing.T) {
	req := &chat.GenerateRequest{
		Turns:   []chat.Turn{{Role: chat.ChatRoleUser, Content: "classify"}},
		Options: chat.GenerationOptions{TopP: 0.95, TopK: 40, MaxOutputTokens: 8},
	}
	data, err := json.Marshal(NewGeminiRequest(req))
	require.NoError(t, err)

	assert.Contains(t, string(data), `"temperature":0`)
	assert.NotContains(t, string(data), "systemInstruction")
}

func TestGeminiService_Generate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody GeminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"I am ChatGPT. Definitely."}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	service := NewGeminiService(server.URL+"/", "gemini-test", testLogger())
	reply, err := service.Generate(context.Background(), "test-key", sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, "I am ChatGPT. Definitely.", reply)
	assert.Equal(t, "/v1beta/models/gemini-test:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Len(t, gotBody.Contents, 2)
}

func TestGeminiService_GenerateErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "remote error message",
			status:     http.StatusBadRequest,
			body:       `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "API key not valid. Please pass a valid API key.",
		},
		{
			name:       "status text fallback",
			status:     http.StatusServiceUnavailable,
			body:       "upstream down",
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    "Service Unavailable",
		},
		{
			name:       "no candidates",
			status:     http.StatusOK,
			body:       `{"candidates":[]}`,
			wantStatus: http.StatusOK,
			wantMsg:    "Invalid API response format",
		},
		{
			name:       "empty parts",
			status:     http.StatusOK,
			body:       `{"candidates":[{"content":{"parts":[]}}]}`,
			wantStatus: http.StatusOK,
			wantMsg:    "Invalid API response format",
		},
		{
			name:       "not json",
			status:     http.StatusOK,
			body:       "<html>",
			wantStatus: http.StatusOK,
			wantMsg:    "Invalid API response format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			service := NewGeminiService(server.URL, "", testLogger())
			_, err := service.Generate(context.Background(), "k", sampleRequest())
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, "API Error: "+tt.wantMsg, err.Error())
		})
	}
}

func TestGeminiService_MissingKeyMakesNoRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	service := NewGeminiService(server.URL, "", testLogger())
	_, err := service.Generate(context.Background(), "", sampleRequest())

	assert.Error(t, err)
	assert.False(t, called)
}

func TestGeminiService_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	service := NewGeminiService(url, "", testLogger())
	_, err := service.Generate(context.Background(), "k", sampleRequest())

	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
