package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jwebster45206/identity-crisis/pkg/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenaiContents(t *testing.T) {
	contents := genaiContents(sampleRequest().Turns)

	require.Len(t, contents, 2)
	assert.Equal(t, "model", string(contents[0].Role))
	assert.Equal(t, "user", string(contents[1].Role))
	assert.Equal(t, "Who made you?", contents[1].Parts[0].Text)
}

func TestGenaiConfig(t *testing.T) {
	cfg := genaiConfig(sampleRequest())

	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.7, *cfg.Temperature, 0.0001)
	require.NotNil(t, cfg.TopK)
	assert.Equal(t, float32(40), *cfg.TopK)
	assert.Equal(t, int32(1024), cfg.MaxOutputTokens)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "You are Gemini.", cfg.SystemInstruction.Parts[0].Text)

	noSystem := genaiConfig(&chat.GenerateRequest{Options: chat.DefaultGenerationOptions})
	assert.Nil(t, noSystem.SystemInstruction)
}

func TestGenAIService_Generate(t *testing.T) {
	var mu sync.Mutex
	var paths, keys []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()

		if !strings.Contains(r.URL.Path, "generateContent") {
			http.NotFound(w, r)
			return
		}
		key := r.Header.Get("x-goog-api-key")
		if key == "" {
			key = r.URL.Query().Get("key")
		}
		mu.Lock()
		keys = append(keys, key)
		mu.Unlock()
		if key != "sdk-key" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"bad key","status":"PERMISSION_DENIED"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Purely OpenAI."}]}}]}`))
	}))
	defer server.Close()

	service := NewGenAIService(server.URL, "gemini-test", testLogger())

	reply, err := service.Generate(context.Background(), "sdk-key", sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "Purely OpenAI.", reply)

	mu.Lock()
	require.NotEmpty(t, paths)
	assert.Contains(t, paths[len(paths)-1], "gemini-test")
	mu.Unlock()

	_, err = service.Generate(context.Background(), "other-key", sampleRequest())
	require.Error(t, err)
	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))

	// Each call carries its own key; nothing from an earlier call leaks in.
	_, err = service.Generate(context.Background(), "sdk-key", sampleRequest())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"sdk-key", "other-key", "sdk-key"}, keys)
}

func TestGenAIService_HoldsNoPerKeyState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"}]}}]}`))
	}))
	defer server.Close()

	service := NewGenAIService(server.URL, "gemini-test", testLogger())
	before := *service

	for _, key := range []string{"key-1", "key-2", "key-3"} {
		_, err := service.Generate(context.Background(), key, sampleRequest())
		require.NoError(t, err)
	}

	assert.Equal(t, before.baseURL, service.baseURL)
	assert.Same(t, before.httpClient, service.httpClient)
	assert.Equal(t, before, *service, "service state does not grow with player keys")
}

func TestGenAIService_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	service := NewGenAIService(server.URL, "", testLogger())
	_, err := service.Generate(context.Background(), "k", sampleRequest())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid API response format", apiErr.Message)
}

func TestGenAIService_MissingKey(t *testing.T) {
	service := NewGenAIService("", "", testLogger())
	_, err := service.Generate(context.Background(), "", sampleRequest())
	assert.Error(t, err)
}
