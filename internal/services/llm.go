package services

import (
	"context"
	"fmt"

	"github.com/jwebster45206/identity-crisis/pkg/chat"
)

// LLMService defines the interface for interacting with the generation endpoint
type LLMService interface {
	// Generate sends the request with the caller's API key and returns the
	// text of the first candidate.
	Generate(ctx context.Context, apiKey string, req *chat.GenerateRequest) (string, error)
}

// APIError is a failed or unusable response from the generation endpoint.
type APIError struct {
	StatusCode int    // HTTP status, 0 when unknown
	Message    string // remote error message, or the status text
	Err        error  // underlying cause, if any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API Error: %s", e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// msgInvalidResponse is reported when no candidate text comes back.
const msgInvalidResponse = "Invalid API response format"

func requireAPIKey(apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("api key is required")
	}
	return nil
}
