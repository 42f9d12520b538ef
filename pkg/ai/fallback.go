package ai

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
)

// FallbackService routes chat completions to a cloud provider first and
// falls back to the local Ollama server on quota exhaustion, and the other
// way around on connection errors.
type FallbackService struct {
	cloud  ChatService
	ollama *OllamaService
}

// NewFallbackService creates a new fallback service with both providers
func NewFallbackService(cloud ChatService, ollama *OllamaService) *FallbackService {
	return &FallbackService{
		cloud:  cloud,
		ollama: ollama,
	}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if _, ok := err.(net.Error); ok {
		return true
	}

	errStr := strings.ToLower(err.Error())
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	}

	for _, indicator := range connectionIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
	}

	for _, indicator := range quotaIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// Complete tries the cloud provider first, falls back to Ollama
func (f *FallbackService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if f.cloud != nil {
		result, err := f.cloud.Complete(ctx, req)
		if err == nil {
			return result, nil
		}

		if isQuotaError(err) {
			log.Printf("[AI] Cloud provider quota exhausted: %v, falling back to Ollama", err)
		} else {
			log.Printf("[AI] Cloud provider error: %v, falling back to Ollama", err)
		}
	}

	if f.ollama != nil {
		// Model overrides are provider-specific; the local model is whatever
		// Ollama has pulled.
		localReq := req
		localReq.Model = ""

		result, err := f.ollama.Complete(ctx, localReq)
		if err == nil {
			return result, nil
		}

		// If Ollama is unreachable, retry the cloud provider once
		if isConnectionError(err) && f.cloud != nil {
			log.Printf("[AI] Ollama connection failed: %v, retrying cloud provider", err)
			return f.cloud.Complete(ctx, req)
		}

		return "", fmt.Errorf("ollama completion failed: %w", err)
	}

	return "", fmt.Errorf("no AI provider available")
}
