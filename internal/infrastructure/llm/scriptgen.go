package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dailybrief/internal/config"
	"dailybrief/internal/domain"
	"dailybrief/internal/ports"
)

// ScriptClient generates companion scripts through OpenAI-compatible chat
// APIs.
type ScriptClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.ScriptGenerator = (*ScriptClient)(nil)

// NewScriptClient builds a client from configuration.
func NewScriptClient(cfg config.ScriptGenConfig) *ScriptClient {
	return &ScriptClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// GenerateScript posts the user's bundle as a chat prompt and returns the
// generated script text.
func (c *ScriptClient) GenerateScript(ctx context.Context, profile domain.UserProfile, items []domain.BundleItem) (string, error) {
	if c == nil {
		return "", fmt.Errorf("script client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("script client misconfigured: %w", domain.ErrAuthConfiguration)
	}

	prompt, err := buildPrompt(profile, items)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate script: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("chat api %s: %w", resp.Status, domain.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("chat api %s: %w", resp.Status, domain.ErrAuthConfiguration)
	case resp.StatusCode >= http.StatusBadRequest:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chat api error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("chat api returned no script")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func buildPrompt(profile domain.UserProfile, items []domain.BundleItem) (string, error) {
	digest, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal bundle digest: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Write a companion script for today's news bundle.\n")
	fmt.Fprintf(&b, "Reader locale: %s.", profile.Locale)
	if profile.City != "" {
		fmt.Fprintf(&b, " City: %s.", profile.City)
	}
	fmt.Fprintf(&b, " Language: %s.\n\nArticles:\n%s\n", profile.Language, digest)
	return b.String(), nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You write short, warm daily news podcast scripts."
	}
	return prompt
}
