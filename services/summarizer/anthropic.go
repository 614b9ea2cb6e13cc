package aisvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
	"github.com/trezcool/kazi/core/assignment"
)

var ErrNoAPIKey = errors.New("no Anthropic API key configured")

const (
	defaultBaseURL = "https://api.anthropic.com"
	model          = "claude-sonnet-4-20250514"
	apiVersion     = "2023-06-01"
)

type (
	// Summary is the structured study guidance produced for one assignment.
	Summary struct {
		WhatItsAsking     string `json:"what_its_asking"`
		ConceptsTested    string `json:"concepts_tested"`
		SuggestedApproach string `json:"suggested_approach"`
	}

	// Service summarizes assignments with the Anthropic messages API.
	Service struct {
		apiKey  string
		baseURL string
		hc      *http.Client
	}

	messagesRequest struct {
		Model     string    `json:"model"`
		MaxTokens int       `json:"max_tokens"`
		Messages  []message `json:"messages"`
	}

	message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	messagesResponse struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}

	apiError struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
)

func NewService(conf *core.Config) *Service {
	return &Service{
		apiKey:  conf.AnthropicKey,
		baseURL: defaultBaseURL,
		hc:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (svc *Service) Configured() bool { return svc.apiKey != "" }

// Summarize asks the model what the assignment is likely asking for, which
// concepts it tests and how to approach it.
func (svc *Service) Summarize(ctx context.Context, rec assignment.Assignment) (Summary, error) {
	if !svc.Configured() {
		return Summary{}, ErrNoAPIKey
	}

	payload, err := json.Marshal(messagesRequest{
		Model:     model,
		MaxTokens: 1024,
		Messages:  []message{{Role: "user", Content: buildPrompt(rec)}},
	})
	if err != nil {
		return Summary{}, errors.Wrap(err, "marshalling request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return Summary{}, errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", svc.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := svc.hc.Do(req)
	if err != nil {
		return Summary{}, errors.Wrap(err, "calling Anthropic API")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Summary{}, errors.Wrap(err, "reading response")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		msg := string(body)
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return Summary{}, errors.Errorf("Anthropic API error (%d): %s", resp.StatusCode, msg)
	}

	var res messagesResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return Summary{}, errors.Wrap(err, "decoding response")
	}
	if len(res.Content) == 0 {
		return Summary{}, errors.New("empty Anthropic response")
	}

	text := stripFences(strings.TrimSpace(res.Content[0].Text))
	var summary Summary
	if err := json.Unmarshal([]byte(text), &summary); err != nil {
		// model ignored the JSON instruction; surface the raw text
		return Summary{WhatItsAsking: text}, nil
	}
	return summary, nil
}

func buildPrompt(rec assignment.Assignment) string {
	return fmt.Sprintf(
		"You are a helpful academic assistant for a college student.\n\n"+
			"Assignment: %s\n"+
			"Course: %s\n"+
			"Due Date: %s\n\n"+
			"Based on the assignment title and course, respond with a JSON object "+
			"containing exactly these three keys:\n"+
			"- \"what_its_asking\": What this assignment is likely asking the student to do (1-3 sentences)\n"+
			"- \"concepts_tested\": The academic concepts or skills this assignment probably tests (1-3 sentences)\n"+
			"- \"suggested_approach\": A practical suggested approach for completing this assignment (2-4 sentences)\n\n"+
			"Respond with only valid JSON — no markdown fences, no extra text.",
		rec.Title, rec.Course, rec.DueDate,
	)
}

// stripFences removes accidental ```json fences from the model output.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	parts := strings.Split(text, "```")
	if len(parts) > 1 {
		text = parts[1]
	}
	text = strings.TrimPrefix(text, "json")
	return strings.TrimSpace(text)
}
