package aisvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kazi/core/assignment"
)

var testRec = assignment.Assignment{
	ID:      "a1",
	Title:   "Essay 1",
	Course:  "ENG 101",
	DueDate: "2026-09-05",
}

func newTestService(srv *httptest.Server) *Service {
	return &Service{
		apiKey:  "test-key",
		baseURL: srv.URL,
		hc:      &http.Client{Timeout: 5 * time.Second},
	}
}

func modelReply(t *testing.T, text string) string {
	t.Helper()
	data, err := json.Marshal(messagesResponse{Content: []struct {
		Text string `json:"text"`
	}{{Text: text}}})
	require.NoError(t, err)
	return string(data)
}

func Test_Service_Summarize(t *testing.T) {
	var gotReq messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		fmt.Fprint(w, modelReply(t, `{
			"what_its_asking": "Write a five-paragraph argumentative essay.",
			"concepts_tested": "Thesis construction and supporting evidence.",
			"suggested_approach": "Outline first, then draft one paragraph at a time."
		}`))
	}))
	defer srv.Close()

	summary, err := newTestService(srv).Summarize(context.Background(), testRec)

	require.NoError(t, err)
	assert.Equal(t, "Write a five-paragraph argumentative essay.", summary.WhatItsAsking)
	assert.Equal(t, "Thesis construction and supporting evidence.", summary.ConceptsTested)
	assert.Equal(t, "Outline first, then draft one paragraph at a time.", summary.SuggestedApproach)

	require.Len(t, gotReq.Messages, 1)
	assert.Contains(t, gotReq.Messages[0].Content, "Essay 1")
	assert.Contains(t, gotReq.Messages[0].Content, "ENG 101")
	assert.Contains(t, gotReq.Messages[0].Content, "2026-09-05")
}

func Test_Service_Summarize_stripsCodeFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, modelReply(t, "```json\n{\"what_its_asking\": \"An essay.\"}\n```"))
	}))
	defer srv.Close()

	summary, err := newTestService(srv).Summarize(context.Background(), testRec)

	require.NoError(t, err)
	assert.Equal(t, "An essay.", summary.WhatItsAsking)
}

func Test_Service_Summarize_nonJSONReplyFallsBackToRawText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, modelReply(t, "This essay asks you to argue a position."))
	}))
	defer srv.Close()

	summary, err := newTestService(srv).Summarize(context.Background(), testRec)

	require.NoError(t, err)
	assert.Equal(t, "This essay asks you to argue a position.", summary.WhatItsAsking)
	assert.Empty(t, summary.ConceptsTested)
}

func Test_Service_Summarize_apiError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"type": "rate_limit_error", "message": "Too many requests"}}`)
	}))
	defer srv.Close()

	_, err := newTestService(srv).Summarize(context.Background(), testRec)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Anthropic API error (429): Too many requests")
}

func Test_Service_Summarize_notConfigured(t *testing.T) {
	svc := &Service{baseURL: defaultBaseURL, hc: http.DefaultClient}

	assert.False(t, svc.Configured())
	_, err := svc.Summarize(context.Background(), testRec)
	assert.Equal(t, ErrNoAPIKey, err)
}

func Test_stripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"{\"a\": 1}", "{\"a\": 1}"},
		{"```json\n{\"a\": 1}\n```", "{\"a\": 1}"},
		{"```\n{\"a\": 1}\n```", "{\"a\": 1}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripFences(tt.in))
	}
}
