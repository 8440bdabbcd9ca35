package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"retailsync/pkg/errors"
)

// Generator produces a SQL statement for a natural-language question.
type Generator interface {
	GenerateSQL(ctx context.Context, question string) (string, error)
}

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewGeminiClient creates a client for the given API key, model and endpoint
// base (for example https://generativelanguage.googleapis.com/v1beta).
func NewGeminiClient(apiKey, model, endpoint string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.ConfigError("GEMINI_API_KEY is not set", "GEMINI_API_KEY")
	}
	return &GeminiClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateSQL sends the question wrapped in the schema prompt and returns the
// extracted SQL text.
func (g *GeminiClient) GenerateSQL(ctx context.Context, question string) (string, error) {
	prompt := fmt.Sprintf(
		"You are a PostgreSQL expert who generates accurate SQL queries based on natural language questions. Generate the query for the following: %s",
		BuildPrompt(question))

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeLLMRequest, "Failed to encode model request")
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.endpoint, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeLLMRequest, "Failed to build model request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeLLMRequest, "Gemini API request failed").
			WithContext("model", g.model).
			WithSuggestions("Check network connectivity and GEMINI_API_KEY")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeLLMResponse, "Failed to read Gemini API response")
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeLLMResponse, "Gemini API returned malformed JSON").
			WithContext("status", resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("Gemini API returned HTTP %d", resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = fmt.Sprintf("Gemini API error: %s", parsed.Error.Message)
		}
		appErr := errors.New(errors.ErrCodeLLMResponse, msg).
			WithContext("status", resp.StatusCode).
			WithContext("model", g.model)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			appErr = appErr.WithSuggestions("Verify GEMINI_API_KEY is valid and has access to the model")
		}
		return "", appErr
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New(errors.ErrCodeLLMResponse, "Gemini API returned no candidates").
			WithContext("model", g.model)
	}

	sql := ExtractSQL(parsed.Candidates[0].Content.Parts[0].Text)
	if sql == "" {
		return "", errors.New(errors.ErrCodeLLMResponse, "Model response contained no SQL")
	}
	return sql, nil
}
