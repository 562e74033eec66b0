package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tripflow/pkg/domain"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.0-flash"

	maxOutputTokens = 2048
)

// GeminiClient calls the Google AI Studio (Gemini) API.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// GeminiOption customizes the client.
type GeminiOption func(*GeminiClient)

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(url string) GeminiOption {
	return func(c *GeminiClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithModel overrides the generation model.
func WithModel(model string) GeminiOption {
	return func(c *GeminiClient) {
		if m := normalizeModel(model); m != "" {
			c.model = m
		}
	}
}

// NewGeminiClient constructs a client with the provided API key.
func NewGeminiClient(apiKey string, options ...GeminiOption) (*GeminiClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key required")
	}
	c := &GeminiClient{
		apiKey:  apiKey,
		model:   defaultGeminiModel,
		baseURL: defaultGeminiBaseURL,
		// Streamed turns can run well past a one-shot call.
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, option := range options {
		if option != nil {
			option(c)
		}
	}
	return c, nil
}

// GenerateText returns the generated response for a prompt.
func (c *GeminiClient) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{
			{
				Role:  "user",
				Parts: []part{{Text: userPrompt}},
			},
		},
		GenerationConfig: &generationConfig{MaxOutputTokens: maxOutputTokens},
	}
	if strings.TrimSpace(systemPrompt) != "" {
		reqBody.SystemInstruction = &content{
			Parts: []part{{Text: systemPrompt}},
		}
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	resp, err := c.post(ctx, url, reqBody)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	text := out.text()
	if text == "" {
		return "", fmt.Errorf("empty response from gemini")
	}
	return text, nil
}

// StreamChat runs one chat turn against streamGenerateContent and forwards
// each fragment to onText as it arrives. History roles are normalized to the
// provider convention: the assistant's own prior replies become "model",
// everything else "user".
func (c *GeminiClient) StreamChat(ctx context.Context, systemPrompt string, history []domain.ChatMessage, message string, onText func(string) error) (string, error) {
	contents := make([]content, 0, len(history)+1)
	for _, msg := range history {
		role := "user"
		if msg.Role == domain.RoleAssistant || msg.Role == "model" {
			role = "model"
		}
		contents = append(contents, content{
			Role:  role,
			Parts: []part{{Text: msg.Content}},
		})
	}
	contents = append(contents, content{
		Role:  "user",
		Parts: []part{{Text: message}},
	})

	reqBody := generateRequest{
		Contents:         contents,
		GenerationConfig: &generationConfig{MaxOutputTokens: maxOutputTokens},
	}
	if strings.TrimSpace(systemPrompt) != "" {
		reqBody.SystemInstruction = &content{
			Parts: []part{{Text: systemPrompt}},
		}
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", c.baseURL, c.model, c.apiKey)
	resp, err := c.post(ctx, url, reqBody)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var chunk generateResponse
		if err := json.Unmarshal([]byte(line[6:]), &chunk); err != nil {
			return full.String(), fmt.Errorf("decode stream chunk: %w", err)
		}
		text := chunk.text()
		if text == "" {
			continue
		}
		full.WriteString(text)
		if onText != nil {
			if err := onText(text); err != nil {
				return full.String(), err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("read stream: %w", err)
	}
	return full.String(), nil
}

func (c *GeminiClient) post(ctx context.Context, url string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		var errResp errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return nil, fmt.Errorf("gemini api error: %s", errResp.Error.Message)
		}
		return nil, fmt.Errorf("gemini api error: %s", resp.Status)
	}
	return resp, nil
}

func normalizeModel(model string) string {
	model = strings.TrimSpace(model)
	model = strings.TrimPrefix(model, "models/")
	return model
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (r generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
