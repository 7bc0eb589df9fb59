package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIClient calls an OpenAI-compatible completions API.
type OpenAIClient struct {
	apiKey         string
	baseURL        string
	model          string
	embeddingModel string
	maxTokens      int
	httpClient     *http.Client
}

// NewOpenAIClient creates a client with the given parameters.
func NewOpenAIClient(apiKey, baseURL, model, embeddingModel string, timeout time.Duration, maxTokens int) *OpenAIClient {
	return &OpenAIClient{
		apiKey:         apiKey,
		baseURL:        strings.TrimRight(baseURL, "/"),
		model:          model,
		embeddingModel: embeddingModel,
		maxTokens:      maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

var _ Client = (*OpenAIClient)(nil)

type chatRequest struct {
	Model         string         `json:"model"`
	Messages      []Message      `json:"messages"`
	Temperature   float64        `json:"temperature,omitempty"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage *Usage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *Usage `json:"usage,omitempty"`
}

// Chat sends messages and returns the complete response text.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, Usage, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", Usage{}, errors.New("llm api key is missing")
	}

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.2,
		MaxTokens:   resolveMaxTokens(c.maxTokens),
	}

	body, err := c.post(ctx, "/chat/completions", reqBody)
	if err != nil {
		return "", Usage{}, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", Usage{}, err
	}
	if len(parsed.Choices) == 0 {
		return "", Usage{}, errors.New("llm response missing choices")
	}

	usage := Usage{}
	if parsed.Usage != nil {
		usage = *parsed.Usage
	}
	return parsed.Choices[0].Message.Content, usage, nil
}

// StreamChat sends messages in streaming mode and forwards each incremental
// fragment to onDelta. Responses arrive as server-sent events, one JSON chunk
// per "data:" line, terminated by "data: [DONE]".
func (c *OpenAIClient) StreamChat(ctx context.Context, messages []Message, onDelta func(string) error) (string, Usage, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", Usage{}, errors.New("llm api key is missing")
	}

	reqBody := chatRequest{
		Model:         c.model,
		Messages:      messages,
		Temperature:   0.2,
		MaxTokens:     resolveMaxTokens(c.maxTokens),
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", Usage{}, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", Usage{}, err
	}
	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "text/event-stream")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", Usage{}, err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		body, _ := io.ReadAll(response.Body)
		return "", Usage{}, fmt.Errorf("llm api error: %s", strings.TrimSpace(string(body)))
	}

	var full strings.Builder
	var usage Usage

	scanner := bufio.NewScanner(response.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue // tolerate malformed keep-alive frames
		}
		if chunk.Usage != nil {
			usage = *chunk.Usage
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if err := onDelta(delta); err != nil {
			return full.String(), usage, err
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), usage, fmt.Errorf("llm stream read failed: %w", err)
	}

	return full.String(), usage, nil
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for one input text.
func (c *OpenAIClient) Embed(ctx context.Context, input string) ([]float64, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, errors.New("llm api key is missing")
	}

	body, err := c.post(ctx, "/embeddings", embeddingRequest{Model: c.embeddingModel, Input: input})
	if err != nil {
		return nil, err
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) == 0 {
		return nil, errors.New("embedding response missing data")
	}
	return parsed.Data[0].Embedding, nil
}

func (c *OpenAIClient) post(ctx context.Context, path string, reqBody any) ([]byte, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		var apiErr chatResponse
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != nil {
			return nil, fmt.Errorf("llm api error: %s", apiErr.Error.Message)
		}
		return nil, fmt.Errorf("llm api error: %s", strings.TrimSpace(string(body)))
	}

	return body, nil
}
