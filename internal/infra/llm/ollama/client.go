package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/ai-booksum/internal/domain/booksum"
)

const defaultBaseURL = "http://localhost:11434"

// Config carries connection settings for the local Ollama server.
type Config struct {
	BaseURL         string
	Model           string
	GenerateTimeout time.Duration
	// StatusTimeout bounds the /api/tags probe. It is deliberately much
	// shorter than GenerateTimeout: the probe gates every run and a hung
	// server must be detected before committing to a long one.
	StatusTimeout   time.Duration
	Temperature     float64
	MaxOutputTokens int
}

// Client performs HTTP requests against the Ollama chat API.
type Client struct {
	baseURL         string
	model           string
	temperature     float64
	maxOutputTokens int
	generateClient  *http.Client
	statusClient    *http.Client
}

// NewClient constructs an Ollama client with sane local defaults.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("ollama model cannot be empty")
	}
	generateTimeout := cfg.GenerateTimeout
	if generateTimeout <= 0 {
		generateTimeout = 5 * time.Minute
	}
	statusTimeout := cfg.StatusTimeout
	if statusTimeout <= 0 {
		statusTimeout = 5 * time.Second
	}
	maxOutput := cfg.MaxOutputTokens
	if maxOutput <= 0 {
		maxOutput = 4096
	}
	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		model:           cfg.Model,
		temperature:     cfg.Temperature,
		maxOutputTokens: maxOutput,
		generateClient:  &http.Client{Timeout: generateTimeout},
		statusClient:    &http.Client{Timeout: statusTimeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Generate issues one non-streaming chat call. An empty content string is a
// valid response and is passed through unchanged.
func (c *Client) Generate(ctx context.Context, req booksum.GenerateRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	payload, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options:  chatOptions{Temperature: c.temperature, NumPredict: c.maxOutputTokens},
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.generateClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", booksum.ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", &booksum.BackendHTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return out.Message.Content, nil
}

// Status probes /api/tags. It never returns an error: any failure yields an
// offline status with the failure message attached.
func (c *Client) Status(ctx context.Context, model string) booksum.BackendStatus {
	if model == "" {
		model = c.model
	}
	status := booksum.BackendStatus{ConfiguredModel: model, AvailableModels: []string{}}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		status.ErrorMessage = err.Error()
		return status
	}

	resp, err := c.statusClient.Do(httpReq)
	if err != nil {
		status.ErrorMessage = err.Error()
		return status
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		status.ErrorMessage = fmt.Sprintf("status probe returned HTTP %d", resp.StatusCode)
		return status
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		status.ErrorMessage = fmt.Sprintf("decode tags response: %v", err)
		return status
	}

	status.Online = true
	for _, m := range tags.Models {
		status.AvailableModels = append(status.AvailableModels, m.Name)
	}
	status.ModelAvailable = ModelAvailable(model, status.AvailableModels)
	return status
}

// ModelAvailable reports whether the configured model can be served. An
// exact name match counts, and so does the portion before the first ':'
// prefixing any listed model: backend listings commonly carry build or
// quantization tags the configuration omits.
func ModelAvailable(configured string, available []string) bool {
	base := configured
	if i := strings.Index(configured, ":"); i >= 0 {
		base = configured[:i]
	}
	for _, name := range available {
		if name == configured || strings.HasPrefix(name, base) {
			return true
		}
	}
	return false
}

var _ booksum.Gateway = (*Client)(nil)
