// Package openai implements [providers.ResponseProvider] against the OpenAI
// chat completions API.
package openai

import (
	"fmt"
	"net/http"
	"os"

	"github.com/mindfuljourney/voicechat-core/internal/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL = "https://api.openai.com/v1/chat/completions"
	defaultModel   = "gpt-4o-mini"
)

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	instructions string
	request      requestBody
}

type ClientOption func(*Client)

// WithAPIKey overrides the OPENAI_API_KEY environment variable.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) { c.apiKey = apiKey }
}

func WithModel(model string) ClientOption {
	return func(c *Client) { c.request.Model = model }
}

func WithTemperature(temperature float64) ClientOption {
	return func(c *Client) { c.request.Temperature = utils.Ptr(temperature) }
}

func WithMaxTokens(maxTokens int) ClientOption {
	return func(c *Client) { c.request.MaxTokens = utils.Ptr(maxTokens) }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithInstructions(instructions string) ClientOption {
	return func(c *Client) { c.instructions = instructions }
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		request: requestBody{Model: defaultModel},
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.apiKey == "" {
		return nil, fmt.Errorf("openai api key not found")
	}

	return client, nil
}
