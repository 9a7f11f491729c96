package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jinzhu/copier"
	"github.com/mindfuljourney/voicechat-core/core/providers"
	"go.opentelemetry.io/otel/codes"
)

// Generate requests the next assistant reply for the given history. Failures,
// including context deadlines, are returned as [*providers.Error].
func (c *Client) Generate(ctx context.Context, history []providers.Message) (string, error) {
	ctx, span := tracer.Start(ctx, "openai.Generate")
	defer span.End()

	reply, err := c.generate(ctx, history)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate response")
		return "", err
	}

	return reply, nil
}

func (c *Client) generate(ctx context.Context, history []providers.Message) (string, error) {
	var reqBody requestBody
	if err := copier.Copy(&reqBody, &c.request); err != nil {
		return "", fmt.Errorf("error preparing request: %w", err)
	}
	reqBody.Messages = toMessages(c.instructions, history)

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL,
		bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return "", fmt.Errorf("error creating HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &providers.Error{Kind: providers.ErrorKindNetwork, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode)
	}

	var respBody responseBody
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return "", &providers.Error{
			Kind:  providers.ErrorKindInvalidResponse,
			Cause: fmt.Errorf("error unmarshalling JSON: %w", err),
		}
	}

	if len(respBody.Choices) == 0 {
		return "", &providers.Error{
			Kind:  providers.ErrorKindInvalidResponse,
			Cause: fmt.Errorf("response contained no choices"),
		}
	}

	return respBody.Choices[0].Message.Content, nil
}

func classifyStatus(statusCode int) *providers.Error {
	err := fmt.Errorf("non-OK HTTP status: %d", statusCode)
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &providers.Error{Kind: providers.ErrorKindAuthFailure, Cause: err}
	case statusCode == http.StatusTooManyRequests:
		return &providers.Error{Kind: providers.ErrorKindRateLimited, Cause: err}
	case statusCode >= http.StatusInternalServerError:
		return &providers.Error{Kind: providers.ErrorKindNetwork, Cause: err}
	default:
		return &providers.Error{Kind: providers.ErrorKindInvalidResponse, Cause: err}
	}
}
