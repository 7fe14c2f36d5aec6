package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/llm"
)

var _ llm.Gateway = (*Client)(nil)

// Query implements llm.Gateway against /chat/completions. It makes exactly one
// attempt and reports every problem as a typed llm.Failure.
func (c *Client) Query(ctx context.Context, req llm.Request) llm.Response {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()

	parts := make([]goopenai.ChatMessagePart, 0, 1+len(req.Images))
	parts = append(parts, goopenai.ChatMessagePart{Type: goopenai.ChatMessagePartTypeText, Text: req.Prompt})
	for i, img := range req.Images {
		dataURL, err := llm.EncodeDataURL(img)
		if err != nil {
			c.logger.Error("llm.gateway.encode_error", "req_id", rid, "image", i, "error", err)
			return llm.Failed(llm.FailureEncode, fmt.Sprintf("image %d: %v", i, err))
		}
		parts = append(parts, goopenai.ChatMessagePart{
			Type:     goopenai.ChatMessagePartTypeImageURL,
			ImageURL: &goopenai.ChatMessageImageURL{URL: dataURL},
		})
	}

	body := goopenai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, MultiContent: parts},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.Temperature == 0 {
		// go-openai drops a zero temperature from the payload; send the smallest
		// non-zero value so the endpoint still decodes greedily.
		body.Temperature = math.SmallestNonzeroFloat32
	}
	applyOptions(&body, req.Options)

	c.logger.Info("llm.gateway.request",
		"req_id", rid,
		"model", c.cfg.Model,
		"images", len(req.Images),
		"max_tokens", req.MaxTokens,
		"temp", req.Temperature,
		"prompt_len", len(req.Prompt),
	)

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(callCtx, body)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		f := classify(ctx, err, c.cfg.Timeout)
		c.logger.Error("llm.gateway.failed",
			"req_id", rid, "kind", f.Kind, "status", f.StatusCode,
			"error", err, "elapsed_ms", elapsed,
		)
		return llm.Response{Failure: f}
	}

	if len(resp.Choices) == 0 {
		c.logger.Error("llm.gateway.no_choices", "req_id", rid, "elapsed_ms", elapsed)
		return llm.Failed(llm.FailureUnexpectedFormat, "Unexpected response format: no choices")
	}

	content := resp.Choices[0].Message.Content
	model := resp.Model
	if model == "" {
		model = c.cfg.Model
	}
	usage := llm.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}

	c.logger.Info("llm.gateway.ok",
		"req_id", rid,
		"model", model,
		"content_len", len(content),
		"finish_reason", resp.Choices[0].FinishReason,
		"total_tokens", usage.TotalTokens,
		"elapsed_ms", elapsed,
	)
	return llm.Succeeded(content, model, usage)
}

// classify maps a go-openai error onto a failure kind. ctx is the caller's context,
// so a cancelled or expired caller is told apart from the gateway's own timeout.
func classify(ctx context.Context, err error, timeout time.Duration) *llm.Failure {
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return &llm.Failure{Kind: llm.FailureCancelled, Reason: "Request cancelled"}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &llm.Failure{Kind: llm.FailureTimeout, Reason: "Request timeout: caller deadline exceeded"}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &llm.Failure{Kind: llm.FailureTimeout, Reason: fmt.Sprintf("Request timeout after %s", timeout)}
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &llm.Failure{Kind: llm.FailureTransport, Reason: apiErr.Message, StatusCode: apiErr.HTTPStatusCode}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return &llm.Failure{Kind: llm.FailureTransport, Reason: reqErr.Error(), StatusCode: reqErr.HTTPStatusCode}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &llm.Failure{Kind: llm.FailureUnexpectedFormat, Reason: "Unexpected response format: " + err.Error()}
	}

	return &llm.Failure{Kind: llm.FailureTransport, Reason: err.Error()}
}

// applyOptions copies the recognized extra generation parameters onto body.
// Unknown keys are ignored.
func applyOptions(body *goopenai.ChatCompletionRequest, opts map[string]any) {
	for k, v := range opts {
		switch strings.ToLower(k) {
		case "top_p":
			if f, ok := asFloat32(v); ok {
				body.TopP = f
			}
		case "presence_penalty":
			if f, ok := asFloat32(v); ok {
				body.PresencePenalty = f
			}
		case "frequency_penalty":
			if f, ok := asFloat32(v); ok {
				body.FrequencyPenalty = f
			}
		case "seed":
			if f, ok := asFloat32(v); ok {
				seed := int(f)
				body.Seed = &seed
			}
		case "stop":
			switch s := v.(type) {
			case string:
				body.Stop = []string{s}
			case []string:
				body.Stop = s
			}
		case "user":
			if s, ok := v.(string); ok {
				body.User = s
			}
		}
	}
}

func asFloat32(v any) (float32, bool) {
	switch t := v.(type) {
	case float32:
		return t, true
	case float64:
		return float32(t), true
	case int:
		return float32(t), true
	}
	return 0, false
}
