package llm

import (
	"context"
	"fmt"
	"image"
)

// Request is a single-turn multimodal query: one prompt plus zero or more images.
type Request struct {
	Prompt      string
	Images      []image.Image
	MaxTokens   int
	Temperature float32
	// Options carries endpoint specific generation parameters (top_p, stop, seed, ...).
	Options map[string]any
}

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the success variant of Response.
type Completion struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
	Usage   Usage  `json:"usage"`
}

// FailureKind distinguishes where a gateway call broke down.
type FailureKind string

const (
	FailureTimeout          FailureKind = "timeout"
	FailureTransport        FailureKind = "transport_error"
	FailureUnexpectedFormat FailureKind = "unexpected_format"
	FailureEncode           FailureKind = "encode_error"
	// the caller's context ended before the request was sent
	FailureCancelled FailureKind = "cancelled"
)

// Failure is the failure variant of Response.
type Failure struct {
	Kind       FailureKind `json:"kind"`
	Reason     string      `json:"reason"`
	StatusCode int         `json:"status_code,omitempty"`
}

func (f *Failure) String() string {
	if f.StatusCode > 0 {
		return fmt.Sprintf("%s (status %d): %s", f.Kind, f.StatusCode, f.Reason)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
}

// Response is a tagged result: exactly one of Success or Failure is set.
type Response struct {
	Success *Completion
	Failure *Failure
}

// OK reports whether r holds the success variant.
func (r Response) OK() bool { return r.Success != nil }

// Succeeded builds a success Response.
func Succeeded(content, model string, usage Usage) Response {
	return Response{Success: &Completion{Content: content, Model: model, Usage: usage}}
}

// Failed builds a failure Response.
func Failed(kind FailureKind, reason string) Response {
	return Response{Failure: &Failure{Kind: kind, Reason: reason}}
}

// Gateway sends one request to the inference endpoint. Implementations never
// return Go errors: every problem is reported as Response.Failure.
type Gateway interface {
	Query(ctx context.Context, req Request) Response
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, req Request) Response

func (f GatewayFunc) Query(ctx context.Context, req Request) Response { return f(ctx, req) }
