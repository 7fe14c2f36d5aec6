package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
)

// Config for the OpenAI-compatible gateway.
type Config struct {
	APIKey  string        // if empty, falls back to env LLM_API_KEY; local servers accept any value
	BaseURL string        // default http://localhost:1234/v1
	Model   string        // e.g., "qwen3vl-4b"
	Timeout time.Duration // per request; covers connect, upload and generation
}

// Client is a long-lived gateway instance. Construct it once and pass it to
// whatever needs to query the model.
type Client struct {
	cfg    Config
	api    *goopenai.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("LLM_API_KEY")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = "not-needed"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:1234/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "qwen3vl-4b"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	oc := goopenai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	// the context deadline is authoritative; the client timeout is a backstop
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout + 5*time.Second}

	return &Client{
		cfg:    cfg,
		api:    goopenai.NewClientWithConfig(oc),
		logger: logger,
	}
}

// Model returns the model identifier sent with every request.
func (c *Client) Model() string { return c.cfg.Model }
