package embedding

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

	"golang.org/x/time/rate"

	"github.com/stormlightlabs/memoria/internal/config"
)

// ErrDisabled is returned by the null provider.
var ErrDisabled = errors.New("embedding provider disabled")

// Embedder generates vector embeddings from text.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
	Model() string
}

// New builds the provider named in cfg.
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return NullEmbedder{dims: cfg.Dimensions, model: cfg.Model}, nil
	case "openai":
		return NewHTTPEmbedder(HTTPConfig{
			BaseURL:           cfg.BaseURL,
			APIKey:            cfg.APIKey,
			Model:             cfg.Model,
			Dimensions:        cfg.Dimensions,
			Timeout:           time.Duration(cfg.TimeoutSeconds) * time.Second,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// NullEmbedder never produces vectors. With it the embedding service settles
// in the failed state and search stays lexical.
type NullEmbedder struct {
	dims  int
	model string
}

func (n NullEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, ErrDisabled
}

func (n NullEmbedder) Dimensions() int { return n.dims }
func (n NullEmbedder) Name() string    { return "none" }
func (n NullEmbedder) Model() string   { return n.model }

// HTTPConfig configures an OpenAI-compatible /embeddings endpoint.
type HTTPConfig struct {
	BaseURL           string
	APIKey            string
	Model             string
	Dimensions        int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// HTTPEmbedder calls an OpenAI-compatible embeddings API. Self-hosted servers
// (text-embeddings-inference, infinity, llama.cpp) speak the same format,
// which is how ruri-v3 is usually served.
type HTTPEmbedder struct {
	cfg     HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewHTTPEmbedder(cfg HTTPConfig) *HTTPEmbedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	e := &HTTPEmbedder{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
	if cfg.RequestsPerSecond > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return e
}

func (e *HTTPEmbedder) Dimensions() int { return e.cfg.Dimensions }
func (e *HTTPEmbedder) Name() string    { return "openai" }
func (e *HTTPEmbedder) Model() string   { return e.cfg.Model }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (e *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embed rate limit: %w", err)
		}
	}

	body, err := json.Marshal(embedRequest{Model: e.cfg.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	endpoint := strings.TrimRight(e.cfg.BaseURL, "/") + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result embedResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal embed response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("embed API error: %s", result.Error.Message)
	}

	vectors := make([][]float32, len(texts))
	for _, d := range result.Data {
		if d.Index >= 0 && d.Index < len(vectors) {
			vectors[d.Index] = d.Embedding
		}
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("embed response missing vector %d of %d", i, len(texts))
		}
	}
	return vectors, nil
}
