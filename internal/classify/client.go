package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

var ErrUnavailable = errors.New("classify: model not loaded")

// manifest is the hosted model definition. It names the inference endpoint;
// the model internals stay opaque to this service.
type manifest struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	PredictURL string `json:"predict_url"`
}

type metadata struct {
	Labels []string `json:"labels"`
}

// Client talks to the externally hosted image model. Load fetches the model
// manifest and label metadata; Classify sends an image to the manifest's
// predict endpoint. A failed load leaves the client unready - callers get
// ErrUnavailable per use instead of a crash.
type Client struct {
	modelURL    string
	metadataURL string
	hc          *http.Client

	mu         sync.RWMutex
	ready      bool
	predictURL string
	labels     []string
}

func NewClient(modelURL, metadataURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		modelURL:    modelURL,
		metadataURL: metadataURL,
		hc:          &http.Client{Timeout: timeout},
	}
}

// Load fetches the model manifest and label metadata. Safe to call again
// after a failure; the first success marks the client ready.
func (c *Client) Load(ctx context.Context) error {
	var m manifest
	if err := c.getJSON(ctx, c.modelURL, &m); err != nil {
		return fmt.Errorf("model manifest: %w", err)
	}
	if m.PredictURL == "" {
		return fmt.Errorf("model manifest %s has no predict_url", c.modelURL)
	}

	var md metadata
	if err := c.getJSON(ctx, c.metadataURL, &md); err != nil {
		return fmt.Errorf("model metadata: %w", err)
	}

	c.mu.Lock()
	c.predictURL = m.PredictURL
	c.labels = md.Labels
	c.ready = true
	c.mu.Unlock()
	return nil
}

func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Labels returns the model's label vocabulary, empty until loaded.
func (c *Client) Labels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

type predictResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// Classify sends the image to the predict endpoint and returns the model's
// label/confidence pairs.
func (c *Client) Classify(ctx context.Context, image []byte, mime string) ([]Prediction, error) {
	c.mu.RLock()
	ready, url := c.ready, c.predictURL
	c.mu.RUnlock()
	if !ready {
		return nil, ErrUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(image))
	if err != nil {
		return nil, err
	}
	if mime == "" {
		mime = "application/octet-stream"
	}
	req.Header.Set("Content-Type", mime)

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("classify request: %s: %s", res.Status, bytes.TrimSpace(body))
	}

	var out predictResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("classify response: %w", err)
	}
	return out.Predictions, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, res.Status)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
