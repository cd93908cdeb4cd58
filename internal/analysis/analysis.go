// Package analysis talks to the external complaint classifier and weighs its labels.
// The classifier itself is a separate service; this package never labels text on its own.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"complaintdesk/backend/internal/config"
)

var (
	// ErrUnavailable is returned when no classifier is configured or it cannot be reached.
	ErrUnavailable = errors.New("analysis: classifier unavailable")
	// ErrEmptyText is returned for blank input.
	ErrEmptyText = errors.New("analysis: text is empty")
)

// Classification is the classifier's verdict for one piece of text.
type Classification struct {
	ComplaintText string  `json:"complaintText,omitempty"`
	Category      string  `json:"category"`
	Priority      string  `json:"priority"`
	Type          string  `json:"type"`
	Department    string  `json:"assignedDepartment"`
	Confidence    float64 `json:"aiConfidence"`
}

// Classifier labels complaint text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// PriorityWeight returns the weight of a priority label, ignoring case.
// It returns 0 if the label is not recognized.
func PriorityWeight(priority string) int {
	for label, w := range config.PriorityWeights {
		if strings.EqualFold(label, priority) {
			return w
		}
	}
	return 0
}

// Unconfigured is the classifier used when no analyzer URL is set.
type Unconfigured struct{}

func (Unconfigured) Classify(context.Context, string) (Classification, error) {
	return Classification{}, ErrUnavailable
}

// HTTPClassifier calls the analyzer service's POST /analyze endpoint.
type HTTPClassifier struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewHTTPClassifier creates a client for the analyzer at baseURL.
func NewHTTPClassifier(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "analyzer"),
	}
}

// New returns an HTTPClassifier for cfg, or Unconfigured when cfg has no URL.
func New(cfg config.AnalyzerConfig, logger *slog.Logger) Classifier {
	if cfg.URL == "" {
		return Unconfigured{}
	}
	return NewHTTPClassifier(cfg.URL, cfg.Timeout, logger)
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// analyzeResponse also accepts "department", which older analyzer builds return.
type analyzeResponse struct {
	Classification
	LegacyDepartment string `json:"department"`
}

// Classify sends text to the analyzer. Network failures and 5xx answers map to ErrUnavailable.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	if strings.TrimSpace(text) == "" {
		return Classification{}, ErrEmptyText
	}

	body, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return Classification{}, fmt.Errorf("analyzer: encode request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, body)
	if err != nil {
		c.log.ErrorContext(ctx, "analyzer request failed", slog.String("error", err.Error()))
		return Classification{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return Classification{}, ErrEmptyText
	case resp.StatusCode >= 500:
		return Classification{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return Classification{}, fmt.Errorf("analyzer: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Classification{}, fmt.Errorf("analyzer: read body: %w", err)
	}

	var out analyzeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Classification{}, fmt.Errorf("analyzer: decode json: %w", err)
	}
	if out.Department == "" {
		out.Department = out.LegacyDepartment
	}

	c.log.DebugContext(ctx, "analyzer response",
		slog.String("category", out.Category),
		slog.String("priority", out.Priority),
		slog.Float64("confidence", out.Confidence),
	)
	return out.Classification, nil
}

// doWithRetry posts body once more on 5xx or network errors.
func (c *HTTPClassifier) doWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	resp, err := c.post(ctx, body)

	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry || ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
		resp.Body.Close()
	}
	c.log.WarnContext(ctx, "analyzer retry", slog.String("reason", reason))

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(500 * time.Millisecond):
	}
	return c.post(ctx, body)
}

func (c *HTTPClassifier) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("analyzer: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}
