package zeroshot

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
)

const (
	defaultBaseURL = "https://api-inference.huggingface.co"
	defaultModel   = "facebook/bart-large-mnli"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// ErrEmptyResult is returned when the endpoint answers without any labels.
var ErrEmptyResult = errors.New("classification returned no labels")

// ErrMismatchedResult is returned when labels and scores differ in length.
var ErrMismatchedResult = errors.New("classification labels and scores differ in length")

// Request is the zero-shot classification request body.
type Request struct {
	Inputs     string     `json:"inputs"`
	Parameters Parameters `json:"parameters"`
}

// Parameters carries the candidate labels to score against.
type Parameters struct {
	CandidateLabels []string `json:"candidate_labels"`
}

// Classification is the endpoint's answer; Labels and Scores are parallel
// and sorted by descending score.
type Classification struct {
	Sequence string    `json:"sequence,omitempty"`
	Labels   []string  `json:"labels"`
	Scores   []float64 `json:"scores"`
}

// Top returns the highest scoring label.
func (c Classification) Top() (string, float64, error) {
	if len(c.Labels) == 0 || len(c.Scores) == 0 {
		return "", 0, ErrEmptyResult
	}
	return c.Labels[0], c.Scores[0], nil
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client calls a hosted zero-shot classification model.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a client for the Hugging Face inference API.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// NewClientWithBaseURL creates a client pointing at a custom base URL.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// WithModel overrides the hosted model path. Empty values are ignored.
func (c *Client) WithModel(model string) *Client {
	if model != "" {
		c.model = model
	}
	return c
}

// WithTimeout sets the overall HTTP timeout. Non-positive values are ignored.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.httpClient.Timeout = d
	}
	return c
}

// Classify scores inputs against labels in a single request.
func (c *Client) Classify(ctx context.Context, inputs string, labels []string) (Classification, error) {
	body, err := json.Marshal(Request{
		Inputs:     inputs,
		Parameters: Parameters{CandidateLabels: labels},
	})
	if err != nil {
		return Classification{}, fmt.Errorf("marshaling request: %w", err)
	}

	url := c.baseURL + "/models/" + c.model
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Classification{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Classification{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Classification{}, &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	var out Classification
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Classification{}, fmt.Errorf("decoding response: %w", err)
	}
	if len(out.Labels) == 0 {
		return Classification{}, ErrEmptyResult
	}
	if len(out.Labels) != len(out.Scores) {
		return Classification{}, fmt.Errorf("%w: %d labels, %d scores", ErrMismatchedResult, len(out.Labels), len(out.Scores))
	}
	return out, nil
}
