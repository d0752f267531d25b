package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"debatehub/config"
	"debatehub/models"
)

// scoringTimeout bounds a single call to the judge endpoint. A timed-out call
// is abandoned, never retried in the background; retry is an explicit analyze
// request from a user.
const scoringTimeout = 30 * time.Second

// ErrScoringNotConfigured is returned when no judge endpoint is set.
var ErrScoringNotConfigured = errors.New("scoring service not configured")

// ScoringClient calls the external debate judge over HTTP.
type ScoringClient struct {
	URL        string
	httpClient *http.Client
}

func NewScoringClient(url string) *ScoringClient {
	return &ScoringClient{
		URL:        url,
		httpClient: &http.Client{Timeout: scoringTimeout},
	}
}

// Configured reports whether a usable judge endpoint is set.
func (c *ScoringClient) Configured() bool {
	return c != nil && c.URL != "" && c.URL != "https://your-ai-service-url.com/analyze"
}

type scoringRequest struct {
	DebateID  string            `json:"DebateId"`
	Topic     string            `json:"topic"`
	Arguments []models.Argument `json:"arguments"`
}

// Score submits the transcript for judging and returns the verdict. Any
// non-200 response, transport error or timeout is a uniform failure.
func (c *ScoringClient) Score(ctx context.Context, roomID, topic string, args []models.Argument) (*models.Verdict, error) {
	if !c.Configured() {
		return nil, ErrScoringNotConfigured
	}

	payload, err := json.Marshal(scoringRequest{
		DebateID:  roomID,
		Topic:     topic,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scoring request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scoring request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read scoring response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoring API returned status %d: %s", resp.StatusCode, string(body))
	}

	var verdict models.Verdict
	if err := json.Unmarshal(body, &verdict); err != nil {
		return nil, fmt.Errorf("failed to parse scoring response: %w", err)
	}
	if verdict.Winner == "" {
		verdict.Winner = "No winner determined"
	}
	if verdict.Justification == "" {
		verdict.Justification = "No justification provided"
	}
	return &verdict, nil
}

var scoringClient *ScoringClient

// InitScoringService wires the package-level scoring client from config.
func InitScoringService(cfg *config.Config) {
	scoringClient = NewScoringClient(cfg.AI.URL)
}

// Scoring returns the package-level scoring client.
func Scoring() *ScoringClient {
	return scoringClient
}
