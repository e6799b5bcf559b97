// Package client is a thin HTTP client for the fragment service API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to a running fragment service.
type Client struct {
	http *resty.Client
}

// New returns a Client for the service at baseURL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)
	return &Client{http: c}
}

func decode[T any](resp *resty.Response, want int) (T, error) {
	var out T
	if resp.StatusCode() != want {
		return out, fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), resp.String())
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// CreateFragment records a new fragment from a capture payload.
func (c *Client) CreateFragment(ctx context.Context, payload []byte, durationMs int64) (*Fragment, error) {
	body := map[string]interface{}{"payload": payload, "durationMs": durationMs}
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post("/v1/fragments")
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}
	return decode[*Fragment](resp, http.StatusCreated)
}

// ListFragments returns all fragments sorted by creation time.
func (c *Client) ListFragments(ctx context.Context) ([]*Fragment, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/v1/fragments")
	if err != nil {
		return nil, fmt.Errorf("list fragments: %w", err)
	}
	return decode[[]*Fragment](resp, http.StatusOK)
}

// GetFragment fetches one fragment with all payloads rehydrated.
func (c *Client) GetFragment(ctx context.Context, fragmentID string) (*Fragment, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/v1/fragments/" + fragmentID)
	if err != nil {
		return nil, fmt.Errorf("get fragment: %w", err)
	}
	return decode[*Fragment](resp, http.StatusOK)
}

// DeleteFragment removes a fragment and its stored payloads.
func (c *Client) DeleteFragment(ctx context.Context, fragmentID string) error {
	resp, err := c.http.R().SetContext(ctx).Delete("/v1/fragments/" + fragmentID)
	if err != nil {
		return fmt.Errorf("delete fragment: %w", err)
	}
	if resp.StatusCode() != http.StatusNoContent {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// AddTag appends an emotion tag and returns the updated fragment.
func (c *Client) AddTag(ctx context.Context, fragmentID, emotion string, intensity int, confidence float64) (*Fragment, error) {
	body := map[string]interface{}{"emotion": emotion, "intensity": intensity, "confidence": confidence}
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post("/v1/fragments/" + fragmentID + "/tags")
	if err != nil {
		return nil, fmt.Errorf("add tag: %w", err)
	}
	return decode[*Fragment](resp, http.StatusOK)
}

// AddRating appends a rating and returns the updated fragment.
func (c *Client) AddRating(ctx context.Context, fragmentID string, helpful bool, resonance int, ratingContext *string) (*Fragment, error) {
	body := map[string]interface{}{"helpful": helpful, "resonance": resonance}
	if ratingContext != nil {
		body["context"] = *ratingContext
	}
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post("/v1/fragments/" + fragmentID + "/ratings")
	if err != nil {
		return nil, fmt.Errorf("add rating: %w", err)
	}
	return decode[*Fragment](resp, http.StatusOK)
}

// AddVariation appends an effect-derived payload variation.
func (c *Client) AddVariation(ctx context.Context, fragmentID, effect string, payload []byte) (*Fragment, error) {
	body := map[string]interface{}{"effect": effect, "payload": payload}
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post("/v1/fragments/" + fragmentID + "/variations")
	if err != nil {
		return nil, fmt.Errorf("add variation: %w", err)
	}
	return decode[*Fragment](resp, http.StatusOK)
}

// AddResponse appends a recorded response payload.
func (c *Client) AddResponse(ctx context.Context, fragmentID, kind string, notes *string, payload []byte) (*Fragment, error) {
	body := map[string]interface{}{"kind": kind, "payload": payload}
	if notes != nil {
		body["notes"] = *notes
	}
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post("/v1/fragments/" + fragmentID + "/responses")
	if err != nil {
		return nil, fmt.Errorf("add response: %w", err)
	}
	return decode[*Fragment](resp, http.StatusOK)
}

// UpdateMetadata replaces the fragment's metadata block.
func (c *Client) UpdateMetadata(ctx context.Context, fragmentID string, meta FragmentMetadata) (*Fragment, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(meta).Patch("/v1/fragments/" + fragmentID + "/metadata")
	if err != nil {
		return nil, fmt.Errorf("update metadata: %w", err)
	}
	return decode[*Fragment](resp, http.StatusOK)
}

// SelectFragment marks a fragment as the current selection.
func (c *Client) SelectFragment(ctx context.Context, fragmentID string) (*Fragment, error) {
	resp, err := c.http.R().SetContext(ctx).Put("/v1/selection/" + fragmentID)
	if err != nil {
		return nil, fmt.Errorf("select fragment: %w", err)
	}
	return decode[*Fragment](resp, http.StatusOK)
}

// ClearSelection clears the current selection.
func (c *Client) ClearSelection(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Delete("/v1/selection")
	if err != nil {
		return fmt.Errorf("clear selection: %w", err)
	}
	if resp.StatusCode() != http.StatusNoContent {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// Selection returns the currently selected fragment, or nil when none is set.
func (c *Client) Selection(ctx context.Context) (*Fragment, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/v1/selection")
	if err != nil {
		return nil, fmt.Errorf("get selection: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	return decode[*Fragment](resp, http.StatusOK)
}

// RunAnalysis runs pattern analysis now and returns the fresh insight set.
func (c *Client) RunAnalysis(ctx context.Context) ([]*PatternInsight, error) {
	resp, err := c.http.R().SetContext(ctx).Post("/v1/analysis")
	if err != nil {
		return nil, fmt.Errorf("run analysis: %w", err)
	}
	return decode[[]*PatternInsight](resp, http.StatusOK)
}

// LatestInsights returns the insight set from the most recent analysis run.
func (c *Client) LatestInsights(ctx context.Context) ([]*PatternInsight, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/v1/insights")
	if err != nil {
		return nil, fmt.Errorf("latest insights: %w", err)
	}
	return decode[[]*PatternInsight](resp, http.StatusOK)
}

// InsightHistory returns all persisted insights across runs.
func (c *Client) InsightHistory(ctx context.Context) ([]*PatternInsight, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/v1/insights/history")
	if err != nil {
		return nil, fmt.Errorf("insight history: %w", err)
	}
	return decode[[]*PatternInsight](resp, http.StatusOK)
}

// Recommend returns ranked fragment matches for the given current mood.
func (c *Client) Recommend(ctx context.Context, mood string) ([]RecommendationMatch, error) {
	body := map[string]string{"mood": mood}
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post("/v1/recommendations")
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}
	return decode[[]RecommendationMatch](resp, http.StatusOK)
}

// SaveSession creates or replaces a reflection session record.
func (c *Client) SaveSession(ctx context.Context, sess *ReflectionSession) (*ReflectionSession, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(sess).Post("/v1/sessions")
	if err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return decode[*ReflectionSession](resp, http.StatusCreated)
}

// ListSessions returns all reflection sessions.
func (c *Client) ListSessions(ctx context.Context) ([]*ReflectionSession, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/v1/sessions")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return decode[[]*ReflectionSession](resp, http.StatusOK)
}

// Health returns the service health report.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/v1/health")
	if err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	return decode[*HealthStatus](resp, http.StatusOK)
}
