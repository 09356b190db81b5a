/**
 * @description
 * Client for the upstream payments REST API. Used to fetch charges, disputes
 * and timelines the local store has not ingested yet.
 */
package paymentsclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wcpay/narration-service/internal/domain"
)

// ErrNotFound is returned when the upstream API answers 404.
var ErrNotFound = errors.New("payments resource not found")

const maxBodyBytes = 4 << 20

// Client fetches payment records over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a payments API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether a base URL was provided.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// GetCharge fetches a charge by id.
func (c *Client) GetCharge(ctx context.Context, chargeID string) (domain.Charge, error) {
	body, err := c.get(ctx, "/charges/"+url.PathEscape(chargeID))
	if err != nil {
		return domain.Charge{}, err
	}
	return domain.DecodeCharge(body)
}

// GetDispute fetches a dispute by id.
func (c *Client) GetDispute(ctx context.Context, disputeID string) (domain.Dispute, error) {
	body, err := c.get(ctx, "/disputes/"+url.PathEscape(disputeID))
	if err != nil {
		return domain.Dispute{}, err
	}
	return domain.DecodeDispute(body)
}

// ListTimeline fetches the timeline events recorded for a charge.
func (c *Client) ListTimeline(ctx context.Context, chargeID string) ([]domain.TimelineEvent, error) {
	body, err := c.get(ctx, "/timeline/"+url.PathEscape(chargeID))
	if err != nil {
		return nil, err
	}
	return domain.DecodeTimelineEvents(body)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("payments api base url is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("payments api returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
