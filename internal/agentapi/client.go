// Package agentapi is the HTTP client for the remote agent's transfer API.
package agentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/relaywatch/relaywatch/internal/transfer"
)

// Wire values for the action query parameter.
const (
	wireActionCopy = "remote-copy"
	wireActionMove = "remote-rename"
)

// Item is one entry of a transfer initiation batch.
type Item struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Overwrite   bool   `json:"overwrite"`
	Rename      bool   `json:"rename"`
}

// Resource describes a remote file or directory node.
type Resource struct {
	Name  string     `json:"name"`
	IsDir bool       `json:"isDir"`
	Size  int64      `json:"size"`
	Items []Resource `json:"items,omitempty"`
}

// Client talks to the agent API at a fixed base URL.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client for the agent API rooted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTPClient: &http.Client{}}
}

type startResponse struct {
	TransferID string `json:"transferID"`
	Error      string `json:"error"`
}

// StartTransfer initiates a copy or move of items to the agent and returns
// the transfer identifier assigned by the agent.
func (c *Client) StartTransfer(ctx context.Context, agent transfer.Agent, action string, items []Item, compress bool) (string, error) {
	wireAction := wireActionMove
	if action == transfer.ActionCopy {
		wireAction = wireActionCopy
	}
	requestURL := fmt.Sprintf("%s/api/remote/%s/%s/copy?action=%s&compress=%t",
		c.BaseURL, url.PathEscape(agent.Host), url.PathEscape(agent.Port), wireAction, compress)

	body, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode transfer items: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send agent request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("start transfer: unexpected status %s", resp.Status)
	}

	var parsed startResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode agent response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("start transfer: %s", parsed.Error)
	}
	if parsed.TransferID == "" {
		return "", fmt.Errorf("start transfer: agent returned no transfer identifier")
	}
	return parsed.TransferID, nil
}

// CancelTransfer requests cancellation. Completion is observed later through
// a terminal signal event on the transfer's stream, not through this call.
func (c *Client) CancelTransfer(ctx context.Context, agent transfer.Agent, transferID string) error {
	requestURL := fmt.Sprintf("%s/api/remote/%s/%s/transfers/%s",
		c.BaseURL, url.PathEscape(agent.Host), url.PathEscape(agent.Port), url.PathEscape(transferID))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, requestURL, nil)
	if err != nil {
		return fmt.Errorf("build agent request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send agent request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cancel transfer: unexpected status %s", resp.Status)
	}
	return nil
}

// GetResource lists a remote file or directory. The agent double-encodes the
// response (a JSON string containing JSON); that behavior is load-bearing
// for compatibility and is decoded in two steps here on purpose.
func (c *Client) GetResource(ctx context.Context, agent transfer.Agent, path string) (*Resource, error) {
	requestURL := fmt.Sprintf("%s/api/remote/%s/%s/resources/%s",
		c.BaseURL, url.PathEscape(agent.Host), url.PathEscape(agent.Port), url.PathEscape(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build agent request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send agent request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get resource: %s", firstNonEmpty(string(bytes.TrimSpace(body)), resp.Status))
	}

	var doubled string
	if err := json.NewDecoder(resp.Body).Decode(&doubled); err != nil {
		return nil, fmt.Errorf("decode resource envelope: %w", err)
	}
	var res Resource
	if err := json.Unmarshal([]byte(doubled), &res); err != nil {
		return nil, fmt.Errorf("decode resource: %w", err)
	}
	return &res, nil
}

// StreamURL returns the event-stream endpoint for one transfer.
func (c *Client) StreamURL(transferID string) string {
	return fmt.Sprintf("%s/api/sse/transfers/%s/poll", c.BaseURL, url.PathEscape(transferID))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
