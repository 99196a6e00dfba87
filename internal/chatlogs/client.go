// Package chatlogs reads robot conversation transcripts from the chat-log service.
package chatlogs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds every chat-log request.
const DefaultTimeout = 30 * time.Second

// ID accepts both numeric and string identifiers
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("chat log id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Log is one question/answer exchange with a robot
type Log struct {
	ID       ID        `json:"id"`
	Input    string    `json:"input"`
	Response string    `json:"response"`
	Time     time.Time `json:"time"`
}

// Client fetches chat logs
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a chat-log client for the service at baseURL
func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch returns the logs of robotID, or every log when robotID is empty
func (c *Client) Fetch(ctx context.Context, robotID string) ([]Log, error) {
	endpoint := c.baseURL
	if robotID != "" {
		endpoint += "?" + url.Values{"robot_id": {robotID}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chat logs: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"status":   resp.StatusCode,
			"robot_id": robotID,
		}).Warn("Chat log service returned an error")
		return nil, fmt.Errorf("failed to fetch chat logs: status %d", resp.StatusCode)
	}

	var logs []Log
	if err := json.Unmarshal(body, &logs); err != nil {
		return nil, fmt.Errorf("failed to parse chat logs: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"count":    len(logs),
		"robot_id": robotID,
	}).Debug("Fetched chat logs")
	return logs, nil
}
