package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const contentTypeSchemaRegistry = "application/vnd.schemaregistry.v1+json"

// StatusError is returned when the registry answers with an unexpected status code. Body holds the
// raw response body, which usually contains the registry's own error message.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("schema registry returned status %d: %s", e.StatusCode, e.Body)
}

type schemaRequest struct {
	Schema string `json:"schema"`
}

type compatibilityResponse struct {
	IsCompatible bool `json:"is_compatible"`
}

type registerResponse struct {
	ID int `json:"id"`
}

// Client talks to a Confluent compatible schema registry over HTTP.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.Named("registry"),
	}
}

// CheckCompatibility asks the registry whether schema is compatible with the latest version
// registered under subject. A subject without any registered version is reported as compatible.
func (c *Client) CheckCompatibility(ctx context.Context, subject string, schema string) (bool, error) {
	endpoint := fmt.Sprintf("%s/compatibility/subjects/%s/versions/latest", c.baseURL, url.PathEscape(subject))

	status, body, err := c.post(ctx, endpoint, schema)
	if err != nil {
		return false, err
	}

	switch status {
	case http.StatusOK:
		var res compatibilityResponse
		if err := json.Unmarshal(body, &res); err != nil {
			return false, fmt.Errorf("failed to decode compatibility response: %w", err)
		}
		return res.IsCompatible, nil
	case http.StatusNotFound:
		c.logger.Debug("subject has no registered version yet", zap.String("subject", subject))
		return true, nil
	default:
		return false, &StatusError{StatusCode: status, Body: string(body)}
	}
}

// RegisterSchema registers schema as a new version of subject and returns the schema id assigned
// by the registry. Registering an identical schema again is a no-op on the registry side.
func (c *Client) RegisterSchema(ctx context.Context, subject string, schema string) (int, error) {
	endpoint := fmt.Sprintf("%s/subjects/%s/versions", c.baseURL, url.PathEscape(subject))

	status, body, err := c.post(ctx, endpoint, schema)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, &StatusError{StatusCode: status, Body: string(body)}
	}

	var res registerResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return 0, fmt.Errorf("failed to decode register response: %w", err)
	}

	return res.ID, nil
}

func (c *Client) post(ctx context.Context, endpoint string, schema string) (int, []byte, error) {
	payload, err := json.Marshal(schemaRequest{Schema: schema})
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeSchemaRegistry)
	req.Header.Set("Accept", contentTypeSchemaRegistry)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request to schema registry: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, body, nil
}
