package retell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.retellai.com"

// Config holds vendor API connection settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// APIError is a non-success response from the vendor API.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("retell %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client talks to the Retell v2 REST API.
type Client struct {
	cfg  Config
	http *resty.Client
	dl   *resty.Client
}

// NewClient creates a Retell API client.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	// Artifact URLs point at third-party hosts (CDN, object storage);
	// the API credential must never leave the vendor API, so downloads
	// go through a separate unauthenticated client.
	dl := resty.New().
		SetTimeout(cfg.Timeout)
	return &Client{cfg: cfg, http: rc, dl: dl}
}

// CreatePhoneCall places one outbound call and returns the created record.
func (c *Client) CreatePhoneCall(ctx context.Context, req CreatePhoneCallRequest) (*CallRecord, error) {
	if req.FromNumber == "" || req.ToNumber == "" {
		return nil, errors.New("from/to numbers required")
	}
	if c.cfg.APIKey == "" {
		return nil, errors.New("missing retell api key")
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/v2/create-phone-call")
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, &APIError{Op: "create-phone-call", StatusCode: resp.StatusCode(), Body: excerpt(resp.Body())}
	}
	return decodeRecord(resp.Body())
}

// GetCall retrieves the current call record by identifier. The raw
// response payload is kept verbatim on the returned record.
func (c *Client) GetCall(ctx context.Context, callID string) (*CallRecord, error) {
	if callID == "" {
		return nil, errors.New("call id required")
	}
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/v2/get-call/" + callID)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, &APIError{Op: "get-call", StatusCode: resp.StatusCode(), Body: excerpt(resp.Body())}
	}
	return decodeRecord(resp.Body())
}

// ScrubCall asks the vendor to drop sensitive fields from the stored
// call record.
func (c *Client) ScrubCall(ctx context.Context, callID string) error {
	if callID == "" {
		return errors.New("call id required")
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(scrubRequest{OptOutSensitiveDataStorage: true}).
		Patch("/v2/update-call/" + callID)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return &APIError{Op: "update-call", StatusCode: resp.StatusCode(), Body: excerpt(resp.Body())}
	}
	return nil
}

// Download fetches an artifact by absolute URL and returns its bytes.
// The request carries no API credential.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("artifact url required")
	}
	resp, err := c.dl.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, &APIError{Op: "download", StatusCode: resp.StatusCode(), Body: excerpt(resp.Body())}
	}
	return resp.Body(), nil
}

func decodeRecord(body []byte) (*CallRecord, error) {
	var rec CallRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decode call record: %w", err)
	}
	if rec.CallID == "" {
		return nil, errors.New("missing call id in response")
	}
	rec.Raw = append(json.RawMessage(nil), body...)
	return &rec, nil
}

func excerpt(body []byte) string {
	const max = 512
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
