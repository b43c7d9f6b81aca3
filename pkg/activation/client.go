package activation

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
)

// Profile is the buyer identity attached to an activation
type Profile struct {
	Phone     string  `json:"phone"`
	Name      *string `json:"name"`
	FirstName *string `json:"firstName"`
	Email     *string `json:"email"`
}

// Activation is the server's record of a successful bind
type Activation struct {
	Phone       string    `json:"phone"`
	DeviceID    string    `json:"deviceId"`
	ActivatedAt time.Time `json:"activatedAt"`
	Profile     Profile   `json:"profile"`
}

// Status answers whether a phone number holds a usable license
type Status struct {
	Valid   bool     `json:"valid"`
	Error   string   `json:"error,omitempty"`
	Profile *Profile `json:"profile,omitempty"`
}

// DeviceStatus answers whether a device is already activated
type DeviceStatus struct {
	Activated bool     `json:"activated"`
	Phone     string   `json:"phone,omitempty"`
	Profile   *Profile `json:"profile,omitempty"`
}

// APIError is a non-success answer from the activation API. Message is the
// server's user-facing text.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("activation api: %d: %s", e.StatusCode, e.Message)
}

// Client calls the activation API over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the API mounted at baseURL, e.g.
// https://niyyah.app/api/v1
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Activate binds phone's license to deviceID
func (c *Client) Activate(ctx context.Context, phone, deviceID string) (*Activation, error) {
	body, err := json.Marshal(map[string]string{"phone": phone, "deviceId": deviceID})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Success bool        `json:"success"`
		Error   string      `json:"error"`
		Message string      `json:"message"`
		Data    *Activation `json:"data"`
	}
	status, err := c.do(ctx, http.MethodPost, "/activate", bytes.NewReader(body), &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || !resp.Success || resp.Data == nil {
		return nil, &APIError{StatusCode: status, Message: firstNonEmpty(resp.Error, resp.Message, http.StatusText(status))}
	}
	return resp.Data, nil
}

// CheckStatus asks whether phone holds a license usable from deviceID
func (c *Client) CheckStatus(ctx context.Context, phone, deviceID string) (*Status, error) {
	q := url.Values{"phone": {phone}}
	if deviceID != "" {
		q.Set("deviceId", deviceID)
	}

	var resp Status
	status, err := c.do(ctx, http.MethodGet, "/activate?"+q.Encode(), nil, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &APIError{StatusCode: status, Message: firstNonEmpty(resp.Error, http.StatusText(status))}
	}
	return &resp, nil
}

// CheckDevice asks which license, if any, is bound to fingerprint
func (c *Client) CheckDevice(ctx context.Context, fingerprint string) (*DeviceStatus, error) {
	q := url.Values{"fingerprint": {fingerprint}}

	var resp struct {
		DeviceStatus
		Error string `json:"error"`
	}
	status, err := c.do(ctx, http.MethodGet, "/check-device?"+q.Encode(), nil, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &APIError{StatusCode: status, Message: firstNonEmpty(resp.Error, http.StatusText(status))}
	}
	return &resp.DeviceStatus, nil
}

// do sends the request and decodes any JSON body into out. Non-2xx statuses
// are returned to the caller, transport and decode failures as errors.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil && resp.StatusCode == http.StatusOK {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
