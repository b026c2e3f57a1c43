// Package whatsapp talks to an Evolution API server, the WhatsApp gateway
// each barbershop instance is connected through.
package whatsapp

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

// Connection states reported by Evolution.
const (
	StateOpen       = "open"
	StateConnecting = "connecting"
	StateClose      = "close"
)

// WebhookEvents are the events the backend subscribes to.
var WebhookEvents = []string{"MESSAGES_UPSERT", "CONNECTION_UPDATE"}

var ErrDisabled = errors.New("whatsapp: evolution api not configured")

// APIError is a non 2xx answer from Evolution.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("evolution api: status %d: %s", e.Status, e.Body)
}

type Webhook struct {
	Enabled bool     `json:"enabled"`
	URL     string   `json:"url"`
	Events  []string `json:"events"`
}

// Gateway is the part of Evolution used by the assistant and the recovery
// tooling.
type Gateway interface {
	ConnectionState(ctx context.Context, instance string) (string, error)
	FindWebhook(ctx context.Context, instance string) (*Webhook, error)
	SetWebhook(ctx context.Context, instance, url string) error
	Connect(ctx context.Context, instance string) error
	Restart(ctx context.Context, instance string) error
	SendText(ctx context.Context, instance, number, text string) error
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// New returns a disabled gateway when no base URL is configured.
func New(baseURL, apiKey string) Gateway {
	if baseURL == "" {
		return Disabled{}
	}
	return NewClient(baseURL, apiKey)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &APIError{Status: res.StatusCode, Body: string(raw)}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return nil
}

func (c *Client) ConnectionState(ctx context.Context, instance string) (string, error) {
	var out struct {
		Instance struct {
			State string `json:"state"`
		} `json:"instance"`
	}
	if err := c.do(ctx, http.MethodGet, "/instance/connectionState/"+instance, nil, &out); err != nil {
		return "", err
	}
	return out.Instance.State, nil
}

func (c *Client) FindWebhook(ctx context.Context, instance string) (*Webhook, error) {
	var out Webhook
	if err := c.do(ctx, http.MethodGet, "/webhook/find/"+instance, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetWebhook(ctx context.Context, instance, url string) error {
	body := map[string]any{
		"webhook": map[string]any{
			"enabled":         true,
			"url":             url,
			"webhookByEvents": false,
			"events":          WebhookEvents,
		},
	}
	return c.do(ctx, http.MethodPost, "/webhook/set/"+instance, body, nil)
}

func (c *Client) Connect(ctx context.Context, instance string) error {
	return c.do(ctx, http.MethodGet, "/instance/connect/"+instance, nil, nil)
}

func (c *Client) Restart(ctx context.Context, instance string) error {
	return c.do(ctx, http.MethodPost, "/instance/restart/"+instance, nil, nil)
}

func (c *Client) SendText(ctx context.Context, instance, number, text string) error {
	body := map[string]any{
		"number": number,
		"text":   text,
	}
	return c.do(ctx, http.MethodPost, "/message/sendText/"+instance, body, nil)
}

// ======================================================
// DISABLED
// ======================================================

type Disabled struct{}

func (Disabled) ConnectionState(context.Context, string) (string, error) { return "", ErrDisabled }
func (Disabled) FindWebhook(context.Context, string) (*Webhook, error)   { return nil, ErrDisabled }
func (Disabled) SetWebhook(context.Context, string, string) error        { return ErrDisabled }
func (Disabled) Connect(context.Context, string) error                   { return ErrDisabled }
func (Disabled) Restart(context.Context, string) error                   { return ErrDisabled }
func (Disabled) SendText(context.Context, string, string, string) error  { return ErrDisabled }
