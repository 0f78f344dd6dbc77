// Package whatsapp holds the chat-channel plumbing: the HTTP client for
// the WhatsApp gateway and the routing of inbound messages to the billing
// flows.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// InboundMessage is an inbound chat event as delivered by the gateway
// webhook.
type InboundMessage struct {
	Event      string `json:"event"`
	Session    string `json:"session"`
	From       string `json:"from"` // JID, e.g. 5585912345678@c.us
	Type       string `json:"type"` // chat|image|document|ptt|audio
	Body       string `json:"body"`
	IsGroupMsg bool   `json:"isGroupMsg"`
}

// GatewayClient talks to the WhatsApp gateway HTTP API. Outbound sends
// share a process-wide rate limiter so reminder sweeps cannot burst the
// channel.
type GatewayClient struct {
	baseURL    string
	session    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewGatewayClient creates a gateway client. sendRate is messages per
// second; burst bounds short spikes.
func NewGatewayClient(baseURL, session, token string, sendRate float64, burst int) *GatewayClient {
	return &GatewayClient{
		baseURL:    baseURL,
		session:    session,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(sendRate), burst),
	}
}

// SendText delivers a plain text message to a JID.
func (c *GatewayClient) SendText(ctx context.Context, recipient, body string) error {
	return c.post(ctx, "send-message", map[string]any{
		"phone":   recipient,
		"message": body,
	})
}

// SendImage delivers an image by URL with a filename and caption.
func (c *GatewayClient) SendImage(ctx context.Context, recipient, imageURL, filename, caption string) error {
	return c.post(ctx, "send-image", map[string]any{
		"phone":    recipient,
		"path":     imageURL,
		"filename": filename,
		"caption":  caption,
	})
}

// SessionStatus reports the gateway session state (CONNECTED, QRCODE, ...).
func (c *GatewayClient) SessionStatus(ctx context.Context) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "status-session", &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// QRCode returns the current pairing QR payload, empty when the session
// is already paired.
func (c *GatewayClient) QRCode(ctx context.Context) (string, error) {
	var out struct {
		QRCode string `json:"qrcode"`
	}
	if err := c.get(ctx, "qrcode-session", &out); err != nil {
		return "", err
	}
	return out.QRCode, nil
}

func (c *GatewayClient) endpoint(action string) string {
	return fmt.Sprintf("%s/api/%s/%s", c.baseURL, c.session, action)
}

func (c *GatewayClient) post(ctx context.Context, action string, payload map[string]any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", action, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(action), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s failed: %w", action, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway %s returned status %d: %s", action, resp.StatusCode, string(b))
	}
	return nil
}

func (c *GatewayClient) get(ctx context.Context, action string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(action), nil)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", action, err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s failed: %w", action, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway %s returned status %d", action, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *GatewayClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
