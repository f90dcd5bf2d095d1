package notify

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

// DefaultFonnteURL is the Fonnte send endpoint.
const DefaultFonnteURL = "https://api.fonnte.com/send"

// ErrRejected is returned when the provider answers but refuses the message.
var ErrRejected = errors.New("notify: message rejected by provider")

// WhatsAppSender posts messages through the Fonnte WhatsApp gateway.
type WhatsAppSender struct {
	url  string
	key  string
	http *http.Client
}

func NewWhatsAppSender(url, key string) *WhatsAppSender {
	url = strings.TrimSpace(url)
	if url == "" {
		url = DefaultFonnteURL
	}
	return &WhatsAppSender{
		url: url,
		key: strings.TrimSpace(key),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *WhatsAppSender) Name() string { return "whatsapp" }

type fonnteRequest struct {
	Target  string `json:"target"`
	Message string `json:"message"`
}

type fonnteResponse struct {
	Status bool   `json:"status"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

func (s *WhatsAppSender) Send(ctx context.Context, destination, message string) error {
	if strings.TrimSpace(destination) == "" {
		return errors.New("notify: empty destination")
	}
	raw, err := json.Marshal(fonnteRequest{Target: destination, Message: message})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	// Fonnte expects the bare token, no scheme.
	req.Header.Set("Authorization", s.key)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify: fonnte request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: fonnte returned %d", resp.StatusCode)
	}
	var out fonnteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("notify: decode fonnte response: %w", err)
	}
	if !out.Status {
		reason := out.Reason
		if reason == "" {
			reason = out.Detail
		}
		return fmt.Errorf("%w: %s", ErrRejected, reason)
	}
	return nil
}
