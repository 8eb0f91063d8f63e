package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/garant/backend/internal/config"
)

// GatewaySessionProvider opens chat sessions through the user-session gateway
// sidecar, which holds the authenticated account and speaks the chat protocol.
type GatewaySessionProvider struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewGatewaySessionProvider(cfg *config.VoucherConfig) *GatewaySessionProvider {
	return &GatewaySessionProvider{
		baseURL: strings.TrimRight(cfg.GatewayURL, "/"),
		token:   cfg.GatewayToken,
		client:  &http.Client{Timeout: cfg.GatewayTimeout},
	}
}

type gatewaySession struct {
	provider *GatewaySessionProvider
	id       string
	selfID   int64
}

func (p *GatewaySessionProvider) Acquire(ctx context.Context) (ChatSession, error) {
	var resp struct {
		SessionID string `json:"session_id"`
		SelfID    int64  `json:"self_id"`
	}
	if _, err := p.call(ctx, http.MethodPost, "/sessions", nil, &resp); err != nil {
		return nil, err
	}
	if resp.SessionID == "" {
		return nil, fmt.Errorf("gateway returned no session id")
	}

	log.Printf("[GATEWAY] Opened session %s as %d", resp.SessionID, resp.SelfID)
	return &gatewaySession{provider: p, id: resp.SessionID, selfID: resp.SelfID}, nil
}

func (s *gatewaySession) SelfID() int64 {
	return s.selfID
}

func (s *gatewaySession) SendMessage(ctx context.Context, peer, text string) (int64, error) {
	body := map[string]string{"peer": peer, "text": text}
	var resp struct {
		ID int64 `json:"id"`
	}
	if _, err := s.provider.call(ctx, http.MethodPost, s.path("messages"), body, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

func (s *gatewaySession) LastMessage(ctx context.Context, peer string) (*ChatMessage, error) {
	var msg ChatMessage
	status, err := s.provider.call(ctx, http.MethodGet, s.path("peers", peer, "last"), nil, &msg)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	return &msg, nil
}

func (s *gatewaySession) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.provider.client.Timeout)
	defer cancel()

	_, err := s.provider.call(ctx, http.MethodDelete, s.path(), nil, nil)
	return err
}

func (s *gatewaySession) path(parts ...string) string {
	p := "/sessions/" + url.PathEscape(s.id)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// call performs one JSON round trip. A 204 leaves out untouched.
func (p *GatewaySessionProvider) call(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("[GATEWAY] %s %s failed: %v", method, path, err)
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[GATEWAY] %s %s returned status %d", method, path, resp.StatusCode)
		return resp.StatusCode, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return resp.StatusCode, nil
}
