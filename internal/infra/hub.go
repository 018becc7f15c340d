package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// EventoHub is one sync event on the hub wire: a full row snapshot keyed by
// table name, scoped to a unit (venue).
type EventoHub struct {
	Table  string          `json:"table"`
	Row    json.RawMessage `json:"row"`
	UnitID string          `json:"unit_id"`
}

// loteEventos is the request/response envelope shared by push and pull.
type loteEventos struct {
	Events []EventoHub `json:"events"`
}

// HubClient talks to the LAN coordination hub. The hub is an external
// collaborator: only its wire contract is known here. All calls are
// best-effort — the terminal never blocks a local command on them.
type HubClient struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

func NewHubClient(baseURL, secret string) *HubClient {
	return &HubClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secret:     secret,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Push sends a batch of outbox events. Fire-and-forget semantics: the caller
// marks events sent only on a 2xx response and otherwise retries the whole
// batch on the next cycle.
func (c *HubClient) Push(ctx context.Context, eventos []EventoHub) error {
	body, err := json.Marshal(loteEventos{Events: eventos})
	if err != nil {
		return fmt.Errorf("hub: marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/push", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("hub: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hub: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("hub: push returned %d", resp.StatusCode)
	}
	return nil
}

// Pull fetches the authoritative event listing for the unit. Used by the
// periodic reconciliation fallback when the realtime channel is degraded.
func (c *HubClient) Pull(ctx context.Context, unitID string) ([]EventoHub, error) {
	u := fmt.Sprintf("%s/state?unit_id=%s", c.baseURL, url.QueryEscape(unitID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("hub: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hub: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hub: pull returned %d", resp.StatusCode)
	}

	var lote loteEventos
	if err := json.NewDecoder(resp.Body).Decode(&lote); err != nil {
		return nil, fmt.Errorf("hub: decode pull response: %w", err)
	}
	return lote.Events, nil
}

// RealtimeURL builds the websocket endpoint for the inbox channel.
func (c *HubClient) RealtimeURL() string {
	ws := c.baseURL
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return fmt.Sprintf("%s/realtime?token=%s", ws, url.QueryEscape(c.secret))
}
