package sync

import (
	"context"
	"encoding/json"
	"time"

	"blendresto/internal/config"
	"blendresto/internal/infra"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	backoffInicial = time.Second
	backoffMaximo  = 30 * time.Second
)

// helloFrame identifies this terminal to the hub right after the dial.
type helloFrame struct {
	UnitID   string `json:"unit_id"`
	DeviceID string `json:"device_id"`
	Rol      string `json:"rol"`
}

// inboxFrame is what the hub pushes over the realtime channel.
type inboxFrame struct {
	Type   string            `json:"type"`
	Events []infra.EventoHub `json:"events"`
}

// Inbox keeps a websocket subscription to the hub's realtime channel and
// merges every received batch. Connection drops trigger exponential backoff
// (1s doubling up to 30s, reset after a successful session); the periodic
// pull covers anything missed while disconnected.
type Inbox struct {
	hub    *infra.HubClient
	merger *Merger
	perfil config.PerfilDispositivo
	// onConnect fires after each successful (re)connect, before reading
	// frames. The engine hooks an immediate reconciliation pull here.
	onConnect func()
}

func NewInbox(hub *infra.HubClient, merger *Merger, perfil config.PerfilDispositivo, onConnect func()) *Inbox {
	return &Inbox{hub: hub, merger: merger, perfil: perfil, onConnect: onConnect}
}

// Run blocks until ctx is cancelled, reconnecting forever.
func (i *Inbox) Run(ctx context.Context) {
	backoff := backoffInicial
	for {
		if ctx.Err() != nil {
			return
		}

		conectado, err := i.sesion(ctx)
		if ctx.Err() != nil {
			return
		}
		if conectado {
			backoff = backoffInicial
		}
		log.Warn().Err(err).Dur("reintento", backoff).Msg("canal realtime caido")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > backoffMaximo {
			backoff = backoffMaximo
		}
	}
}

// sesion runs one websocket session: dial, hello, then read frames until the
// connection breaks. A session that got past the hello resets the backoff.
func (i *Inbox) sesion(ctx context.Context) (bool, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, i.hub.RealtimeURL(), nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	hello := helloFrame{UnitID: i.perfil.UnitID, DeviceID: i.perfil.DeviceID, Rol: i.perfil.Rol}
	if err := conn.WriteJSON(hello); err != nil {
		return false, err
	}

	log.Info().Str("unit_id", i.perfil.UnitID).Msg("canal realtime conectado")
	if i.onConnect != nil {
		i.onConnect()
	}

	// Close the socket when ctx dies so ReadMessage unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		var frame inboxFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Warn().Err(err).Msg("frame realtime invalido")
			continue
		}
		if frame.Type != "events" || len(frame.Events) == 0 {
			continue
		}
		i.merger.Aplicar(ctx, frame.Events)
	}
}
