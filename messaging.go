package main

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/photonicat/simply_analog/internal/logger"
)

// configReply answers both the HTTP and the NATS message channel.
type configReply struct {
	Revision string   `json:"revision,omitempty"`
	Ignored  []string `json:"ignored,omitempty"`
	Error    string   `json:"error,omitempty"`

	// badRequest marks a payload that could not be read at all.
	badRequest bool
}

// handleConfigMessage decodes a JSON companion message and applies it.
func handleConfigMessage(w *Watchface, payload []byte) configReply {
	var msg map[string]any
	if err := json.Unmarshal(payload, &msg); err != nil {
		return configReply{Error: fmt.Sprintf("invalid JSON: %v", err), badRequest: true}
	}
	rec, ignored, err := w.ApplyMessage(msg)
	if err != nil {
		return configReply{Ignored: ignored, Error: err.Error()}
	}
	return configReply{Revision: rec.Revision, Ignored: ignored}
}

// MessageBus subscribes to configuration messages on "<prefix>.config".
type MessageBus struct {
	conn *nats.Conn
	sub  *nats.Subscription
}

func NewMessageBus(url, prefix string, w *Watchface) (*MessageBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("simply-analog"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	subject := prefix + ".config"
	sub, err := conn.Subscribe(subject, func(m *nats.Msg) {
		reply := handleConfigMessage(w, m.Data)
		if reply.Error != "" {
			logger.Warn("config message rejected", "subject", m.Subject, "err", reply.Error)
		}
		if m.Reply == "" {
			return
		}
		data, err := json.Marshal(reply)
		if err != nil {
			logger.Error("encoding reply", "err", err)
			return
		}
		if err := m.Respond(data); err != nil {
			logger.Warn("nats respond failed", "err", err)
		}
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	logger.Info("NATS message channel ready", "url", url, "subject", subject)
	return &MessageBus{conn: conn, sub: sub}, nil
}

func (b *MessageBus) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	if b.conn != nil {
		b.conn.Close()
	}
}
