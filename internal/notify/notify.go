// Package notify publishes build completion events to NATS.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dfid/devtracker-site/internal/build"
	"github.com/dfid/devtracker-site/internal/config"
	foundation "github.com/dfid/devtracker-site/internal/foundation/errors"
	"github.com/dfid/devtracker-site/internal/logfields"
)

// Event is the payload published after a successful build.
type Event struct {
	BuildID   string        `json:"build_id"`
	Mode      build.Mode    `json:"mode"`
	Pages     int           `json:"pages"`
	Assets    int           `json:"assets"`
	OutputDir string        `json:"output_dir"`
	Duration  time.Duration `json:"duration_ns"`
	Timestamp time.Time     `json:"timestamp"`
}

// EventFromReport builds the event for a finished build.
func EventFromReport(r *build.Report) Event {
	return Event{
		BuildID:   r.BuildID,
		Mode:      r.Mode,
		Pages:     r.Pages(),
		Assets:    r.Assets,
		OutputDir: r.OutputDir,
		Duration:  r.Duration,
		Timestamp: time.Now().UTC(),
	}
}

type publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// Publisher implements build.Notifier on a NATS connection.
type Publisher struct {
	conn    publisher
	subject string
}

var _ build.Notifier = (*Publisher)(nil)

// New connects to cfg.NATSURL. It returns (nil, nil) when notifications are
// disabled; callers should then leave the builder without a notifier.
func New(cfg config.NotifyConfig) (*Publisher, error) {
	if cfg.NATSURL == "" {
		return nil, nil
	}
	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name("devtracker-site"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, foundation.WrapError(err, foundation.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", cfg.NATSURL).
			Retryable().
			Build()
	}
	slog.Info("NATS notifier connected", "url", cfg.NATSURL, "subject", cfg.Subject)
	return &Publisher{conn: conn, subject: cfg.Subject}, nil
}

// BuildCompleted publishes the report summary and waits for the server to
// acknowledge the flush.
func (p *Publisher) BuildCompleted(ctx context.Context, r *build.Report) error {
	data, err := json.Marshal(EventFromReport(r))
	if err != nil {
		return foundation.InternalError("failed to encode build event").WithCause(err).Build()
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return foundation.WrapError(err, foundation.CategoryNetwork, "failed to publish build event").
			WithContext("subject", p.subject).
			Build()
	}
	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.conn.FlushWithContext(flushCtx); err != nil {
		return foundation.WrapError(err, foundation.CategoryNetwork, "failed to flush build event").Build()
	}
	slog.Debug("Published build event", logfields.BuildID(r.BuildID), "subject", p.subject)
	return nil
}

// Close closes the connection. Safe on nil.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}
