package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// LeadChannel is the NOTIFY channel fed by the leads trigger.
const LeadChannel = "lead_changes"

// Publisher receives decoded events.
type Publisher interface {
	Publish(Event)
}

// Listener relays PostgreSQL notifications to a Publisher.
type Listener struct {
	pool    *pgxpool.Pool
	channel string
	out     Publisher
	logger  *zap.Logger
	backoff time.Duration
}

// NewListener builds a listener on channel.
func NewListener(pool *pgxpool.Pool, channel string, out Publisher, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{pool: pool, channel: channel, out: out, logger: logger, backoff: 2 * time.Second}
}

// Run listens until ctx is cancelled, reconnecting after connection failures.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Warn("realtime listener interrupted", zap.String("channel", l.channel), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.backoff):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listener connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.logger.Info("realtime listener started", zap.String("channel", l.channel))

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		event, err := DecodeNotification(n.Payload)
		if err != nil {
			l.logger.Warn("discarding malformed notification", zap.String("payload", n.Payload), zap.Error(err))
			continue
		}
		l.out.Publish(event)
	}
}

// DecodeNotification parses a trigger payload of the form
// {"table":"leads","event":"UPDATE","id":"...","user_id":"..."}.
func DecodeNotification(payload string) (Event, error) {
	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return Event{}, fmt.Errorf("decode notification: %w", err)
	}
	e.Event = strings.ToLower(e.Event)
	if e.Event == EventAll || !ValidEvent(e.Event) {
		return Event{}, fmt.Errorf("unknown event %q", e.Event)
	}
	if e.Table == "" {
		return Event{}, errors.New("notification without table")
	}
	return e, nil
}
