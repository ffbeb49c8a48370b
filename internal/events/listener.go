package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// DefaultReconnectDelay is the pause before re-listening after a dropped
// connection.
const DefaultReconnectDelay = 5 * time.Second

// Listener republishes PostgreSQL notifications on a channel as
// ProductsChanged events.
type Listener struct {
	pool    *pgxpool.Pool
	channel string
	bus     *Bus
	delay   time.Duration
	logger  zerolog.Logger
}

// NewListener creates a listener for channel.
func NewListener(pool *pgxpool.Pool, channel string, bus *Bus, logger zerolog.Logger) *Listener {
	return &Listener{
		pool:    pool,
		channel: channel,
		bus:     bus,
		delay:   DefaultReconnectDelay,
		logger:  logger.With().Str("component", "listener").Str("channel", channel).Logger(),
	}
}

// Run listens until ctx is cancelled, reconnecting after failures. It
// returns nil on cancellation.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			l.logger.Info().Msg("listener stopped")
			return nil
		}

		l.logger.Warn().Err(err).Dur("retry_in", l.delay).Msg("listener disconnected")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.delay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	// A listening connection must not go back to the pool.
	raw := conn.Hijack()
	defer func() {
		_ = raw.Close(context.Background())
	}()

	if _, err := raw.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	l.logger.Info().Msg("listening for notifications")

	for {
		n, err := raw.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("failed to wait for notification: %w", err)
		}
		l.bus.PublishProductsChanged(n.Payload, SourceDatabase)
	}
}
