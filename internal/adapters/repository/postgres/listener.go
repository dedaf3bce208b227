package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/okian/trendrank/pkg/logger"
	"github.com/okian/trendrank/pkg/metrics"
)

const (
	minReconnectInterval = 1 * time.Second
	maxReconnectInterval = 30 * time.Second
	listenerPingInterval = 90 * time.Second
)

// Listener turns LISTEN notifications on one channel into callbacks.
type Listener struct {
	dsn     string
	channel string
	logger  logger.Logger
}

// NewListener prepares a listener on channel. Nothing connects until Run.
func NewListener(dsn, channel string) *Listener {
	return &Listener{
		dsn:     dsn,
		channel: channel,
		logger:  logger.Get().Named("pg-listener"),
	}
}

// Run listens until ctx is done and calls onChange for every notification.
// A reconnect also calls onChange, since notifications sent while
// disconnected are lost.
func (l *Listener) Run(ctx context.Context, onChange func(payload string)) error {
	pl := pq.NewListener(l.dsn, minReconnectInterval, maxReconnectInterval, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			l.logger.Info(ctx, "listener connected", logger.String("channel", l.channel))
		case pq.ListenerEventDisconnected:
			l.logger.Warn(ctx, "listener disconnected", logger.Error(err))
		case pq.ListenerEventReconnected:
			l.logger.Info(ctx, "listener reconnected", logger.String("channel", l.channel))
		case pq.ListenerEventConnectionAttemptFailed:
			metrics.RecordErrorByComponent("pg-listener", "connect")
			l.logger.Warn(ctx, "listener connection attempt failed", logger.Error(err))
		}
	})
	defer func() { _ = pl.Close() }()

	if err := pl.Listen(l.channel); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}

	ping := time.NewTicker(listenerPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-pl.Notify:
			if !ok {
				return nil
			}
			metrics.RecordNotification()
			// nil marks a re-established connection.
			if n == nil {
				onChange("")
				continue
			}
			onChange(n.Extra)
		case <-ping.C:
			if err := pl.Ping(); err != nil {
				l.logger.Warn(ctx, "listener ping failed", logger.Error(err))
			}
		}
	}
}
