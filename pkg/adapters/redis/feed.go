package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/finjector/internal/logging"
	"github.com/aretw0/finjector/pkg/domain"
	"github.com/aretw0/finjector/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "finjector:commands"

var (
	// ErrFeedClosed is returned when the subscription channel closes while ctx is still live.
	ErrFeedClosed = errors.New("redis subscription closed")
)

// Feed applies fault commands published on a Redis channel to a Controller.
// Nothing is stored in Redis; the channel is a transport only.
type Feed struct {
	client     backend.UniversalClient
	controller ports.Controller
	channel    string
	logger     *slog.Logger
}

// Option defines a functional option for configuring the Feed.
type Option func(*Feed)

// WithChannel sets the pub/sub channel.
func WithChannel(channel string) Option {
	return func(f *Feed) {
		f.channel = channel
	}
}

// WithLogger sets the logger used for skipped messages and apply failures.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Feed) {
		f.logger = logger
	}
}

// NewFeed creates a feed reading from client and driving ctrl.
func NewFeed(client backend.UniversalClient, ctrl ports.Controller, opts ...Option) *Feed {
	f := &Feed{
		client:     client,
		controller: ctrl,
		channel:    DefaultChannel,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Channel returns the channel the feed subscribes to.
func (f *Feed) Channel() string {
	return f.channel
}

// Run subscribes and applies messages until ctx is cancelled.
// Malformed messages are logged and skipped.
func (f *Feed) Run(ctx context.Context) error {
	sub := f.client.Subscribe(ctx, f.channel)
	defer func() { _ = sub.Close() }()

	// Wait for the subscription to be confirmed so no command published afterwards is lost.
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", f.channel, err)
	}
	f.logger.Info("Redis command feed subscribed", "channel", f.channel)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrFeedClosed
			}
			f.handle(ctx, msg.Payload)
		}
	}
}

func (f *Feed) handle(ctx context.Context, payload string) {
	var cmd domain.Command
	if err := json.Unmarshal([]byte(payload), &cmd); err != nil {
		f.logger.Warn("Skipping malformed command", "channel", f.channel, "error", err)
		return
	}
	if cmd.Module == "" || cmd.Point == "" {
		f.logger.Warn("Skipping incomplete command", "channel", f.channel, "command", cmd.String())
		return
	}
	if err := f.controller.Apply(ctx, cmd); err != nil {
		f.logger.Error("Failed to apply command", "command", cmd.String(), "error", err)
		return
	}
	f.logger.Debug("Command applied", "command", cmd.String())
}

// Publish sends cmd to every feed subscribed to channel.
func Publish(ctx context.Context, client backend.UniversalClient, channel string, cmd domain.Command) error {
	if channel == "" {
		channel = DefaultChannel
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	if err := client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", cmd, err)
	}
	return nil
}
