package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/fundalert/pkg/channel"
	"github.com/dmitrymomot/fundalert/pkg/logger"
)

// Deliverer sends one payload through one channel.
type Deliverer interface {
	Deliver(ctx context.Context, cfg channel.Configuration, p Payload) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, cfg channel.Configuration, p Payload) error

func (f DelivererFunc) Deliver(ctx context.Context, cfg channel.Configuration, p Payload) error {
	return f(ctx, cfg, p)
}

// Router picks the deliverer registered for the channel type.
type Router struct {
	byType map[channel.Type]Deliverer
}

func NewRouter() *Router {
	return &Router{byType: make(map[channel.Type]Deliverer)}
}

// Register sets the deliverer for t, replacing any earlier one.
func (r *Router) Register(t channel.Type, d Deliverer) *Router {
	r.byType[t] = d
	return r
}

func (r *Router) Deliver(ctx context.Context, cfg channel.Configuration, p Payload) error {
	d, ok := r.byType[cfg.Type()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoDeliverer, cfg.Type())
	}
	return d.Deliver(ctx, cfg, p)
}

// NoOp logs the payload and reports success. It stands in for channels
// whose transport is not configured.
type NoOp struct {
	logger *slog.Logger
}

func NewNoOp(l *slog.Logger) NoOp {
	if l == nil {
		l = slog.Default()
	}
	return NoOp{logger: l}
}

func (n NoOp) Deliver(ctx context.Context, cfg channel.Configuration, p Payload) error {
	n.logger.LogAttrs(ctx, slog.LevelInfo, "notification not sent, channel transport disabled",
		logger.ChannelID(cfg.ID()),
		logger.ChannelType(string(cfg.Type())),
		logger.NotificationID(p.ID),
	)
	return nil
}
