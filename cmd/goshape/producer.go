package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vnykmshr/goshape/pkg/queue"
	"github.com/vnykmshr/goshape/pkg/shaper"
)

// producer feeds the input queue with requests at a steady pace, cycling
// through keys. Each payload is a fresh uuid so deliveries can be traced.
type producer struct {
	in      queue.Sink[shaper.Request]
	limiter *rate.Limiter
	keys    []string
	logger  *zap.Logger

	produced atomic.Uint64
	dropped  atomic.Uint64
}

func newProducer(in queue.Sink[shaper.Request], perSecond float64, burst int, keys []string, logger *zap.Logger) *producer {
	return &producer{
		in:      in,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		keys:    keys,
		logger:  logger,
	}
}

func (p *producer) run(ctx context.Context) error {
	for i := 0; ; i++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}
		msg := shaper.Message{Key: p.keys[i%len(p.keys)], Payload: uuid.NewString()}
		if !p.in.TryPut(msg, false) {
			p.dropped.Inc()
			p.logger.Debug("input full, request dropped", zap.String("id", msg.Key))
			continue
		}
		p.produced.Inc()
	}
}

// consumer drains the output queue, standing in for whatever would forward
// shaped requests downstream.
type consumer struct {
	out    queue.Source[shaper.Request]
	logger *zap.Logger

	delivered atomic.Uint64
}

func newConsumer(out queue.Source[shaper.Request], logger *zap.Logger) *consumer {
	return &consumer{out: out, logger: logger}
}

func (c *consumer) run(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		for {
			req, ok := c.out.TryGet()
			if !ok {
				break
			}
			c.delivered.Inc()
			if msg, ok := req.(shaper.Message); ok {
				c.logger.Debug("delivered", zap.String("id", msg.Key), zap.Any("payload", msg.Payload))
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
