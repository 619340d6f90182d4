// Package sse implements the subscriber side of the agent's server-sent
// event streams. The browser EventSource reconnects implicitly; here the
// reconnect loop is explicit, with bounded backoff and a rate cap.
package sse

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultMinBackoff = 500 * time.Millisecond
	defaultMaxBackoff = 15 * time.Second
)

// Event is one message delivered on a subscription. Trusted is set only for
// events read from a verified event-stream response; handlers discard
// anything else.
type Event struct {
	Data    string
	Trusted bool
}

// Handler receives events in the order the transport delivers them.
type Handler func(Event)

// Client opens subscriptions against an agent's event-stream endpoints.
type Client struct {
	// HTTPClient must not carry a request timeout; streams are long-lived.
	HTTPClient *http.Client
	// Limiter caps connection attempts across all subscriptions.
	Limiter    *rate.Limiter
	MinBackoff time.Duration
	MaxBackoff time.Duration

	log *slog.Logger
}

// NewClient returns a client with default reconnect behavior.
func NewClient(log *slog.Logger) *Client {
	return &Client{
		HTTPClient: &http.Client{},
		Limiter:    rate.NewLimiter(rate.Every(time.Second), 5),
		MinBackoff: defaultMinBackoff,
		MaxBackoff: defaultMaxBackoff,
		log:        log,
	}
}

// Subscription is a handle on one long-lived stream. It is owned by exactly
// one transfer record and is never reopened after Close.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Close stops the subscription. Safe to call from inside the handler and
// safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// Done is closed once the subscription loop has fully stopped.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Subscribe opens a stream at url and delivers its events to h, reconnecting
// until ctx is done or the subscription is closed. Events for a single
// subscription are delivered sequentially, in arrival order.
func (c *Client) Subscribe(ctx context.Context, url string, h Handler) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	go c.run(ctx, url, h, sub)
	return sub
}

func (c *Client) run(ctx context.Context, url string, h Handler, sub *Subscription) {
	defer close(sub.done)

	backoff := c.MinBackoff
	for {
		if err := c.Limiter.Wait(ctx); err != nil {
			return
		}
		err := c.stream(ctx, url, h, &backoff)
		if ctx.Err() != nil {
			return
		}
		// Transport failure: log only, no record mutation. The stream is
		// retried; the transfer stays pending until events resume.
		c.log.Warn("event stream disconnected", "url", url, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.MaxBackoff {
			backoff = c.MaxBackoff
		}
	}
}

// stream holds one connection open and dispatches its events. A healthy
// connection resets the reconnect backoff.
func (c *Client) stream(ctx context.Context, url string, h Handler, backoff *time.Duration) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("connect stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected stream status %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		return fmt.Errorf("unexpected stream content type %q", ct)
	}
	*backoff = c.MinBackoff

	var data []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if len(data) > 0 {
				h(Event{Data: strings.Join(data, "\n"), Trusted: true})
				data = data[:0]
			}
			continue
		}
		if payload, ok := strings.CutPrefix(line, "data:"); ok {
			data = append(data, strings.TrimPrefix(payload, " "))
		}
		// Other SSE fields (event, id, retry, comments) are ignored; the
		// agent only emits plain data lines.
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return fmt.Errorf("stream closed by server")
}
