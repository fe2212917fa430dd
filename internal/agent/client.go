// Package agent is the socket client for the conversational analysis agent.
// It keeps one long-lived websocket connection, emits send_message frames and
// waits for the matching receive_message reply.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kiranshivaraju/bizlens/internal/config"
	"github.com/kiranshivaraju/bizlens/pkg/models"
)

// Socket event names.
const (
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
	EventPing           = "ping"
	EventPong           = "pong"
)

const writeWait = 10 * time.Second

var (
	ErrNotConnected    = errors.New("agent socket not connected")
	ErrConnectFailed   = errors.New("agent socket connection failed")
	ErrResponseTimeout = errors.New("agent response timeout")
	ErrAgentError      = errors.New("agent returned an error")
	ErrClosed          = errors.New("agent client closed")
)

// Frame is the envelope every socket message travels in.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hooks are lifecycle callbacks. Any of them may be nil.
type Hooks struct {
	OnConnect      func()
	OnDisconnect   func(err error)
	OnConnectError func(err error, attempt int)
}

// Options configures a Client.
type Options struct {
	URL             string
	Agent           string
	ResponseTimeout time.Duration
	MaxReconnects   int
	ReconnectDelay  time.Duration
	PingInterval    time.Duration
	Header          http.Header
	Hooks           Hooks
}

// OptionsFromConfig maps the agent section of the configuration to Options.
func OptionsFromConfig(cfg config.AgentConfig) Options {
	return Options{
		URL:             cfg.URL,
		Agent:           cfg.Name,
		ResponseTimeout: cfg.ResponseTimeout,
		MaxReconnects:   cfg.MaxReconnects,
		ReconnectDelay:  cfg.ReconnectDelay,
		PingInterval:    cfg.PingInterval,
	}
}

// Backoff is the delay before reconnect attempt n (1-based): n * base.
func Backoff(attempt int, base time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * base
}

type waiter struct {
	id           string
	analysisType string
	ch           chan models.AgentReply
}

// Client is safe for concurrent use.
type Client struct {
	opts   Options
	dialer *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	waiters []*waiter
	closed  bool

	writeMu sync.Mutex
	done    chan struct{}
}

// New returns an unconnected client. Call Connect before Send.
func New(opts Options) *Client {
	if opts.ResponseTimeout <= 0 {
		opts.ResponseTimeout = 60 * time.Second
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}
	return &Client{
		opts:   opts,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		done:   make(chan struct{}),
	}
}

// Connect dials the agent socket, retrying with linear backoff up to
// MaxReconnects extra attempts.
func (c *Client) Connect(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, Backoff(attempt, c.opts.ReconnectDelay)); err != nil {
				return err
			}
		}

		err := c.dial(ctx)
		if err == nil {
			return nil
		}
		if c.opts.Hooks.OnConnectError != nil {
			c.opts.Hooks.OnConnectError(err, attempt)
		}
		if attempt >= c.opts.MaxReconnects {
			return fmt.Errorf("%w after %d attempts: %v", ErrConnectFailed, attempt+1, err)
		}
	}
}

// Connected reports whether a socket is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Send emits msg and waits for the matching reply. A reply matches by id when
// the agent echoes one, otherwise by analysis type in request order. When no
// reply arrives within the response timeout the connection is reinitialised.
func (c *Client) Send(ctx context.Context, msg models.AgentMessage) (*models.AgentReply, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Agent == "" {
		msg.Agent = c.opts.Agent
	}

	w := &waiter{id: msg.ID, analysisType: msg.AnalysisType, ch: make(chan models.AgentReply, 1)}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()
	defer c.removeWaiter(w)

	if err := c.writeFrame(conn, EventSendMessage, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}

	timer := time.NewTimer(c.opts.ResponseTimeout)
	defer timer.Stop()

	select {
	case reply := <-w.ch:
		if reply.Type == models.AgentReplyError {
			return &reply, fmt.Errorf("%w: %s", ErrAgentError, reply.Content)
		}
		return &reply, nil
	case <-timer.C:
		slog.Warn("agent response timed out, reinitialising socket",
			"analysis_type", msg.AnalysisType, "timeout", c.opts.ResponseTimeout)
		c.reinit(conn)
		return nil, ErrResponseTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	}
}

// Close shuts the connection down and stops reconnecting.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	return conn.Close()
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.opts.URL, c.opts.Header)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.mu.Unlock()

	if c.opts.PingInterval > 0 {
		conn.SetReadDeadline(time.Now().Add(2 * c.opts.PingInterval))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(2 * c.opts.PingInterval))
		})
		go c.pingLoop(conn)
	}
	go c.readLoop(conn)

	slog.Info("agent socket connected", "url", c.opts.URL)
	if c.opts.Hooks.OnConnect != nil {
		c.opts.Hooks.OnConnect()
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(conn, err)
			return
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			slog.Warn("dropping malformed agent frame", "error", err)
			continue
		}

		switch f.Event {
		case EventReceiveMessage:
			var reply models.AgentReply
			if err := json.Unmarshal(f.Data, &reply); err != nil {
				slog.Warn("dropping malformed agent reply", "error", err)
				continue
			}
			c.deliver(reply)
		case EventPing:
			if err := c.writeFrame(conn, EventPong, nil); err != nil {
				slog.Debug("agent pong failed", "error", err)
			}
		default:
			slog.Debug("ignoring agent event", "event", f.Event)
		}
	}
}

func (c *Client) deliver(reply models.AgentReply) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1
	if reply.ID != "" {
		for i, w := range c.waiters {
			if w.id == reply.ID {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		for i, w := range c.waiters {
			if w.analysisType == reply.AnalysisType {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		slog.Debug("agent reply has no waiting request", "analysis_type", reply.AnalysisType)
		return
	}

	w := c.waiters[idx]
	c.waiters = append(c.waiters[:idx], c.waiters[idx+1:]...)
	w.ch <- reply
}

func (c *Client) removeWaiter(target *waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, w := range c.waiters {
		if w == target {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeFrame(conn *websocket.Conn, event string, data any) error {
	f := Frame{Event: event}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", event, err)
		}
		f.Data = b
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}

// reinit drops conn; the read loop notices and starts reconnecting.
func (c *Client) reinit(conn *websocket.Conn) {
	conn.Close()
}

// handleDisconnect runs once per connection, from its read loop.
func (c *Client) handleDisconnect(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	closed := c.closed
	c.mu.Unlock()
	conn.Close()

	if closed {
		return
	}

	slog.Warn("agent socket disconnected", "error", err)
	if c.opts.Hooks.OnDisconnect != nil {
		c.opts.Hooks.OnDisconnect(err)
	}
	go c.reconnect()
}

func (c *Client) reconnect() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	for attempt := 1; attempt <= c.opts.MaxReconnects; attempt++ {
		if err := c.wait(ctx, Backoff(attempt, c.opts.ReconnectDelay)); err != nil {
			return
		}
		err := c.dial(ctx)
		if err == nil {
			return
		}
		if errors.Is(err, ErrClosed) {
			return
		}
		slog.Warn("agent reconnect failed", "attempt", attempt, "error", err)
		if c.opts.Hooks.OnConnectError != nil {
			c.opts.Hooks.OnConnectError(err, attempt)
		}
	}
	slog.Error("agent socket gave up reconnecting", "attempts", c.opts.MaxReconnects)
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}
