package wsbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dhruvsoni1802/wirebridge/internal/command"
	"github.com/dhruvsoni1802/wirebridge/internal/wire"
)

// ErrConnectionClosed fails every command still waiting when the connection ends.
var ErrConnectionClosed = errors.New("connection closed")

const writeTimeout = 10 * time.Second

// Client dispatches commands as id-correlated JSON frames over one WebSocket.
// Replies may arrive in any order.
type Client struct {
	url    string
	logger *slog.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[int64]*command.Command
	closed  bool

	nextID atomic.Int64
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates an unconnected client for the ws:// or wss:// url.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:     url,
		logger:  slog.Default(),
		pending: make(map[int64]*command.Command),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial creates a client and connects it.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	c := NewClient(url, opts...)
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect opens the WebSocket and starts reading replies.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}
	c.conn = conn

	c.logger.Debug("websocket connected", "url", c.url)

	go c.readLoop()
	return nil
}

// DispatchCommand sends cmd and returns once the frame is written. The
// response is set when the matching reply arrives, when ctx ends, or when
// the connection closes.
func (c *Client) DispatchCommand(ctx context.Context, cmd *command.Command) error {
	if c.conn == nil {
		return fmt.Errorf("client is not connected")
	}

	id := c.nextID.Add(1)
	request := Request{
		ID:         id,
		Name:       cmd.Name().String(),
		SessionID:  cmd.SessionID(),
		Parameters: cmd.Params().Native(),
	}

	// Register before writing so a fast reply always finds its command
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConnectionClosed
	}
	c.pending[id] = cmd
	c.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		c.forget(id)
		cmd.SetResponse(wire.NewFailureResponse(wire.Unhandled, ctx.Err()))
	})
	cmd.OnComplete(func(*wire.Response) {
		stop()
		c.forget(id)
	})

	c.writeMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := c.conn.WriteJSON(request)
	c.writeMu.Unlock()

	if err != nil {
		c.forget(id)
		return fmt.Errorf("failed to send %s: %w", cmd.Name(), err)
	}

	c.logger.Debug("sent command", "id", id, "command", request.Name, "session_id", request.SessionID)
	return nil
}

// Pending returns the number of commands awaiting a reply.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close ends the connection. Commands still waiting fail with
// ErrConnectionClosed. The socket is closed even when the remote end
// dropped it first, and later calls return the first result.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		if c.conn == nil {
			return
		}

		c.writeMu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()

		c.closeErr = c.conn.Close()
		<-c.done
	})
	return c.closeErr
}

func (c *Client) readLoop() {
	defer close(c.done)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			c.failAll(fmt.Errorf("%w: %v", ErrConnectionClosed, err))
			return
		}

		var reply Reply
		if err := json.Unmarshal(message, &reply); err != nil {
			c.logger.Warn("dropping malformed frame", "error", err)
			continue
		}

		c.mu.Lock()
		cmd, ok := c.pending[reply.ID]
		delete(c.pending, reply.ID)
		c.mu.Unlock()

		if !ok {
			c.logger.Debug("reply for unknown command", "id", reply.ID)
			continue
		}
		cmd.SetResponse(decodeReply(reply, cmd.SessionID()))
	}
}

func (c *Client) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) failAll(err error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[int64]*command.Command)
	c.closed = true
	c.mu.Unlock()

	for _, cmd := range pending {
		cmd.SetResponse(wire.NewFailureResponse(wire.Unhandled, err))
	}
}

func decodeReply(reply Reply, sessionID string) *wire.Response {
	var value any
	if len(reply.Value) > 0 {
		if err := json.Unmarshal(reply.Value, &value); err != nil {
			return wire.NewFailureResponse(wire.Unhandled, fmt.Errorf("failed to decode reply value: %w", err))
		}
	}

	owner := sessionID
	if reply.SessionID != "" {
		owner = reply.SessionID
	}
	return &wire.Response{
		Status:    reply.Status,
		SessionID: reply.SessionID,
		Value:     wire.Unwrap(value, owner),
	}
}
