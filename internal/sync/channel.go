package sync

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"redraft/engine/internal/logging"
)

// State names a position in the channel lifecycle:
// Disconnected -> Connecting -> Open -> (Closed | Erroring) -> Disconnected.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateOpen         State = "open"
	StateClosed       State = "closed"
	StateErroring     State = "erroring"
)

const (
	MessageInit   = "init"
	MessageUpdate = "update"
	MessageChat   = "chat"
)

// Message is the sync wire envelope. Data carries a full document snapshot;
// there is no delta format.
type Message struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	handshakeTimeout   = 10 * time.Second
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
	defaultQueueSize   = 32
)

// conn is the slice of *websocket.Conn the channel uses, split out so tests
// can script connections.
type conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

type dialFunc func(ctx context.Context, url string) (conn, error)

func gorillaDial(ctx context.Context, rawURL string) (conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	c, _, err := dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Channel maintains one persistent WebSocket connection to a document store.
// Inbound snapshots are reported through OnDocument; outbound snapshots go
// through Send, queueing while the connection is down. The channel reconnects
// on its own until Close is called.
type Channel struct {
	url    string
	logger *slog.Logger
	dial   dialFunc
	sleep  func(context.Context, time.Duration) error
	now    func() time.Time

	onState    func(State, string)
	onDocument func(string)

	mu        sync.Mutex
	state     State
	conn      conn
	queue     []string
	queueSize int
	cancel    context.CancelFunc
	stopped   chan struct{}

	writeMu sync.Mutex
}

type Option func(*Channel)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithQueueSize bounds the offline outbound queue. When the queue is full the
// oldest snapshot is dropped; a later full snapshot subsumes an earlier one.
func WithQueueSize(size int) Option {
	return func(c *Channel) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

func New(url string, opts ...Option) *Channel {
	c := &Channel{
		url:       url,
		logger:    logging.Nop(),
		dial:      gorillaDial,
		sleep:     sleepWithContext,
		now:       time.Now,
		state:     StateDisconnected,
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnState registers the state-change callback. Must be set before Connect.
func (c *Channel) OnState(fn func(state State, detail string)) {
	c.onState = fn
}

// OnDocument registers the inbound-snapshot callback. Must be set before
// Connect.
func (c *Channel) OnDocument(fn func(snapshot string)) {
	c.onDocument = fn
}

func (c *Channel) URL() string {
	return c.url
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status reports the current state for the RPC surface.
type Status struct {
	State  State  `json:"state"`
	URL    string `json:"url"`
	Queued int    `json:"queued"`
}

func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{State: c.state, URL: c.url, Queued: len(c.queue)}
}

// Connect starts the connection loop. Calling Connect on a running channel is
// a no-op.
func (c *Channel) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	stopped := make(chan struct{})
	c.stopped = stopped
	go func() {
		defer close(stopped)
		c.run(ctx)
	}()
}

// Close stops the connection loop and waits for it to exit. Queued snapshots
// survive; a later Connect flushes them.
func (c *Channel) Close() {
	c.mu.Lock()
	cancel := c.cancel
	current := c.conn
	stopped := c.stopped
	c.cancel = nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	if current != nil {
		current.Close()
	}
	if stopped != nil {
		<-stopped
	}
}

// Send transmits a full-document update, or queues it while the connection is
// down. A failed live write re-queues the snapshot and tears the connection
// down into the reconnect path.
func (c *Channel) Send(snapshot string) {
	c.mu.Lock()
	current := c.conn
	if current == nil || c.state != StateOpen {
		c.pushLocked(snapshot)
		queued := len(c.queue)
		c.mu.Unlock()
		c.logger.Debug("sync.update_queued", "queued", queued)
		return
	}
	c.mu.Unlock()
	if err := c.writeMessage(current, Message{Type: MessageUpdate, Data: snapshot}); err != nil {
		c.logger.Warn("sync.send_failed", "error", err.Error())
		c.mu.Lock()
		c.pushLocked(snapshot)
		c.mu.Unlock()
		current.Close()
	}
}

func (c *Channel) run(ctx context.Context) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			c.setState(StateDisconnected, "")
			return
		}
		c.setState(StateConnecting, "")
		current, err := c.dial(ctx, c.url)
		if err != nil {
			attempt++
			delay := backoffDelay(attempt)
			c.logger.Warn("sync.dial_failed", "url", c.url, "attempt", attempt, "retry_in", delay.String(), "error", err.Error())
			c.setState(StateErroring, err.Error())
			c.setState(StateDisconnected, "")
			if c.sleep(ctx, delay) != nil {
				c.setState(StateDisconnected, "")
				return
			}
			continue
		}
		attempt = 0
		c.attach(current)
		c.setState(StateOpen, "")
		c.logger.Info("sync.connected", "url", c.url)
		err = c.serveConn(ctx, current)
		c.detach(current)
		if ctx.Err() != nil {
			c.setState(StateClosed, "")
			c.setState(StateDisconnected, "")
			return
		}
		attempt++
		delay := backoffDelay(attempt)
		c.logger.Warn("sync.connection_lost", "url", c.url, "retry_in", delay.String(), "error", errString(err))
		c.setState(StateErroring, errString(err))
		c.setState(StateDisconnected, "")
		if c.sleep(ctx, delay) != nil {
			c.setState(StateDisconnected, "")
			return
		}
	}
}

// serveConn reads until the connection dies. A ping ticker runs alongside the
// reader; a missed pong trips the read deadline and ends the read loop.
func (c *Channel) serveConn(ctx context.Context, current conn) error {
	current.SetReadDeadline(c.now().Add(pongWait))
	current.SetPongHandler(func(string) error {
		return current.SetReadDeadline(c.now().Add(pongWait))
	})
	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	go c.pingLoop(pingCtx, current)
	for {
		_, data, err := current.ReadMessage()
		if err != nil {
			return err
		}
		c.handleInbound(current, data)
	}
}

func (c *Channel) pingLoop(ctx context.Context, current conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			current.Close()
			return
		case <-ticker.C:
			c.writeMu.Lock()
			current.SetWriteDeadline(c.now().Add(writeWait))
			err := current.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Warn("sync.ping_failed", "error", err.Error())
				current.Close()
				return
			}
		}
	}
}

func (c *Channel) handleInbound(current conn, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("sync.bad_message", "error", err.Error())
		return
	}
	switch msg.Type {
	case MessageInit:
		c.reconcileInit(current, msg.Data)
	case MessageUpdate:
		c.logger.Debug("sync.document_received", "bytes", len(msg.Data))
		c.emitDocument(msg.Data)
	case MessageChat:
		c.logger.Info("sync.chat_received", "message", msg.Data)
	default:
		c.logger.Warn("sync.unknown_message_type", "type", msg.Type)
	}
}

// reconcileInit resolves the store's opening snapshot against edits queued
// while offline. Queued local edits win: they are flushed in order and the
// remote snapshot is discarded. With nothing queued the remote snapshot
// applies.
func (c *Channel) reconcileInit(current conn, remote string) {
	c.mu.Lock()
	pending := c.queue
	c.queue = nil
	c.mu.Unlock()
	if len(pending) == 0 {
		c.logger.Debug("sync.init_applied", "bytes", len(remote))
		c.emitDocument(remote)
		return
	}
	c.logger.Info("sync.init_superseded", "queued", len(pending))
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	for i, snapshot := range pending {
		if err := c.writeMessageLocked(current, Message{Type: MessageUpdate, Data: snapshot}); err != nil {
			c.logger.Warn("sync.flush_failed", "sent", i, "queued", len(pending), "error", err.Error())
			c.mu.Lock()
			c.queue = append(pending[i:], c.queue...)
			c.mu.Unlock()
			current.Close()
			return
		}
	}
}

func (c *Channel) writeMessage(current conn, msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.writeMessageLocked(current, msg)
}

func (c *Channel) writeMessageLocked(current conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	current.SetWriteDeadline(c.now().Add(writeWait))
	return current.WriteMessage(websocket.TextMessage, data)
}

func (c *Channel) pushLocked(snapshot string) {
	if len(c.queue) >= c.queueSize {
		drop := len(c.queue) - c.queueSize + 1
		c.logger.Debug("sync.queue_overflow", "dropped", drop)
		c.queue = append(c.queue[:0], c.queue[drop:]...)
	}
	c.queue = append(c.queue, snapshot)
}

func (c *Channel) attach(current conn) {
	c.mu.Lock()
	c.conn = current
	c.mu.Unlock()
}

func (c *Channel) detach(current conn) {
	c.mu.Lock()
	if c.conn == current {
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *Channel) setState(state State, detail string) {
	c.mu.Lock()
	if c.state == state {
		c.mu.Unlock()
		return
	}
	c.state = state
	fn := c.onState
	c.mu.Unlock()
	c.logger.Debug("sync.state", "state", string(state), "detail", detail)
	if fn != nil {
		fn(state, detail)
	}
}

func (c *Channel) emitDocument(snapshot string) {
	c.mu.Lock()
	fn := c.onDocument
	c.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}

func backoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := reconnectBaseDelay << (attempt - 1)
	if delay <= 0 || delay > reconnectMaxDelay {
		return reconnectMaxDelay
	}
	return delay
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func sleepWithContext(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
