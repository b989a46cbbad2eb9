package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kylejwatson/playwright-harness/harnesslog"
)

// Client is a Chrome DevTools Protocol client over one browser websocket.
// Page sessions are attached on first use and shared by every caller, so
// harness elements resolved through the same client talk to the same session.
type Client struct {
	conn  *websocket.Conn
	wsURL string
	log   *harnesslog.Logger

	writeMu sync.Mutex
	lastID  atomic.Int64

	calls    pendingCalls
	events   eventBus
	sessions sessionCache

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// Option configures a Client.
type Option func(*Client)

// WithLogger logs every protocol call at debug level under the "cdp" category.
func WithLogger(l *harnesslog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// Connect looks up the browser endpoint advertised on host:port and dials it.
func Connect(ctx context.Context, host string, port int, opts ...Option) (*Client, error) {
	wsURL, err := discoverEndpoint(ctx, host, port)
	if err != nil {
		return nil, err
	}
	return Dial(ctx, wsURL, opts...)
}

func discoverEndpoint(ctx context.Context, host string, port int) (string, error) {
	u := "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/json/version"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("building discovery request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("connecting to Chrome: %w", err)
	}
	defer resp.Body.Close()

	var v struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return "", fmt.Errorf("decoding /json/version: %w", err)
	}
	if v.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("%s advertises no browser endpoint", u)
	}
	return v.WebSocketDebuggerURL, nil
}

// Dial connects straight to a browser websocket endpoint.
func Dial(ctx context.Context, wsURL string, opts ...Option) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", wsURL, err)
	}

	c := &Client{
		conn:  conn,
		wsURL: wsURL,
		log:   harnesslog.NewNullLogger(),
		done:  make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}

	go c.readLoop()
	return c, nil
}

// WebSocketURL returns the endpoint the client is connected to. Other
// drivers, such as a chromedp remote allocator, can attach to the same
// browser through it.
func (c *Client) WebSocketURL() string {
	return c.wsURL
}

// Close detaches every cached session, closes the socket and fails calls
// still waiting for a reply.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		sessions := c.sessions.drain()
		if !c.closed.Load() && len(sessions) > 0 {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			for _, id := range sessions {
				c.Call(ctx, "Target.detachFromTarget", map[string]string{"sessionId": id})
			}
			cancel()
		}

		c.closed.Store(true)
		close(c.done)
		err = c.conn.Close()
		c.calls.failAll()
	})
	return err
}

// session returns the flattened session of targetID, attaching on first use.
func (c *Client) session(ctx context.Context, targetID string) (string, error) {
	if id, ok := c.sessions.get(targetID); ok {
		return id, nil
	}

	raw, err := c.Call(ctx, "Target.attachToTarget", map[string]interface{}{
		"targetId": targetID,
		"flatten":  true,
	})
	if err != nil {
		return "", fmt.Errorf("attaching to target %s: %w", targetID, err)
	}
	var attached struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(raw, &attached); err != nil {
		return "", fmt.Errorf("parsing attach response: %w", err)
	}

	c.sessions.put(targetID, attached.SessionID)
	return attached.SessionID, nil
}

// outgoing is a command frame.
type outgoing struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"sessionId,omitempty"`
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// incoming is either a reply (ID set) or an event (Method set).
type incoming struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"sessionId,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *ProtocolError  `json:"error,omitempty"`
	Method    string          `json:"method,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// Call sends a browser-level command and waits for its reply.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	return c.CallSession(ctx, "", method, params)
}

// CallSession sends a command to sessionID and waits for its reply. An empty
// sessionID addresses the browser.
func (c *Client) CallSession(ctx context.Context, sessionID string, method string, params interface{}) (json.RawMessage, error) {
	if c.closed.Load() {
		return nil, ErrConnectionClosed
	}

	msg := outgoing{ID: c.lastID.Add(1), SessionID: sessionID, Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encoding %s params: %w", method, err)
		}
		msg.Params = data
	}

	reply := c.calls.add(msg.ID)
	defer c.calls.remove(msg.ID)

	c.log.Debugf("cdp", "-> %d %s session:%s", msg.ID, method, sessionID)
	c.writeMu.Lock()
	err := c.conn.WriteJSON(msg)
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("sending %s: %w", method, err)
	}

	select {
	case in, ok := <-reply:
		switch {
		case !ok:
			return nil, ErrConnectionClosed
		case in.Error != nil:
			c.log.Debugf("cdp", "<- %d %s: %v", msg.ID, method, in.Error)
			return nil, in.Error
		}
		return in.Result, nil
	case <-c.done:
		return nil, ErrConnectionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RawCallSession sends method with JSON-encoded params to the page session
// of targetID.
func (c *Client) RawCallSession(ctx context.Context, targetID string, method string, params json.RawMessage) (json.RawMessage, error) {
	var p interface{}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid params JSON: %w", err)
		}
	}
	sessionID, err := c.session(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return c.CallSession(ctx, sessionID, method, p)
}

func (c *Client) readLoop() {
	defer c.Close()

	for {
		var in incoming
		if err := c.conn.ReadJSON(&in); err != nil {
			c.closed.Store(true)
			return
		}
		if in.ID > 0 {
			c.calls.deliver(in)
		}
		if in.Method != "" {
			c.events.publish(eventKey{in.SessionID, in.Method}, in.Params)
		}
	}
}

// pendingCalls routes replies to the goroutine waiting on each message id.
type pendingCalls struct {
	mu      sync.Mutex
	waiting map[int64]chan incoming
}

func (p *pendingCalls) add(id int64) <-chan incoming {
	ch := make(chan incoming, 1)
	p.mu.Lock()
	if p.waiting == nil {
		p.waiting = make(map[int64]chan incoming)
	}
	p.waiting[id] = ch
	p.mu.Unlock()
	return ch
}

func (p *pendingCalls) remove(id int64) {
	p.mu.Lock()
	delete(p.waiting, id)
	p.mu.Unlock()
}

func (p *pendingCalls) deliver(in incoming) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch, ok := p.waiting[in.ID]; ok {
		ch <- in
	}
}

// failAll wakes every waiting caller with a closed channel.
func (p *pendingCalls) failAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, ch := range p.waiting {
		close(ch)
		delete(p.waiting, id)
	}
}

type eventKey struct {
	sessionID string
	method    string
}

// eventBus fans protocol events out to subscribers. Slow subscribers miss
// events rather than stall the read loop.
type eventBus struct {
	mu   sync.Mutex
	subs map[eventKey][]chan json.RawMessage
}

func (b *eventBus) subscribe(k eventKey) chan json.RawMessage {
	ch := make(chan json.RawMessage, 16)
	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[eventKey][]chan json.RawMessage)
	}
	b.subs[k] = append(b.subs[k], ch)
	b.mu.Unlock()
	return ch
}

func (b *eventBus) unsubscribe(k eventKey, ch chan json.RawMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[k]
	for i, s := range subs {
		if s == ch {
			b.subs[k] = append(subs[:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}

func (b *eventBus) publish(k eventKey, params json.RawMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[k] {
		select {
		case ch <- params:
		default:
		}
	}
}

// sessionCache maps target ids to attached session ids.
type sessionCache struct {
	mu   sync.Mutex
	byID map[string]string
}

func (s *sessionCache) get(targetID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byID[targetID]
	return id, ok
}

func (s *sessionCache) put(targetID, sessionID string) {
	s.mu.Lock()
	if s.byID == nil {
		s.byID = make(map[string]string)
	}
	s.byID[targetID] = sessionID
	s.mu.Unlock()
}

func (s *sessionCache) forget(targetID string) {
	s.mu.Lock()
	delete(s.byID, targetID)
	s.mu.Unlock()
}

// drain empties the cache and returns the session ids it held.
func (s *sessionCache) drain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.byID))
	for _, id := range s.byID {
		ids = append(ids, id)
	}
	s.byID = nil
	return ids
}
