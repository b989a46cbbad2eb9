package testutil

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// Call is one protocol command received by a FakeBrowser.
type Call struct {
	ID        int64
	SessionID string
	Method    string
	Params    map[string]interface{}
}

// Param returns a params field, or nil.
func (c Call) Param(name string) interface{} {
	return c.Params[name]
}

// RPCError is returned by a Handler to answer with a protocol error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// Handler answers one protocol command. A non-RPCError error is sent as
// a generic server error.
type Handler func(call Call) (interface{}, error)

// FakeBrowser is an in-process DevTools endpoint. It serves /json/version and
// a WebSocket that answers commands from scripted handlers and records every
// call it receives.
type FakeBrowser struct {
	Server *httptest.Server
	Host   string
	Port   int

	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call
	conns    []*websocket.Conn
	writeMu  sync.Mutex
}

// NewFakeBrowser starts a fake browser that is shut down when t finishes.
// Target.attachToTarget answers with session "S1"; domain enable calls
// succeed; any other unscripted method fails as unknown.
func NewFakeBrowser(t testing.TB) *FakeBrowser {
	t.Helper()

	fb := &FakeBrowser{handlers: make(map[string]Handler)}
	fb.Handle("Target.attachToTarget", Reply(map[string]string{"sessionId": "S1"}))
	fb.Handle("Target.detachFromTarget", Reply(struct{}{}))
	for _, domain := range []string{"Runtime", "DOM", "Page", "Input"} {
		fb.Handle(domain+".enable", Reply(struct{}{}))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/json/version", fb.serveVersion)
	mux.HandleFunc("/devtools/browser/fake", fb.serveWS)
	fb.Server = httptest.NewServer(mux)

	host, port, err := net.SplitHostPort(strings.TrimPrefix(fb.Server.URL, "http://"))
	if err != nil {
		t.Fatalf("parsing fake browser address: %v", err)
	}
	fb.Host = host
	fb.Port, _ = strconv.Atoi(port)

	t.Cleanup(fb.Close)
	return fb
}

// Reply returns a handler that always answers with result.
func Reply(result interface{}) Handler {
	return func(Call) (interface{}, error) {
		return result, nil
	}
}

// Fail returns a handler that always answers with a protocol error.
func Fail(code int, message string) Handler {
	return func(Call) (interface{}, error) {
		return nil, &RPCError{Code: code, Message: message}
	}
}

// Handle scripts the answer to method, replacing any earlier handler.
func (fb *FakeBrowser) Handle(method string, h Handler) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.handlers[method] = h
}

// WSURL returns the browser WebSocket endpoint.
func (fb *FakeBrowser) WSURL() string {
	return "ws://" + strings.TrimPrefix(fb.Server.URL, "http://") + "/devtools/browser/fake"
}

// Calls returns every call received so far, in arrival order.
func (fb *FakeBrowser) Calls() []Call {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]Call(nil), fb.calls...)
}

// CallsTo returns the calls to method, in arrival order.
func (fb *FakeBrowser) CallsTo(method string) []Call {
	var out []Call
	for _, c := range fb.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Methods returns the method names of every call, in arrival order.
func (fb *FakeBrowser) Methods() []string {
	calls := fb.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Method
	}
	return out
}

// Reset forgets the calls recorded so far.
func (fb *FakeBrowser) Reset() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.calls = nil
}

// Emit sends an event to every connected client.
func (fb *FakeBrowser) Emit(sessionID, method string, params interface{}) error {
	msg := map[string]interface{}{"method": method, "params": params}
	if sessionID != "" {
		msg["sessionId"] = sessionID
	}
	fb.mu.Lock()
	conns := append([]*websocket.Conn(nil), fb.conns...)
	fb.mu.Unlock()

	for _, c := range conns {
		if err := fb.write(c, msg); err != nil {
			return err
		}
	}
	return nil
}

// DropConnections closes every client connection from the browser side.
func (fb *FakeBrowser) DropConnections() {
	fb.mu.Lock()
	conns := fb.conns
	fb.conns = nil
	fb.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}

// Close drops all connections and stops the server.
func (fb *FakeBrowser) Close() {
	fb.DropConnections()
	fb.Server.Close()
}

func (fb *FakeBrowser) serveVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"Browser":              "FakeChrome/1.0",
		"Protocol-Version":     "1.3",
		"webSocketDebuggerUrl": fb.WSURL(),
	})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func (fb *FakeBrowser) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	fb.mu.Lock()
	fb.conns = append(fb.conns, conn)
	fb.mu.Unlock()
	defer conn.Close()

	for {
		var req struct {
			ID        int64                  `json:"id"`
			SessionID string                 `json:"sessionId"`
			Method    string                 `json:"method"`
			Params    map[string]interface{} `json:"params"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		call := Call{ID: req.ID, SessionID: req.SessionID, Method: req.Method, Params: req.Params}
		fb.mu.Lock()
		fb.calls = append(fb.calls, call)
		h, ok := fb.handlers[req.Method]
		fb.mu.Unlock()

		resp := map[string]interface{}{"id": req.ID}
		if req.SessionID != "" {
			resp["sessionId"] = req.SessionID
		}
		if !ok {
			resp["error"] = &RPCError{Code: -32601, Message: fmt.Sprintf("'%s' wasn't found", req.Method)}
		} else if result, err := h(call); err != nil {
			rpcErr, isRPC := err.(*RPCError)
			if !isRPC {
				rpcErr = &RPCError{Code: -32000, Message: err.Error()}
			}
			resp["error"] = rpcErr
		} else {
			if result == nil {
				result = struct{}{}
			}
			resp["result"] = result
		}

		if err := fb.write(conn, resp); err != nil {
			return
		}
	}
}

func (fb *FakeBrowser) write(c *websocket.Conn, v interface{}) error {
	fb.writeMu.Lock()
	defer fb.writeMu.Unlock()
	return c.WriteJSON(v)
}
