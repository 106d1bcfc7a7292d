// Package inspector implements a JSON-RPC/websocket "compiler inspector"
// service: the JIT analogue of the teacher's LSP server. Instead of serving
// textDocument/* requests for an editor, it serves pipeline-trace
// notifications (one per completed optimization pass) and a request/
// response method that returns the current SSA graph as text, for an
// external visualizer. Grounded in the teacher's internal/lsp handler/
// dispatch shape, but built directly on jsonrpc2 rather than glsp/kutil:
// those two wrap jsonrpc2 specifically for the LSP method set, none of
// which this service speaks.
package inspector

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/petermattis/goid"
	"github.com/sourcegraph/jsonrpc2"
)

// TraceEvent is one pipeline-progress notification pushed to every
// connected client, tagging the compiling goroutine so a client
// multiplexing several concurrent compiles (§5) can tell their event
// streams apart.
type TraceEvent struct {
	SessionID   string `json:"sessionId"`
	GoroutineID int64  `json:"goroutineId"`
	Seq         int    `json:"seq"`
	Message     string `json:"message"`
}

// GraphFetchParams is the request payload for the "graph/fetch" method.
type GraphFetchParams struct {
	SessionID string `json:"sessionId"`
}

// GraphFetchResult is the response payload for "graph/fetch": the graph
// text last stored for the session with SetGraph, or found=false if
// sessionID names no graph the server has seen yet.
type GraphFetchResult struct {
	Found bool   `json:"found"`
	Text  string `json:"text"`
}

// Server multiplexes trace events and graph snapshots across every
// currently-connected inspector client. One Server instance serves every
// concurrent compile; the compiles themselves share no state (§5), but the
// server's client registry and graph cache are the shared surface that
// necessarily exists on this side of the wire.
type Server struct {
	mu     sync.Mutex
	conns  map[*jsonrpc2.Conn]struct{}
	graphs map[string]string
	seq    int
}

// NewServer creates an inspector server with no connected clients yet.
func NewServer() *Server {
	return &Server{
		conns:  map[*jsonrpc2.Conn]struct{}{},
		graphs: map[string]string{},
	}
}

// SetGraph records sessionID's current SSA graph text, overwriting any
// prior snapshot for the same session. Nothing in the driver calls it; a
// caller that wants snapshots served must store them here itself.
func (s *Server) SetGraph(sessionID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphs[sessionID] = text
}

// Broadcast pushes a pipeline/trace notification carrying message to every
// connected client, tagged with sessionID and the calling goroutine's id.
func (s *Server) Broadcast(ctx context.Context, sessionID, message string) {
	s.mu.Lock()
	s.seq++
	event := TraceEvent{SessionID: sessionID, GoroutineID: goid.Get(), Seq: s.seq, Message: message}
	conns := make([]*jsonrpc2.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Notify(ctx, "pipeline/trace", event)
	}
}

// Handle implements jsonrpc2.Handler, dispatching the inspector's small
// method set: only "graph/fetch" is a request/response call; trace events
// are server-initiated notifications, never client requests.
func (s *Server) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	switch req.Method {
	case "graph/fetch":
		var params GraphFetchParams
		if req.Params != nil {
			if err := json.Unmarshal(*req.Params, &params); err != nil {
				conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()})
				return
			}
		}
		s.mu.Lock()
		text, found := s.graphs[params.SessionID]
		s.mu.Unlock()
		conn.Reply(ctx, req.ID, GraphFetchResult{Found: found, Text: text})
	default:
		conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: "unknown method " + req.Method,
		})
	}
}

// upgrader accepts any origin: the inspector is a local developer tool, not
// an internet-facing service, matching the teacher's own unauthenticated
// stdio LSP transport.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades an HTTP request to a websocket connection, wraps it as a
// jsonrpc2 transport, and registers it until the client disconnects.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) error {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	stream := &wsObjectStream{conn: wsConn}
	conn := jsonrpc2.NewConn(r.Context(), stream, s)

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	<-conn.DisconnectNotify()

	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	return nil
}

// wsObjectStream adapts a gorilla *websocket.Conn to jsonrpc2.ObjectStream:
// jsonrpc2's own websocket subpackage wraps golang.org/x/net/websocket, not
// gorilla/websocket, so a thin adapter is simplest rather than fighting
// that subpackage's assumptions.
type wsObjectStream struct {
	conn *websocket.Conn
}

func (w *wsObjectStream) WriteObject(obj interface{}) error {
	return w.conn.WriteJSON(obj)
}

func (w *wsObjectStream) ReadObject(v interface{}) error {
	return w.conn.ReadJSON(v)
}

func (w *wsObjectStream) Close() error {
	return w.conn.Close()
}
