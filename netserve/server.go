// Package netserve exposes a step.Module's top-level API over the
// network: each client opens a websocket connection and exchanges small
// JSON request/response messages that map directly onto Call,
// CallPredicate, and CallFunction.
//
// Grounded on scm/network.go's "websocket" primitive (websocket.Upgrader,
// a read loop per connection recovering panics into an error payload
// instead of crashing the server) and server-node-golang/ (per-connection
// goroutine lifecycle, one node serving many peers). This is a wire
// protocol for driving the engine remotely, not the GUI REPL surface,
// which stays out of scope.
package netserve

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/caelum-lang/stepweave/step"
)

// Request is one client call, decoded straight off the websocket.
type Request struct {
	Op    string      `json:"op"` // "call", "call_predicate", "call_function"
	Task  string      `json:"task"`
	Args  []string    `json:"args"`
	State []StatePair `json:"state"`
}

// StatePair is one entry of a serialized step.State, sent back and forth
// so a client can resume a call chain's dynamic state across requests.
type StatePair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Response is written back for every Request.
type Response struct {
	Text  string      `json:"text,omitempty"`
	OK    bool        `json:"ok"`
	State []StatePair `json:"state,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Server upgrades incoming HTTP connections to websockets and serves the
// Call/CallPredicate/CallFunction protocol against Root. Each accepted
// connection is served from its own goroutine tracked by group, so Close
// can wait for every in-flight connection to drain before returning.
// Logger, if set, receives one line per connection accepted and per
// connection dropped.
type Server struct {
	Root   *step.Module
	Logger func(msg string, fields ...any)

	upgrader websocket.Upgrader
	group    errgroup.Group
	http     *http.Server
}

func (s *Server) logf(msg string, fields ...any) {
	if s.Logger != nil {
		s.Logger(msg, fields...)
	}
}

// Handler returns the http.Handler this server upgrades connections
// through, so a caller can mount it on its own mux/TLS listener instead of
// calling ListenAndServe directly.
func (s *Server) Handler() http.Handler {
	s.upgrader = websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096}
	s.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	return http.HandlerFunc(s.handle)
}

// ListenAndServe blocks serving addr until Close is called.
func (s *Server) ListenAndServe(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.Handler()}

	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close stops accepting new connections and waits for every connection
// goroutine this server started to return.
func (s *Server) Close() error {
	if s.http != nil {
		if err := s.http.Shutdown(context.Background()); err != nil {
			return err
		}
	}
	return s.group.Wait()
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.logf("client connected", "remote", r.RemoteAddr)
	s.group.Go(func() error {
		err := serveConn(s.Root, conn)
		s.logf("client disconnected", "remote", r.RemoteAddr)
		return err
	})
}

func serveConn(root *step.Module, conn *websocket.Conn) error {
	defer conn.Close()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return nil // client disconnected or closed normally
		}
		resp := handleRequest(root, raw)
		out, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			return err
		}
	}
}

func handleRequest(root *step.Module, raw []byte) Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Response{Error: err.Error()}
	}

	args := make([]step.Term, len(req.Args))
	for i, a := range req.Args {
		args[i] = step.Str(a)
	}
	state := decodeState(req.State)

	switch req.Op {
	case "call":
		text, ok, newState, err := root.Call(req.Task, args, state)
		return toResponse(text, ok, newState, err)
	case "call_predicate":
		ok, newState, err := root.CallPredicate(req.Task, args, state)
		return toResponse("", ok, newState, err)
	case "call_function":
		result, ok, newState, err := step.CallFunction(root, req.Task, args, state, func(t step.Term) (string, bool) {
			return t.String(), true
		})
		return toResponse(result, ok, newState, err)
	default:
		return Response{Error: "unknown op: " + req.Op}
	}
}

func toResponse(text string, ok bool, newState step.State, err error) Response {
	if err != nil {
		return Response{Error: err.Error()}
	}
	return Response{Text: text, OK: ok, State: encodeState(newState)}
}

func decodeState(pairs []StatePair) step.State {
	var s step.State
	for _, p := range pairs {
		s = s.Extend(step.InternStateVar(p.Name), step.Str(p.Value))
	}
	return s
}

func encodeState(s step.State) []StatePair {
	var pairs []StatePair
	s.Walk(func(sv step.StateVar, v step.Term) {
		pairs = append(pairs, StatePair{Name: sv.Name(), Value: v.String()})
	})
	return pairs
}
