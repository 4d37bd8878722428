package netserve

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/caelum-lang/stepweave/step"
)

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServerHandlesCall(t *testing.T) {
	m := step.NewModule()
	task, _ := m.FindTask("greet", 1, true)
	task.AddMethod(&step.Method{
		Pattern: []step.Term{step.Str("x")},
		Body:    &step.EmitStep{Tokens: []string{"hello"}},
	}, 0)

	srv := &Server{Root: m}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	req, _ := json.Marshal(Request{Op: "call", Task: "greet", Args: []string{"x"}})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, req))

	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var resp Response
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.True(t, resp.OK)
	require.Equal(t, "hello", resp.Text)
}

func TestServerHandlesUnknownOp(t *testing.T) {
	m := step.NewModule()
	srv := &Server{Root: m}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dial(t, ts)
	req, _ := json.Marshal(Request{Op: "bogus"})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, req))

	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var resp Response
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.NotEmpty(t, resp.Error)
}

func TestEncodeDecodeStateRoundTrips(t *testing.T) {
	var s step.State
	s = s.Extend(step.InternStateVar("counter"), step.Str("3"))
	pairs := encodeState(s)
	require.Len(t, pairs, 1)
	require.Equal(t, "counter", pairs[0].Name)

	back := decodeState(pairs)
	v, ok := back.Lookup(step.InternStateVar("counter"))
	require.True(t, ok)
	require.Equal(t, "3", v.String())
}
