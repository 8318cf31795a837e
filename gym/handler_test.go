package gym

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/arena/ecs/component"
)

func dialTestServer(t *testing.T) *websocket.Conn {
	t.Helper()

	handler := NewHandler(func() (*Env, error) {
		return NewEnv(newTestSim(t, nil), Config{MaxSteps: 10})
	}, HandlerConfig{})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil {
		t.Cleanup(func() { resp.Body.Close() })
	}
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg clientMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func receive(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg serverMessage
	require.NoError(t, json.Unmarshal(payload, &msg))
	return msg
}

func TestHandlerGreetsWithSpaces(t *testing.T) {
	conn := dialTestServer(t)

	hello := receive(t, conn)
	assert.Equal(t, TypeHello, hello.Type)
	assert.NotEmpty(t, hello.Session)
	assert.Equal(t, int(component.ActionCount), hello.Actions)
	assert.Equal(t, component.ObservationSize, hello.ObservationSize)
}

func TestHandlerResetAndStep(t *testing.T) {
	conn := dialTestServer(t)
	hello := receive(t, conn)

	send(t, conn, clientMessage{Type: TypeReset})
	reset := receive(t, conn)
	require.Equal(t, TypeReset, reset.Type, reset.Error)
	require.NotNil(t, reset.Result)
	assert.Equal(t, hello.Session, reset.Session)
	assert.InDelta(t, 1.0, reset.Result.Observation[0], 1e-9)

	action := component.ActionToward
	send(t, conn, clientMessage{Type: TypeStep, Action: &action})
	step := receive(t, conn)
	require.Equal(t, TypeStep, step.Type, step.Error)
	require.NotNil(t, step.Result)
	assert.Equal(t, component.ActionToward, step.Result.Action)
	assert.Equal(t, 1, step.Result.Steps)
}

func TestHandlerReportsBadRequests(t *testing.T) {
	conn := dialTestServer(t)
	receive(t, conn)

	bad := component.Action(42)
	send(t, conn, clientMessage{Type: TypeStep, Action: &bad})
	msg := receive(t, conn)
	assert.Equal(t, TypeError, msg.Type)
	assert.Contains(t, msg.Error, "invalid action")

	send(t, conn, clientMessage{Type: TypeStep})
	msg = receive(t, conn)
	assert.Equal(t, TypeError, msg.Type)

	send(t, conn, clientMessage{Type: "dance"})
	msg = receive(t, conn)
	assert.Equal(t, TypeError, msg.Type)
	assert.Contains(t, msg.Error, "dance")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	msg = receive(t, conn)
	assert.Equal(t, TypeError, msg.Type)
}

func TestHandlerSessionsAreIsolated(t *testing.T) {
	first := dialTestServer(t)
	second := dialTestServer(t)
	a := receive(t, first)
	b := receive(t, second)
	assert.NotEqual(t, a.Session, b.Session)

	action := component.ActionHold
	send(t, first, clientMessage{Type: TypeStep, Action: &action})
	send(t, first, clientMessage{Type: TypeStep, Action: &action})
	receive(t, first)
	res := receive(t, first)
	require.NotNil(t, res.Result)
	assert.Equal(t, 2, res.Result.Steps)

	send(t, second, clientMessage{Type: TypeStep, Action: &action})
	res = receive(t, second)
	require.NotNil(t, res.Result)
	assert.Equal(t, 1, res.Result.Steps)
}

var _ http.Handler = (*Handler)(nil)
