package inspector

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialPair wires the inspector server's Handle to one end of an in-memory
// pipe and returns a client jsonrpc2.Conn connected to the other end,
// exercising the real wire codec without a websocket transport.
func dialPair(t *testing.T, s *Server) *jsonrpc2.Conn {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() { serverSide.Close(); clientSide.Close() })

	jsonrpc2.NewConn(context.Background(),
		jsonrpc2.NewBufferedStream(serverSide, jsonrpc2.VSCodeObjectCodec{}), s)
	client := jsonrpc2.NewConn(context.Background(),
		jsonrpc2.NewBufferedStream(clientSide, jsonrpc2.VSCodeObjectCodec{}), jsonrpc2.HandlerWithError(
			func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
				return nil, nil
			}))
	return client
}

func TestGraphFetchReturnsStoredSnapshot(t *testing.T) {
	s := NewServer()
	s.SetGraph("sess-1", "n0 = Constant(1)\n")

	client := dialPair(t, s)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var result GraphFetchResult
	err := client.Call(ctx, "graph/fetch", GraphFetchParams{SessionID: "sess-1"}, &result)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, "n0 = Constant(1)\n", result.Text)
}

func TestGraphFetchUnknownSessionNotFound(t *testing.T) {
	s := NewServer()
	client := dialPair(t, s)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var result GraphFetchResult
	err := client.Call(ctx, "graph/fetch", GraphFetchParams{SessionID: "nope"}, &result)
	require.NoError(t, err)
	assert.False(t, result.Found)
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	s := NewServer()
	client := dialPair(t, s)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := client.Call(ctx, "nonsense/method", nil, nil)
	require.Error(t, err)
	rpcErr, ok := err.(*jsonrpc2.Error)
	require.True(t, ok)
	assert.Equal(t, jsonrpc2.CodeMethodNotFound, rpcErr.Code)
}

func TestBroadcastWithNoClientsDoesNotPanic(t *testing.T) {
	s := NewServer()
	assert.NotPanics(t, func() {
		s.Broadcast(context.Background(), "sess-1", "constant-folding: applied")
	})
}
