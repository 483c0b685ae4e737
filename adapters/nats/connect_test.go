package nats

import (
	"errors"
	"testing"

	natsgo "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

func TestNats_ReuseConnection(t *testing.T) {
	connect := ReuseConnection(StartTestServer(t).Connect())

	nc1, disconnect1, err := connect()
	require.NoError(t, err)
	require.NotNil(t, nc1)
	require.Equal(t, "CONNECTED", nc1.Status().String())

	nc2, disconnect2, err := connect()
	require.NoError(t, err)
	require.Same(t, nc1, nc2)

	disconnect1()
	disconnect1()
	require.Equal(t, "CONNECTED", nc1.Status().String())

	disconnect2()
	require.Equal(t, "CLOSED", nc1.Status().String())

	nc3, disconnect3, err := connect()
	require.NoError(t, err)
	require.NotSame(t, nc1, nc3)
	require.Equal(t, "CONNECTED", nc3.Status().String())
	disconnect3()
}

func TestNats_ReuseConnection_Error(t *testing.T) {
	boom := errors.New("dial failed")
	calls := 0
	connect := ReuseConnection(func() (*natsgo.Conn, closeFunc, error) {
		calls++
		return nil, nil, boom
	})

	_, _, err := connect()
	require.ErrorIs(t, err, boom)
	_, _, err = connect()
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, calls)
}
