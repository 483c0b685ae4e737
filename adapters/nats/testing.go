package nats

import (
	"context"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestServerImage is the NATS image started by StartTestServer.
const TestServerImage = "nats:2.10-alpine"

// TB is the part of *testing.T the container helper needs. Keeping it an
// interface lets this file live outside _test.go without importing testing.
type TB interface {
	require.TestingT
	Helper()
	Context() context.Context
	Logf(format string, args ...any)
	Cleanup(func())
}

// TestServer is a throwaway NATS server running in a container.
type TestServer struct {
	// URL is the host-reachable nats:// endpoint.
	URL string
}

// Connect returns a Connector dialing the server.
func (s *TestServer) Connect() Connector { return ConnectURL(s.URL) }

// StartTestServer runs a NATS container for the duration of the test.
// Extra customizers are applied after the defaults, so they can override
// the image command or wait strategy.
func StartTestServer(t TB, customize ...testcontainers.ContainerCustomizer) *TestServer {
	t.Helper()
	ctx := t.Context()

	opts := append([]testcontainers.ContainerCustomizer{
		testcontainers.WithExposedPorts("4222/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("4222/tcp"),
			wait.ForLog("Server is ready"),
		),
	}, customize...)

	c, err := testcontainers.Run(ctx, TestServerImage, opts...)
	require.NoError(t, err, "start nats container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(c); err != nil {
			t.Logf("terminate nats container: %v", err)
		}
	})

	url, err := c.PortEndpoint(ctx, "4222/tcp", "nats")
	require.NoError(t, err, "resolve nats endpoint")
	t.Logf("nats test server at %s", url)
	return &TestServer{URL: url}
}
