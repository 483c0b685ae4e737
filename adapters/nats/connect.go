package nats

import (
	"os"
	"sync"
	"time"

	natsgo "github.com/nats-io/nats.go"
)

type closeFunc = func()

// Connector opens a NATS connection and returns the function that releases it.
type Connector func() (nc *natsgo.Conn, close closeFunc, err error)

// ReuseConnection shares one underlying connection between every caller of
// the returned Connector. The connection is closed when the last lease is
// released; the next call dials again.
func ReuseConnection(connect Connector) Connector {
	var (
		mu       sync.Mutex
		nc       *natsgo.Conn
		closeCon closeFunc
		leased   int
	)
	release := func() {
		mu.Lock()
		defer mu.Unlock()
		leased--
		if leased == 0 && nc != nil {
			closeCon()
			nc = nil
		}
	}
	return func() (*natsgo.Conn, closeFunc, error) {
		mu.Lock()
		defer mu.Unlock()
		if nc == nil {
			var err error
			nc, closeCon, err = connect()
			if err != nil {
				nc = nil
				return nil, nil, err
			}
		}
		leased++
		var once sync.Once
		return nc, func() { once.Do(release) }, nil
	}
}

func ConnectURL(natsURL string, opts ...natsgo.Option) Connector {
	return func() (*natsgo.Conn, closeFunc, error) {
		all := append([]natsgo.Option{
			natsgo.Name("ownr"),
			natsgo.MaxReconnects(3),
			natsgo.ReconnectWait(500 * time.Millisecond),
		}, opts...)
		nc, err := natsgo.Connect(natsURL, all...)
		if err != nil {
			return nil, nil, err
		}
		return nc, func() { nc.Close() }, nil
	}
}

// ConnectDefault dials $NATS_URL, falling back to the local default server.
func ConnectDefault() Connector {
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		return ConnectURL(natsURL)
	}
	return ConnectURL(natsgo.DefaultURL)
}
