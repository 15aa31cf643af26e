package integration

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/wildproof/wildproof/client"
)

// Harness encapsulates a running daemon process and clients bound to it.
type Harness struct {
	server *server
	url    string
}

// NewHarness launches a daemon and waits until its REST API answers.
func NewHarness(ctx context.Context, cfg *ServerConfig) (*Harness, error) {
	server := newServer(cfg)
	if err := server.start(); err != nil {
		return nil, err
	}

	h := &Harness{
		server: server,
		url:    "http://" + cfg.RESTListen,
	}
	if err := h.waitReady(ctx); err != nil {
		_ = server.shutdown()
		return nil, err
	}
	return h, nil
}

// Client returns a client acting as principal.
func (h *Harness) Client(principal string) (*client.Client, error) {
	return client.New(h.url, client.WithPrincipal(principal), client.WithRetryMax(0))
}

// TearDown kills the process and removes its directory.
func (h *Harness) TearDown() error {
	if err := h.server.shutdown(); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// Stdout returns what the process wrote to stdout so far.
func (h *Harness) Stdout() string {
	return h.server.stdout.String()
}

// ProcessErrors reports unexpected process exits.
func (h *Harness) ProcessErrors() <-chan error {
	return h.server.errChan
}

func (h *Harness) waitReady(ctx context.Context) error {
	cl, err := h.Client("")
	if err != nil {
		return err
	}
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if _, err := cl.Settings(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", h.url, ctx.Err())
		case err := <-h.server.errChan:
			return fmt.Errorf("process exited: %w", err)
		case <-ticker.C:
		}
	}
}

// freeAddr returns a local address nothing listens on at the moment.
func freeAddr() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	return l.Addr().String(), nil
}
