package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/wildproof/wildproof/logging"
	"github.com/wildproof/wildproof/registry"
)

type Server struct {
	reg    *registry.Registry
	ledger *registry.MemLedger
	clock  *registry.UnitClock
	cfg    Config

	restListener    net.Listener
	metricsListener net.Listener
}

func New(ctx context.Context, cfg Config) (*Server, error) {
	addr, err := net.ResolveTCPAddr("tcp", cfg.RawRESTListener)
	if err != nil {
		return nil, err
	}
	restListener, err := net.Listen(addr.Network(), addr.String())
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %v", err)
	}

	var metricsListener net.Listener
	if cfg.MetricsPort != nil {
		metricsListener, err = net.Listen("tcp", fmt.Sprintf(":%d", *cfg.MetricsPort))
		if err != nil {
			restListener.Close()
			return nil, fmt.Errorf("failed to listen for metrics: %v", err)
		}
	}

	ledger := registry.NewMemLedger()
	if balances := cfg.LedgerBalances(); balances != nil {
		ledger = registry.NewMemLedger(registry.WithBalances(balances))
	}
	clock := registry.NewUnitClock(cfg.Genesis.Time(), cfg.TimeUnit)

	reg, err := registry.New(
		ctx,
		registry.WithConfig(cfg.Registry),
		registry.WithLedger(ledger),
		registry.WithClock(clock),
	)
	if err != nil {
		restListener.Close()
		if metricsListener != nil {
			metricsListener.Close()
		}
		return nil, fmt.Errorf("creating registry: %w", err)
	}

	return &Server{
		reg:    reg,
		ledger: ledger,
		clock:  clock,
		cfg:    cfg,

		restListener:    restListener,
		metricsListener: metricsListener,
	}, nil
}

// Close releases the registry and any listener Start did not consume.
func (s *Server) Close() error {
	var result *multierror.Error
	if err := s.reg.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("closing registry: %w", err))
	}
	for _, l := range []net.Listener{s.restListener, s.metricsListener} {
		if l == nil {
			continue
		}
		if err := l.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// RestAddr returns the address that the REST API is listening on.
func (s *Server) RestAddr() net.Addr {
	return s.restListener.Addr()
}

// MetricsAddr returns the address metrics are served on, or nil if disabled.
func (s *Server) MetricsAddr() net.Addr {
	if s.metricsListener == nil {
		return nil
	}
	return s.metricsListener.Addr()
}

func (s *Server) Registry() *registry.Registry {
	return s.reg
}

func (s *Server) Ledger() *registry.MemLedger {
	return s.ledger
}

// Start serves the REST API until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	serverGroup, ctx := errgroup.WithContext(ctx)

	logger := logging.FromContext(ctx)
	logger.Sugar().Infof("registry time unit %v, current unit %d", s.cfg.TimeUnit, s.clock.Now())

	handler, err := NewHandler(logger.Named("rest"), s.reg, s.ledger)
	if err != nil {
		return err
	}

	servers := []*http.Server{{Handler: handler, ReadHeaderTimeout: time.Second * 5}}
	listeners := []net.Listener{s.restListener}
	if s.metricsListener != nil {
		servers = append(servers, &http.Server{Handler: promhttp.Handler(), ReadHeaderTimeout: time.Second * 5})
		listeners = append(listeners, s.metricsListener)
	}

	for i, server := range servers {
		server, listener := server, listeners[i]
		serverGroup.Go(func() error {
			logger.Sugar().Infof("HTTP server listening on %s", listener.Addr())
			err := server.Serve(listener)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	for _, server := range servers {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Sugar().Errorf("failed to shutdown server: %s", err)
		}
	}
	if err := serverGroup.Wait(); err != nil {
		logger.Sugar().Errorf("error when waiting to shutdown servers: %s", err)
		return err
	}
	return nil
}
