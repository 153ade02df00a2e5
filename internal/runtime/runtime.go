// Package runtime assembles the configuration boundary into a running
// system: one gateway.Worker per configured gateway, an endpoint index,
// the service façade, and the Coordinator — then hosts their lifecycle
// as start_all_gateways → run until cancel → close_all.
package runtime

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/opennetty/opennetty/internal/config"
	"github.com/opennetty/opennetty/internal/coordinator"
	"github.com/opennetty/opennetty/internal/endpoint"
	"github.com/opennetty/opennetty/internal/gateway"
	"github.com/opennetty/opennetty/internal/logging"
	"github.com/opennetty/opennetty/internal/protocol"
	"github.com/opennetty/opennetty/internal/service"
	"github.com/opennetty/opennetty/internal/session"
	"github.com/opennetty/opennetty/internal/transport"
)

// Runtime owns every gateway worker, the endpoint index, the service
// façade over them, and the Coordinator republishing their classified
// events.
type Runtime struct {
	workers map[protocol.Dialect]*gateway.Worker
	Service *service.Service
	Index   *endpoint.Index
	Coord   *coordinator.Coordinator
	logger  logging.Logger
}

// New builds a Runtime from a decoded configuration file. It does not
// open any connections — those happen lazily, the first time a
// worker's Run dials its gateway.
func New(cfg *config.File, logger logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Nop{}
	}

	workers := make(map[protocol.Dialect]*gateway.Worker, len(cfg.Gateways))
	var dialects []protocol.Dialect
	for _, gw := range cfg.Gateways {
		dialect, err := config.ParseDialect(gw.Dialect)
		if err != nil {
			return nil, fmt.Errorf("gateway %q: %w", gw.Name, err)
		}
		if _, exists := workers[dialect]; exists {
			return nil, fmt.Errorf("gateway %q: a gateway for dialect %s is already configured", gw.Name, dialect)
		}

		merged, err := cfg.EffectiveDefaults(gw)
		if err != nil {
			return nil, err
		}
		policy := gateway.PolicyFor(dialect)
		policy.RequestTimeout = merged.RequestTimeout
		policy.MaxAttempts = merged.MaxAttempts
		policy.SessionOpenTimeout = merged.SessionOpenTimeout

		dialer, err := dialerFor(gw)
		if err != nil {
			return nil, fmt.Errorf("gateway %q: %w", gw.Name, err)
		}

		workers[dialect] = gateway.New(gateway.Config{
			Name:    gw.Name,
			Dialect: dialect,
			Dial:    dialer,
			Credentials: session.Credentials{
				OpenPassword: gw.OpenPassword,
				HMACKey:      gw.HMACKey,
			},
			Policy:          policy,
			ScenarioSession: gw.ScenarioSession,
		}, logger)
		dialects = append(dialects, dialect)
	}

	endpoints := make([]endpoint.Endpoint, 0, len(cfg.Endpoints))
	for _, ec := range cfg.Endpoints {
		dialect, err := config.ParseDialect(ec.Dialect)
		if err != nil {
			return nil, fmt.Errorf("endpoint %q: %w", ec.Name, err)
		}
		addr, err := ec.Address()
		if err != nil {
			return nil, fmt.Errorf("endpoint %q: %w", ec.Name, err)
		}
		endpoints = append(endpoints, endpoint.Endpoint{
			Name: ec.Name, Dialect: dialect, Address: addr,
			DeviceBrand: ec.DeviceBrand, DeviceModel: ec.DeviceModel, Unit: ec.Unit,
			ExplicitCapabilities: ec.ExplicitCapabilities,
		})
	}
	idx, err := endpoint.NewIndex(endpoints)
	if err != nil {
		return nil, err
	}

	svc := service.New(workers)
	coord := coordinator.New(svc, idx, dialects, logger)

	return &Runtime{workers: workers, Service: svc, Index: idx, Coord: coord, logger: logger.With("runtime")}, nil
}

func dialerFor(gw config.GatewayConfig) (gateway.Dialer, error) {
	switch {
	case gw.Address != "":
		addr := gw.Address
		return func(ctx context.Context) (transport.Connection, error) {
			return transport.DialTCP(ctx, addr, nil)
		}, nil
	case gw.SerialPort != "":
		cfg := transport.DefaultSerialConfig(gw.SerialPort)
		if gw.BaudRate > 0 {
			cfg.BaudRate = gw.BaudRate
		}
		return func(ctx context.Context) (transport.Connection, error) {
			return transport.OpenSerial(cfg, nil)
		}, nil
	default:
		return nil, fmt.Errorf("gateway %q: neither address nor serial_port is set", gw.Name)
	}
}

// Run starts every gateway worker and the Coordinator, blocking until
// ctx is cancelled, then waits for every worker to finish closing its
// sessions (Event before Command, per worker) before returning the
// aggregated shutdown errors.
func (r *Runtime) Run(ctx context.Context) error {
	r.logger.Info("starting %d gateway worker(s)", len(r.workers))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var runErr error

	for dialect, w := range r.workers {
		wg.Add(1)
		go func(dialect protocol.Dialect, w *gateway.Worker) {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				mu.Lock()
				runErr = multierr.Append(runErr, fmt.Errorf("gateway worker %s: %w", dialect, err))
				mu.Unlock()
			}
		}(dialect, w)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := r.Coord.Run(ctx); err != nil {
			mu.Lock()
			runErr = multierr.Append(runErr, fmt.Errorf("coordinator: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()
	r.logger.Info("all gateway workers closed")
	return runErr
}
