package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/yanet-platform/mlrepeater/repeater"
	"github.com/yanet-platform/mlrepeater/repeater/internal/fdb"
	"github.com/yanet-platform/mlrepeater/repeater/internal/metrics"
	"github.com/yanet-platform/mlrepeater/repeater/internal/netdev"
	"github.com/yanet-platform/mlrepeater/repeater/repeaterpb"
)

type options struct {
	Log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// DaemonOption is a function that configures the repeater daemon.
type DaemonOption func(*options)

// WithLog sets the logger for the repeater daemon.
func WithLog(log *zap.SugaredLogger) DaemonOption {
	return func(o *options) {
		o.Log = log
	}
}

// Daemon is the repeater management plane.
//
// It keeps the forwarding engines' view of bridge ports, station uplinks
// and the forwarding database in sync with the kernel.
type Daemon struct {
	cfg      *Config
	repeater *repeater.Context
	socket   *netdev.PacketSocket
	links    *netdev.Monitor
	fdb      *fdb.Monitor
	gatherer prometheus.Gatherer
	server   *grpc.Server

	// mu guards stations.
	mu sync.Mutex
	// stations maps radios to the station interface currently serving
	// as their uplink.
	stations map[repeater.RadioID]string
	log      *zap.SugaredLogger
}

// NewDaemon creates a new daemon using the provided configuration.
func NewDaemon(cfg *Config, options ...DaemonOption) (*Daemon, error) {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	log := opts.Log
	log.Infow("initializing repeater daemon", zap.Any("config", cfg))

	matcher, err := netdev.NewMatcher(cfg.Repeater.Interfaces)
	if err != nil {
		return nil, fmt.Errorf("failed to compile interface bindings: %w", err)
	}

	socket, err := netdev.NewPacketSocket(cfg.Transmit.SendBuffer)
	if err != nil {
		return nil, err
	}

	ports := netdev.NewTable(matcher, socket, netdev.WithLog(log))
	bridge := fdb.NewTable(ports, fdb.WithLog(log))

	ctx := repeater.New(bridge, repeater.WithLog(log))
	if err := ctx.Apply(&cfg.Repeater.Config); err != nil {
		_ = socket.Close()
		return nil, fmt.Errorf("failed to configure repeater: %w", err)
	}

	reg := prometheus.NewRegistry()
	gatherer, err := metrics.Register(reg, metrics.NewCollector(ctx))
	if err != nil {
		_ = socket.Close()
		return nil, err
	}

	server := grpc.NewServer()
	repeaterpb.RegisterRepeaterServiceServer(server, NewRepeaterService(ctx, log))

	m := &Daemon{
		cfg:      cfg,
		repeater: ctx,
		socket:   socket,
		gatherer: gatherer,
		server:   server,
		stations: map[repeater.RadioID]string{},
		log:      log,
	}

	m.links, err = netdev.NewMonitor(ports,
		netdev.WithLog(log),
		netdev.WithStationHandler(m.onStation),
		netdev.WithUpdateInterval(cfg.Bridge.ResyncInterval),
	)
	if err != nil {
		_ = socket.Close()
		return nil, fmt.Errorf("failed to initialize link monitor: %w", err)
	}

	m.fdb, err = fdb.NewMonitor(bridge, cfg.Bridge.Name,
		fdb.WithLog(log),
		fdb.WithUpdateInterval(cfg.Bridge.ResyncInterval),
	)
	if err != nil {
		_ = socket.Close()
		return nil, fmt.Errorf("failed to initialize forwarding database monitor: %w", err)
	}

	return m, nil
}

// Repeater returns the forwarding engines.
func (m *Daemon) Repeater() *repeater.Context {
	return m.repeater
}

// Run runs the daemon until the specified context is canceled.
func (m *Daemon) Run(ctx context.Context) error {
	m.log.Info("running repeater daemon")
	defer m.log.Info("stopped repeater daemon")

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		return m.links.Run(ctx)
	})
	wg.Go(func() error {
		return m.fdb.Run(ctx)
	})
	if m.cfg.Metrics.Endpoint != "" {
		wg.Go(func() error {
			return m.serveMetrics(ctx)
		})
	}
	if m.cfg.Management.Endpoint != "" {
		wg.Go(func() error {
			return m.serveManagement(ctx)
		})
	}

	return wg.Wait()
}

// Close disables processing and releases the transmit socket.
func (m *Daemon) Close() error {
	m.repeater.Deinit()
	return m.socket.Close()
}

func (m *Daemon) serveManagement(ctx context.Context) error {
	listener, err := net.Listen("tcp", m.cfg.Management.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to initialize gRPC listener: %w", err)
	}

	m.log.Infow("exposing management API", zap.Stringer("addr", listener.Addr()))

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		if err := m.server.Serve(listener); err != nil {
			return fmt.Errorf("failed to serve management API: %w", err)
		}
		return nil
	})
	wg.Go(func() error {
		<-ctx.Done()

		m.log.Infow("stopping management API", zap.Stringer("addr", listener.Addr()))
		m.server.GracefulStop()
		return nil
	})

	return wg.Wait()
}

func (m *Daemon) serveMetrics(ctx context.Context) error {
	listener, err := net.Listen("tcp", m.cfg.Metrics.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(m.gatherer))
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	m.log.Infow("exposing metrics", zap.Stringer("addr", listener.Addr()))

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve metrics: %w", err)
		}
		return nil
	})
	wg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return wg.Wait()
}

// onStation maps station uplinks to their radios as they go up and down.
//
// Only one station per radio is mapped, extra ones are ignored until the
// mapped one goes away.
func (m *Daemon) onStation(ev netdev.StationEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dev := ev.Device
	radio := dev.Radio()
	log := m.log.With(zap.String("dev", dev.Name()), zap.String("radio", string(radio)))

	mapped, ok := m.stations[radio]
	if ev.Up {
		if ok {
			log.Warnw("ignoring station interface, radio already has an uplink", zap.String("uplink", mapped))
			return
		}
		if err := m.repeater.AddStationVAP(radio, dev); err != nil {
			log.Warnw("failed to map station interface", zap.Error(err))
			return
		}
		m.stations[radio] = dev.Name()
		m.repeater.AppendStationCount(true)
		return
	}

	if !ok || mapped != dev.Name() {
		return
	}
	if err := m.repeater.RemoveStationVAP(radio); err != nil {
		log.Warnw("failed to unmap station interface", zap.Error(err))
	}
	delete(m.stations, radio)
	m.repeater.AppendStationCount(false)
}
