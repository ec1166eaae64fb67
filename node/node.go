package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/eth2030/feedoracle/core/rawdb"
	"github.com/eth2030/feedoracle/crypto"
	"github.com/eth2030/feedoracle/feeds"
	"github.com/eth2030/feedoracle/log"
	"github.com/eth2030/feedoracle/metrics"
	"github.com/eth2030/feedoracle/rpc"
	"github.com/eth2030/feedoracle/verifier"
)

const shutdownTimeout = 5 * time.Second

// Node owns the store and the oracle components built over it.
type Node struct {
	config *Config
	root   *log.Logger
	log    *log.Logger

	db       *rawdb.Database
	exporter *metrics.PrometheusExporter
	verifier *verifier.Verifier
	feeds    *feeds.Manager

	rpcServer  *gethrpc.Server
	httpServer *http.Server
	listener   net.Listener

	mu      sync.Mutex
	running bool
	subs    []event.Subscription
	wg      sync.WaitGroup
	stop    chan struct{}
}

// New opens the store, applies pending migrations and bootstraps owners on
// a fresh store. It does not start any network service.
func New(config *Config, logger *log.Logger) (*Node, error) {
	if config == nil {
		c := DefaultConfig()
		config = &c
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	db, err := rawdb.Open(config.DB.Backend, config.DB.Path, config.DB.Cache, config.DB.Handles, false)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	n := &Node{
		config: config,
		root:   logger,
		log:    logger.Module("node"),
		db:     db,
		stop:   make(chan struct{}),
	}
	if err := n.setup(); err != nil {
		db.Close()
		return nil, err
	}
	return n, nil
}

func (n *Node) setup() error {
	for _, ns := range []struct {
		name  rawdb.Namespace
		steps []rawdb.Migration
	}{
		{rawdb.CommitteeNamespace, rawdb.CommitteeMigrations},
		{rawdb.FeedsNamespace, rawdb.FeedsMigrations},
	} {
		from, to, err := rawdb.Migrate(n.db, ns.name, ns.steps)
		if err != nil {
			return fmt.Errorf("migrate %s: %w", ns.name, err)
		}
		if from != to {
			n.log.Info("Applied schema migrations", "namespace", ns.name, "from", from, "to", to)
		}
	}

	cfg := n.config
	n.exporter = metrics.NewPrometheusExporter(metrics.PrometheusConfig{
		Namespace:     cfg.HTTP.MetricsNamespace,
		EnableRuntime: cfg.HTTP.RuntimeMetrics,
		Path:          cfg.HTTP.MetricsPath,
	})
	m := n.exporter.Oracle()

	n.verifier = verifier.New(n.db, crypto.NewBN254WithDST(cfg.Verifier.HashToCurveDST), n.root, m)
	if err := n.bootstrapVerifier(); err != nil {
		return err
	}
	pausers := feeds.NewStaticPauserRegistry(cfg.Pauser.Pausers, cfg.Pauser.Unpauser)
	n.feeds = feeds.NewManager(n.db, cfg.Feeds.Address, n.verifier, pausers, n.root, m)
	if cfg.Feeds.Owner != (common.Address{}) {
		if _, err := n.feeds.Initialize(cfg.Feeds.Owner, cfg.Feeds.Deployer); err != nil {
			return fmt.Errorf("bootstrap feed store: %w", err)
		}
	}
	if err := n.verifier.RefreshMetrics(); err != nil {
		return err
	}
	if err := n.feeds.RefreshMetrics(); err != nil {
		return err
	}

	srv, err := rpc.NewServer(rpc.NewOracleAPI(n.feeds, n.verifier), rpc.Config{
		CORSOrigins: cfg.HTTP.CORSOrigins,
		BodyLimit:   cfg.HTTP.BodyLimit,
	})
	if err != nil {
		return fmt.Errorf("register rpc api: %w", err)
	}
	n.rpcServer = srv
	return nil
}

// bootstrapVerifier sets the owner on a fresh store and registers the feed
// store as feed manager if none is set yet.
func (n *Node) bootstrapVerifier() error {
	owner := n.config.Verifier.Owner
	if owner == (common.Address{}) {
		return nil
	}
	if _, err := n.verifier.Initialize(owner); err != nil {
		return fmt.Errorf("bootstrap verifier: %w", err)
	}
	current, err := n.verifier.FeedManager()
	if err != nil {
		return err
	}
	if current != (common.Address{}) {
		return nil
	}
	stored, err := n.verifier.Owner()
	if err != nil {
		return err
	}
	if stored != owner {
		n.log.Warn("Configured verifier owner differs from stored owner, feed manager not registered", "configured", owner, "stored", stored)
		return nil
	}
	return n.verifier.SetFeedManager(owner, n.config.Feeds.Address)
}

// Start serves HTTP and begins logging oracle events.
func (n *Node) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return errors.New("node already running")
	}
	if n.config.HTTP.Enabled {
		ln, err := net.Listen("tcp", n.config.HTTP.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", n.config.HTTP.Addr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/", rpc.NewHandler(n.rpcServer, rpc.Config{CORSOrigins: n.config.HTTP.CORSOrigins}, n.root))
		if n.config.HTTP.Metrics {
			mux.Handle(n.exporter.Path(), n.exporter.Handler())
		}
		n.listener = ln
		n.httpServer = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := n.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				n.log.Error("HTTP server failed", "err", err)
			}
		}()
		n.log.Info("HTTP endpoint opened", "addr", ln.Addr().String(), "metrics", n.config.HTTP.Metrics)
	}
	n.watchEvents()
	n.running = true
	n.log.Info("Oracle node started", "feedManager", n.config.Feeds.Address)
	return nil
}

func (n *Node) watchEvents() {
	verifierCh := make(chan verifier.Event, 64)
	feedCh := make(chan feeds.Event, 64)
	vsub := n.verifier.SubscribeEvents(verifierCh)
	fsub := n.feeds.SubscribeEvents(feedCh)
	n.subs = append(n.subs, vsub, fsub)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for {
			select {
			case ev := <-verifierCh:
				n.log.Debug("Verifier event", "type", fmt.Sprintf("%T", ev), "event", ev)
			case ev := <-feedCh:
				n.log.Debug("Feed event", "type", fmt.Sprintf("%T", ev), "event", ev)
			case err := <-vsub.Err():
				if err != nil {
					n.log.Error("Verifier event subscription failed", "err", err)
				}
				return
			case err := <-fsub.Err():
				if err != nil {
					n.log.Error("Feed event subscription failed", "err", err)
				}
				return
			}
		}
	}()
}

// Stop shuts down HTTP, event logging and the store.
func (n *Node) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.running {
		return nil
	}
	n.log.Info("Stopping oracle node")

	if n.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := n.httpServer.Shutdown(ctx); err != nil {
			n.log.Warn("HTTP server shutdown failed", "err", err)
		}
		cancel()
	}
	n.rpcServer.Stop()
	for _, sub := range n.subs {
		sub.Unsubscribe()
	}
	n.subs = nil
	n.wg.Wait()

	if err := n.db.Close(); err != nil {
		n.log.Error("Database close failed", "err", err)
	}
	n.running = false
	close(n.stop)
	n.log.Info("Oracle node stopped")
	return nil
}

// Close releases the store of a node that was never started.
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.running {
		return errors.New("node is running")
	}
	n.rpcServer.Stop()
	return n.db.Close()
}

// Wait blocks until the node is stopped.
func (n *Node) Wait() {
	<-n.stop
}

// HTTPAddr returns the bound HTTP address, or "" if not serving.
func (n *Node) HTTPAddr() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.listener == nil {
		return ""
	}
	return n.listener.Addr().String()
}

// Verifier returns the verification facade.
func (n *Node) Verifier() *verifier.Verifier { return n.verifier }

// Feeds returns the feed store.
func (n *Node) Feeds() *feeds.Manager { return n.feeds }

// Config returns the node configuration.
func (n *Node) Config() *Config { return n.config }

// Running reports whether the node is currently running.
func (n *Node) Running() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running
}

// ConfigureLogging builds the process logger from cfg and installs it as the
// default.
func ConfigureLogging(cfg LogConfig) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logger, err := log.New(os.Stderr, level, cfg.Format)
	if err != nil {
		return nil, err
	}
	log.SetDefault(logger)
	return logger, nil
}
