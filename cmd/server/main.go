package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nathanyu/lob-exchange/internal/domain"
	"github.com/nathanyu/lob-exchange/internal/handler"
	"github.com/nathanyu/lob-exchange/internal/marketdata"
	"github.com/nathanyu/lob-exchange/internal/matching"
	"github.com/nathanyu/lob-exchange/internal/middleware"
	"github.com/nathanyu/lob-exchange/internal/ordermanager"
	"github.com/nathanyu/lob-exchange/internal/sequencer"
)

// Config holds the server's startup knobs, read from the environment —
// the teacher never needed more than two; this build adds the seed symbols
// and demo wallet balance a matching-core demonstration service wants.
type Config struct {
	Port           string
	MetricsPort    string
	ChannelBuffer  int
	MaxDailyVolume domain.Cents
	Symbols        []string
	DemoUsers      []string
	DemoCash       domain.Cents
}

// DefaultConfig returns Config populated from the environment, falling back
// to the values this server has always shipped with.
func DefaultConfig() Config {
	cfg := Config{
		Port:           "8080",
		MetricsPort:    "9090",
		ChannelBuffer:  4096,
		MaxDailyVolume: 1_000_000,
		Symbols:        []string{"AAPL", "GOOG", "MSFT"},
		DemoUsers:      []string{"user1", "user2", "mm1"},
		DemoCash:       10_000_000, // $100,000.00 in cents
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("METRICS_PORT"); v != "" {
		cfg.MetricsPort = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.Symbols = strings.Split(v, ",")
	}
	return cfg
}

// Server owns the full pipeline: sequencer (single writer over the matching
// engine), order manager (risk + wallets), market data publisher, and the
// two HTTP servers (API, metrics) that front them.
type Server struct {
	cfg Config

	engine    *matching.Engine
	seq       *sequencer.Sequencer
	manager   *ordermanager.Manager
	publisher *marketdata.Publisher

	httpServer    *http.Server
	metricsServer *http.Server
}

// NewServer wires the pipeline described in internal/sequencer's doc comment:
//
//	handler -> manager.OrderOut -> seq.OrderIn -> (matching engine)
//	seq.ExecutionOut -> fan-out -> manager.ExecutionIn, publisher.ExecutionIn
//
// and seeds demo wallets so the API is immediately usable without a
// separate provisioning step.
func NewServer(cfg Config) *Server {
	engine := matching.NewEngine()
	seq := sequencer.NewSequencer(engine, cfg.ChannelBuffer)
	manager := ordermanager.NewManager(cfg.MaxDailyVolume, cfg.ChannelBuffer)
	publisher := marketdata.NewPublisher(cfg.ChannelBuffer)

	for _, user := range cfg.DemoUsers {
		holdings := make(map[string]domain.Cents, len(cfg.Symbols))
		for _, symbol := range cfg.Symbols {
			holdings[symbol] = 1000
		}
		manager.InitWallet(user, cfg.DemoCash, holdings)
	}

	s := &Server{
		cfg:       cfg,
		engine:    engine,
		seq:       seq,
		manager:   manager,
		publisher: publisher,
	}

	r := gin.Default()
	r.Use(middleware.PrometheusMiddleware())
	handler.NewHandler(manager, engine, publisher).RegisterRoutes(r)
	s.httpServer = &http.Server{Addr: ":" + cfg.Port, Handler: r}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	s.metricsServer = &http.Server{Addr: ":" + cfg.MetricsPort, Handler: metricsMux}

	return s
}

// Start fans the pipeline's channels out, starts every component's
// goroutine, and begins serving HTTP. It returns immediately; the caller is
// expected to block until it wants to Shutdown.
func (s *Server) Start() {
	go s.relayOrders()
	go s.relayExecutions()

	s.seq.Start()
	s.manager.Start()
	s.publisher.Start()

	go func() {
		log.Printf("[server] metrics listening on %s", s.metricsServer.Addr)
		if err := s.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[server] metrics server error: %v", err)
		}
	}()

	go func() {
		log.Printf("[server] API listening on %s (symbols: %s)", s.httpServer.Addr, strings.Join(s.cfg.Symbols, ","))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[server] API server error: %v", err)
		}
	}()
}

// relayOrders forwards validated orders from the order manager into the
// sequencer's single-writer inbound queue.
func (s *Server) relayOrders() {
	for event := range s.manager.OrderOut {
		s.seq.OrderIn <- event
	}
}

// relayExecutions fans sequencer output out to every downstream consumer.
// Each send is non-blocking: a slow consumer drops events rather than
// stalling the sequencer, which must never yield mid-batch (spec's
// single-threaded matching core has no suspension points).
func (s *Server) relayExecutions() {
	for event := range s.seq.ExecutionOut {
		select {
		case s.manager.ExecutionIn <- event:
		default:
			log.Println("[server] WARN: order manager execution channel full")
		}
		select {
		case s.publisher.ExecutionIn <- event:
		default:
			log.Println("[server] WARN: market data execution channel full")
		}
	}
}

// Shutdown stops every component and both HTTP servers within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) {
	s.seq.Stop()
	s.manager.Stop()
	s.publisher.Stop()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("[server] API server shutdown error: %v", err)
	}
	if err := s.metricsServer.Shutdown(ctx); err != nil {
		log.Printf("[server] metrics server shutdown error: %v", err)
	}
}

func main() {
	log.Println("[server] starting limit order book exchange")

	srv := NewServer(DefaultConfig())
	srv.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[server] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)

	log.Println("[server] stopped")
}
