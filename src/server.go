// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

/*------------------------------------------------------------------
 *
 * Purpose:   	Serve live telemetry to the local network.
 *
 * Description:
 *
 *     GET /telemetry upgrades to a WebSocket and pushes one JSON
 *     object per decoded frame.  GET /metrics exposes Prometheus
 *     counters for the pipeline.  The service is optionally announced
 *     over DNS-SD, so mapping frontends can find a receiver without
 *     typing in addresses.
 *
 *     Uses the pure-Go github.com/brutella/dnssd package for the
 *     announcement, no system daemon or C library required.
 *
 *----------------------------------------------------------------*/

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DNS_SD_SERVICE = "_skysonde-telemetry._tcp"

/* Slow or stalled clients are dropped rather than allowed to stall
 * the pipeline. */
const clientSendBuffer = 8

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Telemetry is read-only and unauthenticated; any origin may
	// subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	cfg    ServerConfig
	logger *log.Logger
	http   *http.Server
	addr   net.Addr

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewServer(cfg ServerConfig, reg *prometheus.Registry, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	var s = &Server{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}

	var mux = http.NewServeMux()
	mux.HandleFunc("/telemetry", s.handleTelemetry)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	s.http = &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start begins listening and, if configured, announces the service
// over DNS-SD.  Returns once the listener is bound; serving continues
// on background goroutines until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("telemetry server: %w", err)
	}

	s.addr = ln.Addr()

	if s.cfg.Advertise {
		s.announce(ctx, ln.Addr())
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("telemetry server", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		s.Close()
	}()

	s.logger.Info("telemetry server listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound listen address, valid after Start.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Broadcast sends one telemetry snapshot to every connected client.
// Never blocks; clients that cannot keep up are disconnected.
func (s *Server) Broadcast(data *SondeData) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("telemetry marshal", "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- payload:
		default:
			delete(s.clients, c)
			close(c.send)
		}
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()

	var ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "remote", r.RemoteAddr, "err", err)
		return
	}

	var c = &wsClient{
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	s.logger.Info("telemetry client connected", "remote", r.RemoteAddr)

	go c.writeLoop()
	go c.readLoop(s)
}

func (c *wsClient) writeLoop() {
	defer c.conn.Close()
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

/* Clients send nothing; the read loop only notices disconnects. */
func (c *wsClient) readLoop(s *Server) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.mu.Lock()
			if _, ok := s.clients[c]; ok {
				delete(s.clients, c)
				close(c.send)
			}
			s.mu.Unlock()
			return
		}
	}
}

func (s *Server) announce(ctx context.Context, addr net.Addr) {
	var name = s.cfg.Name
	if name == "" {
		name = "skysonde"
	}

	var port int
	if _, portStr, err := net.SplitHostPort(addr.String()); err == nil {
		port, _ = strconv.Atoi(portStr)
	}

	var cfg = dnssd.Config{ //nolint:exhaustruct
		Name: name,
		Type: DNS_SD_SERVICE,
		Port: port,
	}

	var sv, svErr = dnssd.NewService(cfg)
	if svErr != nil {
		s.logger.Error("DNS-SD: failed to create service", "err", svErr)
		return
	}

	var rp, rpErr = dnssd.NewResponder()
	if rpErr != nil {
		s.logger.Error("DNS-SD: failed to create responder", "err", rpErr)
		return
	}

	var _, addErr = rp.Add(sv)
	if addErr != nil {
		s.logger.Error("DNS-SD: failed to add service", "err", addErr)
		return
	}

	s.logger.Info("DNS-SD: announcing telemetry service", "name", name, "port", port)

	go func() {
		if err := rp.Respond(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("DNS-SD: responder", "err", err)
		}
	}()
}
