// Package live streams per-step simulation statistics to websocket
// clients as JSON frames.
package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"

	"agora/internal/sim"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Frames arriving faster than this are dropped per client.
	pubResolution  = 100 * time.Millisecond
	pingResolution = 200 * time.Millisecond
	// Pings to tolerate losing before concluding the peer is gone.
	pongWait = 4 * pingResolution

	shutdownWait     = 5 * time.Second
	subscriberBuffer = 8
)

var upgrader = websocket.Upgrader{}

var errPongDeadlineExceeded = errors.New("client disconnect, pong deadline exceeded")

// Server fans published statistics frames out to any number of websocket
// clients. Clients that cannot keep up miss frames instead of blocking
// the publisher.
type Server struct {
	mu          sync.Mutex
	subscribers map[chan sim.Statistics]struct{}
}

func NewServer() *Server {
	return &Server{subscribers: make(map[chan sim.Statistics]struct{})}
}

// Handler returns the HTTP surface. GET /ws upgrades to a websocket that
// receives one JSON statistics frame per published step.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWebsocket)
	return mux
}

// Run serves the websocket endpoint on addr and pumps frames from
// updates to every connected client until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string, updates <-chan sim.Statistics) error {
	server := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		for stats := range channerics.OrDone(groupCtx.Done(), updates) {
			s.Publish(stats)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	group.Go(func() error {
		slog.Info("statistics server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	return group.Wait()
}

// Publish sends one frame to every connected client.
func (s *Server) Publish(stats sim.Statistics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subscribers {
		select {
		case sub <- stats:
		default:
			// Slow consumers miss frames.
		}
	}
}

// ClientCount reports the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

func (s *Server) subscribe() chan sim.Statistics {
	sub := make(chan sim.Statistics, subscriberBuffer)
	s.mu.Lock()
	s.subscribers[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

func (s *Server) unsubscribe(sub chan sim.Statistics) {
	s.mu.Lock()
	delete(s.subscribers, sub)
	s.mu.Unlock()
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "err", err)
		return
	}
	remote := ws.RemoteAddr().String()

	sub := s.subscribe()
	defer s.unsubscribe(sub)
	slog.Info("statistics client connected", "remote", remote)

	group, ctx := errgroup.WithContext(r.Context())
	group.Go(func() error { return readMessages(ws) })
	group.Go(func() error { return streamFrames(ctx, ws, sub) })
	group.Go(func() error {
		<-ctx.Done()
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		return ws.Close()
	})

	if err := group.Wait(); err != nil && !isExpectedClose(err) {
		slog.Warn("statistics client session failed", "remote", remote, "err", err)
		return
	}
	slog.Info("statistics client disconnected", "remote", remote)
}

// readMessages drains the client side of the connection. Incoming data
// is discarded; the read pump exists to process control frames and to
// notice when the peer goes away. Any read error is permanent.
func readMessages(ws *websocket.Conn) error {
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return err
		}
	}
}

// streamFrames is the single writer for one connection: it interleaves
// ping keepalives with throttled statistics frames.
func streamFrames(ctx context.Context, ws *websocket.Conn, sub <-chan sim.Statistics) error {
	pong := make(chan struct{}, 1)
	ws.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	var lastSync time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pong:
			lastPong = time.Now()
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return errPongDeadlineExceeded
			}
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("ping failed: %w", err)
			}
		case stats := <-sub:
			if time.Since(lastSync) < pubResolution {
				continue
			}
			lastSync = time.Now()
			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return err
			}
			if err := ws.WriteJSON(stats); err != nil {
				return fmt.Errorf("publish failed: %w", err)
			}
		}
	}
}

func isExpectedClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, context.Canceled)
}
