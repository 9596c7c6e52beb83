// Package inspector streams engine bus events to websocket clients as JSON.
package inspector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/scenekit/internal/core/component"
	"github.com/zeusync/scenekit/internal/core/events/bus"
	"github.com/zeusync/scenekit/internal/core/observability/log"
	"github.com/zeusync/scenekit/pkg/generic"
)

const writeWait = 5 * time.Second

var buffers = generic.NewPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset)

type Config struct {
	Addr string
	// Buffer is the per-client queue length.
	Buffer int
	// Events are streamed in addition to bus.EngineEvents.
	Events []string
}

// Message is the JSON frame sent for every event.
type Message struct {
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	Timestamp time.Time      `json:"timestamp"`
	Data      any            `json:"data,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

type Inspector struct {
	cfg      Config
	events   bus.EventBus
	logger   log.Log
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	subs    []bus.Subscription
	server  *http.Server
	closed  bool

	dropped atomic.Uint64
}

func New(cfg Config, events bus.EventBus, logger log.Log) *Inspector {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Inspector{
		cfg:    cfg,
		events: events,
		logger: logger.Named("inspector"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]struct{}),
	}
}

// Subscribe starts listening on the bus. It is called by Start; call it directly when
// serving Handler from another server.
func (i *Inspector) Subscribe() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return ErrClosed
	}
	if len(i.subs) > 0 {
		return ErrAlreadyStarted
	}
	types := append(bus.EngineEvents(), i.cfg.Events...)
	for _, typ := range types {
		sub, err := i.events.Subscribe(typ, i.broadcast)
		if err != nil {
			for _, s := range i.subs {
				_ = s.Cancel()
			}
			i.subs = nil
			return fmt.Errorf("subscribe %s: %w", typ, err)
		}
		i.subs = append(i.subs, sub)
	}
	return nil
}

func (i *Inspector) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", i.handleEvents)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// Start subscribes and serves on cfg.Addr until ctx is done or Close is called.
func (i *Inspector) Start(ctx context.Context) error {
	if err := i.Subscribe(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", i.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", i.cfg.Addr, err)
	}
	srv := &http.Server{Handler: i.Handler(), ReadHeaderTimeout: 5 * time.Second}
	i.mu.Lock()
	i.server = srv
	i.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			i.logger.Error("inspector server failed", log.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		_ = i.Close()
	}()
	i.logger.Info("inspector listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Close cancels the bus subscriptions, disconnects every client and stops the server.
func (i *Inspector) Close() error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	i.closed = true
	subs := i.subs
	i.subs = nil
	clients := i.clients
	i.clients = make(map[*client]struct{})
	srv := i.server
	i.mu.Unlock()

	var errs []error
	for _, s := range subs {
		if err := s.Cancel(); err != nil {
			errs = append(errs, err)
		}
	}
	for c := range clients {
		c.close()
	}
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (i *Inspector) Clients() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.clients)
}

// Dropped counts messages discarded because a client queue was full.
func (i *Inspector) Dropped() uint64 { return i.dropped.Load() }

func (i *Inspector) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := i.upgrader.Upgrade(w, r, nil)
	if err != nil {
		i.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, i.cfg.Buffer)}

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		_ = conn.Close()
		return
	}
	i.clients[c] = struct{}{}
	i.mu.Unlock()
	i.logger.Debug("client connected", log.String("remote", conn.RemoteAddr().String()))

	go i.writeLoop(c)
	i.readLoop(c)
}

// readLoop only watches for the client going away.
func (i *Inspector) readLoop(c *client) {
	defer i.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (i *Inspector) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			i.remove(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (i *Inspector) remove(c *client) {
	i.mu.Lock()
	_, ok := i.clients[c]
	delete(i.clients, c)
	i.mu.Unlock()
	if ok {
		i.logger.Debug("client disconnected", log.String("remote", c.conn.RemoteAddr().String()))
	}
	c.close()
}

// broadcast runs on the publishing goroutine and never blocks it.
func (i *Inspector) broadcast(ev bus.Event) error {
	payload, err := encode(ev)
	if err != nil {
		i.logger.Warn("event not encodable", log.String("event", ev.Type()), log.Error(err))
		return nil
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	for c := range i.clients {
		select {
		case c.send <- payload:
		default:
			i.dropped.Add(1)
		}
	}
	return nil
}

func encode(ev bus.Event) ([]byte, error) {
	msg := Message{
		Type:      ev.Type(),
		Source:    ev.Source(),
		Timestamp: ev.Timestamp(),
		Data:      payloadOf(ev.Data()),
		Metadata:  ev.Metadata(),
	}
	buf := buffers.Get()
	defer buffers.Put(buf)
	if err := json.NewEncoder(buf).Encode(msg); err != nil {
		buf.Reset()
		msg.Data = fmt.Sprint(ev.Data())
		msg.Metadata = nil
		if err := json.NewEncoder(buf).Encode(msg); err != nil {
			return nil, err
		}
	}
	return bytes.Clone(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

func payloadOf(data any) any {
	switch v := data.(type) {
	case *component.CallbackError:
		return map[string]string{
			"instance": v.Instance,
			"type":     v.Type,
			"entity":   v.Entity,
			"callback": v.Callback,
			"error":    v.Err.Error(),
		}
	case error:
		return v.Error()
	default:
		return data
	}
}
