// ABOUTME: WebSocket presentation host and control server
// ABOUTME: Pushes pedal content to browsers and applies their board commands
package webhost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Resonate-Protocol/pedalboard-go/internal/discovery"
	"github.com/Resonate-Protocol/pedalboard-go/internal/protocol"
	"github.com/Resonate-Protocol/pedalboard-go/internal/version"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/pedal"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	DefaultPort = 8927
	DefaultName = "Pedalboard"

	sendBuffer    = 100
	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
)

// Control is the part of the board clients may drive
type Control interface {
	Play() error
	Stop() error
	Set(effect, param string, value float64) error
	Engage(effect string, on bool) error
}

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	Path       string // WebSocket path (default: /pedalboard)
	EnableMDNS bool
	Debug      bool
}

// Server serves the board over WebSocket and implements pedal.Host
type Server struct {
	config   Config
	serverID string
	control  Control

	// WebSocket upgrader
	upgrader websocket.Upgrader

	// HTTP server
	httpServer *http.Server
	mux        *http.ServeMux

	// Client management
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// Board view shared with new clients
	viewMu   sync.RWMutex
	pedals   []pedal.Content
	state    string
	metadata *protocol.StreamMetadata

	// mDNS discovery
	mdnsManager *discovery.Manager

	// Control
	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// Client represents a connected browser or controller
type Client struct {
	ID   string
	Name string
	Conn *websocket.Conn

	// Output channel for messages
	sendChan chan interface{}
}

// New creates a new server instance
func New(config Config, control Control) *Server {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.Name == "" {
		config.Name = DefaultName
	}
	if config.Path == "" {
		config.Path = discovery.DefaultPath
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		control:  control,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// served on trusted local networks only
				if origin := r.Header.Get("Origin"); origin != "" && config.Debug {
					log.Printf("[DEBUG] Accepting WebSocket from origin: %s", origin)
				}
				return true
			},
		},
		clients:  make(map[string]*Client),
		state:    "uninitialized",
		stopChan: make(chan struct{}),
	}
	s.mux.HandleFunc(config.Path, s.handleWebSocket)
	return s
}

// Handler returns the HTTP handler serving the WebSocket endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens until Stop is called or the listener fails
func (s *Server) Start() error {
	log.Printf("Web host starting: %s (ID: %s)", s.config.Name, s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        s.config.Path,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		}
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket server listening on %s%s", addr, s.config.Path)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-s.stopChan:
		log.Printf("Web host shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.closeClients()
	s.wg.Wait()
	log.Printf("Web host stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Mount records a pedal and announces it to every client
func (s *Server) Mount(c pedal.Content) error {
	s.broadcast(protocol.TypePedalMount, c, func() {
		s.pedals = append(s.pedals, c)
	})
	return nil
}

// Update replaces a pedal's content and announces it to every client
func (s *Server) Update(c pedal.Content) {
	s.broadcast(protocol.TypePedalUpdate, c, func() {
		for i := range s.pedals {
			if s.pedals[i].ID == c.ID {
				s.pedals[i] = c
			}
		}
	})
}

// SetState announces a board state change
func (s *Server) SetState(state string) {
	s.broadcast(protocol.TypeBoardState, protocol.BoardState{State: state}, func() {
		s.state = state
	})
}

// SetMetadata announces the source's track information
func (s *Server) SetMetadata(title, artist, album string) {
	md := &protocol.StreamMetadata{Title: title, Artist: artist, Album: album}
	s.broadcast(protocol.TypeStreamMetadata, md, func() {
		s.metadata = md
	})
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)

	s.handleConnection(conn)
}

// handleConnection manages a client connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	hello, err := readHello(conn)
	if err != nil {
		log.Printf("Handshake failed: %v", err)
		writeError(conn, "bad_hello", err.Error())
		return
	}

	log.Printf("Client hello: %s (ID: %s)", hello.Name, hello.ClientID)

	client := &Client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		sendChan: make(chan interface{}, sendBuffer),
	}

	s.clientsMu.Lock()
	if existing, exists := s.clients[client.ID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected (name: %s), rejecting duplicate", client.ID, existing.Name)
		writeError(conn, "duplicate_client_id", "Client ID already connected")
		return
	}

	// Greet and replay the board view before the client can receive broadcasts
	s.greetLocked(client)
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		if s.clients[client.ID] == client {
			delete(s.clients, client.ID)
			close(client.sendChan)
		}
		s.clientsMu.Unlock()
		log.Printf("Client disconnected: %s", client.Name)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(client)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		s.handleClientMessage(client, data)
	}
}

func readHello(conn *websocket.Conn) (*protocol.ClientHello, error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read hello: %w", err)
	}

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}
	if msg.Type != protocol.TypeClientHello {
		return nil, fmt.Errorf("expected %s, got %s", protocol.TypeClientHello, msg.Type)
	}

	var hello protocol.ClientHello
	if err := protocol.DecodePayload(msg.Payload, &hello); err != nil {
		return nil, err
	}
	if hello.ClientID == "" {
		return nil, errors.New("client hello missing client_id")
	}
	if hello.Name == "" {
		return nil, errors.New("client hello missing name")
	}
	return &hello, nil
}

// greetLocked queues the hello, the current pedals and state for a new client
func (s *Server) greetLocked(client *Client) {
	s.queue(client, protocol.TypeServerHello, protocol.ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  protocol.Version,
		DeviceInfo: &protocol.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
	})

	s.viewMu.RLock()
	defer s.viewMu.RUnlock()

	for _, c := range s.pedals {
		s.queue(client, protocol.TypePedalMount, c)
	}
	s.queue(client, protocol.TypeBoardState, protocol.BoardState{State: s.state})
	if s.metadata != nil {
		s.queue(client, protocol.TypeStreamMetadata, s.metadata)
	}
}

// clientWriter sends queued messages to the client
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Error marshaling message: %v", err)
				continue
			}
			client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Error writing text message: %v", err)
				return
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// handleClientMessage applies a board command from a client
func (s *Server) handleClientMessage(client *Client, data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		s.sendError(client, "bad_message", err.Error())
		return
	}

	if s.config.Debug {
		log.Printf("[DEBUG] %s from %s", msg.Type, client.Name)
	}

	var err error
	switch msg.Type {
	case protocol.TypeBoardPlay:
		err = s.control.Play()
	case protocol.TypeBoardStop:
		err = s.control.Stop()
	case protocol.TypeBoardSet:
		var set protocol.BoardSet
		if err = protocol.DecodePayload(msg.Payload, &set); err == nil {
			err = s.control.Set(set.Effect, set.Param, set.Value)
		}
	case protocol.TypeBoardEngage:
		var engage protocol.BoardEngage
		if err = protocol.DecodePayload(msg.Payload, &engage); err == nil {
			err = s.control.Engage(engage.Effect, engage.On)
		}
	default:
		log.Printf("Unknown message type: %s", msg.Type)
		s.sendError(client, "unknown_type", msg.Type)
		return
	}

	if err != nil {
		log.Printf("%s from %s failed: %v", msg.Type, client.Name, err)
		s.sendError(client, "command_failed", err.Error())
	}
}

func (s *Server) sendError(client *Client, code, message string) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	if s.clients[client.ID] != client {
		return
	}
	s.queue(client, protocol.TypeServerError, protocol.ServerError{Error: code, Message: message})
}

// broadcast updates the board view and queues a message for every connected
// client. Holding clientsMu across both keeps new clients from seeing a change twice.
func (s *Server) broadcast(msgType string, payload interface{}, updateView func()) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	s.viewMu.Lock()
	updateView()
	s.viewMu.Unlock()

	for _, client := range s.clients {
		s.queue(client, msgType, payload)
	}
}

// queue adds a message to the client's send buffer, dropping it when full.
// Callers hold clientsMu so the channel cannot be closed underneath them.
func (s *Server) queue(client *Client, msgType string, payload interface{}) {
	msg := protocol.Message{Type: msgType, Payload: payload}
	select {
	case client.sendChan <- msg:
	default:
		log.Printf("Client %s send buffer full, dropping %s", client.Name, msgType)
	}
}

func (s *Server) closeClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for id, client := range s.clients {
		client.Conn.Close()
		close(client.sendChan)
		delete(s.clients, id)
	}
}

func writeError(conn *websocket.Conn, code, message string) {
	msg := protocol.Message{
		Type:    protocol.TypeServerError,
		Payload: protocol.ServerError{Error: code, Message: message},
	}
	if data, err := json.Marshal(msg); err == nil {
		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		conn.WriteMessage(websocket.TextMessage, data)
	}
}
