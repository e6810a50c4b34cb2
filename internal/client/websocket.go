// ABOUTME: WebSocket client for a remote pedalboard
// ABOUTME: Handles the handshake, mirrors the remote pedals and sends board commands
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/pedalboard-go/internal/protocol"
	"github.com/Resonate-Protocol/pedalboard-go/internal/version"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/pedal"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const handshakeTimeout = 5 * time.Second

// Config holds client configuration
type Config struct {
	URL      string // ws://host:port/pedalboard
	ClientID string
	Name     string

	// Host receives the remote board's pedals (default: pedal.LogHost)
	Host pedal.Host

	OnState    func(state string)
	OnMetadata func(title, artist, album string)
	OnError    func(code, message string)

	Debug bool
}

// Client controls a pedalboard served by a web host
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	// State
	connected bool
	state     string
	server    protocol.ServerHello
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if config.ClientID == "" {
		config.ClientID = uuid.New().String()
	}
	if config.Name == "" {
		config.Name = "pedalboard-remote"
	}
	if config.Host == nil {
		config.Host = pedal.LogHost{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config: config,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and performs the handshake
func (c *Client) Connect() error {
	log.Printf("Connecting to %s", c.config.URL)

	conn, _, err := websocket.DefaultDialer.DialContext(c.ctx, c.config.URL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake sends client/hello and waits for server/hello
func (c *Client) handshake() error {
	hello := protocol.ClientHello{
		ClientID: c.config.ClientID,
		Name:     c.config.Name,
		Version:  protocol.Version,
		DeviceInfo: &protocol.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
	}

	if err := c.send(protocol.TypeClientHello, hello); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	switch msg.Type {
	case protocol.TypeServerHello:
	case protocol.TypeServerError:
		var serverErr protocol.ServerError
		protocol.DecodePayload(msg.Payload, &serverErr)
		return fmt.Errorf("rejected: %s: %s", serverErr.Error, serverErr.Message)
	default:
		return fmt.Errorf("expected %s, got %s", protocol.TypeServerHello, msg.Type)
	}

	var server protocol.ServerHello
	if err := protocol.DecodePayload(msg.Payload, &server); err != nil {
		return err
	}

	c.mu.Lock()
	c.server = server
	c.mu.Unlock()

	log.Printf("Handshake complete with board %s (ID: %s)", server.Name, server.ServerID)
	return nil
}

// send writes one message
func (c *Client) send(msgType string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	return c.conn.WriteJSON(protocol.Message{Type: msgType, Payload: payload})
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer close(c.done)
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				log.Printf("Read error: %v", err)
			}
			return
		}

		c.handleJSONMessage(data)
	}
}

// handleJSONMessage routes JSON messages
func (c *Client) handleJSONMessage(data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse JSON message: %v", err)
		return
	}

	if c.config.Debug {
		log.Printf("[DEBUG] Received %s", msg.Type)
	}

	switch msg.Type {
	case protocol.TypePedalMount:
		var content pedal.Content
		if err := protocol.DecodePayload(msg.Payload, &content); err != nil {
			log.Printf("Bad %s: %v", msg.Type, err)
			return
		}
		if err := c.config.Host.Mount(content); err != nil {
			log.Printf("Failed to mount %s: %v", content.Title, err)
		}

	case protocol.TypePedalUpdate:
		var content pedal.Content
		if err := protocol.DecodePayload(msg.Payload, &content); err != nil {
			log.Printf("Bad %s: %v", msg.Type, err)
			return
		}
		c.config.Host.Update(content)

	case protocol.TypeBoardState:
		var state protocol.BoardState
		if err := protocol.DecodePayload(msg.Payload, &state); err != nil {
			log.Printf("Bad %s: %v", msg.Type, err)
			return
		}
		c.mu.Lock()
		c.state = state.State
		c.mu.Unlock()
		if c.config.OnState != nil {
			c.config.OnState(state.State)
		}

	case protocol.TypeStreamMetadata:
		var meta protocol.StreamMetadata
		if err := protocol.DecodePayload(msg.Payload, &meta); err != nil {
			log.Printf("Bad %s: %v", msg.Type, err)
			return
		}
		if c.config.OnMetadata != nil {
			c.config.OnMetadata(meta.Title, meta.Artist, meta.Album)
		}

	case protocol.TypeServerError:
		var serverErr protocol.ServerError
		protocol.DecodePayload(msg.Payload, &serverErr)
		log.Printf("Board error: %s: %s", serverErr.Error, serverErr.Message)
		if c.config.OnError != nil {
			c.config.OnError(serverErr.Error, serverErr.Message)
		}

	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// Play asks the board to start playback
func (c *Client) Play() error {
	return c.send(protocol.TypeBoardPlay, nil)
}

// Stop asks the board to stop playback
func (c *Client) Stop() error {
	return c.send(protocol.TypeBoardStop, nil)
}

// Toggle stops a playing board and starts any other
func (c *Client) Toggle() error {
	if c.State() == "playing" {
		return c.Stop()
	}
	return c.Play()
}

// Set changes a pedal parameter on the board
func (c *Client) Set(effect, param string, value float64) error {
	return c.send(protocol.TypeBoardSet, protocol.BoardSet{Effect: effect, Param: param, Value: value})
}

// Engage switches a pedal on the board
func (c *Client) Engage(effect string, on bool) error {
	return c.send(protocol.TypeBoardEngage, protocol.BoardEngage{Effect: effect, On: on})
}

// State returns the last state the board reported
func (c *Client) State() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// ServerName returns the connected board's name
func (c *Client) ServerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.server.Name
}

// Done is closed when the connection ends
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
