// ABOUTME: Pedalboard control protocol message definitions
// ABOUTME: JSON envelope and payloads exchanged with WebSocket clients
package protocol

import (
	"encoding/json"
	"fmt"
)

// Version is the protocol version sent in hello messages
const Version = 1

// Message types
const (
	TypeClientHello = "client/hello"
	TypeServerHello = "server/hello"
	TypeServerError = "server/error"

	TypeBoardPlay   = "board/play"
	TypeBoardStop   = "board/stop"
	TypeBoardSet    = "board/set"
	TypeBoardEngage = "board/engage"
	TypeBoardState  = "board/state"

	TypePedalMount  = "pedal/mount"
	TypePedalUpdate = "pedal/update"

	TypeStreamMetadata = "stream/metadata"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID   string      `json:"client_id"`
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`
}

// DeviceInfo contains device identification
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID   string      `json:"server_id"`
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`
}

// ServerError reports a rejected request
type ServerError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// BoardSet changes one pedal parameter
type BoardSet struct {
	Effect string  `json:"effect"`
	Param  string  `json:"param"`
	Value  float64 `json:"value"`
}

// BoardEngage switches a pedal on or off
type BoardEngage struct {
	Effect string `json:"effect"`
	On     bool   `json:"on"`
}

// BoardState reports the board's lifecycle state
type BoardState struct {
	State string `json:"state"`
}

// StreamMetadata contains track information
type StreamMetadata struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
}

// DecodePayload converts a generically decoded payload into v
func DecodePayload(payload interface{}, v interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return nil
}
