package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/dragmask/internal/draggable"
	"github.com/1broseidon/dragmask/internal/region"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload        CommandType = "RELOAD"
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandUpdateRegions CommandType = "UPDATE_REGIONS"
	CommandGetRegion     CommandType = "GET_REGION"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
	Passes        uint64 `json:"passes"`
	Applied       uint64 `json:"applied"`
	Skipped       uint64 `json:"skipped"`
	Failed        uint64 `json:"failed"`
	TraceRegions  bool   `json:"trace_regions"`
}

// UpdateRegionsPayload carries one content-layer update for a window.
type UpdateRegionsPayload struct {
	WindowID uint32            `json:"window_id"`
	Entries  []draggable.Entry `json:"entries"`
}

// UpdateRegionsData reports the outcome of an UPDATE_REGIONS pass.
type UpdateRegionsData struct {
	Outcome draggable.Outcome `json:"outcome"`
	Rects   []region.Rect     `json:"rects"`
	Error   string            `json:"error,omitempty"`
}

type GetRegionPayload struct {
	WindowID uint32 `json:"window_id"`
}

// RegionData is the installed mask of a window.
type RegionData struct {
	WindowID  uint32        `json:"window_id"`
	Framed    bool          `json:"framed"`
	Installed bool          `json:"installed"`
	Rects     []region.Rect `json:"rects"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
