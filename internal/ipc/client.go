package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/dragmask/internal/draggable"
	"github.com/1broseidon/dragmask/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	// Connect to socket
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	// Set deadline
	conn.SetDeadline(time.Now().Add(c.timeout))

	// Marshal request
	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Send request
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	// Read response
	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Parse response
	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Check for error response
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	req := &Request{
		Command: CommandReload,
	}

	_, err := c.sendRequest(req)
	return err
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	req := &Request{
		Command: CommandGetStatus,
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}

	return &status, nil
}

// UpdateRegions sends one ordered entry list for a window to the daemon.
func (c *Client) UpdateRegions(windowID uint32, entries []draggable.Entry) (*UpdateRegionsData, error) {
	payload, err := json.Marshal(UpdateRegionsPayload{
		WindowID: windowID,
		Entries:  entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal update payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{
		Command: CommandUpdateRegions,
		Payload: payload,
	})
	if err != nil {
		return nil, err
	}

	var data UpdateRegionsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse update data: %w", err)
	}
	return &data, nil
}

// GetRegion reads the mask currently installed on a window.
func (c *Client) GetRegion(windowID uint32) (*RegionData, error) {
	payload, err := json.Marshal(GetRegionPayload{WindowID: windowID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal region payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{
		Command: CommandGetRegion,
		Payload: payload,
	})
	if err != nil {
		return nil, err
	}

	var data RegionData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse region data: %w", err)
	}
	return &data, nil
}
