// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package socketapi

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/depot-foundation/depot/lib/codec"
)

// dialTimeout covers only the connect phase; the daemon's handler
// execution is covered by responseReadTimeout.
const dialTimeout = 5 * time.Second

// responseReadTimeout is how long the client waits for a response
// after writing its request. Sized to the server's read timeout plus
// write timeout plus handler headroom.
const responseReadTimeout = 45 * time.Second

// maxResponseSize mirrors the server's request cap.
const maxResponseSize = 64 * 1024 * 1024

// CallError is returned by Call when the daemon answered with
// ok=false. It carries the daemon's message verbatim.
type CallError struct {
	Action  string
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("depot daemon error on %q: %s", e.Action, e.Message)
}

// Client sends requests to a depot daemon socket. Each Call opens a
// fresh connection, matching the server's one-request-per-connection
// model. The zero Client is not usable; construct with NewClient.
type Client struct {
	socketPath string
}

// NewClient creates a client for the daemon socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Call sends one request and decodes the response.
//
// fields holds the handler-specific parameters; the client injects
// "action" itself, so the caller must not set that key. Pass nil for
// actions without parameters. On ok=true, response data (if any) is
// decoded into result when result is non-nil. On ok=false the return
// is a *CallError; transport and codec failures come back as plain
// errors.
func (c *Client) Call(ctx context.Context, action string, fields map[string]any, result any) error {
	request := make(map[string]any, len(fields)+1)
	for key, value := range fields {
		request[key] = value
	}
	request["action"] = action

	response, err := c.send(ctx, request)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, c.socketPath, err)
	}

	if !response.OK {
		return &CallError{
			Action:  action,
			Message: response.Error,
		}
	}

	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}

	return nil
}

// send connects, writes the request, and reads the response envelope.
func (c *Client) send(ctx context.Context, request any) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	// Half-close the write side so the server's reader sees a clean
	// EOF. Not required (CBOR self-delimits) but tidy.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &response, nil
}
