// Package mcp exposes the moderator console as MCP tools: creating
// sessions, deciding ability requests, and revoking used abilities.
package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/peterkuimelis/draftsync/internal/draft"
	"github.com/peterkuimelis/draftsync/internal/relay"
)

// relayURL is the relay websocket endpoint, set by main.
var relayURL string

// SetRelayURL sets the relay websocket endpoint, e.g.
// "ws://localhost:8080/ws".
func SetRelayURL(url string) {
	relayURL = url
}

var (
	connMu sync.Mutex
	conn   *relay.Client
)

// storeConn dials the relay on first use and reuses the connection.
func storeConn(ctx context.Context) (draft.SessionStore, error) {
	connMu.Lock()
	defer connMu.Unlock()
	if conn != nil {
		return conn, nil
	}
	if relayURL == "" {
		return nil, fmt.Errorf("relay URL not configured")
	}
	c, err := relay.Dial(ctx, relayURL)
	if err != nil {
		return nil, err
	}
	conn = c
	return conn, nil
}
