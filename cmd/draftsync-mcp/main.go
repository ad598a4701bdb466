package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	draftsyncmcp "github.com/peterkuimelis/draftsync/internal/mcp"
)

func main() {
	relayURL := flag.String("relay", "ws://localhost:8080/ws", "relay websocket URL")
	flag.Parse()

	draftsyncmcp.SetRelayURL(*relayURL)

	s := server.NewMCPServer("draftsync", "1.0.0")
	draftsyncmcp.RegisterTools(s)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
