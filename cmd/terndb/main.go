package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sanonone/terndb/internal/mcp"
	"github.com/sanonone/terndb/internal/server"
	"github.com/sanonone/terndb/pkg/engine"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	httpAddr := flag.String("http-addr", "", "Address for the REST API (e.g. :8311)")
	tcpAddr := flag.String("tcp-addr", "", "Address for the line protocol (empty to disable)")
	dataDir := flag.String("data-dir", "", "Directory for the AOF and snapshot files")
	authToken := flag.String("auth-token", "", "Bearer token required on the REST API (empty to disable auth)")
	mcpMode := flag.Bool("mcp", false, "Serve the Model Context Protocol over stdio instead of the network listeners")
	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	// Command line flags win over the config file.
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *tcpAddr != "" {
		cfg.TCPAddr = *tcpAddr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *authToken != "" {
		cfg.AuthToken = *authToken
	}

	if *mcpMode {
		// Logs must stay off stdout: stdio carries the protocol.
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	eng, err := engine.Open(engine.DefaultOptions(cfg.DataDir))
	if err != nil {
		slog.Error("failed to open database", "data_dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	defer eng.Close()

	if *mcpMode {
		runMCP(eng)
		return
	}

	srv := server.NewServer(eng, cfg)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(); err != nil {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	<-shutdownChan
	srv.Shutdown()
}

func runMCP(eng *engine.Engine) {
	s := mcp.NewMCPServer(eng)
	if err := s.Run(context.Background(), &sdk.StdioTransport{}); err != nil {
		slog.Error("MCP server stopped", "error", err)
		os.Exit(1)
	}
}
