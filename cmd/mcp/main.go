package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/config"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/di"
)

func main() {
	configPath := flag.String("config", os.Getenv("SOT_CONFIG"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, cleanup, err := di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()

	if err := server.ServeStdio(container.MCP); err != nil {
		log.Fatalf("MCP server stopped: %v", err)
	}
}
