// Package di assembles the service from configuration.
package di

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/analysis"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/chat"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/config"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/observability"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/store"
)

// Container holds the wired application.
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Metrics     *observability.Collector
	Tracing     *observability.TracerProvider
	Store       store.NodeStore
	Engine      *analysis.Engine
	Structural  *analysis.StructuralScorer
	Interpreter *chat.Interpreter
	Router      http.Handler
	MCP         *server.MCPServer
}
