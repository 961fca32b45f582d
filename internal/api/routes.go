package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/asterisk/internal/core"
)

// Route binds one method and path to a handler.
type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

// Routes returns the bridge's route table.
func Routes(state *core.State, logger *zap.Logger) []Route {
	vault := NewVaultHandler(state.Vault, logger.Named("vault_handler"))
	snapshots := NewSnapshotHandler(state.Snapshots, logger.Named("snapshot_handler"))
	commands := NewFillCommandHandler(state.Commands, logger.Named("fill_command_handler"))

	return []Route{
		{http.MethodGet, "/health", health},

		{http.MethodGet, "/v1/form-snapshots", snapshots.GetLatest},
		{http.MethodPost, "/v1/form-snapshots", snapshots.Publish},

		{http.MethodGet, "/v1/vault", vault.ListItems},
		{http.MethodPost, "/v1/vault", vault.SetItem},
		{http.MethodDelete, "/v1/vault", vault.DeleteItem},

		{http.MethodPost, "/v1/fill-commands", commands.Publish},
		{http.MethodGet, "/v1/fill-commands", commands.Poll},
		{http.MethodDelete, "/v1/fill-commands", commands.Acknowledge},
	}
}

// SetupRoutes registers the route table on the router. Unmatched requests get
// a JSON 404.
func SetupRoutes(router *gin.Engine, state *core.State, logger *zap.Logger) {
	for _, r := range Routes(state, logger) {
		router.Handle(r.Method, r.Path, r.Handler)
	}
	router.NoRoute(notFound)
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
}

func health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
