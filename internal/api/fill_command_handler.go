package api

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/asterisk/internal/models"
	"github.com/example/asterisk/pkg/messagequeue"
)

// FillCommandHandler handles publishing, polling and acknowledging fill commands.
type FillCommandHandler struct {
	queue  messagequeue.FillCommandQueue
	logger *zap.Logger
}

// NewFillCommandHandler creates a new FillCommandHandler.
func NewFillCommandHandler(queue messagequeue.FillCommandQueue, logger *zap.Logger) *FillCommandHandler {
	return &FillCommandHandler{queue: queue, logger: logger}
}

// Publish handles POST /v1/fill-commands. A command with an existing id replaces it.
func (h *FillCommandHandler) Publish(c *gin.Context) {
	var cmd models.FillCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		h.logger.Warn("Invalid fill command", zap.Error(err))
		badRequest(c, err)
		return
	}

	if err := h.queue.Publish(cmd); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, statusOK)
}

// Poll handles GET /v1/fill-commands?domain=D. Without the parameter every live
// command is returned; a present but empty domain matches only commands without one.
func (h *FillCommandHandler) Poll(c *gin.Context) {
	domain, filtered := c.GetQuery("domain")
	commands := h.queue.Poll(domain)
	if filtered && domain == "" {
		commands = slices.DeleteFunc(commands, func(cmd models.FillCommand) bool {
			return cmd.TargetDomain != ""
		})
	}
	c.JSON(http.StatusOK, commands)
}

// Acknowledge handles DELETE /v1/fill-commands?id=I. Unknown ids are accepted;
// without the id parameter the route does not match.
func (h *FillCommandHandler) Acknowledge(c *gin.Context) {
	id, ok := c.GetQuery("id")
	if !ok {
		notFound(c)
		return
	}

	h.queue.Acknowledge(id)
	c.JSON(http.StatusOK, statusOK)
}
