package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/asterisk/internal/core"
	"github.com/example/asterisk/internal/db"
	"github.com/example/asterisk/internal/models"
)

// VaultHandler handles the extension's vault endpoints.
type VaultHandler struct {
	vaultService core.VaultService
	logger       *zap.Logger
}

// NewVaultHandler creates a new VaultHandler.
func NewVaultHandler(vs core.VaultService, logger *zap.Logger) *VaultHandler {
	return &VaultHandler{vaultService: vs, logger: logger}
}

// mapVaultErrorToStatus maps errors from core.VaultService to an HTTP status and ErrorResponse.
func mapVaultErrorToStatus(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, db.ErrInvalidKey):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: db.ErrInvalidKey.Error(), Details: err.Error()})
	case errors.Is(err, db.ErrSerialization):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request payload", Details: err.Error()})
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: db.ErrNotFound.Error(), Details: err.Error()})
	default:
		logger.Error("Vault operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected internal server error occurred."})
	}
}

// ListItems handles GET /v1/vault
func (h *VaultHandler) ListItems(c *gin.Context) {
	items, err := h.vaultService.List()
	if err != nil {
		mapVaultErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// SetItem handles POST /v1/vault. The item is stored under its own key.
func (h *VaultHandler) SetItem(c *gin.Context) {
	var item models.VaultItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.vaultService.Set(item.Key, item); err != nil {
		mapVaultErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, statusOK)
}

// DeleteItem handles DELETE /v1/vault?key=K. Deleting an absent key succeeds;
// without the key parameter the route does not match.
func (h *VaultHandler) DeleteItem(c *gin.Context) {
	key, ok := c.GetQuery("key")
	if !ok {
		notFound(c)
		return
	}

	if err := h.vaultService.Delete(key); err != nil && !errors.Is(err, db.ErrNotFound) {
		mapVaultErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, statusOK)
}

// badRequest answers 400 with the parser's message in the details.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request payload", Details: err.Error()})
}
