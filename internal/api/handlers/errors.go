// server/internal/api/handlers/errors.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"waste-collection-api-server/internal/contamination"
	"waste-collection-api-server/internal/database"
	"waste-collection-api-server/internal/pickup"
)

// respondError maps a domain error onto a status code and JSON body.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var verr *pickup.ValidationError
	var terr *pickup.TransitionError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, pickup.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, pickup.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, pickup.ErrNotFound), errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Pickup not found"})
	case errors.As(err, &terr):
		c.JSON(http.StatusConflict, gin.H{"error": terr.Error(), "from": terr.From, "to": terr.To})
	case errors.Is(err, database.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, contamination.ErrUpstreamUnavailable):
		logger.Warn("scoring provider unavailable", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Contamination scoring is temporarily unavailable"})
	case errors.Is(err, contamination.ErrScoringFailure):
		logger.Warn("scoring failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "The image could not be scored"})
	default:
		logger.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
