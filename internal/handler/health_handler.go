package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// AvailabilityReporter reports whether the report store is connected
type AvailabilityReporter interface {
	Available() bool
}

// HealthHandler serves the liveness probe
type HealthHandler struct {
	store AvailabilityReporter
}

// NewHealthHandler creates a new HealthHandler. store may be nil.
func NewHealthHandler(store AvailabilityReporter) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health godoc
// @Summary Liveness
// @Description Siempre 200; store indica si la base de datos está disponible
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	store := "unknown"
	if h.store != nil {
		store = "down"
		if h.store.Available() {
			store = "up"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "etica-backend",
		"store":   store,
		"time":    time.Now().Unix(),
	})
}
