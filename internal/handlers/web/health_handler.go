// file: internal/handlers/web/health_handler.go
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"badgehub/internal/services"
	"badgehub/internal/utils/appinfo"

	"go.uber.org/zap"
)

// HealthHandler reports process and dependency health
type HealthHandler struct {
	services  *services.ServiceCollection
	logger    *zap.Logger
	startTime time.Time
}

// NewHealthHandler creates the health endpoint handler
func NewHealthHandler(sc *services.ServiceCollection, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{services: sc, logger: logger, startTime: time.Now()}
}

// Health checks the infrastructure dependencies
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	components := h.services.HealthCheck(ctx)

	healthy := true
	for _, state := range components {
		if state != "ok" {
			healthy = false
			break
		}
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	payload := map[string]interface{}{
		"status":     status,
		"version":    appinfo.GetVersion(),
		"uptime":     time.Since(h.startTime).String(),
		"timestamp":  time.Now().UTC(),
		"components": components,
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode health response", zap.Error(err))
	}
}

// Live is a liveness probe that only proves the process is serving
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}
