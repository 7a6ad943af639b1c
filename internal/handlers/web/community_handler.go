// file: internal/handlers/web/community_handler.go
package web

import (
	"net/http"
	"strconv"

	"badgehub/internal/response"
	"badgehub/internal/services"

	"go.uber.org/zap"
)

const defaultFeedLimit = 30

// CommunityHandler exposes the shared unlock feed
type CommunityHandler struct {
	badges  services.BadgeService
	builder *response.Builder
	logger  *zap.Logger
}

// NewCommunityHandler creates the community feed handler
func NewCommunityHandler(badges services.BadgeService, builder *response.Builder, logger *zap.Logger) *CommunityHandler {
	return &CommunityHandler{badges: badges, builder: builder, logger: logger}
}

// Feed returns the most recent unlocks across all users
// @Summary      Community feed
// @Tags         community
// @Produce      json
// @Param        limit query int false "Entry count"
// @Success      200 {object} response.APIResponse
// @Router       /community [get]
func (h *CommunityHandler) Feed(w http.ResponseWriter, r *http.Request) {
	limit := defaultFeedLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	entries, err := h.badges.RecentUnlocks(r.Context(), limit)
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}
	h.builder.WriteSuccess(w, r, entries)
}
