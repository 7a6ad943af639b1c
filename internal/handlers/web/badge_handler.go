// file: internal/handlers/web/badge_handler.go
package web

import (
	"net/http"

	"badgehub/internal/contextutils"
	"badgehub/internal/response"
	"badgehub/internal/services"

	"go.uber.org/zap"
)

// BadgeHandler exposes the badge catalog and the answer flow
type BadgeHandler struct {
	badges  services.BadgeService
	builder *response.Builder
	logger  *zap.Logger
}

// NewBadgeHandler creates the badge endpoint handler
func NewBadgeHandler(badges services.BadgeService, builder *response.Builder, logger *zap.Logger) *BadgeHandler {
	return &BadgeHandler{badges: badges, builder: builder, logger: logger}
}

// optionalUserID reads the caller's ID when a session was attached
func optionalUserID(r *http.Request) *int64 {
	if id := contextutils.GetUserID(r.Context()); id != 0 {
		return &id
	}
	return nil
}

// List returns the catalog as the caller sees it
// @Summary      List badges
// @Tags         badges
// @Produce      json
// @Param        theme  query string false "Theme filter"
// @Param        limit  query int    false "Page size"
// @Param        offset query int    false "Page offset"
// @Success      200 {object} response.APIResponse
// @Router       /badges [get]
func (h *BadgeHandler) List(w http.ResponseWriter, r *http.Request) {
	params := parsePagination(r)
	theme := r.URL.Query().Get("theme")

	page, err := h.badges.ListBadges(r.Context(), optionalUserID(r), theme, params)
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}
	h.builder.WriteSuccess(w, r, page)
}

// Get returns a single catalog entry
// @Summary      Get a badge
// @Tags         badges
// @Produce      json
// @Param        id path int true "Badge ID"
// @Success      200 {object} response.APIResponse
// @Router       /badges/{id} [get]
func (h *BadgeHandler) Get(w http.ResponseWriter, r *http.Request) {
	badgeID, err := pathID(r, "id")
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}

	badge, err := h.badges.GetBadge(r.Context(), badgeID, optionalUserID(r))
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}
	h.builder.WriteSuccess(w, r, badge)
}

// Themes returns the distinct catalog themes
// @Summary      List themes
// @Tags         badges
// @Produce      json
// @Success      200 {object} response.APIResponse
// @Router       /badges/themes [get]
func (h *BadgeHandler) Themes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.badges.ListThemes(r.Context())
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}
	h.builder.WriteSuccess(w, r, themes)
}

// Submit evaluates an answer attempt against a badge
// @Summary      Answer a badge
// @Tags         badges
// @Accept       json
// @Produce      json
// @Param        id      path int                            true "Badge ID"
// @Param        request body services.SubmitAnswerRequest true "Answer"
// @Success      200 {object} response.APIResponse
// @Router       /badges/{id}/answer [post]
func (h *BadgeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	badgeID, err := pathID(r, "id")
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}

	var req services.SubmitAnswerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.builder.WriteError(w, r, err)
		return
	}
	req.UserID = contextutils.GetUserID(r.Context())
	req.BadgeID = badgeID

	result, err := h.badges.SubmitAnswer(r.Context(), &req)
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}
	h.builder.WriteSuccess(w, r, result)
}

// Recompute re-derives the caller's totals and ghost badges
// @Summary      Recompute derived state
// @Tags         badges
// @Produce      json
// @Success      200 {object} response.APIResponse
// @Router       /profile/recompute [post]
func (h *BadgeHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	changes, err := h.badges.RecomputeUser(r.Context(), contextutils.GetUserID(r.Context()))
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}
	h.builder.WriteSuccess(w, r, map[string]interface{}{"ghost_changes": changes})
}

