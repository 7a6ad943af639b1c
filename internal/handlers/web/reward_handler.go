// file: internal/handlers/web/reward_handler.go
package web

import (
	"net/http"

	"badgehub/internal/contextutils"
	"badgehub/internal/response"
	"badgehub/internal/services"

	"go.uber.org/zap"
)

// RewardHandler exposes the token economy endpoints
type RewardHandler struct {
	rewards services.RewardService
	builder *response.Builder
	logger  *zap.Logger
}

// NewRewardHandler creates the reward endpoint handler
func NewRewardHandler(rewards services.RewardService, builder *response.Builder, logger *zap.Logger) *RewardHandler {
	return &RewardHandler{rewards: rewards, builder: builder, logger: logger}
}

// Spin draws the reward wheel for one token
// @Summary      Spin the wheel
// @Tags         rewards
// @Produce      json
// @Success      200 {object} response.APIResponse
// @Router       /rewards/spin [post]
func (h *RewardHandler) Spin(w http.ResponseWriter, r *http.Request) {
	spin, err := h.rewards.SpinWheel(r.Context(), contextutils.GetUserID(r.Context()))
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}
	h.builder.WriteSuccess(w, r, spin)
}

// StartImprovement buys a re-answer right for an unlocked badge
// @Summary      Start an improvement
// @Tags         rewards
// @Produce      json
// @Param        id path int true "Badge ID"
// @Success      200 {object} response.APIResponse
// @Router       /badges/{id}/improve [post]
func (h *RewardHandler) StartImprovement(w http.ResponseWriter, r *http.Request) {
	badgeID, err := pathID(r, "id")
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}

	improvement, err := h.rewards.StartImprovement(r.Context(), contextutils.GetUserID(r.Context()), badgeID)
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}
	h.builder.WriteSuccess(w, r, improvement)
}

// CancelImprovement refunds the pending re-answer right
// @Summary      Cancel the improvement
// @Tags         rewards
// @Produce      json
// @Param        id path int true "Badge ID"
// @Success      200 {object} response.APIResponse
// @Router       /badges/{id}/improve [delete]
func (h *RewardHandler) CancelImprovement(w http.ResponseWriter, r *http.Request) {
	improvement, err := h.rewards.CancelImprovement(r.Context(), contextutils.GetUserID(r.Context()))
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}
	h.builder.WriteSuccess(w, r, improvement)
}

// ClaimDailyBonus grants the daily check-in token
// @Summary      Claim the daily bonus
// @Tags         rewards
// @Produce      json
// @Success      200 {object} response.APIResponse
// @Router       /rewards/daily [post]
func (h *RewardHandler) ClaimDailyBonus(w http.ResponseWriter, r *http.Request) {
	claim, err := h.rewards.ClaimDailyBonus(r.Context(), contextutils.GetUserID(r.Context()))
	if err != nil {
		h.builder.WriteError(w, r, err)
		return
	}
	h.builder.WriteSuccess(w, r, claim)
}
